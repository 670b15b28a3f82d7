package asset

import (
	"time"

	"github.com/forge-engine/forge/id"
	"github.com/forge-engine/forge/serial"
)

func timeFromUnixNano(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

// writeAssetData writes one database row in the binary format
// SaveDB/LoadDB share. Field order is fixed and must match
// readAssetData exactly; there is no self-describing tag, matching
// the rest of the stream format's out-of-band field-order contract.
func writeAssetData(s serial.Stream, a *AssetData) error {
	if err := serial.WriteNumeric(s, uint64(a.UUID)); err != nil {
		return err
	}
	if err := serial.WriteString(s, a.Path); err != nil {
		return err
	}
	if err := serial.WriteString(s, a.Cls); err != nil {
		return err
	}
	if err := serial.WriteString(s, a.Loader); err != nil {
		return err
	}
	if err := serial.WriteString(s, a.Importer); err != nil {
		return err
	}
	if err := serial.WriteNumeric(s, uint32(a.Flags)); err != nil {
		return err
	}
	if err := serial.WriteNumeric(s, uint64(a.Parent)); err != nil {
		return err
	}
	if err := writeUUIDSlice(s, a.Children); err != nil {
		return err
	}
	if err := writeUUIDSlice(s, a.Deps); err != nil {
		return err
	}
	if err := serial.WriteNumeric(s, uint64(len(a.Sources))); err != nil {
		return err
	}
	for _, src := range a.Sources {
		if err := serial.WriteString(s, src.Path); err != nil {
			return err
		}
		if err := serial.WriteBytes(s, src.Hash[:]); err != nil {
			return err
		}
		if err := serial.WriteNumeric(s, src.Timestamp.UnixNano()); err != nil {
			return err
		}
	}
	if err := serial.WriteNumeric(s, uint64(len(a.Artifacts))); err != nil {
		return err
	}
	for _, art := range a.Artifacts {
		if err := serial.WriteNumeric(s, uint64(art.UUID)); err != nil {
			return err
		}
		if err := serial.WriteString(s, art.Cls); err != nil {
			return err
		}
		if err := serial.WriteNumeric(s, art.Size); err != nil {
			return err
		}
		if err := serial.WriteBytes(s, art.Hash[:]); err != nil {
			return err
		}
	}
	if err := serial.WriteNumeric(s, a.Timestamp.UnixNano()); err != nil {
		return err
	}
	return nil
}

// readAssetData reads one row written by writeAssetData.
func readAssetData(s serial.Stream) (*AssetData, error) {
	a := &AssetData{ImportEnv: newImportEnv()}

	uv, err := serial.ReadNumeric[uint64](s)
	if err != nil {
		return nil, err
	}
	a.UUID = id.UUID(uv)

	if a.Path, err = serial.ReadString(s); err != nil {
		return nil, err
	}
	if a.Cls, err = serial.ReadString(s); err != nil {
		return nil, err
	}
	if a.Loader, err = serial.ReadString(s); err != nil {
		return nil, err
	}
	if a.Importer, err = serial.ReadString(s); err != nil {
		return nil, err
	}
	flags, err := serial.ReadNumeric[uint32](s)
	if err != nil {
		return nil, err
	}
	a.Flags = Flags(flags)

	parent, err := serial.ReadNumeric[uint64](s)
	if err != nil {
		return nil, err
	}
	a.Parent = id.UUID(parent)

	if a.Children, err = readUUIDSlice(s); err != nil {
		return nil, err
	}
	if a.Deps, err = readUUIDSlice(s); err != nil {
		return nil, err
	}

	nSources, err := serial.ReadNumeric[uint64](s)
	if err != nil {
		return nil, err
	}
	a.Sources = make([]AssetSource, nSources)
	for i := uint64(0); i < nSources; i++ {
		var src AssetSource
		if src.Path, err = serial.ReadString(s); err != nil {
			return nil, err
		}
		h, err := serial.ReadBytes(s)
		if err != nil {
			return nil, err
		}
		copy(src.Hash[:], h)
		ns, err := serial.ReadNumeric[int64](s)
		if err != nil {
			return nil, err
		}
		src.Timestamp = timeFromUnixNano(ns)
		a.Sources[i] = src
	}

	nArtifacts, err := serial.ReadNumeric[uint64](s)
	if err != nil {
		return nil, err
	}
	a.Artifacts = make([]AssetArtifact, nArtifacts)
	for i := uint64(0); i < nArtifacts; i++ {
		var art AssetArtifact
		av, err := serial.ReadNumeric[uint64](s)
		if err != nil {
			return nil, err
		}
		art.UUID = id.UUID(av)
		if art.Cls, err = serial.ReadString(s); err != nil {
			return nil, err
		}
		if art.Size, err = serial.ReadNumeric[int64](s); err != nil {
			return nil, err
		}
		h, err := serial.ReadBytes(s)
		if err != nil {
			return nil, err
		}
		copy(art.Hash[:], h)
		a.Artifacts[i] = art
	}

	ts, err := serial.ReadNumeric[int64](s)
	if err != nil {
		return nil, err
	}
	a.Timestamp = timeFromUnixNano(ts)

	return a, nil
}

func writeUUIDSlice(s serial.Stream, list []id.UUID) error {
	if err := serial.WriteNumeric(s, uint64(len(list))); err != nil {
		return err
	}
	for _, u := range list {
		if err := serial.WriteNumeric(s, uint64(u)); err != nil {
			return err
		}
	}
	return nil
}

func readUUIDSlice(s serial.Stream) ([]id.UUID, error) {
	n, err := serial.ReadNumeric[uint64](s)
	if err != nil {
		return nil, err
	}
	out := make([]id.UUID, n)
	for i := uint64(0); i < n; i++ {
		v, err := serial.ReadNumeric[uint64](s)
		if err != nil {
			return nil, err
		}
		out[i] = id.UUID(v)
	}
	return out, nil
}
