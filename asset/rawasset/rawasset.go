// Package rawasset provides a minimal importer/loader pair for
// opaque binary files: source bytes in, one untransformed artifact
// out. It exists so a generic CLI can exercise the asset pipeline
// end to end without any domain-specific importer (texture, mesh,
// ...) registered, the same role a "pass-through" codec plays in
// the asset class registry design (spec.md §9).
package rawasset

import (
	"os"

	"github.com/forge-engine/forge/asset"
	"github.com/forge-engine/forge/serial"
)

// Class is the registered tag for raw blob assets and artifacts.
const Class = "raw"

// Blob is a StreamCodec wrapping an opaque byte payload.
type Blob struct {
	Data []byte
}

func (b *Blob) WriteStream(s serial.Stream) error {
	return serial.WriteBytes(s, b.Data)
}

func (b *Blob) ReadStream(s serial.Stream) error {
	data, err := serial.ReadBytes(s)
	if err != nil {
		return err
	}
	b.Data = data
	return nil
}

// Importer reads a source file verbatim into a single Blob
// artifact, recording no dependencies and no children.
type Importer struct{}

func (Importer) Class() string { return Class }

func (Importer) Import(_ *serial.Context, env asset.ImportEnv, settings asset.ImportSettings) (asset.ImportResult, error) {
	path, _ := settings["sourcePath"].(string)
	data, err := os.ReadFile(path)
	if err != nil {
		return asset.ImportResult{}, err
	}

	return asset.ImportResult{
		Main: asset.ImportAssetInfo{
			Path:   path,
			Cls:    Class,
			Loader: Class,
			Artifacts: []asset.ImportArtifact{
				{Object: &Blob{Data: data}, Name: "blob", Cls: Class},
			},
		},
	}, nil
}

// Loader reads back a single Blob artifact, returning it as the
// asset's in-memory representation.
type Loader struct{}

func (Loader) Class() string { return Class }

func (Loader) Load(_ *serial.Context, artifacts []asset.AssetArtifact, cache *asset.ArtifactCache) (any, error) {
	for _, a := range artifacts {
		if a.Cls != Class {
			continue
		}
		info, err := cache.GetInfo(a.UUID)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, info.Size)
		codec, err := cache.Read(a.UUID, buf, &Blob{}).Wait()
		if err != nil {
			return nil, err
		}
		return codec, nil
	}
	return nil, asset.NewStatusError(asset.NoArtifact, "raw: no raw artifact")
}

func init() {
	asset.RegisterClass[*Blob](Class)
	asset.RegisterImporter(Importer{})
	asset.RegisterLoader(Loader{})
}
