package asset

import (
	"time"

	"github.com/forge-engine/forge/id"
	"github.com/forge-engine/forge/serial"
)

// Flags is a bitmask of per-asset attributes.
type Flags uint32

const (
	FlagScripted Flags = 1 << iota
	FlagTransient
)

// AssetId wraps a UUID and carries the path-hint (de)serialization
// behavior the data model describes: when reading, a bare path is
// resolved through the context's Resolver if one is registered;
// when writing, the current path (if resolvable) is emitted as a
// non-authoritative hint alongside the uuid.
type AssetId struct {
	UUID id.UUID
}

// NewAssetId wraps u.
func NewAssetId(u id.UUID) AssetId { return AssetId{UUID: u} }

// IsNil reports whether the id carries no uuid.
func (a AssetId) IsNil() bool { return a.UUID.IsNil() }

type assetIdDoc struct {
	UUID string `yaml:"uuid,omitempty"`
	Path string `yaml:"path,omitempty"`
}

// WriteTree writes the id as a tree node, annotating it with its
// resolved path (if a Resolver capability is present in ctx) as a
// human-readable hint.
func (a AssetId) WriteTree(ctx *serial.Context, tree serial.Tree) error {
	doc := assetIdDoc{UUID: a.UUID.String()}
	if !a.IsNil() {
		if r, ok := serial.ContextGet[*Resolver](ctx); ok {
			if path, ok := r.ResolveUUID(a.UUID); ok {
				doc.Path = path
			}
		}
	}
	return tree.WriteValue(doc)
}

// ReadTree reads an id from a tree node. If only a path is
// present and a Resolver capability is available in ctx, the
// path is resolved to a uuid; otherwise the id is left nil.
func (a *AssetId) ReadTree(ctx *serial.Context, tree serial.Tree) error {
	var doc assetIdDoc
	if err := tree.ReadValue(&doc); err != nil {
		return err
	}
	if doc.UUID != "" {
		u, err := id.Parse(doc.UUID)
		if err != nil {
			return NewStatusError(FailedParse, err.Error())
		}
		a.UUID = u
		return nil
	}
	if doc.Path != "" {
		if r, ok := serial.ContextGet[*Resolver](ctx); ok {
			if u, ok := r.ResolvePath(doc.Path); ok {
				a.UUID = u
				return nil
			}
		}
	}
	a.UUID = id.Nil
	return nil
}

// WriteStream writes the id's raw uuid with no path hint - the
// binary encoding has no room for diagnostic text.
func (a AssetId) WriteStream(s serial.Stream) error {
	return serial.WriteNumeric(s, uint64(a.UUID))
}

// ReadStream reads a raw uuid written by WriteStream.
func (a *AssetId) ReadStream(s serial.Stream) error {
	v, err := serial.ReadNumeric[uint64](s)
	if err != nil {
		return err
	}
	a.UUID = id.UUID(v)
	return nil
}

// AssetArtifact describes one cached derived payload.
type AssetArtifact struct {
	UUID id.UUID
	Cls  string
	Size int64
	Hash [32]byte
}

// AssetSource records one source file that contributed to an
// import.
type AssetSource struct {
	Path      string
	Hash      [32]byte
	Timestamp time.Time
}

// AssetData is the per-asset database row.
type AssetData struct {
	UUID     id.UUID
	Path     string
	Cls      string
	Loader   string
	Importer string

	Flags Flags

	Parent   id.UUID // Nil when root
	Children []id.UUID

	Deps []id.UUID

	Sources   []AssetSource
	Artifacts []AssetArtifact

	ImportSettings map[string]any
	ImportEnv      ImportEnv

	Timestamp time.Time
}

// ImportEnv carries side-channel state consumed by importers.
type ImportEnv struct {
	FileToID map[string]id.UUID
}

func newImportEnv() ImportEnv {
	return ImportEnv{FileToID: make(map[string]id.UUID)}
}

// HasFlag reports whether every bit in f is set.
func (a *AssetData) HasFlag(f Flags) bool { return a.Flags&f == f }
