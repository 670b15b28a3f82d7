package asset

import (
	"github.com/forge-engine/forge/id"
	"github.com/forge-engine/forge/serial"
)

// ImportArtifact is one import product: an in-memory object ready
// to be stored through the artifact cache, paired with a
// human-readable name.
type ImportArtifact struct {
	Object StreamCodec
	Name   string
	Cls    string
}

// ImportAssetInfo describes one asset (main or child) produced by
// an import.
type ImportAssetInfo struct {
	UUID      id.UUID // pre-set for reimport; Nil lets ImportAsset generate one
	Path      string
	Flags     Flags
	Cls       string
	Loader    string
	Deps      []id.UUID
	Artifacts []ImportArtifact
}

// ImportResult is what an Importer produces: one main asset plus
// zero or more children, which DB.ImportAsset turns into AssetData
// rows.
type ImportResult struct {
	Main     ImportAssetInfo
	Children []ImportAssetInfo
}

// ImportSettings is the opaque, polymorphic settings bag an
// Importer receives alongside the files it reads.
type ImportSettings map[string]any

// Importer transforms source files plus settings into an
// ImportResult. DB.ImportAsset consumes an already-produced
// ImportResult; invoking the right Importer for a given source
// path is the caller's responsibility, not the database's.
type Importer interface {
	Class() string
	Import(ctx *serial.Context, env ImportEnv, settings ImportSettings) (ImportResult, error)
}

// Loader instantiates an in-memory asset from its artifacts.
type Loader interface {
	Class() string
	Load(ctx *serial.Context, artifacts []AssetArtifact, cache *ArtifactCache) (any, error)
}

var (
	importers = make(map[string]Importer)
	loaders   = make(map[string]Loader)
)

// RegisterImporter makes imp available by its Class() tag.
func RegisterImporter(imp Importer) { importers[imp.Class()] = imp }

// RegisterLoader makes l available by its Class() tag.
func RegisterLoader(l Loader) { loaders[l.Class()] = l }

// LookupImporter returns the Importer registered for cls.
func LookupImporter(cls string) (Importer, bool) {
	imp, ok := importers[cls]
	return imp, ok
}

// LookupLoader returns the Loader registered for cls.
func LookupLoader(cls string) (Loader, bool) {
	l, ok := loaders[cls]
	return l, ok
}
