package asset

import (
	"sync"
	"time"

	"github.com/forge-engine/forge/asset/vfs"
	"github.com/forge-engine/forge/id"
	"github.com/forge-engine/forge/internal/logx"
	"github.com/forge-engine/forge/serial"
)

// DB is the persistent metadata store for source assets: their
// imports, dependencies, artifact sets, and parent/child
// relations. One database-wide mutex protects everything it
// owns; public entry points take the lock once and call private
// "locked" helpers rather than re-entering the lock, since Go's
// sync.Mutex is not re-entrant.
type DB struct {
	mu       sync.Mutex
	rows     map[id.UUID]*AssetData
	resolver *Resolver
	cache    *ArtifactCache
	fs       *vfs.FS
}

// NewDB returns an empty database backed by fs, using resolver
// for path<->uuid lookups and cache for artifact storage.
func NewDB(fs *vfs.FS, resolver *Resolver, cache *ArtifactCache) *DB {
	return &DB{
		rows:     make(map[id.UUID]*AssetData),
		resolver: resolver,
		cache:    cache,
		fs:       fs,
	}
}

// HasAsset reports whether u names a row.
func (db *DB) HasAsset(u id.UUID) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, ok := db.rows[u]
	return ok
}

// FindAsset returns a copy of the row for u.
func (db *DB) FindAsset(u id.UUID) (AssetData, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	row, ok := db.rows[u]
	if !ok {
		return AssetData{}, NewStatusError(NoAsset, u.String())
	}
	return *row, nil
}

// ResolveAssetParent returns the uuid of u's parent if u is a
// child, or u itself if it is a root asset.
func (db *DB) ResolveAssetParent(u id.UUID) (id.UUID, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	row, ok := db.rows[u]
	if !ok {
		return id.Nil, NewStatusError(NoAsset, u.String())
	}
	if row.Parent.IsNil() {
		return u, nil
	}
	return row.Parent, nil
}

// ImportAsset stores the artifacts and rows described by result.
// It fails with InvalidState if an asset with result.Main.UUID
// already exists.
func (db *DB) ImportAsset(flags Flags, importerTag string, result ImportResult) (id.UUID, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	mainUUID := result.Main.UUID
	if mainUUID.IsNil() {
		mainUUID = db.genUUIDLocked()
	}
	if _, exists := db.rows[mainUUID]; exists {
		return id.Nil, NewStatusError(InvalidState, "asset already exists: "+mainUUID.String())
	}

	childUUIDs := make([]id.UUID, len(result.Children))
	for i, child := range result.Children {
		cu := child.UUID
		if cu.IsNil() {
			cu = db.genUUIDLocked()
		}
		artifacts, err := db.storeArtifactsLocked(child.Artifacts)
		if err != nil {
			return id.Nil, err
		}
		row := &AssetData{
			UUID:      cu,
			Path:      child.Path,
			Cls:       child.Cls,
			Loader:    child.Loader,
			Importer:  importerTag,
			Flags:     child.Flags,
			Parent:    mainUUID,
			Deps:      child.Deps,
			Artifacts: artifacts,
			ImportEnv: newImportEnv(),
			Timestamp: time.Now(),
		}
		db.rows[cu] = row
		childUUIDs[i] = cu
		if child.Path != "" {
			db.resolver.Add(child.Path, cu)
		}
	}

	sources, err := db.hashSourcesLocked(result.Main.Deps, result.Main.Path)
	if err != nil {
		return id.Nil, err
	}
	artifacts, err := db.storeArtifactsLocked(result.Main.Artifacts)
	if err != nil {
		return id.Nil, err
	}
	mainRow := &AssetData{
		UUID:      mainUUID,
		Path:      result.Main.Path,
		Cls:       result.Main.Cls,
		Loader:    result.Main.Loader,
		Importer:  importerTag,
		Flags:     flags,
		Children:  childUUIDs,
		Deps:      result.Main.Deps,
		Sources:   sources,
		Artifacts: artifacts,
		ImportEnv: newImportEnv(),
		Timestamp: time.Now(),
	}
	db.rows[mainUUID] = mainRow
	if mainRow.Path != "" {
		db.resolver.Add(mainRow.Path, mainUUID)
	}

	logx.Default().Info("asset imported", "uuid", mainUUID.String(), "path", mainRow.Path, "children", len(childUUIDs))
	return mainUUID, nil
}

// hashSourcesLocked hashes mainPath and records its current mtime,
// returning a single AssetSource (or none if mainPath is empty).
// The deps argument is not read: dependency assets contribute no
// source entries.
func (db *DB) hashSourcesLocked(_ []id.UUID, mainPath string) ([]AssetSource, error) {
	if mainPath == "" {
		return nil, nil
	}
	hash, err := db.fs.HashFile(mainPath)
	if err != nil {
		return nil, NewStatusError(FailedRead, err.Error())
	}
	ts, err := db.fs.GetFileTimestamp(mainPath)
	if err != nil {
		return nil, NewStatusError(FailedRead, err.Error())
	}
	return []AssetSource{{Path: mainPath, Hash: hash, Timestamp: ts}}, nil
}

func (db *DB) storeArtifactsLocked(products []ImportArtifact) ([]AssetArtifact, error) {
	out := make([]AssetArtifact, 0, len(products))
	for _, p := range products {
		u, err := db.cache.Add(p.Object, p.Name, p.Cls)
		if err != nil {
			return nil, err
		}
		info, err := db.cache.GetInfo(u)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// ReimportAsset requires result.Main.UUID == assetID; removes the
// existing asset (cascading) then re-imports with the preserved
// flags and importer tag.
func (db *DB) ReimportAsset(assetID id.UUID, result ImportResult) (id.UUID, error) {
	if result.Main.UUID != assetID {
		return id.Nil, NewStatusError(InvalidData, "reimport result uuid does not match asset id")
	}

	db.mu.Lock()
	row, ok := db.rows[assetID]
	if !ok {
		db.mu.Unlock()
		return id.Nil, NewStatusError(NoAsset, assetID.String())
	}
	flags, importerTag := row.Flags, row.Importer
	db.mu.Unlock()

	if err := db.RemoveAsset(assetID); err != nil {
		return id.Nil, err
	}
	result.Main.UUID = assetID
	return db.ImportAsset(flags, importerTag, result)
}

// RemoveAsset recursively removes every descendant, deletes the
// asset's artifacts from the cache, withdraws its path from the
// resolver, and erases the row. If it has a parent, it is also
// removed from the parent's Children slice.
func (db *DB) RemoveAsset(u id.UUID) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.removeAssetLocked(u)
}

func (db *DB) removeAssetLocked(u id.UUID) error {
	row, ok := db.rows[u]
	if !ok {
		return NewStatusError(NoAsset, u.String())
	}

	for len(row.Children) > 0 {
		child := row.Children[0]
		if err := db.removeAssetLocked(child); err != nil {
			return err
		}
		row = db.rows[u]
	}

	for _, a := range row.Artifacts {
		if err := db.cache.Remove(a.UUID); err != nil && !Is(err, NoArtifact) {
			return err
		}
	}

	if row.Path != "" {
		db.resolver.Remove(row.Path)
	}

	if !row.Parent.IsNil() {
		if parent, ok := db.rows[row.Parent]; ok {
			parent.Children = removeUUID(parent.Children, u)
		}
	}

	delete(db.rows, u)
	logx.Default().Info("asset removed", "uuid", u.String())
	return nil
}

func removeUUID(list []id.UUID, u id.UUID) []id.UUID {
	for i, v := range list {
		if v == u {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// AddAsset installs a row directly from already-known metadata
// (used by manifest/meta loading, which has no Importer to run).
// If u is Nil a fresh UUID is generated.
func (db *DB) AddAsset(u id.UUID, data AssetData) (id.UUID, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if u.IsNil() {
		u = db.genUUIDLocked()
	}
	if _, exists := db.rows[u]; exists {
		return id.Nil, NewStatusError(InvalidState, "asset already exists: "+u.String())
	}
	data.UUID = u
	if data.ImportEnv.FileToID == nil {
		data.ImportEnv = newImportEnv()
	}
	data.ImportEnv.FileToID[data.Path] = u
	db.rows[u] = &data
	if data.Path != "" {
		db.resolver.Add(data.Path, u)
	}
	return u, nil
}

// CreateAssetFromMeta installs a row from a parsed meta document.
// If skipIfExists is true and data.UUID is already present, this
// is a no-op returning success.
func (db *DB) CreateAssetFromMeta(data AssetData, skipIfExists bool) (id.UUID, error) {
	if skipIfExists && !data.UUID.IsNil() && db.HasAsset(data.UUID) {
		return data.UUID, nil
	}
	return db.AddAsset(data.UUID, data)
}

// NeedAssetReimport reports whether u (or, if u names a child,
// its parent) needs reimporting: no recorded sources, no cached
// artifacts, any source's current mtime newer than recorded, or
// any child with an empty artifact list.
func (db *DB) NeedAssetReimport(u id.UUID) (bool, error) {
	resolved, err := db.ResolveAssetParent(u)
	if err != nil {
		return false, err
	}

	db.mu.Lock()
	row, ok := db.rows[resolved]
	if !ok {
		db.mu.Unlock()
		return false, NewStatusError(NoAsset, resolved.String())
	}
	sources := append([]AssetSource(nil), row.Sources...)
	artifactsEmpty := len(row.Artifacts) == 0
	children := append([]id.UUID(nil), row.Children...)
	db.mu.Unlock()

	if len(sources) == 0 || artifactsEmpty {
		return true, nil
	}
	for _, src := range sources {
		ts, err := db.fs.GetFileTimestamp(src.Path)
		if err != nil {
			return true, nil
		}
		if ts.After(src.Timestamp) {
			return true, nil
		}
	}
	for _, c := range children {
		db.mu.Lock()
		crow, ok := db.rows[c]
		empty := !ok || len(crow.Artifacts) == 0
		db.mu.Unlock()
		if empty {
			return true, nil
		}
	}
	return false, nil
}

// ReconcileDB removes every root asset whose meta file no longer
// exists, cascading. Returns (removed, preserved) counts.
func (db *DB) ReconcileDB(metaPathOf func(AssetData) string) (removed, preserved int, err error) {
	db.mu.Lock()
	var roots []id.UUID
	for u, row := range db.rows {
		if row.Parent.IsNil() {
			roots = append(roots, u)
		}
	}
	db.mu.Unlock()

	for _, u := range roots {
		db.mu.Lock()
		row, ok := db.rows[u]
		db.mu.Unlock()
		if !ok {
			continue
		}
		metaPath := metaPathOf(*row)
		if db.fs.Exists(metaPath) {
			preserved++
			continue
		}
		if err := db.RemoveAsset(u); err != nil {
			return removed, preserved, err
		}
		removed++
	}
	return removed, preserved, nil
}

func (db *DB) genUUIDLocked() id.UUID {
	for {
		u := id.Generate()
		if _, exists := db.rows[u]; !exists {
			return u
		}
	}
}

// SaveDB writes every row to path as a length-prefixed binary
// stream.
func (db *DB) SaveDB(path string) error {
	db.mu.Lock()
	rows := make([]*AssetData, 0, len(db.rows))
	for _, r := range db.rows {
		rows = append(rows, r)
	}
	db.mu.Unlock()

	var buf writeBuf
	s := serial.NewWriterStream(&buf)
	if err := serial.WriteNumeric(s, uint64(len(rows))); err != nil {
		return NewStatusError(FailedWrite, err.Error())
	}
	for _, r := range rows {
		if err := writeAssetData(s, r); err != nil {
			return NewStatusError(FailedWrite, err.Error())
		}
	}
	if err := db.fs.SaveFile(path, buf.Bytes()); err != nil {
		return NewStatusError(FailedWrite, err.Error())
	}
	return nil
}

// LoadDB replaces the database's rows with those decoded from
// path. If allowMissing is true and the file does not exist, this
// is a no-op success (the "first run" case).
func (db *DB) LoadDB(path string, allowMissing bool) error {
	if !db.fs.Exists(path) {
		if allowMissing {
			return nil
		}
		return NewStatusError(FailedFindFile, path)
	}
	f, err := db.fs.OpenFile(path)
	if err != nil {
		return NewStatusError(FailedOpenFile, err.Error())
	}
	defer f.Close()

	s := serial.NewReaderStream(f)
	count, err := serial.ReadNumeric[uint64](s)
	if err != nil {
		return NewStatusError(FailedParse, err.Error())
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	db.rows = make(map[id.UUID]*AssetData, count)
	for i := uint64(0); i < count; i++ {
		row, err := readAssetData(s)
		if err != nil {
			return NewStatusError(FailedParse, err.Error())
		}
		db.rows[row.UUID] = row
		if row.Path != "" {
			db.resolver.Add(row.Path, row.UUID)
		}
	}
	return nil
}

// writeBuf is a minimal growable byte sink satisfying io.Writer,
// avoiding a bytes.Buffer import purely for an append loop.
type writeBuf struct{ b []byte }

func (w *writeBuf) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}
func (w *writeBuf) Bytes() []byte { return w.b }
