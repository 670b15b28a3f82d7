package asset

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"

	"github.com/forge-engine/forge/asset/vfs"
	"github.com/forge-engine/forge/internal/task"
)

func writeMetaFile(t *testing.T, fs *vfs.FS, path, uuidStr, assetPath string) {
	t.Helper()
	doc := "uuid: \"" + uuidStr + "\"\npath: \"" + assetPath + "\"\ncls: mesh\nloader: mesh-loader\n"
	require.NoError(t, fs.SaveFile(path, []byte(doc)))
}

func TestLoadManifestCreatesRows(t *testing.T) {
	fs := vfs.New()
	fs.Mount("/project", memfs.New())
	pool := task.NewPool(context.Background(), 2)
	resolver := NewResolver()
	cache := NewArtifactCache(fs, "/project/.cache", pool)
	db := NewDB(fs, resolver, cache)

	writeMetaFile(t, fs, "/project/assets/a.mesh.meta", "", "assets/a.mesh")

	manifest := "assets:\n  - ./assets/a.mesh.meta\n"
	require.NoError(t, fs.SaveFile("/project/manifest.yaml", []byte(manifest)))

	created, err := db.LoadManifest("/project/manifest.yaml")
	require.NoError(t, err)
	require.Equal(t, 1, created)
}

func TestAssetMetaFileAppendsSuffix(t *testing.T) {
	require.Equal(t, "models/a.mesh.meta", AssetMetaFile("models/a.mesh"))
}
