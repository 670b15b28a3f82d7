package rawasset_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"

	"github.com/forge-engine/forge/asset"
	"github.com/forge-engine/forge/asset/rawasset"
	"github.com/forge-engine/forge/asset/vfs"
	"github.com/forge-engine/forge/id"
	"github.com/forge-engine/forge/internal/task"
)

func TestImporterProducesSingleArtifact(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "texture.bin")
	require.NoError(t, os.WriteFile(src, []byte("pixels"), 0o644))

	env := asset.ImportEnv{FileToID: make(map[string]id.UUID)}
	result, err := rawasset.Importer{}.Import(nil, env, asset.ImportSettings{"sourcePath": src})
	require.NoError(t, err)
	require.Equal(t, rawasset.Class, result.Main.Cls)
	require.Len(t, result.Main.Artifacts, 1)

	blob := result.Main.Artifacts[0].Object.(*rawasset.Blob)
	require.Equal(t, []byte("pixels"), blob.Data)
}

func TestImporterMissingSourceFails(t *testing.T) {
	env := asset.ImportEnv{FileToID: make(map[string]id.UUID)}
	_, err := rawasset.Importer{}.Import(nil, env, asset.ImportSettings{"sourcePath": "/does/not/exist"})
	require.Error(t, err)
}

func TestLoaderRoundTripsThroughCache(t *testing.T) {
	fs := vfs.New()
	fs.Mount("/cache", memfs.New())
	pool := task.NewPool(context.Background(), 2)
	cache := asset.NewArtifactCache(fs, "/cache", pool)

	u, err := cache.Add(&rawasset.Blob{Data: []byte("loaded-bytes")}, "blob.bin", rawasset.Class)
	require.NoError(t, err)

	obj, err := rawasset.Loader{}.Load(nil, []asset.AssetArtifact{
		{UUID: u, Cls: rawasset.Class},
	}, cache)
	require.NoError(t, err)
	require.Equal(t, []byte("loaded-bytes"), obj.(*rawasset.Blob).Data)
}

func TestLoaderReturnsErrorWhenNoMatchingArtifact(t *testing.T) {
	fs := vfs.New()
	fs.Mount("/cache", memfs.New())
	pool := task.NewPool(context.Background(), 2)
	cache := asset.NewArtifactCache(fs, "/cache", pool)

	_, err := rawasset.Loader{}.Load(nil, nil, cache)
	require.Error(t, err)
	require.True(t, asset.Is(err, asset.NoArtifact))
}
