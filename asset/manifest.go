package asset

import (
	"path"
	"strings"

	"github.com/forge-engine/forge/serial"
)

type manifestDoc struct {
	Assets []string `yaml:"assets"`
}

// LoadManifest reads the manifest at manifestPath - a YAML
// document listing meta-file paths relative to the manifest's own
// directory - and creates a database row for each one via
// CreateAssetFromMeta, skipping entries whose asset already
// exists. Returns the number of rows created.
func (db *DB) LoadManifest(manifestPath string) (int, error) {
	if !db.fs.Exists(manifestPath) {
		return 0, NewStatusError(FailedFindFile, manifestPath)
	}
	raw, err := vfsReadFile(db.fs, manifestPath)
	if err != nil {
		return 0, NewStatusError(FailedRead, err.Error())
	}
	tree, err := serial.ParseYAMLTree(raw)
	if err != nil {
		return 0, NewStatusError(FailedParse, err.Error())
	}
	var doc manifestDoc
	if err := tree.ReadValue(&doc); err != nil {
		return 0, NewStatusError(FailedParse, err.Error())
	}

	baseDir := path.Dir(manifestPath)
	created := 0
	for _, rel := range doc.Assets {
		rel = strings.TrimPrefix(rel, "./")
		metaPath := path.Join(baseDir, rel)
		n, err := db.createAssetFromMetaPath(metaPath, true)
		if err != nil {
			return created, err
		}
		if n {
			created++
		}
	}
	return created, nil
}

// createAssetFromMetaPath reads and parses the meta document at
// metaPath and installs it via CreateAssetFromMeta. Returns
// whether a new row was actually created (false when
// skipIfExists found it already present).
func (db *DB) createAssetFromMetaPath(metaPath string, skipIfExists bool) (bool, error) {
	raw, err := vfsReadFile(db.fs, metaPath)
	if err != nil {
		return false, NewStatusError(FailedRead, err.Error())
	}
	tree, err := serial.ParseYAMLTree(raw)
	if err != nil {
		return false, NewStatusError(FailedParse, err.Error())
	}
	var data AssetData
	if err := tree.ReadValue(&data); err != nil {
		return false, NewStatusError(FailedParse, err.Error())
	}

	if skipIfExists && !data.UUID.IsNil() && db.HasAsset(data.UUID) {
		return false, nil
	}
	if _, err := db.CreateAssetFromMeta(data, skipIfExists); err != nil {
		return false, err
	}
	return true, nil
}

// AssetMetaFile returns the conventional meta-file path for an
// asset whose source lives at sourcePath: the source path with a
// ".meta" suffix appended, matching the original engine's
// co-located metadata convention.
func AssetMetaFile(sourcePath string) string {
	return sourcePath + ".meta"
}
