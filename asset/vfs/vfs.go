// Package vfs implements the mount-volume abstract file system
// the asset pipeline consumes: logical path prefixes mapped to
// physical directories, realized on top of go-billy so the whole
// pipeline can run against an in-memory filesystem in tests.
package vfs

import (
	"errors"
	"io"
	"strings"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/helper/chroot"

	"github.com/forge-engine/forge/id"
	"github.com/forge-engine/forge/internal/task"
)

// ErrFailedOpenFile is returned when a path does not match any
// mounted prefix.
var ErrFailedOpenFile = errors.New("vfs: no mount matches path")

// ErrFailedFindFile is returned by operations that require the
// path to already exist and it does not.
var ErrFailedFindFile = errors.New("vfs: file not found")

// Mount maps one logical path prefix onto a physical billy
// filesystem, re-rooted with helper/chroot so paths below the
// prefix resolve relative to the mount's own root.
type Mount struct {
	Prefix string
	FS     billy.Filesystem
}

// FS is an ordered set of Mounts implementing the file-system
// capability the asset database and artifact cache consume:
// open/save/remove/exists/list/hash/timestamp, plus an async read
// used by the artifact cache's read path.
type FS struct {
	mounts []Mount
}

// New returns an empty FS. Mount volumes with Mount.
func New() *FS { return &FS{} }

// Mount adds a volume. Longer prefixes are preferred on lookup,
// so more specific mounts may be registered after broader ones.
func (fs *FS) Mount(prefix string, billyFS billy.Filesystem) {
	fs.mounts = append(fs.mounts, Mount{Prefix: prefix, FS: chrootFS(prefix, billyFS)})
}

func chrootFS(prefix string, billyFS billy.Filesystem) billy.Filesystem {
	// The mount's own filesystem is already rooted at the volume;
	// chroot.New re-roots it at "/" so paths under the logical
	// prefix map directly onto the volume's root.
	return chroot.New(billyFS, "/")
}

func (fs *FS) resolve(path string) (billy.Filesystem, string, error) {
	best := -1
	var bestMount *Mount
	for i := range fs.mounts {
		m := &fs.mounts[i]
		if strings.HasPrefix(path, m.Prefix) && len(m.Prefix) > best {
			best = len(m.Prefix)
			bestMount = m
		}
	}
	if bestMount == nil {
		return nil, "", ErrFailedOpenFile
	}
	rel := strings.TrimPrefix(path, bestMount.Prefix)
	rel = strings.TrimPrefix(rel, "/")
	return bestMount.FS, rel, nil
}

// OpenFile opens path for reading.
func (fs *FS) OpenFile(path string) (billy.File, error) {
	volume, rel, err := fs.resolve(path)
	if err != nil {
		return nil, err
	}
	return volume.Open(rel)
}

// SaveFile writes data to path, creating or truncating it.
func (fs *FS) SaveFile(path string, data []byte) error {
	volume, rel, err := fs.resolve(path)
	if err != nil {
		return err
	}
	f, err := volume.Create(rel)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}

// RemoveFile deletes path.
func (fs *FS) RemoveFile(path string) error {
	volume, rel, err := fs.resolve(path)
	if err != nil {
		return err
	}
	return volume.Remove(rel)
}

// Exists reports whether path names an existing file.
func (fs *FS) Exists(path string) bool {
	volume, rel, err := fs.resolve(path)
	if err != nil {
		return false
	}
	_, err = volume.Stat(rel)
	return err == nil
}

// FileEntry describes one entry returned by ListDirectory.
type FileEntry struct {
	Name  string
	IsDir bool
}

// ListDirectory lists the contents of path.
func (fs *FS) ListDirectory(path string) ([]FileEntry, error) {
	volume, rel, err := fs.resolve(path)
	if err != nil {
		return nil, err
	}
	infos, err := volume.ReadDir(rel)
	if err != nil {
		return nil, err
	}
	out := make([]FileEntry, len(infos))
	for i, fi := range infos {
		out[i] = FileEntry{Name: fi.Name(), IsDir: fi.IsDir()}
	}
	return out, nil
}

// HashFile streams path through SHA-256.
func (fs *FS) HashFile(path string) ([32]byte, error) {
	var out [32]byte
	f, err := fs.OpenFile(path)
	if err != nil {
		return out, err
	}
	defer f.Close()
	b := id.NewSha256Builder()
	buf := make([]byte, 64*1024)
	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			b.Write(buf[:n])
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return out, rerr
		}
	}
	return b.Sum(), nil
}

// GetFileTimestamp returns path's modification time.
func (fs *FS) GetFileTimestamp(path string) (time.Time, error) {
	volume, rel, err := fs.resolve(path)
	if err != nil {
		return time.Time{}, err
	}
	fi, err := volume.Stat(rel)
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}

// ReadFileAsync reads up to len(buf) bytes of path into buf on the
// given pool, completing once the read is done with the number of
// bytes read. A file shorter than buf is not an error. This realizes
// the async file system's single read_file(path, buffer) -> async
// operation.
func (fs *FS) ReadFileAsync(pool *task.Pool, path string, buf []byte) *task.Async[int] {
	return task.Run(pool, func() (int, error) {
		f, err := fs.OpenFile(path)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		n, err := io.ReadFull(f, buf)
		if err == io.ErrUnexpectedEOF {
			err = nil
		}
		return n, err
	})
}
