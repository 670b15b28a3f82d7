package asset

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/forge-engine/forge/asset/vfs"
	"github.com/forge-engine/forge/id"
	"github.com/forge-engine/forge/internal/logx"
	"github.com/forge-engine/forge/internal/task"
	"github.com/forge-engine/forge/serial"
)

// StreamCodec is implemented by payload objects the artifact
// cache can store and load: the same object type registered in
// the class registry under its Cls tag.
type StreamCodec interface {
	WriteStream(s serial.Stream) error
	ReadStream(s serial.Stream) error
}

type cacheEntry struct {
	hash [32]byte
	name string
	size int64
	cls  string
}

// ArtifactCache is a content-addressed store of derived binary
// payloads keyed by UUID. Each artifact is persisted as two
// files: "<uuid>.data" (the raw payload) and "<uuid>.artifact"
// (a YAML metadata document). A single mutex protects the
// in-memory index; Add and LoadCache perform their file I/O
// while holding it (simpler, and avoids handing out a UUID twice),
// but Read only needs the lock for its initial lookup and
// releases it before scheduling the read/deserialize chain.
type ArtifactCache struct {
	mu    sync.Mutex
	index map[id.UUID]cacheEntry
	dir   string
	fs    *vfs.FS
	pool  *task.Pool
}

// NewArtifactCache returns an empty cache rooted at dir within fs,
// scheduling deserialization work on pool.
func NewArtifactCache(fs *vfs.FS, dir string, pool *task.Pool) *ArtifactCache {
	return &ArtifactCache{
		index: make(map[id.UUID]cacheEntry),
		dir:   dir,
		fs:    fs,
		pool:  pool,
	}
}

func (c *ArtifactCache) dataPath(u id.UUID) string     { return c.dir + "/" + u.String() + ".data" }
func (c *ArtifactCache) artifactPath(u id.UUID) string { return c.dir + "/" + u.String() + ".artifact" }

type artifactMeta struct {
	Hash string `yaml:"hash"`
	Name string `yaml:"name"`
	Size int64  `yaml:"size"`
	Cls  string `yaml:"cls"`
}

// LoadCache rebuilds the in-memory index by scanning the cache
// directory for "*.artifact" files and parsing each. Idempotent.
func (c *ArtifactCache) LoadCache() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.fs.ListDirectory(c.dir)
	if err != nil {
		return NewStatusError(FailedRead, err.Error())
	}
	for _, e := range entries {
		if e.IsDir || !strings.HasSuffix(e.Name, ".artifact") {
			continue
		}
		uStr := strings.TrimSuffix(e.Name, ".artifact")
		u, err := id.Parse(uStr)
		if err != nil {
			continue
		}
		raw, err := vfsReadFile(c.fs, c.dir+"/"+e.Name)
		if err != nil {
			return NewStatusError(FailedRead, err.Error())
		}
		tree, err := serial.ParseYAMLTree(raw)
		if err != nil {
			return NewStatusError(FailedParse, err.Error())
		}
		var meta artifactMeta
		if err := tree.ReadValue(&meta); err != nil {
			return NewStatusError(FailedParse, err.Error())
		}
		hash, err := decodeHex32(meta.Hash)
		if err != nil {
			return NewStatusError(FailedParse, err.Error())
		}
		c.index[u] = cacheEntry{hash: hash, name: meta.Name, size: meta.Size, cls: meta.Cls}
	}
	return nil
}

func vfsReadFile(fs *vfs.FS, path string) ([]byte, error) {
	f, err := fs.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var buf []byte
	chunk := make([]byte, 32*1024)
	for {
		n, err := f.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			break
		}
	}
	return buf, nil
}

// Add stores obj (serializing it to a binary payload) under name,
// allocates a fresh non-colliding UUID, writes the payload then
// the metadata, and installs the in-memory entry.
func (c *ArtifactCache) Add(obj StreamCodec, name, cls string) (id.UUID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var buf bytes.Buffer
	sw := serial.NewBinaryStream(&buf)
	if err := obj.WriteStream(sw); err != nil {
		return id.Nil, NewStatusError(FailedWrite, err.Error())
	}
	payload := buf.Bytes()

	u := c.genUUIDLocked()

	if err := c.fs.SaveFile(c.dataPath(u), payload); err != nil {
		return id.Nil, NewStatusError(FailedWrite, err.Error())
	}

	hash := sha256Of(payload)
	meta := artifactMeta{Hash: encodeHex32(hash), Name: name, Size: int64(len(payload)), Cls: cls}
	tree := serial.NewYAMLTree()
	tree.AsMap()
	if err := writeMapField(tree, "hash", meta.Hash); err != nil {
		return id.Nil, err
	}
	if err := writeMapField(tree, "name", meta.Name); err != nil {
		return id.Nil, err
	}
	if err := writeMapField(tree, "size", meta.Size); err != nil {
		return id.Nil, err
	}
	if err := writeMapField(tree, "cls", meta.Cls); err != nil {
		return id.Nil, err
	}
	data, err := tree.Bytes()
	if err != nil {
		return id.Nil, NewStatusError(FailedWrite, err.Error())
	}
	if err := c.fs.SaveFile(c.artifactPath(u), data); err != nil {
		return id.Nil, NewStatusError(FailedWrite, err.Error())
	}

	c.index[u] = cacheEntry{hash: hash, name: name, size: int64(len(payload)), cls: cls}
	logx.Default().Debug("artifact added", "uuid", u.String(), "cls", cls, "size", len(payload))
	return u, nil
}

func writeMapField(tree serial.Tree, key string, value any) error {
	if err := tree.AppendChild(); err != nil {
		return NewStatusError(FailedWrite, err.Error())
	}
	if err := tree.WriteKey(key); err != nil {
		return NewStatusError(FailedWrite, err.Error())
	}
	if err := tree.WriteValue(value); err != nil {
		return NewStatusError(FailedWrite, err.Error())
	}
	tree.Pop()
	return nil
}

// Has reports whether u is present in the index.
func (c *ArtifactCache) Has(u id.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.index[u]
	return ok
}

// GetInfo returns a snapshot of u's AssetArtifact metadata.
func (c *ArtifactCache) GetInfo(u id.UUID) (AssetArtifact, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.index[u]
	if !ok {
		return AssetArtifact{}, NewStatusError(NoArtifact, u.String())
	}
	return AssetArtifact{UUID: u, Cls: e.cls, Size: e.size, Hash: e.hash}, nil
}

// Read returns an Async that completes once the payload has been
// read from disk into buf and obj has been deserialized from it.
// The class of obj (looked up via the class registry) must match
// the stored cls, or the returned Async fails immediately without
// touching buf.
func (c *ArtifactCache) Read(u id.UUID, buf []byte, obj StreamCodec) *task.Async[StreamCodec] {
	c.mu.Lock()
	e, ok := c.index[u]
	c.mu.Unlock()
	if !ok {
		return task.Completed[StreamCodec](nil, NewStatusError(NoArtifact, u.String()))
	}
	if tag, found := ClassTagOf(obj); !found || tag != e.cls {
		return task.Completed[StreamCodec](nil, NewStatusError(InvalidData, fmt.Sprintf("class mismatch: stored %q", e.cls)))
	}

	read := c.fs.ReadFileAsync(c.pool, c.dataPath(u), buf)
	return task.Then(c.pool, read, func(n int) (StreamCodec, error) {
		sr := serial.NewReaderStream(bytes.NewReader(buf[:n]))
		if err := obj.ReadStream(sr); err != nil {
			return nil, NewStatusError(FailedParse, err.Error())
		}
		return obj, nil
	})
}

// Remove deletes both files for u and withdraws the in-memory
// entry.
func (c *ArtifactCache) Remove(u id.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.index[u]; !ok {
		return NewStatusError(NoArtifact, u.String())
	}
	if err := c.fs.RemoveFile(c.dataPath(u)); err != nil {
		return NewStatusError(FailedRemoveFile, err.Error())
	}
	if err := c.fs.RemoveFile(c.artifactPath(u)); err != nil {
		return NewStatusError(FailedRemoveFile, err.Error())
	}
	delete(c.index, u)
	return nil
}

func (c *ArtifactCache) genUUIDLocked() id.UUID {
	for {
		u := id.Generate()
		if _, exists := c.index[u]; !exists {
			return u
		}
	}
}

func sha256Of(data []byte) [32]byte {
	return sha256.Sum256(data)
}

func encodeHex32(h [32]byte) string {
	return hex.EncodeToString(h[:])
}

func decodeHex32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}
