package asset

import (
	"sync"

	"github.com/forge-engine/forge/id"
)

// Resolver is a bidirectional mapping between asset paths and
// UUIDs, guarded by a short-held lock. remove is intentionally
// one-directional: it withdraws only the forward (path->uuid)
// direction, leaving the reverse map to dangle until it is
// overwritten by a later add. A uuid's last known path remains
// useful diagnostic data even after the path itself stops
// resolving, and nothing in this core depends on the reverse
// direction disappearing promptly.
type Resolver struct {
	mu      sync.Mutex
	pathToU map[string]id.UUID
	uToPath map[id.UUID]string
}

// NewResolver returns an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{
		pathToU: make(map[string]id.UUID),
		uToPath: make(map[id.UUID]string),
	}
}

// Add installs both directions of the mapping. If either path or
// uuid was already mapped, the most recent Add wins for that
// direction.
func (r *Resolver) Add(path string, u id.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pathToU[path] = u
	r.uToPath[u] = path
}

// Remove withdraws the path->uuid direction only. See the type
// doc comment for why the reverse direction is left untouched.
func (r *Resolver) Remove(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pathToU, path)
}

// ResolvePath looks up the uuid currently mapped to path.
func (r *Resolver) ResolvePath(path string) (id.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.pathToU[path]
	return u, ok
}

// ResolveUUID looks up the last path associated with u, which may
// be stale if a subsequent Remove dropped the forward direction.
func (r *Resolver) ResolveUUID(u id.UUID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.uToPath[u]
	return p, ok
}
