package rdg

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/forge-engine/forge/driver"
)

// Graph is the complete set of passes and resources recorded for
// one frame's worth of GPU work, built incrementally by calling
// AddPass/AddComputePass/... and CreateTexture/ImportTexture/...,
// then handed to an Executor.
type Graph struct {
	pool   *Pool
	gpu    driver.GPU
	shader ShaderManager

	resources []*resource
	passes    []*Pass

	// resourcesImported deduplicates ImportTexture/ImportBuffer
	// calls by the identity of the underlying driver object - a Go
	// interface value holding a pointer compares by identity, same
	// as the source's pointer-keyed map.
	resourcesImported map[any]int

	// allocated is a set of resource indices. Executor.Execute does
	// not read or update it: it tracks which resources hold a
	// pool-backed GPU object through each resource's flagAllocated
	// bit instead.
	allocated roaring.Bitmap

	events     []event
	eventStack []int
}

type event struct {
	name string
	data string
}

// ShaderManager is the narrow slice of a shader/reflection
// manager the graph and parameter-block code depend on; consumed
// rather than owned, per the module layout notes.
type ShaderManager interface {
	Reflect(shaderName string) (ShaderReflection, bool)
}

// NewGraph returns an empty graph backed by pool for transient
// resource allocation and gpu for command recording.
func NewGraph(pool *Pool, gpu driver.GPU, shader ShaderManager) *Graph {
	return &Graph{
		pool:              pool,
		gpu:               gpu,
		shader:            shader,
		resourcesImported: make(map[any]int),
	}
}

func (g *Graph) nextResID() int { return len(g.resources) }

func (g *Graph) addResource(r *resource) int {
	r.id = g.nextResID()
	g.resources = append(g.resources, r)
	return r.id
}

func (g *Graph) addPass(kind PassKind, name string, flags PassFlags) *Pass {
	p := &Pass{
		id:            len(g.passes),
		name:          name,
		kind:          kind,
		flags:         flags,
		eventsToBegin: append([]int(nil), g.eventStack...),
	}
	g.eventStack = g.eventStack[:0]
	g.passes = append(g.passes, p)
	return p
}

// AddPass records a pass of the given kind.
func (g *Graph) AddPass(kind PassKind, name string, flags PassFlags) *Pass {
	return g.addPass(kind, name, flags)
}

// AddComputePass records a compute pass.
func (g *Graph) AddComputePass(name string, flags PassFlags) *Pass {
	return g.addPass(PassCompute, name, flags)
}

// AddGraphicsPass records a graphics pass.
func (g *Graph) AddGraphicsPass(name string, flags PassFlags) *Pass {
	return g.addPass(PassGraphics, name, flags)
}

// AddMaterialPass records a material pass.
func (g *Graph) AddMaterialPass(name string, flags PassFlags) *Pass {
	return g.addPass(PassMaterial, name, flags)
}

// AddCopyPass records a copy pass.
func (g *Graph) AddCopyPass(name string, flags PassFlags) *Pass {
	return g.addPass(PassCopy, name, flags)
}

// CreateTexture allocates a new transient texture resource from
// the pool, described by desc.
func (g *Graph) CreateTexture(desc TextureDesc, name string) int {
	r := &resource{
		name:        name,
		kind:        KindTexture,
		flags:       flagPooled,
		srcAccess:   ANone,
		textureDesc: desc,
		fingerprint: fingerprintTexture(desc),
	}
	return g.addResource(r)
}

// ImportTexture wraps an already-live texture as a graph
// resource, deduplicating repeated imports of the same object.
func (g *Graph) ImportTexture(img driver.Image) int {
	if id, ok := g.resourcesImported[img]; ok {
		return id
	}
	r := &resource{
		kind:      KindTexture,
		flags:     flagImported | flagAllocated,
		srcAccess: ATextureSample,
		gfx:       img,
	}
	id := g.addResource(r)
	g.resourcesImported[img] = id
	return id
}

// FindTexture returns the resource id previously registered for
// img by ImportTexture, if any.
func (g *Graph) FindTexture(img driver.Image) (int, bool) {
	id, ok := g.resourcesImported[img]
	return id, ok
}

// CreateStorageBuffer allocates a new transient storage buffer
// resource from the pool.
func (g *Graph) CreateStorageBuffer(desc BufferDesc, name string) int {
	r := &resource{
		name:        name,
		kind:        KindStorageBuffer,
		flags:       flagPooled,
		srcAccess:   ANone,
		bufferDesc:  desc,
		fingerprint: fingerprintBuffer(desc),
	}
	return g.addResource(r)
}

// ImportBuffer wraps an already-live buffer as a graph resource
// (storage, vertex, or index use - the graph does not distinguish
// the three at the transition level), deduplicating repeated
// imports of the same object.
func (g *Graph) ImportBuffer(buf driver.Buffer, kind Kind) int {
	if id, ok := g.resourcesImported[buf]; ok {
		return id
	}
	r := &resource{
		kind:      kind,
		flags:     flagImported | flagAllocated,
		srcAccess: ABufferRead,
		gfx:       buf,
	}
	id := g.addResource(r)
	g.resourcesImported[buf] = id
	return id
}

// FindBuffer returns the resource id previously registered for
// buf by ImportBuffer, if any.
func (g *Graph) FindBuffer(buf driver.Buffer) (int, bool) {
	id, ok := g.resourcesImported[buf]
	return id, ok
}

// CreateParamBlock allocates a new parameter-block resource bound
// to shader, returning its resource id and the block itself so
// the caller can populate it via Vars before the pass runs.
func (g *Graph) CreateParamBlock(shaderName string, spaceIdx int, name string) (int, *ParamBlock) {
	pb := newParamBlock(shaderName, spaceIdx, name)
	r := &resource{
		name:       name,
		kind:       KindParamBlock,
		srcAccess:  ANone,
		paramBlock: pb,
	}
	id := g.addResource(r)
	pb.resourceID = id
	return id, pb
}

// PushEvent opens a profiling scope that every subsequently added
// pass will be nested under, until a matching PopEvent.
func (g *Graph) PushEvent(name, data string) {
	id := len(g.events)
	g.events = append(g.events, event{name: name, data: data})
	g.eventStack = append(g.eventStack, id)
}

// PopEvent closes the innermost open profiling scope. If none is
// open, the close is instead deferred onto the most recently added
// pass, matching the source's handling of an event pushed before
// any pass exists yet in the current scope.
func (g *Graph) PopEvent() {
	if n := len(g.eventStack); n > 0 {
		g.eventStack = g.eventStack[:n-1]
		return
	}
	if n := len(g.passes); n > 0 {
		g.passes[n-1].eventsToEnd++
	}
}
