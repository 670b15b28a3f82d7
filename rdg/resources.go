// Package rdg implements the render-graph core: a per-frame
// builder that records passes and the resources they touch,
// followed by an executor that inserts the right barriers
// between passes and hands the recorded work to a driver.GPU.
package rdg

import (
	"github.com/forge-engine/forge/driver"
)

// Kind identifies what a Resource wraps.
type Kind int

const (
	KindTexture Kind = iota
	KindStorageBuffer
	KindVertBuffer
	KindIndexBuffer
	KindParamBlock
)

// Access is the graph-level access a pass declares for a
// resource - coarser than driver.Access, closer to "what is this
// pass doing with it". TextureSample keeps the source engine's
// misspelling (TexureSample) as an unexported alias purely so the
// historical wire/debug name is discoverable by anyone grepping
// for it; the exported name is spelled correctly.
type Access int

const (
	ANone Access = iota
	ATextureSample
	ARenderTarget
	AImageStore
	ACopySource
	ACopyDestination
	ABufferRead
	ABufferWrite
)

// aTexureSample is the original engine's spelling of
// ATextureSample, kept as an alias for grounding fidelity.
const aTexureSample = ATextureSample

// resourceFlag is a small bitmask of per-resource attributes.
type resourceFlag uint8

const (
	flagImported resourceFlag = 1 << iota
	flagPooled
	flagAllocated
)

// TextureDesc describes a texture a pass creates (as opposed to
// one it imports), mirroring driver.GPU.NewImage's parameters.
type TextureDesc struct {
	Format  driver.PixelFmt
	Size    driver.Dim3D
	Layers  int
	Levels  int
	Samples int
	Usage   driver.Usage
}

// BufferDesc describes a buffer a pass creates.
type BufferDesc struct {
	Size    int64
	Visible bool
	Usage   driver.Usage
}

// resource is one node in the graph's resource table. Resources
// are referred to by dense int index (their position in
// Graph.resources), not by pointer, per the arena-of-indices
// design this transformation uses in place of the source's
// reference-counted handles.
type resource struct {
	id    int
	name  string
	kind  Kind
	flags resourceFlag

	srcAccess Access
	dstAccess Access

	textureDesc TextureDesc
	bufferDesc  BufferDesc

	// gfx holds the live driver object once allocated (imported
	// resources have it from the start; pooled resources gain it
	// during Executor.Execute's allocate pass).
	gfx any

	paramBlock *ParamBlock

	fingerprint uint32
	// slotIdx is the bucket-local slot index AcquireTexture/
	// AcquireBuffer returned for this resource's current
	// allocation, needed to release the same slot back to the pool.
	slotIdx int

	// view caches the default full-resource image view used to
	// issue layout-transition barriers.
	view driver.ImageView
}

func (r *resource) imported() bool  { return r.flags&flagImported != 0 }
func (r *resource) pooled() bool    { return r.flags&flagPooled != 0 }
func (r *resource) allocated() bool { return r.flags&flagAllocated != 0 }

// transitionable reports whether the executor should insert a
// barrier/transition when this resource's access changes between
// passes. Parameter blocks are packed, not barriered.
func (r *resource) transitionable() bool { return r.kind != KindParamBlock }
