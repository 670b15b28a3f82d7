package rdg

import (
	"fmt"

	"github.com/forge-engine/forge/driver"
	"github.com/forge-engine/forge/internal/bitvec"
)

// ExecuteOptions configures Execute. It carries no fields yet, per
// the source engine's RdgExecuteOptions.
type ExecuteOptions struct{}

// PassContext is what a PassCallback receives: the command buffer
// to record into, plus access to the GPU, the shader manager, and
// the owning graph (for resolving param-block handles by
// resource id).
type PassContext struct {
	Cmd    driver.CmdBuffer
	GPU    driver.GPU
	Shader ShaderManager
	Graph  *Graph
	Pass   *Pass
}

// Texture returns the live driver.Image backing resource id,
// valid once Executor.Execute has run its allocate step for it.
func (g *Graph) Texture(id int) driver.Image {
	return g.resources[id].gfx.(driver.Image)
}

// Buffer returns the live driver.Buffer backing resource id.
func (g *Graph) Buffer(id int) driver.Buffer {
	return g.resources[id].gfx.(driver.Buffer)
}

// ParamBlockHandle returns the packed descriptor table for the
// param-block resource id, for use with
// PassContext.Cmd.SetDescTableGraph/SetDescTableComp.
func (g *Graph) ParamBlockHandle(id int) (driver.DescTable, error) {
	return g.resources[id].paramBlock.GetParamBlock()
}

// Executor runs a compiled Graph: allocating its pooled resources,
// transitioning each resource between passes, invoking every
// pass's callback, then releasing pooled resources back to the
// pool. Compile is a separate, presently no-op, step (compile.go).
type Executor struct {
	Pool   *Pool
	GPU    driver.GPU
	Shader ShaderManager
	Tracer Tracer

	// visited tracks, within one pass, which resource ids have
	// already had their transition/param-block step handled -
	// a pass that both Reads and Writes the same resource (a
	// read-modify-write image, say) must not be transitioned or
	// packed twice. Reused and Clear()ed across passes instead of
	// allocating a fresh set per pass.
	visited bitvec.V[uint64]
}

// NewExecutor returns an Executor. A nil tracer defaults to
// NopTracer.
func NewExecutor(pool *Pool, gpu driver.GPU, shader ShaderManager, tracer Tracer) *Executor {
	if tracer == nil {
		tracer = NopTracer{}
	}
	return &Executor{Pool: pool, GPU: gpu, Shader: shader, Tracer: tracer}
}

// Execute runs g's recorded passes in six steps: (1) snapshot each
// resource's starting access, (2) acquire a command buffer,
// (3) allocate every pooled-but-not-yet-allocated resource,
// (4) for each pass, transition its resources and invoke its
// callback, (5) release every pooled resource back to the pool,
// (6) end and submit the command buffer.
func (e *Executor) Execute(g *Graph, _ ExecuteOptions) error {
	numResources := len(g.resources)
	currentAccess := make([]Access, numResources)
	for i, r := range g.resources {
		currentAccess[i] = r.srcAccess
	}

	cmd, err := e.GPU.NewCmdBuffer()
	if err != nil {
		return err
	}
	if err := cmd.Begin(); err != nil {
		return err
	}

	for _, r := range g.resources {
		if r.pooled() && !r.allocated() {
			if err := e.allocate(r); err != nil {
				return fmt.Errorf("rdg: allocate resource %q: %w", r.name, err)
			}
		}
	}

	if e.visited.Len() < numResources {
		e.visited.Grow((numResources-e.visited.Len())/64 + 1)
	}

	for _, pass := range g.passes {
		ctx := &PassContext{Cmd: cmd, GPU: e.GPU, Shader: e.Shader, Graph: g, Pass: pass}
		e.visited.Clear()

		for _, pr := range pass.resources {
			if e.visited.IsSet(pr.resourceID) {
				continue
			}
			e.visited.Set(pr.resourceID)

			res := g.resources[pr.resourceID]

			if res.transitionable() {
				if err := e.transition(cmd, res, currentAccess[pr.resourceID], pr.access); err != nil {
					return err
				}
				currentAccess[pr.resourceID] = pr.access
			}

			if res.kind == KindParamBlock {
				refl, ok := e.Shader.Reflect(res.paramBlock.shaderName)
				if !ok {
					return fmt.Errorf("rdg: param block %q: unknown shader %q", res.paramBlock.name, res.paramBlock.shaderName)
				}
				if err := res.paramBlock.LoadFrom(refl); err != nil {
					return err
				}
				if err := res.paramBlock.Pack(e.GPU); err != nil {
					return err
				}
			}
		}

		if err := e.executePass(pass, ctx); err != nil {
			return err
		}
	}

	for _, r := range g.resources {
		if r.pooled() && r.allocated() {
			e.release(r)
		}
	}

	if err := cmd.End(); err != nil {
		return err
	}
	ch := make(chan error, 1)
	e.GPU.Commit([]driver.CmdBuffer{cmd}, ch)
	return <-ch
}

func (e *Executor) allocate(r *resource) error {
	switch r.kind {
	case KindTexture:
		img, idx, err := e.Pool.AcquireTexture(r.textureDesc, r.fingerprint)
		if err != nil {
			return err
		}
		r.gfx = img
		r.slotIdx = idx
	case KindStorageBuffer, KindVertBuffer, KindIndexBuffer:
		buf, idx, err := e.Pool.AcquireBuffer(r.bufferDesc, r.fingerprint)
		if err != nil {
			return err
		}
		r.gfx = buf
		r.slotIdx = idx
	}
	r.flags |= flagAllocated
	return nil
}

func (e *Executor) release(r *resource) {
	switch r.kind {
	case KindTexture:
		e.Pool.ReleaseTexture(r.fingerprint, r.slotIdx)
	case KindStorageBuffer, KindVertBuffer, KindIndexBuffer:
		e.Pool.ReleaseBuffer(r.fingerprint, r.slotIdx)
	}
	r.flags &^= flagAllocated
	r.gfx = nil
	r.view = nil
}

func (e *Executor) executePass(pass *Pass, ctx *PassContext) error {
	for _, id := range pass.eventsToBegin {
		ev := ctx.Graph.events[id]
		e.Tracer.BeginEvent(ev.name, ev.data)
	}

	var rp driver.RenderPass
	var fb driver.Framebuf
	if !pass.manual() && pass.graphics() {
		var nAtt int
		var err error
		rp, fb, nAtt, err = e.beginRenderPass(ctx)
		if err != nil {
			return fmt.Errorf("rdg: pass %q: begin render pass: %w", pass.name, err)
		}
		if rp != nil {
			ctx.Cmd.BeginPass(rp, fb, make([]driver.ClearValue, nAtt))
		}
	}

	err := pass.callback(ctx)

	if rp != nil {
		ctx.Cmd.EndPass()
		fb.Destroy()
		rp.Destroy()
	}
	if err != nil {
		return err
	}

	for i := 0; i < pass.eventsToEnd; i++ {
		e.Tracer.EndEvent()
	}
	return nil
}

// beginRenderPass builds the render pass and framebuffer for a
// non-manual graphics pass's color targets - every resource it
// writes under ARenderTarget access, in declaration order - and
// returns (nil, nil, 0, nil) when the pass declares none, leaving
// it unbracketed (e.g. a graphics pass that only touches buffers).
// A render pass/framebuffer pair is built fresh per execution
// rather than cached, since no concrete backend ships in this
// module to measure whether caching by attachment fingerprint (as
// rdg.Pool does for textures/buffers) would pay for itself.
func (e *Executor) beginRenderPass(ctx *PassContext) (driver.RenderPass, driver.Framebuf, int, error) {
	g := ctx.Graph
	var targets []*resource
	for _, pr := range ctx.Pass.resources {
		if pr.access != ARenderTarget {
			continue
		}
		if res := g.resources[pr.resourceID]; res.kind == KindTexture {
			targets = append(targets, res)
		}
	}
	if len(targets) == 0 {
		return nil, nil, 0, nil
	}

	atts := make([]driver.Attachment, len(targets))
	views := make([]driver.ImageView, len(targets))
	colors := make([]int, len(targets))
	for i, res := range targets {
		samples := res.textureDesc.Samples
		if samples == 0 {
			samples = 1
		}
		atts[i] = driver.Attachment{
			Format:  res.textureDesc.Format,
			Samples: samples,
			Load:    [2]driver.LoadOp{driver.LLoad, driver.LDontCare},
			Store:   [2]driver.StoreOp{driver.SStore, driver.SDontCare},
		}
		colors[i] = i

		view, err := textureView(res)
		if err != nil {
			return nil, nil, 0, err
		}
		views[i] = view
	}

	rp, err := e.GPU.NewRenderPass(atts, []driver.Subpass{{Color: colors, DS: -1}})
	if err != nil {
		return nil, nil, 0, err
	}

	first := targets[0]
	layers := first.textureDesc.Layers
	if layers == 0 {
		layers = 1
	}
	fb, err := rp.NewFB(views, first.textureDesc.Size.Width, first.textureDesc.Size.Height, layers)
	if err != nil {
		rp.Destroy()
		return nil, nil, 0, err
	}
	return rp, fb, len(targets), nil
}

// transition inserts whatever barrier/transition is needed to move
// resource res from src to dst access, a no-op when they match.
func (e *Executor) transition(cmd driver.CmdBuffer, res *resource, src, dst Access) error {
	if src == dst {
		return nil
	}

	switch res.kind {
	case KindTexture:
		view, err := textureView(res)
		if err != nil {
			return err
		}
		cmd.Transition([]driver.Transition{{
			Barrier:      accessBarrier(src, dst),
			LayoutBefore: accessLayout(src),
			LayoutAfter:  accessLayout(dst),
			IView:        view,
		}})
	default:
		cmd.Barrier([]driver.Barrier{accessBarrier(src, dst)})
	}
	return nil
}

// textureView lazily creates and caches the default full-resource
// view used for barrier transitions.
func textureView(res *resource) (driver.ImageView, error) {
	if res.view != nil {
		return res.view, nil
	}
	img, ok := res.gfx.(driver.Image)
	if !ok {
		return nil, fmt.Errorf("rdg: resource %q: not allocated", res.name)
	}
	view, err := img.NewView(driver.IView2D, 0, 1, 0, 1)
	if err != nil {
		return nil, err
	}
	res.view = view
	return view, nil
}

// accessBarrier maps a graph-level access pair onto the
// synchronization/memory-access scopes driver.Barrier expects.
func accessBarrier(src, dst Access) driver.Barrier {
	return driver.Barrier{
		SyncBefore:   accessSync(src),
		SyncAfter:    accessSync(dst),
		AccessBefore: accessDriverAccess(src),
		AccessAfter:  accessDriverAccess(dst),
	}
}

// accessLayout maps a graph-level Access to the image layout it
// implies. ImageStore corresponds to the original engine's
// "storage" barrier type (rdg_access_to_barrier's
// GfxTexBarrierType::Storage case), hence LCommon rather than a
// dedicated storage layout the driver package does not model.
func accessLayout(a Access) driver.Layout {
	switch a {
	case ATextureSample:
		return driver.LShaderRead
	case ARenderTarget:
		return driver.LColorTarget
	case AImageStore:
		return driver.LCommon
	case ACopySource:
		return driver.LCopySrc
	case ACopyDestination:
		return driver.LCopyDst
	default:
		return driver.LUndefined
	}
}

func accessDriverAccess(a Access) driver.Access {
	switch a {
	case ATextureSample:
		return driver.AShaderRead
	case ARenderTarget:
		return driver.AColorWrite
	case AImageStore:
		return driver.AShaderWrite
	case ACopySource:
		return driver.ACopyRead
	case ACopyDestination:
		return driver.ACopyWrite
	case ABufferRead:
		return driver.AShaderRead
	case ABufferWrite:
		return driver.AShaderWrite
	default:
		return driver.ANone
	}
}

func accessSync(a Access) driver.Sync {
	switch a {
	case ATextureSample, ABufferRead, ABufferWrite:
		return driver.SAll
	case ARenderTarget:
		return driver.SColorOutput
	case AImageStore:
		return driver.SComputeShading
	case ACopySource, ACopyDestination:
		return driver.SCopy
	default:
		return driver.SNone
	}
}
