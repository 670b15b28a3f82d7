package rdg

import (
	"github.com/forge-engine/forge/driver"
)

// fakeCmdBuffer records calls instead of talking to a real GPU, in
// the same spirit as fakeGPU/fakeImage/fakeBuffer in pool_test.go.
type fakeCmdBuffer struct {
	driver.CmdBuffer
	began       bool
	ended       bool
	barriers    int
	transitions int
	passesBegun int
	passesEnded int
}

func (c *fakeCmdBuffer) Destroy()                         {}
func (c *fakeCmdBuffer) Begin() error                     { c.began = true; return nil }
func (c *fakeCmdBuffer) End() error                       { c.ended = true; return nil }
func (c *fakeCmdBuffer) Barrier(b []driver.Barrier)       { c.barriers += len(b) }
func (c *fakeCmdBuffer) Transition(t []driver.Transition) { c.transitions += len(t) }
func (c *fakeCmdBuffer) BeginPass(driver.RenderPass, driver.Framebuf, []driver.ClearValue) {
	c.passesBegun++
}
func (c *fakeCmdBuffer) EndPass() { c.passesEnded++ }

type fakeRenderPass struct {
	driver.RenderPass
	fbCalls int
}

func (r *fakeRenderPass) Destroy() {}
func (r *fakeRenderPass) NewFB(iv []driver.ImageView, width, height, layers int) (driver.Framebuf, error) {
	r.fbCalls++
	return &fakeFramebuf{}, nil
}

type fakeFramebuf struct{ driver.Framebuf }

func (f *fakeFramebuf) Destroy() {}

type fakeDescHeap struct {
	driver.DescHeap
	copies int
	bound  map[int]any
}

func (h *fakeDescHeap) Destroy() {}
func (h *fakeDescHeap) New(n int) error {
	h.copies = n
	return nil
}
func (h *fakeDescHeap) SetBuffer(_, nr, _ int, buf []driver.Buffer, _, _ []int64) {
	h.ensure()
	h.bound[nr] = buf
}
func (h *fakeDescHeap) SetImage(_, nr, _ int, iv []driver.ImageView) {
	h.ensure()
	h.bound[nr] = iv
}
func (h *fakeDescHeap) SetSampler(_, nr, _ int, splr []driver.Sampler) {
	h.ensure()
	h.bound[nr] = splr
}
func (h *fakeDescHeap) Count() int { return h.copies }
func (h *fakeDescHeap) ensure() {
	if h.bound == nil {
		h.bound = make(map[int]any)
	}
}

type fakeDescTable struct{ driver.DescTable }

func (t *fakeDescTable) Destroy() {}

// fullFakeGPU extends fakeGPU (pool_test.go) with the command-buffer
// and descriptor creation methods Executor/ParamBlock exercise.
type fullFakeGPU struct {
	fakeGPU
	cmd *fakeCmdBuffer
}

func (g *fullFakeGPU) NewCmdBuffer() (driver.CmdBuffer, error) {
	g.cmd = &fakeCmdBuffer{}
	return g.cmd, nil
}

func (g *fullFakeGPU) Commit(cb []driver.CmdBuffer, ch chan<- error) {
	ch <- nil
}

func (g *fullFakeGPU) NewDescHeap(ds []driver.Descriptor) (driver.DescHeap, error) {
	return &fakeDescHeap{}, nil
}

func (g *fullFakeGPU) NewDescTable(dh []driver.DescHeap) (driver.DescTable, error) {
	return &fakeDescTable{}, nil
}

func (g *fullFakeGPU) NewRenderPass(att []driver.Attachment, sub []driver.Subpass) (driver.RenderPass, error) {
	return &fakeRenderPass{}, nil
}

type fakeShaderManager struct {
	reflections map[string]ShaderReflection
}

func (m *fakeShaderManager) Reflect(name string) (ShaderReflection, bool) {
	r, ok := m.reflections[name]
	return r, ok
}
