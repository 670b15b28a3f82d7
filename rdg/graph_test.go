package rdg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forge-engine/forge/driver"
)

func newTestGraph(gpu driver.GPU) *Graph {
	pool := NewPool(gpu, defaultEvictionAge)
	shader := &fakeShaderManager{reflections: map[string]ShaderReflection{}}
	return NewGraph(pool, gpu, shader)
}

func TestCreateTextureAllocatesNewResource(t *testing.T) {
	g := newTestGraph(&fullFakeGPU{})
	desc := TextureDesc{Format: driver.RGBA8un, Size: driver.Dim3D{Width: 32, Height: 32, Depth: 1}}

	id1 := g.CreateTexture(desc, "color")
	id2 := g.CreateTexture(desc, "depth")

	require.NotEqual(t, id1, id2)
	require.Len(t, g.resources, 2)
	require.True(t, g.resources[id1].pooled())
	require.False(t, g.resources[id1].allocated())
}

func TestImportTextureDeduplicatesByIdentity(t *testing.T) {
	g := newTestGraph(&fullFakeGPU{})
	img := &fakeImage{}

	id1 := g.ImportTexture(img)
	id2 := g.ImportTexture(img)
	require.Equal(t, id1, id2)
	require.Len(t, g.resources, 1)

	found, ok := g.FindTexture(img)
	require.True(t, ok)
	require.Equal(t, id1, found)

	other, ok := g.FindTexture(&fakeImage{})
	require.False(t, ok)
	require.Equal(t, 0, other)
}

func TestImportBufferMarksImportedAndAllocated(t *testing.T) {
	g := newTestGraph(&fullFakeGPU{})
	buf := &fakeBuffer{}

	id := g.ImportBuffer(buf, KindVertBuffer)
	r := g.resources[id]
	require.True(t, r.imported())
	require.True(t, r.allocated())
	require.Equal(t, ABufferRead, r.srcAccess)
}

func TestPushPopEventNestsOnAddedPass(t *testing.T) {
	g := newTestGraph(&fullFakeGPU{})

	g.PushEvent("frame", "")
	pass := g.AddGraphicsPass("main", 0)
	g.PopEvent()

	require.Equal(t, []int{0}, pass.eventsToBegin)
	require.Equal(t, 1, pass.eventsToEnd)
}

func TestPopEventWithNoOpenScopeDefersToLastPass(t *testing.T) {
	g := newTestGraph(&fullFakeGPU{})
	pass := g.AddComputePass("compute", 0)

	g.PopEvent()

	require.Equal(t, 1, pass.eventsToEnd)
}

func TestCreateParamBlockLinksResourceID(t *testing.T) {
	g := newTestGraph(&fullFakeGPU{})

	id, pb := g.CreateParamBlock("lighting", 0, "lighting-block")
	require.Equal(t, id, pb.resourceID)
	require.Equal(t, KindParamBlock, g.resources[id].kind)
}
