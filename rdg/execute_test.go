package rdg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forge-engine/forge/driver"
)

func TestExecuteAllocatesTransitionsAndReleasesPooledResources(t *testing.T) {
	gpu := &fullFakeGPU{}
	pool := NewPool(gpu, defaultEvictionAge)
	shader := &fakeShaderManager{reflections: map[string]ShaderReflection{}}
	g := NewGraph(pool, gpu, shader)

	desc := TextureDesc{Format: driver.RGBA8un, Size: driver.Dim3D{Width: 16, Height: 16, Depth: 1}}
	color := g.CreateTexture(desc, "color")

	var ranCallback bool
	g.AddGraphicsPass("draw", 0).
		Writes(color, ARenderTarget).
		Body(func(ctx *PassContext) error {
			ranCallback = true
			require.NotNil(t, ctx.Cmd)
			return nil
		})

	exec := NewExecutor(pool, gpu, shader, nil)
	require.NoError(t, exec.Execute(g, ExecuteOptions{}))

	require.True(t, ranCallback)
	require.True(t, gpu.cmd.began)
	require.True(t, gpu.cmd.ended)
	require.Equal(t, 1, gpu.cmd.transitions)
	require.False(t, g.resources[color].allocated())
	require.Equal(t, 1, gpu.images)
	require.Equal(t, 1, gpu.cmd.passesBegun)
	require.Equal(t, 1, gpu.cmd.passesEnded)
}

func TestExecuteSkipsRenderPassBracketingForManualPass(t *testing.T) {
	gpu := &fullFakeGPU{}
	pool := NewPool(gpu, defaultEvictionAge)
	shader := &fakeShaderManager{reflections: map[string]ShaderReflection{}}
	g := NewGraph(pool, gpu, shader)

	desc := TextureDesc{Format: driver.RGBA8un, Size: driver.Dim3D{Width: 16, Height: 16, Depth: 1}}
	color := g.CreateTexture(desc, "color")

	g.AddGraphicsPass("manual-draw", PassManual).
		Writes(color, ARenderTarget).
		Body(func(ctx *PassContext) error { return nil })

	exec := NewExecutor(pool, gpu, shader, nil)
	require.NoError(t, exec.Execute(g, ExecuteOptions{}))

	require.Equal(t, 0, gpu.cmd.passesBegun)
	require.Equal(t, 0, gpu.cmd.passesEnded)
}

func TestExecuteSkipsRenderPassBracketingWithoutRenderTargets(t *testing.T) {
	gpu := &fullFakeGPU{}
	pool := NewPool(gpu, defaultEvictionAge)
	shader := &fakeShaderManager{reflections: map[string]ShaderReflection{}}
	g := NewGraph(pool, gpu, shader)

	buf := g.CreateStorageBuffer(BufferDesc{Size: 64, Usage: driver.UShaderRead}, "counters")

	g.AddGraphicsPass("compute-like", 0).
		Writes(buf, ABufferWrite).
		Body(func(ctx *PassContext) error { return nil })

	exec := NewExecutor(pool, gpu, shader, nil)
	require.NoError(t, exec.Execute(g, ExecuteOptions{}))

	require.Equal(t, 0, gpu.cmd.passesBegun)
	require.Equal(t, 0, gpu.cmd.passesEnded)
}

func TestExecuteBuildsFramebufferFromColorTargets(t *testing.T) {
	gpu := &fullFakeGPU{}
	pool := NewPool(gpu, defaultEvictionAge)
	shader := &fakeShaderManager{reflections: map[string]ShaderReflection{}}
	g := NewGraph(pool, gpu, shader)

	desc := TextureDesc{Format: driver.RGBA8un, Size: driver.Dim3D{Width: 8, Height: 8, Depth: 1}, Layers: 1}
	colorA := g.CreateTexture(desc, "albedo")
	colorB := g.CreateTexture(desc, "normal")

	g.AddGraphicsPass("gbuffer", 0).
		Writes(colorA, ARenderTarget).
		Writes(colorB, ARenderTarget).
		Body(func(ctx *PassContext) error { return nil })

	exec := NewExecutor(pool, gpu, shader, nil)
	require.NoError(t, exec.Execute(g, ExecuteOptions{}))

	require.Equal(t, 1, gpu.cmd.passesBegun)
	require.Equal(t, 1, gpu.cmd.passesEnded)
}

func TestExecuteSkipsTransitionWhenAccessUnchanged(t *testing.T) {
	gpu := &fullFakeGPU{}
	pool := NewPool(gpu, defaultEvictionAge)
	shader := &fakeShaderManager{reflections: map[string]ShaderReflection{}}
	g := NewGraph(pool, gpu, shader)

	img := &fakeImage{}
	texID := g.ImportTexture(img)

	g.AddGraphicsPass("sample", 0).
		Reads(texID, ATextureSample).
		Body(func(ctx *PassContext) error { return nil })

	exec := NewExecutor(pool, gpu, shader, nil)
	require.NoError(t, exec.Execute(g, ExecuteOptions{}))

	require.Equal(t, 0, gpu.cmd.transitions)
}

func TestExecutePacksParamBlockBeforePassBody(t *testing.T) {
	gpu := &fullFakeGPU{}
	pool := NewPool(gpu, defaultEvictionAge)
	refl := ShaderReflection{Name: "lighting", Vars: []VarSlot{
		{Name: "lights", Kind: VarBuffer, Desc: driver.Descriptor{Type: driver.DBuffer, Nr: 0}},
	}}
	shader := &fakeShaderManager{reflections: map[string]ShaderReflection{"lighting": refl}}
	g := NewGraph(pool, gpu, shader)

	pbID, pb := g.CreateParamBlock("lighting", 0, "lighting-block")
	pb.Set("lights", &fakeBuffer{})

	var handleAtBody driver.DescTable
	g.AddComputePass("light", 0).
		Reads(pbID, ANone).
		Body(func(ctx *PassContext) error {
			var err error
			handleAtBody, err = ctx.Graph.ParamBlockHandle(pbID)
			return err
		})

	exec := NewExecutor(pool, gpu, shader, nil)
	require.NoError(t, exec.Execute(g, ExecuteOptions{}))
	require.NotNil(t, handleAtBody)
}

func TestExecuteReturnsErrorForUnknownShaderReflection(t *testing.T) {
	gpu := &fullFakeGPU{}
	pool := NewPool(gpu, defaultEvictionAge)
	shader := &fakeShaderManager{reflections: map[string]ShaderReflection{}}
	g := NewGraph(pool, gpu, shader)

	pbID, _ := g.CreateParamBlock("missing", 0, "block")
	g.AddComputePass("p", 0).
		Reads(pbID, ANone).
		Body(func(ctx *PassContext) error { return nil })

	exec := NewExecutor(pool, gpu, shader, nil)
	require.Error(t, exec.Execute(g, ExecuteOptions{}))
}
