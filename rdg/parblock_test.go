package rdg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forge-engine/forge/driver"
)

func TestParamBlockLoadFromRejectsUnknownVariable(t *testing.T) {
	pb := newParamBlock("lighting", 0, "lighting-block")
	pb.Set("nonexistent", &fakeBuffer{})

	err := pb.LoadFrom(ShaderReflection{Name: "lighting", Vars: []VarSlot{
		{Name: "lights", Kind: VarBuffer, Desc: driver.Descriptor{Type: driver.DBuffer, Nr: 0}},
	}})
	require.Error(t, err)
}

func TestParamBlockPackRequiresLoadFromFirst(t *testing.T) {
	pb := newParamBlock("lighting", 0, "lighting-block")
	err := pb.Pack(&fullFakeGPU{})
	require.Error(t, err)
}

func TestParamBlockPackBindsStagedValues(t *testing.T) {
	pb := newParamBlock("lighting", 0, "lighting-block")
	buf := &fakeBuffer{}
	pb.Set("lights", buf)

	refl := ShaderReflection{Name: "lighting", Vars: []VarSlot{
		{Name: "lights", Kind: VarBuffer, Desc: driver.Descriptor{Type: driver.DBuffer, Nr: 2}},
	}}
	require.NoError(t, pb.LoadFrom(refl))

	gpu := &fullFakeGPU{}
	require.NoError(t, pb.Pack(gpu))

	heap := pb.heap.(*fakeDescHeap)
	require.Equal(t, []driver.Buffer{buf}, heap.bound[2])

	table, err := pb.GetParamBlock()
	require.NoError(t, err)
	require.NotNil(t, table)
}

func TestParamBlockPackIsIdempotentUntilSet(t *testing.T) {
	pb := newParamBlock("lighting", 0, "lighting-block")
	refl := ShaderReflection{Name: "lighting", Vars: []VarSlot{
		{Name: "lights", Kind: VarBuffer, Desc: driver.Descriptor{Type: driver.DBuffer, Nr: 0}},
	}}
	require.NoError(t, pb.LoadFrom(refl))

	gpu := &fullFakeGPU{}
	require.NoError(t, pb.Pack(gpu))
	firstHeap := pb.heap

	require.NoError(t, pb.Pack(gpu))
	require.Same(t, firstHeap, pb.heap)

	pb.Set("lights", &fakeBuffer{})
	require.False(t, pb.packed)
}

func TestParamBlockBindVarRejectsWrongType(t *testing.T) {
	pb := newParamBlock("lighting", 0, "lighting-block")
	pb.Set("lights", "not-a-buffer")

	refl := ShaderReflection{Name: "lighting", Vars: []VarSlot{
		{Name: "lights", Kind: VarBuffer, Desc: driver.Descriptor{Type: driver.DBuffer, Nr: 0}},
	}}
	require.NoError(t, pb.LoadFrom(refl))
	err := pb.Pack(&fullFakeGPU{})
	require.Error(t, err)
}
