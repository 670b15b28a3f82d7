package rdg

import (
	"fmt"
	"reflect"

	"github.com/forge-engine/forge/driver"
)

// VarKind identifies what kind of shader variable a VarSlot binds.
type VarKind int

const (
	VarConstant VarKind = iota
	VarTexture
	VarSampler
	VarBuffer
)

// VarSlot is one named binding a shader's reflection data exposes.
type VarSlot struct {
	Name string
	Kind VarKind
	Desc driver.Descriptor
}

// ShaderReflection is the minimal reflection surface a shader
// exposes for parameter-block construction: its named variable
// slots, in binding order. This generalizes the teacher's
// hand-written per-layout newDescHeapN functions
// (engine/internal/shader/desc.go), which hard-code one fixed set
// of scene-data layouts, into data a ParamBlock can drive for any
// shader.
type ShaderReflection struct {
	Name string
	Vars []VarSlot
}

// Vars is the untyped bag of values a caller populates by name
// before Pack copies them into the shader's descriptor layout.
type Vars map[string]any

// ParamBlock is a render-graph resource that resolves a shader's
// named variables to descriptor bindings via reflection, then
// packs caller-supplied values into the matching driver.DescHeap
// slots. It is grounded in pattern (not code) on the teacher's
// engine/internal/shader/desc.go descriptor-heap construction.
type ParamBlock struct {
	shaderName string
	spaceIdx   int
	name       string
	resourceID int

	reflection ShaderReflection
	loaded     bool

	values Vars

	heap   driver.DescHeap
	table  driver.DescTable
	packed bool
}

func newParamBlock(shaderName string, spaceIdx int, name string) *ParamBlock {
	return &ParamBlock{
		shaderName: shaderName,
		spaceIdx:   spaceIdx,
		name:       name,
		values:     make(Vars),
	}
}

// Name returns the block's debug name.
func (pb *ParamBlock) Name() string { return pb.name }

// SpaceIdx returns the descriptor-table binding space this block
// occupies.
func (pb *ParamBlock) SpaceIdx() int { return pb.spaceIdx }

// Set stages a value for the named shader variable, to be copied
// into the descriptor layout on the next Pack.
func (pb *ParamBlock) Set(name string, value any) {
	pb.values[name] = value
	pb.packed = false
}

// LoadFrom resolves this block's variables against refl, the
// shader's reflection data, validating that every staged variable
// name actually exists in the shader before any binding is
// attempted.
func (pb *ParamBlock) LoadFrom(refl ShaderReflection) error {
	known := make(map[string]VarSlot, len(refl.Vars))
	for _, v := range refl.Vars {
		known[v.Name] = v
	}
	for name := range pb.values {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("rdg: param block %q: shader %q has no variable %q", pb.name, refl.Name, name)
		}
	}
	pb.reflection = refl
	pb.loaded = true
	return nil
}

// Pack builds the block's descriptor heap from gpu on first use
// (later calls reuse it) and copies every staged value into its
// matching slot.
func (pb *ParamBlock) Pack(gpu driver.GPU) error {
	if !pb.loaded {
		return fmt.Errorf("rdg: param block %q: Pack called before LoadFrom", pb.name)
	}
	if pb.packed {
		return nil
	}

	descs := make([]driver.Descriptor, len(pb.reflection.Vars))
	for i, v := range pb.reflection.Vars {
		descs[i] = v.Desc
	}
	if pb.heap == nil {
		heap, err := gpu.NewDescHeap(descs)
		if err != nil {
			return err
		}
		pb.heap = heap
		if err := pb.heap.New(1); err != nil {
			return err
		}
		table, err := gpu.NewDescTable([]driver.DescHeap{pb.heap})
		if err != nil {
			return err
		}
		pb.table = table
	}

	for i, v := range pb.reflection.Vars {
		val, ok := pb.values[v.Name]
		if !ok {
			continue
		}
		if err := bindVar(pb.heap, descs[i].Nr, v.Kind, val); err != nil {
			return fmt.Errorf("rdg: param block %q: var %q: %w", pb.name, v.Name, err)
		}
	}
	pb.packed = true
	return nil
}

func bindVar(heap driver.DescHeap, nr int, kind VarKind, val any) error {
	switch kind {
	case VarBuffer, VarConstant:
		buf, ok := val.(driver.Buffer)
		if !ok {
			return fmt.Errorf("expected driver.Buffer, got %s", reflect.TypeOf(val))
		}
		heap.SetBuffer(0, nr, 0, []driver.Buffer{buf}, []int64{0}, []int64{buf.Cap()})
	case VarTexture:
		view, ok := val.(driver.ImageView)
		if !ok {
			return fmt.Errorf("expected driver.ImageView, got %s", reflect.TypeOf(val))
		}
		heap.SetImage(0, nr, 0, []driver.ImageView{view})
	case VarSampler:
		splr, ok := val.(driver.Sampler)
		if !ok {
			return fmt.Errorf("expected driver.Sampler, got %s", reflect.TypeOf(val))
		}
		heap.SetSampler(0, nr, 0, []driver.Sampler{splr})
	default:
		return fmt.Errorf("unknown var kind %d", kind)
	}
	return nil
}

// GetParamBlock returns the opaque handle (a bound descriptor
// table) a PassContext binds into a command buffer. Pack must have
// been called first.
func (pb *ParamBlock) GetParamBlock() (driver.DescTable, error) {
	if !pb.packed {
		return nil, fmt.Errorf("rdg: param block %q: not packed", pb.name)
	}
	return pb.table, nil
}
