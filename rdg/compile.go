package rdg

// CompileOptions configures Compile. It carries no fields yet;
// pass reordering and resource aliasing are reserved for later
// work on top of the resource/pass arena this builder already
// produces.
type CompileOptions struct{}

// Compile is presently a no-op placeholder, exactly as the source
// engine's RdgGraph::compile is: the pass/resource arena recorded
// by Graph is already in a directly executable order, so there is
// nothing to reorder yet. It exists so callers can insert a
// compile step ahead of Execute without a breaking API change once
// pass reordering or resource aliasing is implemented.
func (g *Graph) Compile(_ CompileOptions) error {
	return nil
}
