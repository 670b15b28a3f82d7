package rdg

// Tracer receives begin/end notifications for the profiling events
// PushEvent/PopEvent scope around passes. It stands in for the
// source engine's ProfilerCpu/ProfilerGpu singletons, which belong
// to a profiling subsystem this core does not implement; Executor
// still emits the begin/end calls the graph's event stack records,
// so a concrete profiler can be plugged in without changing the
// graph-building API.
type Tracer interface {
	BeginEvent(name, data string)
	EndEvent()
}

// NopTracer discards every event; it is Executor's default Tracer.
type NopTracer struct{}

func (NopTracer) BeginEvent(string, string) {}
func (NopTracer) EndEvent()                 {}
