package ecsloop

import (
	"fmt"
	"reflect"
	"time"
)

func nowMs() float64 {
	return float64(time.Now().UnixNano()) / 1e6
}

// NodeID is the dense index of a System Node within its App's arena.
type NodeID int

// resettable is implemented by QueryN capability types: the dispatcher
// rewinds each query's cursor immediately before calling the system, so a
// query reflects the World state as of this invocation rather than a stale
// prior one.
type resettable interface {
	Reset()
}

// systemNode is one registered system: its callable, the stage it belongs
// to, its statically-derived AccessDescriptor, its scheduling edges and set
// memberships, and the running EWMA of its own wall-clock cost. The access
// descriptor never changes after registration; before can still gain edges
// from later registrations, depth is recomputed by prepare, and avgMs is
// updated by the Stage Runner after every run.
type systemNode struct {
	id     NodeID
	stage  Stage
	name   string
	fn     reflect.Value
	params []reflect.Value
	access AccessDescriptor

	condition  Condition
	sets       []any
	before     []NodeID // predecessors: edges resolved from InSet/Before/After
	mainThread bool

	pendingBefore []NodeID // this node must run before these (resolved post-insert)
	pendingAfter  []NodeID // this node must run after these (resolved post-insert)

	depth    int
	avgMs    float64
	hasRunMs bool
}

// Token returns a stable hash of the node's function type signature, for
// diagnostics output where a full reflect.Type string would be noisy.
func (n *systemNode) Token() uint64 {
	return typeToken(n.fn.Type())
}

// Name returns the registered system's function type name.
func (n *systemNode) Name() string { return n.name }

// Stage returns the stage this node runs in.
func (n *systemNode) Stage() Stage { return n.stage }

// Depth returns the node's memoized scheduling depth.
func (n *systemNode) Depth() int { return n.depth }

// AvgMs returns the node's current EWMA of wall-clock cost.
func (n *systemNode) AvgMs() float64 { return n.avgMs }

func (n *systemNode) resetParams() {
	for _, p := range n.params {
		if r, ok := p.Interface().(resettable); ok {
			r.Reset()
		}
	}
}

// run invokes the system. The node's condition has already been evaluated
// by the dispatcher before this node was ever made eligible to run, so run
// itself unconditionally resets params and calls the system.
func (n *systemNode) run(w *World) (elapsedMs float64) {
	n.resetParams()

	start := nowMs()
	n.fn.Call(n.params)
	elapsedMs = nowMs() - start

	if !n.hasRunMs {
		n.avgMs = elapsedMs
		n.hasRunMs = true
	} else {
		// EWMA smoothing factor matches the reference engine's System::run().
		n.avgMs = 0.1*elapsedMs + 0.9*n.avgMs
	}
	return elapsedMs
}

// SystemOption configures a registered System Node at AddSystem time.
type SystemOption func(*systemNode)

// InSet declares this system a member of set value v, implicitly ordering
// it against every other same-stage system already or later declared a
// member of a different value of the same set type, by the order given to
// ConfigureSets. Members of the same value are not ordered by it.
func InSet(v any) SystemOption {
	return func(n *systemNode) { n.sets = append(n.sets, v) }
}

// RunIf attaches a Condition gating this system's execution.
func RunIf(c Condition) SystemOption {
	return func(n *systemNode) { n.condition = c }
}

// OnMainThread marks this system as required to run on the driver thread,
// never inside a worker goroutine.
func OnMainThread() SystemOption {
	return func(n *systemNode) { n.mainThread = true }
}

// Before declares that this system must run before h's system, provided
// both are registered against the same stage; a cross-stage reference is
// an UnknownSchedulerRef and is silently ignored.
func Before(h *SystemHandle) SystemOption {
	return func(n *systemNode) { n.pendingBefore = append(n.pendingBefore, h.id) }
}

// After declares that this system must run after h's system.
func After(h *SystemHandle) SystemOption {
	return func(n *systemNode) { n.pendingAfter = append(n.pendingAfter, h.id) }
}

// SystemHandle identifies a registered System Node for use in Before/After
// options on later registrations.
type SystemHandle struct {
	id NodeID
}

func validateSystemFunc(fn any, params []any) reflect.Value {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		panic(fmt.Sprintf("ecsloop: AddSystem requires a function, got %T", fn))
	}
	ft := fv.Type()
	if ft.NumIn() != len(params) {
		panic(fmt.Sprintf("ecsloop: system %s expects %d parameters, got %d handles", ft, ft.NumIn(), len(params)))
	}
	return fv
}

func systemName(fn any) string {
	return reflect.TypeOf(fn).String()
}
