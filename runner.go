package ecsloop

import (
	"sort"
	"sync"
)

// stageRunner is the conflict-aware parallel dispatcher for one stage. It
// scans its nodes in scan order (ascending reach_ms, ties broken by
// ascending depth) and re-derives that order on every dispatch pass of
// run(), since reach_ms depends on each predecessor's current avg_ms.
type stageRunner struct {
	stage Stage
	nodes []*systemNode
	app   *App

	mu       sync.Mutex
	cond     *sync.Cond
	pending  map[NodeID]bool
	inFlight map[NodeID]*systemNode
	done     map[NodeID]bool
}

func newStageRunner(s Stage, nodes []*systemNode, app *App) *stageRunner {
	r := &stageRunner{stage: s, nodes: nodes, app: app}
	r.cond = sync.NewCond(&r.mu)
	return r
}

func reachMs(n *systemNode, byID map[NodeID]*systemNode) float64 {
	sum := 0.0
	for _, p := range n.before {
		sum += byID[p].avgMs
	}
	return sum
}

// scanOrder returns the node ids in this stage sorted by ascending depth,
// then stably by ascending reach_ms, so reach_ms is the primary key and
// depth only breaks ties.
func (r *stageRunner) scanOrder() []NodeID {
	byID := make(map[NodeID]*systemNode, len(r.nodes))
	for _, n := range r.nodes {
		byID[n.id] = n
	}
	order := make([]NodeID, len(r.nodes))
	reach := make(map[NodeID]float64, len(r.nodes))
	for i, n := range r.nodes {
		order[i] = n.id
		reach[n.id] = reachMs(n, byID)
	}
	sort.SliceStable(order, func(i, j int) bool {
		if ri, rj := reach[order[i]], reach[order[j]]; ri != rj {
			return ri < rj
		}
		return byID[order[i]].depth < byID[order[j]].depth
	})
	return order
}

// predecessorsDone reports whether every one of n's ordering predecessors
// has already finished this stage pass.
func (r *stageRunner) predecessorsDone(n *systemNode) bool {
	for _, p := range n.before {
		if !r.done[p] {
			return false
		}
	}
	return true
}

// compatible reports whether n's AccessDescriptor is safe to run alongside
// everything currently in flight: no main-thread exclusivity violation and
// no data-access conflict with any in-flight node.
func (r *stageRunner) compatible(n *systemNode) bool {
	if n.mainThread && len(r.inFlight) > 0 {
		return false
	}
	for _, other := range r.inFlight {
		if n.access.Conflicts(&other.access) {
			return false
		}
	}
	return true
}

func (r *stageRunner) runNode(w *World, n *systemNode) {
	defer func() {
		rec := recover()
		if rec != nil {
			r.app.log.systemPanic(n.name, rec)
		}
		r.mu.Lock()
		delete(r.inFlight, n.id)
		r.done[n.id] = true
		r.cond.Broadcast()
		r.mu.Unlock()
		if rec != nil {
			panic(rec)
		}
	}()
	n.run(w)
}

// run dispatches every node in the stage to completion: a single
// dispatcher loop scans for the first eligible pending node each pass,
// hands it to a worker (or runs it inline if main-thread), and blocks on a
// condvar whenever nothing is currently eligible. A node whose predecessors
// are done but whose Condition evaluates false is resolved right here, on
// the dispatcher thread, before the compatibility check ever runs — it is
// marked done without ever entering in_flight or touching a worker, so it
// never occupies a conflict slot. The stage is considered drained once
// pending and in_flight are both empty, at which point buffered commands
// are flushed and, for stage First, event buffers tick.
func (r *stageRunner) run(w *World) {
	byID := make(map[NodeID]*systemNode, len(r.nodes))
	for _, n := range r.nodes {
		byID[n.id] = n
	}

	r.mu.Lock()
	r.pending = make(map[NodeID]bool, len(r.nodes))
	r.inFlight = make(map[NodeID]*systemNode)
	r.done = make(map[NodeID]bool, len(r.nodes))
	for _, n := range r.nodes {
		r.pending[n.id] = true
	}

	for len(r.pending) > 0 || len(r.inFlight) > 0 {
		order := r.scanOrder()
		var next *systemNode
		for _, id := range order {
			if !r.pending[id] {
				continue
			}
			n := byID[id]
			if !r.predecessorsDone(n) {
				continue
			}
			if n.condition != nil && !n.condition.Evaluate(w) {
				delete(r.pending, id)
				r.done[id] = true
				continue
			}
			if r.compatible(n) {
				next = n
				break
			}
		}

		if next == nil {
			if len(r.pending) == 0 && len(r.inFlight) == 0 {
				break
			}
			r.cond.Wait()
			continue
		}

		delete(r.pending, next.id)
		r.inFlight[next.id] = next

		if next.mainThread {
			r.mu.Unlock()
			r.runNode(w, next)
			r.mu.Lock()
			continue
		}

		r.mu.Unlock()
		r.app.pool <- func() { r.runNode(w, next) }
		r.mu.Lock()
	}
	r.mu.Unlock()

	w.flushCommands()
	if r.stage == First {
		w.TickEvents()
	}
}
