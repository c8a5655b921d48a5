package ecsloop

import (
	"fmt"
	"reflect"
	"sync"
)

// setRegistry records, per set-value type S, the total order declared by
// ConfigureSets. A node's membership in a ranked set value gains implicit
// ordering edges against every other same-stage node already or later
// registered against a different-ranked value of the same S type.
type setRegistry struct {
	mu     sync.Mutex
	orders map[reflect.Type]map[any]int
}

func newSetRegistry() *setRegistry {
	return &setRegistry{orders: make(map[reflect.Type]map[any]int)}
}

func (r *setRegistry) configure(vals []any) {
	if len(vals) == 0 {
		return
	}
	t := reflect.TypeOf(vals[0])
	order := make(map[any]int, len(vals))
	for i, v := range vals {
		order[v] = i
	}
	r.mu.Lock()
	r.orders[t] = order
	r.mu.Unlock()
}

func (r *setRegistry) rank(v any) (int, bool) {
	t := reflect.TypeOf(v)
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.orders[t]
	if !ok {
		return 0, false
	}
	i, ok := m[v]
	return i, ok
}

// ConfigureSets declares the total order vals[0] < vals[1] < ... < vals[N]
// over set-value type S. Systems later added InSet(vals[i]) are ordered
// against systems InSet(vals[j]) in the same stage according to i<j (spec
// §4.3).
func ConfigureSets[S comparable](app *App, vals ...S) {
	erased := make([]any, len(vals))
	for i, v := range vals {
		erased[i] = v
	}
	app.sets.configure(erased)
}

// CycleDetected is returned when adding a dependency edge would make a
// system depend, directly or transitively, on itself.
type CycleDetected struct {
	Node string
}

func (e *CycleDetected) Error() string {
	return fmt.Sprintf("ecsloop: cycle detected reaching system %q", e.Node)
}

// reachesSelf runs a DFS over predecessor edges starting at every direct
// predecessor of target, looking for a path back to target. Used right
// after a new edge is added, rejecting any edge that would let target
// reach itself again.
func reachesSelf(nodes []*systemNode, target NodeID) bool {
	visited := make(map[NodeID]bool)
	var visit func(id NodeID) bool
	visit = func(id NodeID) bool {
		if id == target {
			return true
		}
		if visited[id] {
			return false
		}
		visited[id] = true
		for _, pred := range nodes[id].before {
			if visit(pred) {
				return true
			}
		}
		return false
	}
	for _, pred := range nodes[target].before {
		if visit(pred) {
			return true
		}
	}
	return false
}

// addEdge records that after must run after before, provided both belong
// to the same stage; a cross-stage edge is an UnknownSchedulerRef and is
// silently ignored, matching the reference scheduler's
// dynamic_cast-guarded edge insertion.
func addEdge(nodes []*systemNode, beforeID, afterID NodeID) error {
	if nodes[beforeID].stage != nodes[afterID].stage {
		return nil
	}
	if beforeID == afterID {
		return nil
	}
	nodes[afterID].before = append(nodes[afterID].before, beforeID)
	if reachesSelf(nodes, afterID) {
		nodes[afterID].before = nodes[afterID].before[:len(nodes[afterID].before)-1]
		return &CycleDetected{Node: nodes[afterID].name}
	}
	return nil
}

// applySetMembership inserts implicit ordering edges between n and every
// already-registered same-stage node sharing a ranked set-value type with
// n: a member of a lower-ranked value (per ConfigureSets) is ordered before
// a member of a higher-ranked value, whichever was registered first.
// Members of the same value get no edge.
func applySetMembership(nodes []*systemNode, sets *setRegistry, n *systemNode) error {
	for _, v := range n.sets {
		nRank, ok := sets.rank(v)
		if !ok {
			continue
		}
		vt := reflect.TypeOf(v)
		for _, other := range nodes {
			if other.id == n.id || other.stage != n.stage {
				continue
			}
			for _, ov := range other.sets {
				if reflect.TypeOf(ov) != vt {
					continue
				}
				oRank, ok := sets.rank(ov)
				if !ok || oRank == nRank {
					continue
				}
				var err error
				if nRank < oRank {
					err = addEdge(nodes, n.id, other.id)
				} else {
					err = addEdge(nodes, other.id, n.id)
				}
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}
