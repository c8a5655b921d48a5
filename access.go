package ecsloop

import (
	"reflect"

	"github.com/cespare/xxhash/v2"
)

// typeToken is a stable, compact identity for a reflect.Type used in debug
// server and doctor-CLI output, where printing full package-qualified type
// names for every query slot would be noisy.
func typeToken(t reflect.Type) uint64 {
	if t == nil {
		return 0
	}
	return xxhash.Sum64String(t.String())
}

// queryAccess is one query parameter's (include_mut, include_ro, exclude)
// triple. IncludeMut and IncludeRO partition the Get types by declared
// mutability; Exclude holds the Without types. With types narrow iteration
// membership (see query.go) but do not themselves participate in the
// conflict triple.
type queryAccess struct {
	IncludeMut Bitmask
	IncludeRO  Bitmask
	Exclude    Bitmask
}

func addSlot(t *queryAccess, id ComponentID, readOnly bool) {
	if readOnly {
		t.IncludeRO.Set(id)
	} else {
		t.IncludeMut.Set(id)
	}
}

// AccessDescriptor is the static summary of what a system reads and writes,
// derived once at registration time from the capability handles (Command,
// QueryN, Resource/ResourceRO, EventReader/EventWriter, State/NextState)
// passed alongside the system function. It never changes after
// registration.
type AccessDescriptor struct {
	HasCommand bool
	HasQuery   bool
	Queries    []queryAccess

	ResourceMut []reflect.Type
	ResourceRO  []reflect.Type

	EventRead  []reflect.Type
	EventWrite []reflect.Type

	StateRead      []reflect.Type
	StateNextWrite []reflect.Type
}

func containsType(list []reflect.Type, t reflect.Type) bool {
	for _, x := range list {
		if x == t {
			return true
		}
	}
	return false
}

func anyOverlap(a, b []reflect.Type) bool {
	for _, x := range a {
		if containsType(b, x) {
			return true
		}
	}
	return false
}

// paramDescriber is implemented by every system-parameter capability type
// (Command, QueryN, Resource, ResourceRO, EventReader, EventWriter, State,
// NextState). Each implementation contributes its own access to the
// descriptor being built for a system.
type paramDescriber interface {
	describe(*AccessDescriptor)
}

// describeParams builds the AccessDescriptor for a system from its already
// constructed capability handles.
func describeParams(params []any) AccessDescriptor {
	var d AccessDescriptor
	for _, p := range params {
		if pd, ok := p.(paramDescriber); ok {
			pd.describe(&d)
		}
	}
	return d
}

// queryTriplesConflict checks a single pair of query triples for overlap:
// the mutually-included component types overlap with at least one side
// mutable, and neither side's exclude set separates them.
func queryTriplesConflict(a, b queryAccess) bool {
	aInclude := a.IncludeMut.Or(a.IncludeRO)
	bInclude := b.IncludeMut.Or(b.IncludeRO)

	mutualOverlap := a.IncludeMut.ContainsAny(bInclude) || b.IncludeMut.ContainsAny(aInclude)
	if !mutualOverlap {
		return false
	}
	if a.Exclude.ContainsAny(bInclude) {
		return false
	}
	if b.Exclude.ContainsAny(aInclude) {
		return false
	}
	return true
}

// Conflicts implements the five-rule conflict predicate: command vs
// command/query, query/query triple overlap, resource mutable/read-only
// overlap, event write/read overlap, and state next-write overlap.
func (a *AccessDescriptor) Conflicts(b *AccessDescriptor) bool {
	// Rule 1: command vs command/query.
	if a.HasCommand && (b.HasCommand || b.HasQuery) {
		return true
	}
	if b.HasCommand && (a.HasCommand || a.HasQuery) {
		return true
	}

	// Rule 2: query/query triple overlap.
	if a.HasQuery && b.HasQuery {
		for _, ta := range a.Queries {
			for _, tb := range b.Queries {
				if queryTriplesConflict(ta, tb) {
					return true
				}
			}
		}
	}

	// Rule 3: resource overlap — either writes what the other reads or writes.
	for _, t := range a.ResourceMut {
		if containsType(b.ResourceMut, t) || containsType(b.ResourceRO, t) {
			return true
		}
	}
	for _, t := range b.ResourceMut {
		if containsType(a.ResourceMut, t) || containsType(a.ResourceRO, t) {
			return true
		}
	}

	// Rule 4: event overlap when at least one side writes.
	if anyOverlap(a.EventWrite, b.EventWrite) || anyOverlap(a.EventWrite, b.EventRead) ||
		anyOverlap(b.EventWrite, a.EventRead) {
		return true
	}

	// Rule 5: state-next-write overlap.
	if anyOverlap(a.StateNextWrite, b.StateNextWrite) {
		return true
	}

	return false
}
