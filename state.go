package ecsloop

import (
	"reflect"
	"sync"
)

// stateBox holds the current/next pair for one state type T. justCreated is
// the public just_created flag: true only during the single tick
// immediately following InsertState, false on every tick after — including
// later ticks where a NextState.Set promotion lands. transitioned is a
// separate, package-private flag that IS true on every tick a transition
// (insertion or promotion) lands; OnEnter/OnExit are built on it instead of
// on JustCreated, so they still fire on every state change.
type stateBox struct {
	mu           sync.RWMutex
	hasCurrent   bool
	current      any
	hasNext      bool
	next         any
	justCreated  bool
	transitioned bool
}

func (w *World) stateBoxFor(t reflect.Type) *stateBox {
	w.mu.Lock()
	defer w.mu.Unlock()
	if b, ok := w.states[t]; ok {
		return b
	}
	b := &stateBox{}
	w.states[t] = b
	return b
}

// InsertState installs v as the current value of state type T, marking it
// just-created. Any pending next-value write is discarded.
func InsertState[T any](w *World, v T) {
	b := w.stateBoxFor(typeOf[T]())
	b.mu.Lock()
	b.current, b.hasCurrent = v, true
	b.next, b.hasNext = nil, false
	b.justCreated = true
	b.transitioned = true
	b.mu.Unlock()
}

// ApplyStateTransitions promotes every state type's pending next value to
// current. justCreated is unconditionally cleared every call — it is only
// ever (re)set by InsertState, so it reads true for exactly the one tick
// following insertion and false on every tick after, regardless of any
// later transition. transitioned instead tracks every promotion, current
// tick only, for OnEnter/OnExit to gate on. The App Driver calls this once
// per tick, right after stage StateTransition has run.
func (w *World) ApplyStateTransitions() {
	w.mu.Lock()
	boxes := make([]*stateBox, 0, len(w.states))
	for _, b := range w.states {
		boxes = append(boxes, b)
	}
	w.mu.Unlock()

	for _, b := range boxes {
		b.mu.Lock()
		if b.hasNext {
			b.current, b.hasCurrent = b.next, true
			b.next, b.hasNext = nil, false
			b.transitioned = true
		} else {
			b.transitioned = false
		}
		b.justCreated = false
		b.mu.Unlock()
	}
}

// State is a read-only capability handle observing the current value of
// state type T and whether it was just created by InsertState.
type State[T any] struct {
	box *stateBox
}

// NewState binds a State accessor for T to w.
func NewState[T any](w *World) State[T] {
	return State[T]{box: w.stateBoxFor(typeOf[T]())}
}

// Get returns the current value and whether it has been installed.
func (s State[T]) Get() (T, bool) {
	s.box.mu.RLock()
	defer s.box.mu.RUnlock()
	if !s.box.hasCurrent {
		var zero T
		return zero, false
	}
	return s.box.current.(T), true
}

// JustCreated reports whether this state's current value was installed by
// InsertState during the current tick. True for exactly the one tick right
// after insertion, false afterward — including on ticks where a later
// NextState.Set promotion lands.
func (s State[T]) JustCreated() bool {
	s.box.mu.RLock()
	defer s.box.mu.RUnlock()
	return s.box.justCreated
}

// transitionedThisTick reports whether this state's current value changed
// (by insertion or by a NextState.Set promotion) during the current tick.
// Unlike JustCreated, this fires on every transition, not only the first;
// OnEnter/OnExit are built on it.
func (s State[T]) transitionedThisTick() bool {
	s.box.mu.RLock()
	defer s.box.mu.RUnlock()
	return s.box.transitioned
}

func (s State[T]) describe(d *AccessDescriptor) {
	d.StateRead = append(d.StateRead, typeOf[T]())
}

// NextState is a write-only capability handle that queues the value state
// type T will transition to at the next ApplyStateTransitions call.
type NextState[T any] struct {
	box *stateBox
}

// NewNextState binds a NextState accessor for T to w.
func NewNextState[T any](w *World) NextState[T] {
	return NextState[T]{box: w.stateBoxFor(typeOf[T]())}
}

// Set queues v as the value T transitions to at the next
// ApplyStateTransitions call.
func (n NextState[T]) Set(v T) {
	n.box.mu.Lock()
	n.box.next, n.box.hasNext = v, true
	n.box.mu.Unlock()
}

func (n NextState[T]) describe(d *AccessDescriptor) {
	d.StateNextWrite = append(d.StateNextWrite, typeOf[T]())
}
