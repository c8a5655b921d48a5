package ecsloop

import (
	"reflect"
	"sync"
)

// eventBox is a double-buffered per-type event queue. An event written
// during tick N is visible to readers during tick N and tick N+1, then
// dropped on tick N+2's swap — a two-tick retention window. Unlike a simple
// front/back swap that only exposes one half at a time, both halves are
// concatenated on read so a reader sees events from the current and the
// immediately preceding tick at once.
type eventBox struct {
	mu       sync.Mutex
	current  []any
	previous []any
}

func (b *eventBox) write(v any) {
	b.mu.Lock()
	b.current = append(b.current, v)
	b.mu.Unlock()
}

func (b *eventBox) readAll() []any {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.previous) == 0 {
		out := make([]any, len(b.current))
		copy(out, b.current)
		return out
	}
	out := make([]any, 0, len(b.previous)+len(b.current))
	out = append(out, b.previous...)
	out = append(out, b.current...)
	return out
}

// tick retires the previous buffer and rotates current into its place.
func (b *eventBox) tick() {
	b.mu.Lock()
	b.previous = b.current
	b.current = nil
	b.mu.Unlock()
}

func (w *World) eventBoxFor(t reflect.Type) *eventBox {
	w.mu.Lock()
	defer w.mu.Unlock()
	if b, ok := w.events[t]; ok {
		return b
	}
	b := &eventBox{}
	w.events[t] = b
	return b
}

// TickEvents rotates every registered event type's double buffer. The App
// Driver calls this once per main-loop tick, at stage First.
func (w *World) TickEvents() {
	w.mu.Lock()
	boxes := make([]*eventBox, 0, len(w.events))
	for _, b := range w.events {
		boxes = append(boxes, b)
	}
	w.mu.Unlock()
	for _, b := range boxes {
		b.tick()
	}
}

// EventWriter is a capability handle that appends events of type T to the
// current tick's buffer.
type EventWriter[T any] struct {
	box *eventBox
}

// NewEventWriter binds an EventWriter for T to w.
func NewEventWriter[T any](w *World) EventWriter[T] {
	return EventWriter[T]{box: w.eventBoxFor(typeOf[T]())}
}

// Send enqueues an event, visible to readers from this tick through the
// next.
func (wtr EventWriter[T]) Send(v T) {
	wtr.box.write(v)
}

func (wtr EventWriter[T]) describe(d *AccessDescriptor) {
	d.EventWrite = append(d.EventWrite, typeOf[T]())
}

// EventReader is a capability handle that observes events of type T written
// during the current or immediately preceding tick.
type EventReader[T any] struct {
	box *eventBox
}

// NewEventReader binds an EventReader for T to w.
func NewEventReader[T any](w *World) EventReader[T] {
	return EventReader[T]{box: w.eventBoxFor(typeOf[T]())}
}

// Read returns every T event currently within the two-tick retention
// window, oldest first.
func (r EventReader[T]) Read() []T {
	raw := r.box.readAll()
	out := make([]T, len(raw))
	for i, v := range raw {
		out[i] = v.(T)
	}
	return out
}

func (r EventReader[T]) describe(d *AccessDescriptor) {
	d.EventRead = append(d.EventRead, typeOf[T]())
}
