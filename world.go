package ecsloop

import (
	"reflect"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// World owns the entity registry, the typed component stores, the resource
// map, the event queues and the state resources. Everything a system reads
// or writes flows through a World; the Stage Runner only ever reasons about
// the type identities involved, never the values themselves.
type World struct {
	mu sync.Mutex

	pool       *entityPool
	masks      []Bitmask        // indexed by Entity.Index()
	stores     []removableStore // indexed by ComponentID, for despawn cleanup
	typeStores map[reflect.Type]any

	resources map[reflect.Type]any
	events    map[reflect.Type]*eventBox
	states    map[reflect.Type]*stateBox

	cmdMu    sync.Mutex
	commands []func(*World)

	logger *logger
}

// NewWorld returns an empty World ready to register components and
// resources into.
func NewWorld() *World {
	return &World{
		pool:      newEntityPool(),
		resources: make(map[reflect.Type]any),
		events:    make(map[reflect.Type]*eventBox),
		states:    make(map[reflect.Type]*stateBox),
		logger:    nopLogger(),
	}
}

// removableStore is implemented by every typed component store so the
// World can strip all components from a despawned entity without knowing
// their concrete types.
type removableStore interface {
	remove(e Entity)
}

func (w *World) ensureMask(idx uint32) {
	for uint32(len(w.masks)) <= idx {
		w.masks = append(w.masks, Bitmask{})
	}
}

// Spawn allocates a fresh Entity with no components.
func (w *World) Spawn() Entity {
	w.mu.Lock()
	defer w.mu.Unlock()
	e := w.pool.create()
	w.ensureMask(e.Index())
	w.masks[e.Index()] = Bitmask{}
	return e
}

// Despawn destroys e, stripping every component it carries. Despawning a
// stale or already-dead handle is a no-op.
func (w *World) Despawn(e Entity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.pool.alive(e) {
		return
	}
	for _, s := range w.stores {
		if s != nil {
			s.remove(e)
		}
	}
	w.masks[e.Index()] = Bitmask{}
	w.pool.destroy(e)
}

// Alive reports whether e refers to a currently live entity.
func (w *World) Alive(e Entity) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pool.alive(e)
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pool.count()
}

// maskOf returns the component presence mask for e. Caller must hold w.mu
// or otherwise guarantee no concurrent structural mutation (true during
// system execution thanks to the conflict predicate).
func (w *World) maskOf(e Entity) Bitmask {
	idx := e.Index()
	if int(idx) >= len(w.masks) {
		return Bitmask{}
	}
	return w.masks[idx]
}

// enqueueCommand buffers a deferred structural mutation; it is applied at
// the owning Stage Runner's end-of-stage flush, never mid-stage.
func (w *World) enqueueCommand(fn func(*World)) {
	w.cmdMu.Lock()
	w.commands = append(w.commands, fn)
	w.cmdMu.Unlock()
}

// flushCommands applies and clears all buffered commands. Called by the
// Stage Runner only once the stage's pending/in_flight sets have drained.
func (w *World) flushCommands() {
	w.cmdMu.Lock()
	cmds := w.commands
	w.commands = nil
	w.cmdMu.Unlock()
	for _, fn := range cmds {
		fn(w)
	}
}

// ResourceTypeNames returns the registered names of every resource type
// currently holding a value, sorted for stable diagnostic output (the
// backing map, like the event and state maps, has no intrinsic order).
func (w *World) ResourceTypeNames() []string {
	w.mu.Lock()
	types := maps.Keys(w.resources)
	boxes := make([]*resourceBox, len(types))
	for i, t := range types {
		boxes[i], _ = w.resources[t].(*resourceBox)
	}
	w.mu.Unlock()

	names := make([]string, 0, len(types))
	for i, t := range types {
		if b := boxes[i]; b != nil {
			b.mu.RLock()
			ok := b.ok
			b.mu.RUnlock()
			if !ok {
				continue
			}
		}
		names = append(names, t.String())
	}
	slices.Sort(names)
	return names
}
