package ecsloop

// Command is the deferred-mutation capability handle. Every structural
// change it queues — despawn, attach, detach, resource insert/remove — is
// buffered on World and only applied at the owning stage's end-of-stage
// flush, never mid-stage. Spawn is the exception: it allocates the entity
// immediately. Per rule 1 of the conflict
// predicate, a system taking Command conflicts with every other system
// taking Command or any Query in the same stage, so exactly one
// Command-holding system ever runs at a time.
type Command struct {
	world *World
}

// NewCommand binds a Command handle to w.
func NewCommand(w *World) Command {
	return Command{world: w}
}

func (c Command) describe(d *AccessDescriptor) {
	d.HasCommand = true
}

// Spawn allocates a new, component-less entity right away and returns its
// handle. The handle is valid to reference in further queued mutations
// (e.g. attaching components to it) before the flush actually runs, since
// entity allocation itself happens eagerly; only the component writes are
// deferred.
func (c Command) Spawn() Entity {
	e := c.world.Spawn()
	return e
}

// Despawn queues destruction of e.
func (c Command) Despawn(e Entity) {
	c.world.enqueueCommand(func(w *World) {
		w.Despawn(e)
	})
}

// Attach queues attaching a copy of value to e under type T.
func Attach[T any](c Command, e Entity, value T) {
	c.world.enqueueCommand(func(w *World) {
		AddComponent[T](w, e, value)
	})
}

// Detach queues removing T from e.
func Detach[T any](c Command, e Entity) {
	c.world.enqueueCommand(func(w *World) {
		RemoveComponent[T](w, e)
	})
}

// InsertResourceCmd queues installing v as the T singleton.
func InsertResourceCmd[T any](c Command, v T) {
	c.world.enqueueCommand(func(w *World) {
		InsertResource[T](w, v)
	})
}

// RemoveResourceCmd queues clearing the T singleton.
func RemoveResourceCmd[T any](c Command) {
	c.world.enqueueCommand(func(w *World) {
		RemoveResource[T](w)
	})
}
