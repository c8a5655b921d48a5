package ecsloop

import "testing"

func TestCommandSpawnIsEagerAttachIsDeferred(t *testing.T) {
	w := NewWorld()
	cmd := NewCommand(w)

	e := cmd.Spawn()
	if !w.Alive(e) {
		t.Fatalf("expected Spawn to allocate the entity immediately")
	}

	Attach(cmd, e, Position{X: 3})
	if HasComponent[Position](w, e) {
		t.Fatalf("expected Attach to be deferred until flush")
	}

	w.flushCommands()
	pos, ok := GetComponent[Position](w, e)
	if !ok || pos.X != 3 {
		t.Fatalf("expected Position{3} to land after flush, got %+v ok=%v", pos, ok)
	}
}

func TestCommandDespawnIsDeferred(t *testing.T) {
	w := NewWorld()
	cmd := NewCommand(w)
	e := cmd.Spawn()

	cmd.Despawn(e)
	if !w.Alive(e) {
		t.Fatalf("expected Despawn to be deferred until flush")
	}

	w.flushCommands()
	if w.Alive(e) {
		t.Fatalf("expected entity dead after flush")
	}
}

func TestCommandDetachIsDeferred(t *testing.T) {
	w := NewWorld()
	e := w.Spawn()
	AddComponent(w, e, Position{X: 1})

	cmd := NewCommand(w)
	Detach[Position](cmd, e)
	if !HasComponent[Position](w, e) {
		t.Fatalf("expected Detach to be deferred until flush")
	}

	w.flushCommands()
	if HasComponent[Position](w, e) {
		t.Fatalf("expected component gone after flush")
	}
}

func TestCommandResourceInsertRemoveDeferred(t *testing.T) {
	w := NewWorld()
	cmd := NewCommand(w)

	InsertResourceCmd(cmd, Score{N: 9})
	if _, ok := NewResource[Score](w).Get(); ok {
		t.Fatalf("expected resource insert to be deferred until flush")
	}
	w.flushCommands()
	v, ok := NewResource[Score](w).Get()
	if !ok || v.N != 9 {
		t.Fatalf("expected Score{9} after flush, got %+v ok=%v", v, ok)
	}

	RemoveResourceCmd[Score](cmd)
	w.flushCommands()
	if _, ok := NewResource[Score](w).Get(); ok {
		t.Fatalf("expected resource gone after deferred remove flush")
	}
}

func TestCommandDescribeSetsHasCommand(t *testing.T) {
	var d AccessDescriptor
	NewCommand(NewWorld()).describe(&d)
	if !d.HasCommand {
		t.Fatalf("expected HasCommand true")
	}
}
