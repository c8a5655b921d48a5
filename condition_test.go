package ecsloop

import "testing"

func TestInStateNotInState(t *testing.T) {
	w := NewWorld()
	InsertState(w, PhaseMenu)

	if !InState(PhaseMenu).Evaluate(w) {
		t.Fatalf("expected InState(PhaseMenu) true")
	}
	if InState(PhasePlaying).Evaluate(w) {
		t.Fatalf("expected InState(PhasePlaying) false")
	}
	if !NotInState(PhasePlaying).Evaluate(w) {
		t.Fatalf("expected NotInState(PhasePlaying) true")
	}
}

func TestAllRequiresEveryCondition(t *testing.T) {
	w := NewWorld()
	InsertState(w, PhaseMenu)
	c := All(AlwaysTrue(), InState(PhaseMenu))
	if !c.Evaluate(w) {
		t.Fatalf("expected All of passing conditions to pass")
	}
	c2 := All(AlwaysTrue(), InState(PhasePlaying))
	if c2.Evaluate(w) {
		t.Fatalf("expected All to fail when one condition fails")
	}
}

func TestAnyRequiresOneCondition(t *testing.T) {
	w := NewWorld()
	InsertState(w, PhaseMenu)
	c := Any(InState(PhasePlaying), InState(PhaseMenu))
	if !c.Evaluate(w) {
		t.Fatalf("expected Any to pass when one condition passes")
	}
	c2 := Any(InState(PhasePlaying))
	if c2.Evaluate(w) {
		t.Fatalf("expected Any to fail when no condition passes")
	}
}

func TestUserPredicate(t *testing.T) {
	w := NewWorld()
	InsertResource(w, Score{N: 7})
	c := UserPredicate(func(w *World) bool {
		v, _ := NewResourceRO[Score](w).Get()
		return v.N > 5
	})
	if !c.Evaluate(w) {
		t.Fatalf("expected predicate over Score{N:7} to pass")
	}
}
