package ecsloop

import "testing"

func TestConflictsCommandVsCommand(t *testing.T) {
	a := AccessDescriptor{HasCommand: true}
	b := AccessDescriptor{HasCommand: true}
	if !a.Conflicts(&b) {
		t.Fatalf("expected two Command-holding systems to conflict")
	}
}

func TestConflictsCommandVsQuery(t *testing.T) {
	a := AccessDescriptor{HasCommand: true}
	b := AccessDescriptor{HasQuery: true}
	if !a.Conflicts(&b) {
		t.Fatalf("expected Command to conflict with any Query")
	}
}

func TestConflictsQueryOverlapMutable(t *testing.T) {
	w := NewWorld()
	var a, b AccessDescriptor
	NewQuery1[Position](w).describe(&a)
	NewQuery1[Position](w).describe(&b)
	if !a.Conflicts(&b) {
		t.Fatalf("expected two mutable queries over the same component to conflict")
	}
}

func TestNoConflictBothReadOnly(t *testing.T) {
	w := NewWorld()
	var a, b AccessDescriptor
	NewQuery1[Position](w, ReadOnly(0)).describe(&a)
	NewQuery1[Position](w, ReadOnly(0)).describe(&b)
	if a.Conflicts(&b) {
		t.Fatalf("expected two read-only queries over the same component not to conflict")
	}
}

func TestNoConflictDisjointQueries(t *testing.T) {
	w := NewWorld()
	var a, b AccessDescriptor
	NewQuery1[Position](w).describe(&a)
	NewQuery1[Velocity](w).describe(&b)
	if a.Conflicts(&b) {
		t.Fatalf("expected queries over disjoint components not to conflict")
	}
}

func TestConflictsResourceMutVsRO(t *testing.T) {
	w := NewWorld()
	var a, b AccessDescriptor
	NewResource[Score](w).describe(&a)
	NewResourceRO[Score](w).describe(&b)
	if !a.Conflicts(&b) {
		t.Fatalf("expected a resource writer to conflict with a reader of the same type")
	}
}

func TestNoConflictDifferentResources(t *testing.T) {
	w := NewWorld()
	var a, b AccessDescriptor
	NewResource[Score](w).describe(&a)
	NewResource[Damage](w).describe(&b)
	if a.Conflicts(&b) {
		t.Fatalf("expected writers of distinct resource types not to conflict")
	}
}

func TestConflictsEventWriteVsRead(t *testing.T) {
	w := NewWorld()
	var a, b AccessDescriptor
	NewEventWriter[Damage](w).describe(&a)
	NewEventReader[Damage](w).describe(&b)
	if !a.Conflicts(&b) {
		t.Fatalf("expected an event writer to conflict with a reader of the same event type")
	}
}

func TestNoConflictTwoEventReaders(t *testing.T) {
	w := NewWorld()
	var a, b AccessDescriptor
	NewEventReader[Damage](w).describe(&a)
	NewEventReader[Damage](w).describe(&b)
	if a.Conflicts(&b) {
		t.Fatalf("expected two readers of the same event type not to conflict")
	}
}

func TestConflictsStateNextWriteOverlap(t *testing.T) {
	w := NewWorld()
	var a, b AccessDescriptor
	NewNextState[GamePhase](w).describe(&a)
	NewNextState[GamePhase](w).describe(&b)
	if !a.Conflicts(&b) {
		t.Fatalf("expected two next-state writers of the same state type to conflict")
	}
}

func TestNoConflictStateReadVsRead(t *testing.T) {
	w := NewWorld()
	var a, b AccessDescriptor
	NewState[GamePhase](w).describe(&a)
	NewState[GamePhase](w).describe(&b)
	if a.Conflicts(&b) {
		t.Fatalf("expected two state readers not to conflict")
	}
}
