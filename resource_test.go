package ecsloop

import "testing"

type Score struct{ N int }

func TestResourceGetSet(t *testing.T) {
	w := NewWorld()
	r := NewResource[Score](w)
	if _, ok := r.Get(); ok {
		t.Fatalf("expected missing resource before InsertResource")
	}

	InsertResource(w, Score{N: 1})
	v, ok := r.Get()
	if !ok || v.N != 1 {
		t.Fatalf("expected Score{1}, got %+v ok=%v", v, ok)
	}

	r.Set(Score{N: 2})
	v, ok = NewResourceRO[Score](w).Get()
	if !ok || v.N != 2 {
		t.Fatalf("expected Score{2} via ResourceRO, got %+v", v)
	}
}

func TestRemoveResource(t *testing.T) {
	w := NewWorld()
	InsertResource(w, Score{N: 5})
	RemoveResource[Score](w)
	if _, ok := NewResource[Score](w).Get(); ok {
		t.Fatalf("expected resource gone after RemoveResource")
	}
}

func TestResourceDescribeMarksMutable(t *testing.T) {
	var d AccessDescriptor
	NewResource[Score](NewWorld()).describe(&d)
	if len(d.ResourceMut) != 1 {
		t.Fatalf("expected one ResourceMut entry, got %d", len(d.ResourceMut))
	}

	var d2 AccessDescriptor
	NewResourceRO[Score](NewWorld()).describe(&d2)
	if len(d2.ResourceRO) != 1 {
		t.Fatalf("expected one ResourceRO entry, got %d", len(d2.ResourceRO))
	}
}
