package evclass

import "testing"

type baseEvent struct{}
type midEvent struct{}
type leafEvent struct{}
type otherEvent struct{}

func TestRegistry_RegisterAndName(t *testing.T) {
	r := NewRegistry()
	id := r.Register(baseEvent{}, "BaseEvent", 0, false)
	if id == 0 {
		t.Fatal("Register returned the invalid zero ID")
	}
	if got := r.Name(id); got != "BaseEvent" {
		t.Errorf("Name() = %q, want %q", got, "BaseEvent")
	}
	if r.Name(999) != "" {
		t.Errorf("Name() of unknown ID should be empty")
	}
}

func TestRegistry_ClassOf(t *testing.T) {
	r := NewRegistry()
	id := r.Register(baseEvent{}, "BaseEvent", 0, false)

	got, ok := r.ClassOf(baseEvent{})
	if !ok || got != id {
		t.Errorf("ClassOf(baseEvent{}) = (%v, %v), want (%v, true)", got, ok, id)
	}

	if _, ok := r.ClassOf(otherEvent{}); ok {
		t.Error("ClassOf(otherEvent{}) should not be found")
	}
}

func TestRegistry_IsSubtype(t *testing.T) {
	r := NewRegistry()
	base := r.Register(baseEvent{}, "BaseEvent", 0, false)
	mid := r.Register(midEvent{}, "MidEvent", base, false)
	leaf := r.Register(leafEvent{}, "LeafEvent", mid, false)
	other := r.Register(otherEvent{}, "OtherEvent", 0, false)

	tests := []struct {
		name string
		a, b ID
		want bool
	}{
		{"self", leaf, leaf, true},
		{"direct parent", leaf, mid, true},
		{"grandparent", leaf, base, true},
		{"unrelated", leaf, other, false},
		{"child is not supertype of parent", base, leaf, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.IsSubtype(tt.a, tt.b); got != tt.want {
				t.Errorf("IsSubtype(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRegistry_Walk(t *testing.T) {
	r := NewRegistry()
	base := r.Register(baseEvent{}, "BaseEvent", 0, false)         // not recursive
	mid := r.Register(midEvent{}, "MidEvent", base, true)          // recursive
	leaf := r.Register(leafEvent{}, "LeafEvent", mid, true)        // recursive

	got := r.Walk(leaf)
	want := []ID{leaf, mid}
	if !idsEqual(got, want) {
		t.Errorf("Walk(leaf) = %v, want %v (base is not recursive, so the climb stops at mid)", got, want)
	}

	got = r.Walk(mid)
	want = []ID{mid}
	if !idsEqual(got, want) {
		t.Errorf("Walk(mid) = %v, want %v", got, want)
	}

	got = r.Walk(base)
	want = []ID{base}
	if !idsEqual(got, want) {
		t.Errorf("Walk(base) = %v, want %v", got, want)
	}
}

func TestRegistry_Walk_NonRecursiveLeaf(t *testing.T) {
	r := NewRegistry()
	base := r.Register(baseEvent{}, "BaseEvent", 0, true)
	leaf := r.Register(leafEvent{}, "LeafEvent", base, false) // opts out

	got := r.Walk(leaf)
	want := []ID{leaf}
	if !idsEqual(got, want) {
		t.Errorf("Walk(leaf) = %v, want %v (leaf itself is non-recursive, so it never climbs)", got, want)
	}
}

func TestRegistry_ParentAndRecursive(t *testing.T) {
	r := NewRegistry()
	base := r.Register(baseEvent{}, "BaseEvent", 0, false)
	mid := r.Register(midEvent{}, "MidEvent", base, true)

	if got := r.Parent(mid); got != base {
		t.Errorf("Parent(mid) = %v, want %v", got, base)
	}
	if got := r.Parent(base); got != 0 {
		t.Errorf("Parent(base) = %v, want 0", got)
	}
	if !r.IsRecursive(mid) {
		t.Error("IsRecursive(mid) should be true")
	}
	if r.IsRecursive(base) {
		t.Error("IsRecursive(base) should be false")
	}
}

func idsEqual(a, b []ID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
