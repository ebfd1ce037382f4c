package evclass

import (
	"reflect"
	"sync"
)

// ID identifies an event class within a Registry. The zero value is never
// assigned to a registered class and is used as an "invalid" sentinel.
type ID uint32

// entry holds everything the registry knows about one registered class.
type entry struct {
	typ       reflect.Type
	name      string
	parent    ID
	recursive bool
}

// Registry is the event-class hierarchy: a table of classes, their parents,
// and whether each opts into recursive (superclass) dispatch.
//
// Registration is expected to happen during program startup, before any
// concurrent Walk/IsSubtype traffic; the mutex exists to make late or
// dynamic registration safe rather than to optimize a write-heavy workload.
type Registry struct {
	mu      sync.RWMutex
	entries []entry           // index 0 is unused; IDs start at 1
	byType  map[reflect.Type]ID
}

// NewRegistry creates an empty class registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make([]entry, 1), // reserve index 0 as the invalid ID
		byType:  make(map[reflect.Type]ID),
	}
}

// Register adds a new event class and returns its ID.
//
// sample is a zero-value instance of the payload type the class represents;
// it is used only to key lookups by Go type via ClassOf. parent is the ID of
// the immediate superclass, or 0 if this class has no parent. recursive
// marks whether listeners on a superclass of this class should also see
// events of this class during TypeWalker's climb (Walk).
func (r *Registry) Register(sample any, name string, parent ID, recursive bool) ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := ID(len(r.entries))
	r.entries = append(r.entries, entry{
		typ:       reflect.TypeOf(sample),
		name:      name,
		parent:    parent,
		recursive: recursive,
	})
	if t := reflect.TypeOf(sample); t != nil {
		r.byType[t] = id
	}
	return id
}

// ClassOf returns the ID registered for the Go type of event, and whether
// one was found.
func (r *Registry) ClassOf(event any) (ID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t := reflect.TypeOf(event)
	id, ok := r.byType[t]
	return id, ok
}

// Name returns the display name a class was registered with, or "" if id
// is unknown.
func (r *Registry) Name(id ID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.valid(id) {
		return ""
	}
	return r.entries[id].name
}

// Parent returns the immediate parent of id, or 0 if id has none or is
// unknown.
func (r *Registry) Parent(id ID) ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.valid(id) {
		return 0
	}
	return r.entries[id].parent
}

// IsRecursive returns whether id opted into recursive (superclass) dispatch.
func (r *Registry) IsRecursive(id ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.valid(id) {
		return false
	}
	return r.entries[id].recursive
}

// IsSubtype reports whether a is b, or a descends from b through the
// (unconditional) parent chain. Unlike Walk, this ignores the recursive
// flag: a class is still a subtype of its ancestors whether or not those
// ancestors chose to participate in superclass dispatch.
func (r *Registry) IsSubtype(a, b ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for cur := a; cur != 0 && r.valid(cur); cur = r.entries[cur].parent {
		if cur == b {
			return true
		}
	}
	return false
}

// Walk is the TypeWalker: it returns id, followed by each ancestor reached
// by climbing the parent chain, stopping as soon as either the current
// class or the next ancestor is not marked recursive.
func (r *Registry) Walk(id ID) []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.valid(id) {
		return nil
	}

	result := []ID{id}
	cur := id
	for r.entries[cur].recursive {
		parent := r.entries[cur].parent
		if !r.valid(parent) || !r.entries[parent].recursive {
			break
		}
		result = append(result, parent)
		cur = parent
	}
	return result
}

// valid reports whether id refers to a registered entry. Callers must hold
// r.mu.
func (r *Registry) valid(id ID) bool {
	return id != 0 && int(id) < len(r.entries)
}
