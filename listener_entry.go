package evtree

import "context"

// bindingConsumer pairs a binding's per-type consumer closure with the
// binding that produced it, so Unregister can find and remove exactly the
// consumers a given binding installed.
type bindingConsumer struct {
	binding EventBinding
	fn      func(ctx context.Context, event any)
}

// ListenerEntry is the per-node, per-event-class bag of direct listeners
// and binding consumers. It is pure storage; all invalidation happens in
// the caller (Node.AddListener etc.).
type ListenerEntry struct {
	listeners []EventListener   // insertion order preserved
	bindings  []bindingConsumer // order irrelevant; deduplicated by binding identity
}

// addListener appends l, unless an identical (by identity) listener is
// already present, in which case it reports false (no-op, per the
// idempotence law).
func (e *ListenerEntry) addListener(l EventListener) bool {
	for _, existing := range e.listeners {
		if sameListener(existing, l) {
			return false
		}
	}
	e.listeners = append(e.listeners, l)
	return true
}

// removeListener removes l by identity. Reports whether a removal happened.
func (e *ListenerEntry) removeListener(l EventListener) bool {
	for i, existing := range e.listeners {
		if sameListener(existing, l) {
			e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// addBinding inserts binding's consumer for this entry's event class,
// deduplicating on binding identity: a binding installs at most one
// consumer per (node, event class), so repeated registration is a no-op.
func (e *ListenerEntry) addBinding(binding EventBinding, fn func(ctx context.Context, event any)) bool {
	for _, bc := range e.bindings {
		if sameBinding(bc.binding, binding) {
			return false
		}
	}
	e.bindings = append(e.bindings, bindingConsumer{binding: binding, fn: fn})
	return true
}

// removeBinding removes every consumer binding installed, reporting
// whether anything was removed.
func (e *ListenerEntry) removeBinding(binding EventBinding) bool {
	removed := false
	kept := e.bindings[:0]
	for _, bc := range e.bindings {
		if sameBinding(bc.binding, binding) {
			removed = true
			continue
		}
		kept = append(kept, bc)
	}
	e.bindings = kept
	return removed
}

// isEmpty reports whether this entry has no direct listeners or bindings.
func (e *ListenerEntry) isEmpty() bool {
	return len(e.listeners) == 0 && len(e.bindings) == 0
}

// sameListener compares two EventListener values by identity, tolerating
// the case where the dynamic type is not comparable (e.g. a listener that
// embeds a slice or map) by falling back to "never equal" instead of
// panicking.
func sameListener(a, b EventListener) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// sameBinding compares two EventBinding values by identity with the same
// panic-tolerant fallback as sameListener.
func sameBinding(a, b EventBinding) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}
