package evtree

import (
	"context"
	"sync/atomic"

	"github.com/dshills/evtree/dispatch"
	"github.com/dshills/evtree/evclass"
)

// closure is one entry of a Handle's flattened listener list: an event
// dispatched at the owning node's handle for the closure's event type.
type closure func(ctx context.Context, event any)

// Handle is the per-(node, event-type) listener cache. Its zero value is
// never used directly; construct with newHandle via Node.GetHandle.
type Handle struct {
	owner     *Node
	eventType evclass.ID

	valid     atomic.Bool
	flattened atomic.Pointer[[]closure]
}

func newHandle(owner *Node, eventType evclass.ID) *Handle {
	h := &Handle{owner: owner, eventType: eventType}
	empty := make([]closure, 0)
	h.flattened.Store(&empty)
	return h
}

// invalidate marks h stale. Called only while the owning tree's structural
// lock is held.
func (h *Handle) invalidate() {
	h.valid.Store(false)
}

// rebuild recomputes h.flattened from scratch and publishes it, then marks
// h valid. Called only while the owning tree's structural lock is held; it
// must never invoke listener code, only build closures that will invoke it
// later.
func (h *Handle) rebuild(r *evclass.Registry, reporter ExceptionReporter, ex *dispatch.Executor) {
	var out []closure
	recursiveUpdate(h.owner, h.eventType, r, reporter, ex, &out)
	h.flattened.Store(&out)
	h.valid.Store(true)
}

// recursiveUpdate walks n's subtree to build a handle's flattened closure
// list: direct listeners of n, then n's mapped-child router (if any), then
// n's children in ascending priority order, each restricted to nodes whose
// base type admits eventType.
func recursiveUpdate(n *Node, eventType evclass.ID, r *evclass.Registry, reporter ExceptionReporter, ex *dispatch.Executor, out *[]closure) {
	for _, t := range r.Walk(eventType) {
		if entry, ok := n.listeners[t]; ok {
			appendEntries(entry, n, eventType, reporter, ex, out)
		}
	}

	if len(n.mapped) > 0 {
		var routed []mappedChild
		for _, mc := range n.mapped {
			if !r.IsSubtype(eventType, mc.node.baseType) {
				continue
			}
			if nodeHasAnyListener(mc.node, eventType, r) {
				routed = append(routed, mc)
			}
		}
		if len(routed) > 0 {
			router := makeRouterClosure(routed, eventType)
			*out = append(*out, router)
		}
	}

	children := n.sortedChildren()
	for _, c := range children {
		if !r.IsSubtype(eventType, c.baseType) {
			continue
		}
		recursiveUpdate(c, eventType, r, reporter, ex, out)
	}
}

// nodeHasAnyListener reports whether n has at least one direct listener or
// binding consumer for any type TypeWalker yields on eventType.
func nodeHasAnyListener(n *Node, eventType evclass.ID, r *evclass.Registry) bool {
	for _, t := range r.Walk(eventType) {
		if entry, ok := n.listeners[t]; ok && !entry.isEmpty() {
			return true
		}
	}
	return false
}

// makeRouterClosure builds the single closure that represents a node's
// mapped children in its flattened list: at dispatch time it extracts each
// candidate's key and, on a match, calls into that child's own handle.
// Called while the owning tree's structural lock is held; the children's
// handles are looked up (or created) here, so routing takes no lock.
func makeRouterClosure(routed []mappedChild, eventType evclass.ID) closure {
	handles := make([]*Handle, len(routed))
	for i, mc := range routed {
		if _, ok := mc.node.handles[eventType]; !ok {
			mc.node.handles[eventType] = newHandle(mc.node, eventType)
		}
		handles[i] = mc.node.handles[eventType]
	}
	return func(ctx context.Context, event any) {
		for i, mc := range routed {
			key := mc.node.filter.ExtractKey(event)
			if key != mc.key {
				continue
			}
			child := mc.node
			_ = child.Call(ctx, event, handles[i])
		}
	}
}

// appendEntries appends one closure per direct listener in entry (gated by
// n's predicate, run through the executor, with EXPIRED listeners scheduled
// for removal), followed by every binding consumer verbatim.
func appendEntries(entry *ListenerEntry, n *Node, eventType evclass.ID, reporter ExceptionReporter, ex *dispatch.Executor, out *[]closure) {
	for _, l := range entry.listeners {
		l := l
		*out = append(*out, func(ctx context.Context, event any) {
			if n.predicate != nil {
				key := n.filter.ExtractKey(event)
				if !n.predicate(event, key) {
					return
				}
			}
			result := ex.Execute(ctx, event, listenerAdapter{l})
			switch result.Outcome {
			case dispatch.Exception:
				var err error
				if result.Panicked {
					err = &ListenerPanicError{
						NodeName:  n.name,
						EventType: n.tree.registry.Name(eventType),
						Value:     result.PanicValue,
						Stack:     result.PanicStack,
					}
				} else {
					err = &ListenerError{
						NodeName:  n.name,
						EventType: n.tree.registry.Name(eventType),
						Err:       errListenerReportedException,
					}
				}
				n.tree.stats.exceptions.Add(1)
				if reporter != nil {
					reporter.HandleException(ctx, event, err)
				}
			case dispatch.Expired:
				n.RemoveListener(l.EventType(), l)
			}
		})
	}

	for _, bc := range entry.bindings {
		*out = append(*out, bc.fn)
	}
}

// listenerAdapter adapts an EventListener to dispatch.Listener.
type listenerAdapter struct{ l EventListener }

func (a listenerAdapter) Handle(ctx context.Context, event any) dispatch.Outcome {
	return a.l.Run(ctx, event)
}

// propagateEvent walks from n upward: for each ancestor's handle keyed by
// any type TypeWalker yields on eventType, invalidate it, then continue to
// that ancestor's parent. Called only while the owning tree's structural
// lock is held.
func propagateEvent(n *Node, eventType evclass.ID, r *evclass.Registry) {
	for cur := n; cur != nil; cur = cur.parent {
		for _, t := range r.Walk(eventType) {
			if h, ok := cur.handles[t]; ok {
				h.invalidate()
			}
		}
	}
}

// propagateEvents is the bulk variant of propagateEvent over every event
// type with a listener entry anywhere in n's subtree (children and mapped
// children included), used on attach/detach where the whole
// subtree's listener set becomes visible or invisible at once.
func propagateEvents(n *Node, r *evclass.Registry) {
	seen := make(map[evclass.ID]bool)
	var walk func(*Node)
	walk = func(cur *Node) {
		for t := range cur.listeners {
			if !seen[t] {
				seen[t] = true
			}
		}
		for _, c := range cur.children {
			walk(c)
		}
		for _, mc := range cur.mapped {
			walk(mc.node)
		}
	}
	walk(n)

	for t := range seen {
		propagateEvent(n, t, r)
	}
}
