// Package evtree implements a hierarchical, type-routed event dispatch
// tree. Listeners subscribe to event classes at named nodes; nodes form a
// tree, plus keyed "mapped" sub-nodes for direct routing; events dispatched
// at any node reach every applicable listener in the subtree, in a stable
// priority order.
//
// A Tree owns the event-class registry, the structural lock, and the
// listener executor shared by every Node it constructs:
//
//	// registry (*evclass.Registry) and damageEventType come from the host application
//	tree := evtree.NewTree(registry)
//	root := tree.NewNode("root", rootFilter, nil)
//	child := tree.NewNode("player", playerFilter, nil)
//	root.AddChild(child)
//
//	child.AddListener(damageEventType, &evtree.ListenerFunc{
//	    Type: damageEventType,
//	    Fn: func(ctx context.Context, ev any) evtree.ListenerResult {
//	        // handle ev
//	        return evtree.ResultSuccess
//	    },
//	})
//
//	handle, _ := root.GetHandle(damageEventType)
//	root.Call(ctx, damageEvent{...}, handle)
//
// Dispatch shape:
//
//	Tree
//	 └─ Node (root)
//	     ├─ Node (child, priority-ordered among siblings)
//	     │   └─ ListenerEntry (per event class: direct listeners, bindings)
//	     └─ mapped["key"] -> Node (routed only when a filter key matches)
//
// The expensive part is not routing itself but the per-(Node, event class)
// Handle: a flattened, priority-ordered list of listener closures computed
// once and cached. A structural edit anywhere in the affected subtree
// invalidates the handles of every ancestor whose event class overlaps the
// edit; the next Call on a stale handle rebuilds it under the Tree's lock,
// then all following calls run lock-free until the next edit.
package evtree
