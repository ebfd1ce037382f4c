// Package evclass provides the event-class hierarchy that evtree routes on.
//
// Go has no runtime class objects, so evclass replaces an "is_subtype /
// superclass()" walk with a small, explicitly registered table:
// every event class gets a stable evclass.ID, an optional parent ID, and a
// recursive flag. Two different walks fall out of that table:
//
//   - IsSubtype answers "is A a B" unconditionally, following the parent
//     chain regardless of the recursive flag. This backs base-type checks
//     (a child node's type must be narrower than its parent's).
//   - Walk is the TypeWalker: it yields a class, then climbs the parent
//     chain only through classes that opted into recursive dispatch,
//     stopping at the first non-recursive ancestor. This backs listener
//     lookup: a listener registered on a recursive superclass runs for
//     recursive subclasses, but a plain superclass listener does not.
//
// # Usage
//
//	classes := evclass.NewRegistry()
//	base := classes.Register(BaseEvent{}, "BaseEvent", 0, false)
//	mid := classes.Register(MidEvent{}, "MidEvent", base, true)
//	leaf := classes.Register(LeafEvent{}, "LeafEvent", mid, true)
//
//	classes.Walk(leaf)       // [leaf, mid]        (base stops the climb: not recursive)
//	classes.IsSubtype(leaf, base) // true
package evclass
