package evtree

import (
	"context"
	"sort"

	"github.com/dshills/evtree/evclass"
)

// mappedChild is one entry of a Node's mapped-children table: a handler
// key paired with the Node that should receive events matching it.
type mappedChild struct {
	key  any
	node *Node
}

// Node is a named vertex in an event dispatch tree. Its zero value is not
// usable; construct with Tree.NewNode.
type Node struct {
	tree *Tree

	name      string
	baseType  evclass.ID
	filter    Filter
	predicate Predicate

	priority int32
	parent   *Node
	children []*Node
	mapped   []mappedChild

	listeners map[evclass.ID]*ListenerEntry
	handles   map[evclass.ID]*Handle
}

// BaseType returns the event class this node (and its filter) accepts.
func (n *Node) BaseType() evclass.ID { return n.baseType }

// Parent returns n's current parent, or nil if n is detached.
func (n *Node) Parent() *Node {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return n.parent
}

// GetHandle returns the Handle for eventType, creating it if this is the
// first request for that type on n. eventType must be a subtype of n's
// base type.
func (n *Node) GetHandle(eventType evclass.ID) (*Handle, error) {
	if !n.tree.registry.IsSubtype(eventType, n.baseType) {
		return nil, ErrTypeMismatch
	}

	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()

	if h, ok := n.handles[eventType]; ok {
		return h, nil
	}
	h := newHandle(n, eventType)
	n.handles[eventType] = h
	return h, nil
}

// Call is the hot dispatch path: if h is stale it is rebuilt under the
// structural lock, then every closure in its flattened list runs with no
// lock held.
func (n *Node) Call(ctx context.Context, ev any, h *Handle) error {
	if h.owner != n {
		return ErrWrongOwner
	}
	if !h.valid.Load() {
		n.tree.update(h)
	} else {
		n.tree.stats.cacheHits.Add(1)
	}
	for _, c := range *h.flattened.Load() {
		c(ctx, ev)
	}
	return nil
}

// HasListener ensures h is valid and reports whether its flattened list is
// non-empty.
func (n *Node) HasListener(h *Handle) bool {
	if !h.valid.Load() {
		n.tree.update(h)
	}
	return len(*h.flattened.Load()) > 0
}

// AddListener registers l for eventType on n. Adding a listener already
// present (by identity) is a no-op.
func (n *Node) AddListener(eventType evclass.ID, l EventListener) {
	if l == nil {
		return
	}
	n.tree.mu.Lock()
	entry := n.entryFor(eventType)
	added := entry.addListener(l)
	n.tree.mu.Unlock()

	if added {
		n.tree.stats.listeners.Add(1)
		n.propagate(eventType)
	}
}

// RemoveListener removes l from eventType's listener entry by identity. A
// listener not currently registered is a silent no-op.
func (n *Node) RemoveListener(eventType evclass.ID, l EventListener) {
	n.tree.mu.Lock()
	entry, ok := n.listeners[eventType]
	var removed bool
	if ok {
		removed = entry.removeListener(l)
	}
	n.tree.mu.Unlock()

	if removed {
		n.propagate(eventType)
	}
}

// Register installs binding's consumer for every event type it covers.
// Propagation happens per type actually inserted.
func (n *Node) Register(b EventBinding) {
	if b == nil {
		return
	}
	for _, t := range b.EventTypes() {
		fn := b.Consumer(t)
		n.tree.mu.Lock()
		entry := n.entryFor(t)
		added := entry.addBinding(b, fn)
		n.tree.mu.Unlock()

		if added {
			n.propagate(t)
		}
	}
}

// Unregister removes binding's consumer from every event type it covers.
func (n *Node) Unregister(b EventBinding) {
	if b == nil {
		return
	}
	for _, t := range b.EventTypes() {
		n.tree.mu.Lock()
		entry, ok := n.listeners[t]
		var removed bool
		if ok {
			removed = entry.removeBinding(b)
		}
		n.tree.mu.Unlock()

		if removed {
			n.propagate(t)
		}
	}
}

// entryFor returns n's ListenerEntry for eventType, creating it if absent.
// Callers must hold n.tree.mu.
func (n *Node) entryFor(eventType evclass.ID) *ListenerEntry {
	entry, ok := n.listeners[eventType]
	if !ok {
		entry = &ListenerEntry{}
		n.listeners[eventType] = entry
	}
	return entry
}

// propagate invalidates every ancestor handle (including n's own) affected
// by a change to eventType's listener set.
func (n *Node) propagate(eventType evclass.ID) {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	propagateEvent(n, eventType, n.tree.registry)
}

// propagateAll invalidates every ancestor handle affected by n's entire
// registered listener set. Used on attach/detach.
func (n *Node) propagateAll() {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	propagateEvents(n, n.tree.registry)
}

// AddChild attaches child under n. Fails with ErrForeignTree if child
// belongs to a different Tree, ErrAlreadyParented if child already has a
// parent, ErrCycle if child is n's own parent (a shallow check — deeper
// cycles are not detected), and ErrTypeMismatch if child's base type is
// not a subtype of n's. Adding a child already present is a no-op.
func (n *Node) AddChild(child *Node) error {
	if child.tree != n.tree {
		return ErrForeignTree
	}
	if !n.tree.registry.IsSubtype(child.baseType, n.baseType) {
		return ErrTypeMismatch
	}

	n.tree.mu.Lock()
	for _, c := range n.children {
		if c == child {
			n.tree.mu.Unlock()
			return nil
		}
	}
	if child.parent != nil {
		n.tree.mu.Unlock()
		return ErrAlreadyParented
	}
	if child == n.parent {
		n.tree.mu.Unlock()
		return ErrCycle
	}
	n.children = append(n.children, child)
	sortByPriority(n.children)
	child.parent = n
	n.tree.mu.Unlock()

	child.propagateAll()
	return nil
}

// RemoveChild detaches child from n. Removing a child not currently
// attached is a silent no-op.
func (n *Node) RemoveChild(child *Node) {
	n.tree.mu.Lock()
	idx := -1
	for i, c := range n.children {
		if c == child {
			idx = i
			break
		}
	}
	n.tree.mu.Unlock()

	if idx < 0 {
		return
	}

	child.propagateAll()

	n.tree.mu.Lock()
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			break
		}
	}
	child.parent = nil
	n.tree.mu.Unlock()
}

// Map attaches child under n's mapped-children table at key. Fails with
// ErrForeignTree, ErrAlreadyParented (child already has a parent), or
// ErrSelfMap (child is n itself or n's own parent). A previous node mapped at key is
// evicted without its own propagation: the newly inserted node's
// propagateAll covers the same handle types.
func (n *Node) Map(key any, child *Node) error {
	if child.tree != n.tree {
		return ErrForeignTree
	}

	n.tree.mu.Lock()
	if child.parent != nil {
		n.tree.mu.Unlock()
		return ErrAlreadyParented
	}
	if child == n || child == n.parent {
		n.tree.mu.Unlock()
		return ErrSelfMap
	}

	var evicted *Node
	replaced := false
	for i, mc := range n.mapped {
		if mc.key == key {
			evicted = mc.node
			n.mapped[i] = mappedChild{key: key, node: child}
			replaced = true
			break
		}
	}
	if !replaced {
		n.mapped = append(n.mapped, mappedChild{key: key, node: child})
	}
	child.parent = n
	if evicted != nil {
		evicted.parent = nil
	}
	n.tree.mu.Unlock()

	child.propagateAll()
	return nil
}

// Unmap removes the node mapped at key, if any, and detaches it.
func (n *Node) Unmap(key any) {
	n.tree.mu.Lock()
	idx := -1
	for i, mc := range n.mapped {
		if mc.key == key {
			idx = i
			break
		}
	}
	var target *Node
	if idx >= 0 {
		target = n.mapped[idx].node
	}
	n.tree.mu.Unlock()

	if idx < 0 {
		return
	}

	target.propagateAll()

	n.tree.mu.Lock()
	for i, mc := range n.mapped {
		if mc.key == key {
			n.mapped = append(n.mapped[:i], n.mapped[i+1:]...)
			break
		}
	}
	target.parent = nil
	n.tree.mu.Unlock()
}

// FindChildren does a depth-first search of n's subtree for every node
// whose name matches and whose base type is a supertype of eventType.
func (n *Node) FindChildren(name string, eventType evclass.ID) []*Node {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()

	var out []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		for _, c := range cur.children {
			if c.name == name && n.tree.registry.IsSubtype(eventType, c.baseType) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// ReplaceChildren replaces every direct match anywhere in n's subtree with
// replacement, recursing into non-matching children only. It returns the
// nodes that were replaced.
//
// replacement is a single node reused across the whole walk, so it can be
// attached in at most one place: a match beyond the first would need to
// detach replacement from where the previous match just put it, which
// would silently undo that earlier replacement rather than complete this
// one. So replacement is checked for a parent before each match is
// touched, and the walk aborts on the first match beyond one, returning
// the replacements completed so far alongside ErrAlreadyParented and
// leaving that node in place rather than removing it with nowhere to put
// it. Callers with more than one match to replace should call this once
// per match with a fresh replacement node each time.
func (n *Node) ReplaceChildren(name string, eventType evclass.ID, replacement *Node) ([]*Node, error) {
	var replaced []*Node
	var walkErr error
	var walk func(*Node) bool
	walk = func(cur *Node) bool {
		n.tree.mu.Lock()
		snapshot := make([]*Node, len(cur.children))
		copy(snapshot, cur.children)
		n.tree.mu.Unlock()

		var toWalk []*Node
		for _, c := range snapshot {
			if c.name == name && n.tree.registry.IsSubtype(eventType, c.baseType) {
				if replacement.Parent() != nil {
					walkErr = ErrAlreadyParented
					return false
				}
				cur.RemoveChild(c)
				if err := cur.AddChild(replacement); err != nil {
					walkErr = err
					return false
				}
				replaced = append(replaced, c)
			} else {
				toWalk = append(toWalk, c)
			}
		}
		for _, c := range toWalk {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(n)
	return replaced, walkErr
}

// RemoveChildren removes every direct match at each level of n's subtree,
// recursing into non-matching children only: a removed node's own subtree
// goes with it rather than being searched separately. It returns the nodes
// that were removed.
func (n *Node) RemoveChildren(name string, eventType evclass.ID) []*Node {
	var removed []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		n.tree.mu.Lock()
		snapshot := make([]*Node, len(cur.children))
		copy(snapshot, cur.children)
		n.tree.mu.Unlock()

		for _, c := range snapshot {
			if c.name == name && n.tree.registry.IsSubtype(eventType, c.baseType) {
				cur.RemoveChild(c)
				removed = append(removed, c)
				continue
			}
			walk(c)
		}
	}
	walk(n)
	return removed
}

// SetPriority changes n's sibling ordering weight. It does NOT invalidate
// any handle, so an already-valid handle keeps dispatching in the old
// order until some other edit propagates and forces a rebuild. Callers
// that need the new order reflected immediately must invalidate the
// relevant handles themselves.
func (n *Node) SetPriority(p int32) {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	n.priority = p
	if n.parent != nil {
		sortByPriority(n.parent.children)
	}
}

// sortedChildren returns n's children sorted by ascending priority.
// Callers must hold n.tree.mu.
func (n *Node) sortedChildren() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	sortByPriority(out)
	return out
}

func sortByPriority(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].priority < nodes[j].priority
	})
}
