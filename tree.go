package evtree

import (
	"sync"

	"github.com/dshills/evtree/dispatch"
	"github.com/dshills/evtree/evclass"
)

// Tree owns the structural lock, the event-class registry, the exception
// sink, and the listener executor shared by every Node it constructs.
// A Tree is the unit of lock scoping: two Trees never block each other,
// even if a host runs many of them in one process.
type Tree struct {
	mu       sync.Mutex
	registry *evclass.Registry
	reporter ExceptionReporter
	executor *dispatch.Executor
	stats    stats
}

// NewTree creates a Tree backed by registry. registry is typically shared
// with the host's event-class definitions and is not mutated by evtree
// beyond calls the host itself makes to it.
func NewTree(registry *evclass.Registry, opts ...TreeOption) *Tree {
	cfg := defaultTreeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	execOpts := []dispatch.ExecutorOption{}
	if cfg.panicHandler != nil {
		execOpts = append(execOpts, dispatch.WithPanicHandler(cfg.panicHandler))
	}

	return &Tree{
		registry: registry,
		reporter: cfg.reporter,
		executor: dispatch.NewExecutor(execOpts...),
	}
}

// NewNode constructs a detached Node owned by t. It has no parent and is
// not reachable from any other node until AddChild or Map attaches it.
func (t *Tree) NewNode(name string, filter Filter, predicate Predicate) *Node {
	n := &Node{
		tree:      t,
		name:      name,
		baseType:  filter.TargetType(),
		filter:    filter,
		predicate: predicate,
		listeners: make(map[evclass.ID]*ListenerEntry),
		handles:   make(map[evclass.ID]*Handle),
	}
	t.stats.nodes.Add(1)
	return n
}

// Stats returns a snapshot of t's activity counters.
func (t *Tree) Stats() Stats {
	return t.stats.snapshot()
}

// update rebuilds h under t's structural lock. Called whenever Call finds
// h invalid.
func (t *Tree) update(h *Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if h.valid.Load() {
		return
	}
	h.rebuild(t.registry, t.reporter, t.executor)
	t.stats.rebuilds.Add(1)
}
