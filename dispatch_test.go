package evtree

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dshills/evtree/evclass"
)

type aEvent struct{ PlayerID string }
type bEvent struct{}

func newTestTree() (*Tree, *evclass.Registry, evclass.ID) {
	reg := evclass.NewRegistry()
	classA := reg.Register(aEvent{}, "A", 0, false)
	return NewTree(reg), reg, classA
}

func rootFilter(classA evclass.ID) Filter {
	return FilterFunc{Type: classA, Extract: func(any) any { return nil }}
}

func countingListener(eventType evclass.ID, counter *int) *ListenerFunc {
	return &ListenerFunc{
		Type: eventType,
		Fn: func(ctx context.Context, event any) ListenerResult {
			*counter++
			return ResultSuccess
		},
	}
}

// Scenario 1: basic dispatch.
func TestScenario_BasicDispatch(t *testing.T) {
	tree, _, classA := newTestTree()
	root := tree.NewNode("root", rootFilter(classA), nil)

	var calls int
	l1 := countingListener(classA, &calls)
	root.AddListener(classA, l1)

	h, err := root.GetHandle(classA)
	if err != nil {
		t.Fatalf("GetHandle: %v", err)
	}

	if err := root.Call(context.Background(), aEvent{}, h); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}

	root.RemoveListener(classA, l1)
	if err := root.Call(context.Background(), aEvent{}, h); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls after removal = %d, want 1 (no further invocation)", calls)
	}
}

// Scenario 2: child priority order, and the documented non-invalidation
// gap on SetPriority.
func TestScenario_ChildPriority(t *testing.T) {
	tree, _, classA := newTestTree()
	root := tree.NewNode("root", rootFilter(classA), nil)
	chi := tree.NewNode("hi", rootFilter(classA), nil)
	clo := tree.NewNode("lo", rootFilter(classA), nil)

	var order []string
	record := func(name string) *ListenerFunc {
		return &ListenerFunc{Type: classA, Fn: func(ctx context.Context, event any) ListenerResult {
			order = append(order, name)
			return ResultSuccess
		}}
	}
	chi.AddListener(classA, record("hi"))
	clo.AddListener(classA, record("lo"))

	chi.SetPriority(10)
	clo.SetPriority(1)

	if err := root.AddChild(chi); err != nil {
		t.Fatalf("AddChild(chi): %v", err)
	}
	if err := root.AddChild(clo); err != nil {
		t.Fatalf("AddChild(clo): %v", err)
	}

	h, _ := root.GetHandle(classA)
	root.Call(context.Background(), aEvent{}, h)
	if got := order; len(got) != 2 || got[0] != "lo" || got[1] != "hi" {
		t.Fatalf("order = %v, want [lo hi] (ascending priority)", got)
	}

	// SetPriority alone does not invalidate the handle: the next Call still
	// observes the old order, since only propagation triggers a rebuild.
	order = nil
	chi.SetPriority(0)
	root.Call(context.Background(), aEvent{}, h)
	if got := order; len(got) != 2 || got[0] != "lo" || got[1] != "hi" {
		t.Fatalf("order after SetPriority (no invalidation) = %v, want [lo hi] unchanged", got)
	}

	// Force a rebuild via an unrelated propagate; now the new priority is
	// reflected.
	order = nil
	dummy := &ListenerFunc{Type: classA, Fn: func(context.Context, any) ListenerResult { return ResultSuccess }}
	root.AddListener(classA, dummy)
	root.RemoveListener(classA, dummy)
	root.Call(context.Background(), aEvent{}, h)
	if got := order; len(got) != 2 || got[0] != "hi" || got[1] != "lo" {
		t.Fatalf("order after rebuild = %v, want [hi lo]", got)
	}
}

// Scenario 3: mapped routing.
func TestScenario_MappedRouting(t *testing.T) {
	tree, _, classA := newTestTree()
	root := tree.NewNode("root", rootFilter(classA), nil)
	mapped := tree.NewNode("player", FilterFunc{
		Type:    classA,
		Extract: func(event any) any { return event.(aEvent).PlayerID },
	}, nil)

	var calls int
	mapped.AddListener(classA, countingListener(classA, &calls))

	if err := root.Map("player-42", mapped); err != nil {
		t.Fatalf("Map: %v", err)
	}

	h, _ := root.GetHandle(classA)
	root.Call(context.Background(), aEvent{PlayerID: "player-42"}, h)
	if calls != 1 {
		t.Errorf("calls = %d, want 1 for matching key", calls)
	}

	root.Call(context.Background(), aEvent{PlayerID: "player-7"}, h)
	if calls != 1 {
		t.Errorf("calls = %d, want 1 still (non-matching key invokes nothing)", calls)
	}
}

// Scenario 4: recursive event dispatch.
func TestScenario_RecursiveEvent(t *testing.T) {
	reg := evclass.NewRegistry()
	type baseEvt struct{}
	type recursiveBaseEvt struct{}
	type leafEvt struct{}

	base := reg.Register(baseEvt{}, "Base", 0, false)
	rbase := reg.Register(recursiveBaseEvt{}, "RecursiveBase", base, true)
	leaf := reg.Register(leafEvt{}, "Leaf", rbase, true)

	tree := NewTree(reg)
	root := tree.NewNode("root", FilterFunc{Type: base, Extract: func(any) any { return nil }}, nil)

	var rbaseCalls, baseCalls int
	root.AddListener(rbase, countingListener(rbase, &rbaseCalls))
	root.AddListener(base, countingListener(base, &baseCalls))

	h, err := root.GetHandle(leaf)
	if err != nil {
		t.Fatalf("GetHandle(leaf): %v", err)
	}
	root.Call(context.Background(), leafEvt{}, h)

	if rbaseCalls != 1 {
		t.Errorf("rbaseCalls = %d, want 1 (RecursiveBase listener should run for a Leaf event)", rbaseCalls)
	}
	if baseCalls != 0 {
		t.Errorf("baseCalls = %d, want 0 (Base is not recursive, so its listener is not in the Leaf walk)", baseCalls)
	}
}

// Scenario 5: expiration.
func TestScenario_Expiration(t *testing.T) {
	tree, _, classA := newTestTree()
	root := tree.NewNode("root", rootFilter(classA), nil)

	var calls int
	l := &ListenerFunc{Type: classA, Fn: func(ctx context.Context, event any) ListenerResult {
		calls++
		return ResultExpired
	}}
	root.AddListener(classA, l)

	h, _ := root.GetHandle(classA)
	root.Call(context.Background(), aEvent{}, h)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	root.Call(context.Background(), aEvent{}, h)
	if calls != 1 {
		t.Errorf("calls after expiration = %d, want 1 (listener should not run again)", calls)
	}

	if root.HasListener(h) {
		t.Error("HasListener should be false after the only listener expired")
	}
}

// Scenario 6: exception isolation.
func TestScenario_ExceptionIsolation(t *testing.T) {
	reg := evclass.NewRegistry()
	classA := reg.Register(aEvent{}, "A", 0, false)

	var reportCount int
	var mu sync.Mutex
	reporter := ExceptionReporterFunc(func(ctx context.Context, event any, err error) {
		mu.Lock()
		defer mu.Unlock()
		reportCount++
		var lerr *ListenerError
		if !errors.As(err, &lerr) {
			t.Errorf("reported error is not a *ListenerError: %v", err)
		}
	})

	tree := NewTree(reg, WithExceptionReporter(reporter))
	root := tree.NewNode("root", rootFilter(classA), nil)

	var order []int
	l1 := &ListenerFunc{Type: classA, Fn: func(ctx context.Context, event any) ListenerResult {
		order = append(order, 1)
		return ResultSuccess
	}}
	l2 := &ListenerFunc{Type: classA, Fn: func(ctx context.Context, event any) ListenerResult {
		order = append(order, 2)
		return ResultException
	}}
	l3 := &ListenerFunc{Type: classA, Fn: func(ctx context.Context, event any) ListenerResult {
		order = append(order, 3)
		return ResultSuccess
	}}
	root.AddListener(classA, l1)
	root.AddListener(classA, l2)
	root.AddListener(classA, l3)

	h, _ := root.GetHandle(classA)
	root.Call(context.Background(), aEvent{}, h)

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("order = %v, want [1 2 3] (all three run, in insertion order)", order)
	}
	mu.Lock()
	if reportCount != 1 {
		t.Errorf("reportCount = %d, want 1 (only l2 raised an exception)", reportCount)
	}
	mu.Unlock()
}

func TestScenario_ListenerPanicIsReported(t *testing.T) {
	reg := evclass.NewRegistry()
	classA := reg.Register(aEvent{}, "A", 0, false)

	var reportedErr error
	var mu sync.Mutex
	reporter := ExceptionReporterFunc(func(ctx context.Context, event any, err error) {
		mu.Lock()
		defer mu.Unlock()
		reportedErr = err
	})
	tree := NewTree(reg, WithExceptionReporter(reporter))
	root := tree.NewNode("root", rootFilter(classA), nil)

	l := &ListenerFunc{Type: classA, Fn: func(ctx context.Context, event any) ListenerResult {
		panic("boom")
	}}
	root.AddListener(classA, l)

	h, _ := root.GetHandle(classA)
	root.Call(context.Background(), aEvent{}, h)

	mu.Lock()
	defer mu.Unlock()
	if !errors.Is(reportedErr, ErrListenerPanic) {
		t.Errorf("reported error = %v, want one matching ErrListenerPanic", reportedErr)
	}
	var perr *ListenerPanicError
	if !errors.As(reportedErr, &perr) {
		t.Fatalf("reported error is not a *ListenerPanicError: %v", reportedErr)
	}
	if perr.Value != "boom" {
		t.Errorf("perr.Value = %v, want %q", perr.Value, "boom")
	}
}

func TestLaw_IdempotentListenerAdd(t *testing.T) {
	tree, _, classA := newTestTree()
	root := tree.NewNode("root", rootFilter(classA), nil)

	var calls int
	l := countingListener(classA, &calls)
	root.AddListener(classA, l)
	root.AddListener(classA, l) // duplicate, should be a no-op

	h, _ := root.GetHandle(classA)
	root.Call(context.Background(), aEvent{}, h)
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (duplicate AddListener must not double-register)", calls)
	}
}

func TestLaw_ConsecutiveCallsSameClosures(t *testing.T) {
	tree, _, classA := newTestTree()
	root := tree.NewNode("root", rootFilter(classA), nil)

	var calls int
	root.AddListener(classA, countingListener(classA, &calls))

	h, _ := root.GetHandle(classA)
	root.Call(context.Background(), aEvent{}, h)
	root.Call(context.Background(), aEvent{}, h)
	root.Call(context.Background(), aEvent{}, h)

	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestBoundary_EmptySubtreeCallIsNoop(t *testing.T) {
	tree, _, classA := newTestTree()
	leaf := tree.NewNode("leaf", rootFilter(classA), nil)

	h, err := leaf.GetHandle(classA)
	if err != nil {
		t.Fatalf("GetHandle: %v", err)
	}
	if err := leaf.Call(context.Background(), aEvent{}, h); err != nil {
		t.Fatalf("Call on empty subtree returned an error: %v", err)
	}
	if leaf.HasListener(h) {
		t.Error("HasListener should be false on an empty subtree")
	}
}
