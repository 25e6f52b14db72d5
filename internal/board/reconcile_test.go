package board

import (
	"testing"

	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/domain"
)

func TestReconcilerMatchClearsPending(t *testing.T) {
	initial := makeBoard(
		makeTask("t1", domain.StatusTodo, 0),
		makeTask("t2", domain.StatusTodo, 1),
	)
	r := NewReconciler(initial)
	if err := r.Project(MoveIntent{TaskID: "t1", Status: domain.StatusTodo, Index: 1}); err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if !r.Pending() {
		t.Fatal("expected pending projection")
	}

	agreeing := makeBoard(
		makeTask("t2", domain.StatusTodo, 0),
		makeTask("t1", domain.StatusTodo, 1),
	)
	if !r.Observe(agreeing) {
		t.Fatal("agreeing snapshot must settle the projection")
	}
	if r.Pending() {
		t.Fatal("pending flag should be cleared")
	}
	assertColumn(t, r.Display(), domain.StatusTodo, "t2", "t1")
}

func TestReconcilerMismatchRetainsOptimisticDisplay(t *testing.T) {
	initial := makeBoard(
		makeTask("t1", domain.StatusTodo, 0),
		makeTask("t2", domain.StatusTodo, 1),
	)
	r := NewReconciler(initial)
	if err := r.Project(MoveIntent{TaskID: "t1", Status: domain.StatusTodo, Index: 1}); err != nil {
		t.Fatalf("Project() error = %v", err)
	}

	stale := makeBoard(
		makeTask("t1", domain.StatusTodo, 0),
		makeTask("t2", domain.StatusTodo, 1),
	)
	if r.Observe(stale) {
		t.Fatal("stale snapshot must not settle the projection")
	}
	if !r.Pending() {
		t.Fatal("projection should still be pending")
	}
	// The optimistic arrangement stays on display, the stale order does not
	// snap back.
	assertColumn(t, r.Display(), domain.StatusTodo, "t2", "t1")
	assertColumn(t, r.Truth(), domain.StatusTodo, "t1", "t2")
}

func TestReconcilerEndToEndMoveScenario(t *testing.T) {
	initial := makeBoard(
		makeTask("T1", domain.StatusTodo, 0),
		makeTask("T2", domain.StatusTodo, 1),
		makeTask("T3", domain.StatusDoing, 0),
	)
	r := NewReconciler(initial)

	if err := r.Project(MoveIntent{TaskID: "T1", Status: domain.StatusDoing, Index: 0}); err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	assertColumn(t, r.Display(), domain.StatusTodo, "T2")
	assertColumn(t, r.Display(), domain.StatusDoing, "T1", "T3")

	stale := makeBoard(
		makeTask("T1", domain.StatusTodo, 0),
		makeTask("T2", domain.StatusTodo, 1),
		makeTask("T3", domain.StatusDoing, 0),
	)
	if r.Observe(stale) {
		t.Fatal("stale refetch must keep the optimistic view")
	}
	assertColumn(t, r.Display(), domain.StatusDoing, "T1", "T3")

	confirmed := makeBoard(
		makeTask("T2", domain.StatusTodo, 0),
		makeTask("T1", domain.StatusDoing, 0),
		makeTask("T3", domain.StatusDoing, 1),
	)
	if !r.Observe(confirmed) {
		t.Fatal("confirming refetch must clear pending state")
	}
	assertColumn(t, r.Display(), domain.StatusTodo, "T2")
	assertColumn(t, r.Display(), domain.StatusDoing, "T1", "T3")
}

func TestReconcilerChainedMoves(t *testing.T) {
	initial := makeBoard(
		makeTask("a", domain.StatusTodo, 0),
		makeTask("b", domain.StatusTodo, 1),
		makeTask("c", domain.StatusDoing, 0),
	)
	r := NewReconciler(initial)
	if err := r.Project(MoveIntent{TaskID: "a", Status: domain.StatusDoing, Index: 0}); err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if err := r.Project(MoveIntent{TaskID: "b", Status: domain.StatusDoing, Index: 2}); err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	assertColumn(t, r.Display(), domain.StatusDoing, "a", "c", "b")

	// A snapshot confirming only the first write must not clear the
	// second move's pending state.
	firstOnly := makeBoard(
		makeTask("b", domain.StatusTodo, 0),
		makeTask("a", domain.StatusDoing, 0),
		makeTask("c", domain.StatusDoing, 1),
	)
	if r.Observe(firstOnly) {
		t.Fatal("partial confirmation must not settle chained moves")
	}
	assertColumn(t, r.Display(), domain.StatusDoing, "a", "c", "b")

	both := makeBoard(
		makeTask("a", domain.StatusDoing, 0),
		makeTask("c", domain.StatusDoing, 1),
		makeTask("b", domain.StatusDoing, 2),
	)
	if !r.Observe(both) {
		t.Fatal("full confirmation must settle chained moves")
	}
}

func TestReconcilerObserveWithNothingPending(t *testing.T) {
	r := NewReconciler(Empty())
	snapshot := makeBoard(makeTask("a", domain.StatusBacklog, 0))
	if !r.Observe(snapshot) {
		t.Fatal("snapshot with nothing pending must settle immediately")
	}
	assertColumn(t, r.Display(), domain.StatusBacklog, "a")
}

func TestReconcilerProjectRemoval(t *testing.T) {
	initial := makeBoard(
		makeTask("a", domain.StatusTodo, 0),
		makeTask("b", domain.StatusTodo, 1),
		makeTask("c", domain.StatusDoing, 0),
	)
	r := NewReconciler(initial)
	r.ProjectRemoval([]string{"a", "c"})
	if !r.Pending() {
		t.Fatal("removal must mark the display pending")
	}
	assertColumn(t, r.Display(), domain.StatusTodo, "b")
	assertColumn(t, r.Display(), domain.StatusDoing)

	deleted := makeBoard(makeTask("b", domain.StatusTodo, 0))
	if !r.Observe(deleted) {
		t.Fatal("snapshot without deleted tasks must settle")
	}
}

func TestReconcilerAdopt(t *testing.T) {
	initial := makeBoard(
		makeTask("a", domain.StatusTodo, 0),
		makeTask("b", domain.StatusTodo, 1),
	)
	r := NewReconciler(initial)
	if err := r.Project(MoveIntent{TaskID: "a", Status: domain.StatusTodo, Index: 1}); err != nil {
		t.Fatalf("Project() error = %v", err)
	}

	truth := makeBoard(
		makeTask("a", domain.StatusTodo, 0),
		makeTask("b", domain.StatusTodo, 1),
	)
	r.Adopt(truth)
	if r.Pending() {
		t.Fatal("manual refresh must drop the projection")
	}
	assertColumn(t, r.Display(), domain.StatusTodo, "a", "b")
}

func TestReconcilerDivergenceLimit(t *testing.T) {
	initial := makeBoard(
		makeTask("a", domain.StatusTodo, 0),
		makeTask("b", domain.StatusTodo, 1),
	)
	stale := func() Board {
		return makeBoard(
			makeTask("a", domain.StatusTodo, 0),
			makeTask("b", domain.StatusTodo, 1),
		)
	}

	// Default: diverge indefinitely.
	r := NewReconciler(initial)
	if err := r.Project(MoveIntent{TaskID: "a", Status: domain.StatusTodo, Index: 1}); err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		if r.Observe(stale()) {
			t.Fatalf("observe %d settled without a limit", i)
		}
	}
	if r.Misses() != 10 {
		t.Fatalf("misses = %d, want 10", r.Misses())
	}

	// With a limit the authoritative view is force-adopted.
	r = NewReconciler(initial)
	r.SetDivergenceLimit(3)
	if err := r.Project(MoveIntent{TaskID: "a", Status: domain.StatusTodo, Index: 1}); err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if r.Observe(stale()) || r.Observe(stale()) {
		t.Fatal("limit must not trip early")
	}
	if !r.Observe(stale()) {
		t.Fatal("third mismatch must force-adopt")
	}
	if r.Pending() {
		t.Fatal("force-adopt must clear pending state")
	}
	assertColumn(t, r.Display(), domain.StatusTodo, "a", "b")
}
