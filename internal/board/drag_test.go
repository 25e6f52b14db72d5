package board

import (
	"errors"
	"testing"

	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/domain"
)

func TestDragLifecycle(t *testing.T) {
	b := makeBoard(
		makeTask("a", domain.StatusTodo, 0),
		makeTask("b", domain.StatusTodo, 1),
	)

	var d Drag
	if err := d.Begin(b, Slot{Status: domain.StatusTodo, Index: 1}); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if !d.Active() || d.TaskID() != "b" {
		t.Fatalf("unexpected drag state: active=%v task=%q", d.Active(), d.TaskID())
	}

	d.Update(domain.StatusDoing)
	if d.Over() != domain.StatusDoing {
		t.Fatalf("advisory column = %q", d.Over())
	}

	intent := d.Drop(&Slot{Status: domain.StatusDoing, Index: 0})
	if intent == nil {
		t.Fatal("expected a move intent")
	}
	if intent.TaskID != "b" || intent.Status != domain.StatusDoing || intent.Index != 0 {
		t.Fatalf("unexpected intent %#v", intent)
	}
	if d.Active() {
		t.Fatal("drag should reset after drop")
	}
}

func TestDragNullDestinationIsNoOp(t *testing.T) {
	b := makeBoard(makeTask("a", domain.StatusTodo, 0))

	var d Drag
	if err := d.Begin(b, Slot{Status: domain.StatusTodo, Index: 0}); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if intent := d.Drop(nil); intent != nil {
		t.Fatalf("null destination must emit no intent, got %#v", intent)
	}
	if d.Active() {
		t.Fatal("drag should reset after null drop")
	}
}

func TestDragSameSlotDropIsIdempotent(t *testing.T) {
	b := makeBoard(
		makeTask("a", domain.StatusTodo, 0),
		makeTask("b", domain.StatusTodo, 1),
	)

	var d Drag
	if err := d.Begin(b, Slot{Status: domain.StatusTodo, Index: 1}); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if intent := d.Drop(&Slot{Status: domain.StatusTodo, Index: 1}); intent != nil {
		t.Fatalf("same-slot drop must emit no intent, got %#v", intent)
	}
	if d.Active() {
		t.Fatal("drag lifecycle must still complete")
	}
	assertColumn(t, b, domain.StatusTodo, "a", "b")
}

func TestDragBeginValidation(t *testing.T) {
	b := makeBoard(makeTask("a", domain.StatusTodo, 0))

	var d Drag
	if err := d.Begin(b, Slot{Status: domain.StatusTodo, Index: 5}); !errors.Is(err, ErrNoTaskAtSlot) {
		t.Fatalf("expected ErrNoTaskAtSlot, got %v", err)
	}
	if err := d.Begin(b, Slot{Status: domain.StatusTodo, Index: 0}); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := d.Begin(b, Slot{Status: domain.StatusTodo, Index: 0}); !errors.Is(err, ErrDragActive) {
		t.Fatalf("expected ErrDragActive, got %v", err)
	}
}

func TestDragDropWithoutBegin(t *testing.T) {
	var d Drag
	if intent := d.Drop(&Slot{Status: domain.StatusDone, Index: 0}); intent != nil {
		t.Fatalf("inactive drag must emit no intent, got %#v", intent)
	}
}

func TestDragUpdateIgnoresInvalidStatus(t *testing.T) {
	b := makeBoard(makeTask("a", domain.StatusTodo, 0))

	var d Drag
	if err := d.Begin(b, Slot{Status: domain.StatusTodo, Index: 0}); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	d.Update(domain.Status("basement"))
	if d.Over() != domain.StatusTodo {
		t.Fatalf("advisory column = %q, want source column", d.Over())
	}
}
