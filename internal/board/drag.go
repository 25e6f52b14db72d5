package board

import "github.com/ChrisCotton/kanban-mbb-app-sub000/internal/domain"

// Slot names one display position on the board.
type Slot struct {
	Status domain.Status
	Index  int
}

// Drag tracks one drag lifecycle from pick-up to drop. It is a plain state
// object owned by the UI loop; it performs no mutation itself and only
// produces a MoveIntent on a valid drop.
type Drag struct {
	active bool
	taskID string
	source Slot
	over   domain.Status
}

// Begin captures the task at the source slot and activates the drag.
func (d *Drag) Begin(b Board, source Slot) error {
	if d.active {
		return ErrDragActive
	}
	task, ok := b.TaskAt(source.Status, source.Index)
	if !ok {
		return ErrNoTaskAtSlot
	}
	d.active = true
	d.taskID = task.ID
	d.source = source
	d.over = source.Status
	return nil
}

// Update records the column currently hovered. Advisory only: it feeds live
// UI feedback and never changes board state.
func (d *Drag) Update(status domain.Status) {
	if !d.active || !status.Valid() {
		return
	}
	d.over = status
}

// Drop ends the drag. A nil destination (released outside any column) is a
// no-op, as is dropping the task back on its original slot; both reset the
// lifecycle cleanly and emit no intent. A valid destination yields the
// MoveIntent to hand to the projector and durable layer. The destination
// index is interpreted post-removal, matching MoveIntent semantics.
func (d *Drag) Drop(dest *Slot) *MoveIntent {
	if !d.active {
		return nil
	}
	taskID := d.taskID
	source := d.source
	d.reset()

	if dest == nil {
		return nil
	}
	if dest.Status == source.Status && dest.Index == source.Index {
		return nil
	}
	return &MoveIntent{TaskID: taskID, Status: dest.Status, Index: dest.Index}
}

// Active reports whether a drag is in progress.
func (d *Drag) Active() bool {
	return d.active
}

// TaskID returns the id of the task being dragged.
func (d *Drag) TaskID() string {
	if !d.active {
		return ""
	}
	return d.taskID
}

// Source returns the slot the drag started from.
func (d *Drag) Source() Slot {
	return d.source
}

// Over returns the advisory column from the latest Update.
func (d *Drag) Over() domain.Status {
	return d.over
}

func (d *Drag) reset() {
	*d = Drag{}
}
