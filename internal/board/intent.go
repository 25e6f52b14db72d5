package board

import "github.com/ChrisCotton/kanban-mbb-app-sub000/internal/domain"

// MoveIntent requests placement of one task at one column position. Index
// is the 0-based insertion position within the target column after the task
// has been removed from its source column, so it names the final resting
// slot rather than a pre-removal slot.
type MoveIntent struct {
	TaskID string
	Status domain.Status
	Index  int
}

// Apply projects a move intent onto a board and returns the resulting
// board. The input is never mutated, so a caller may feed an already
// pending projection back in to compose chained moves. Apply never touches
// the durable layer.
//
// The intent index clamps to the target column bounds: negative becomes 0,
// past-the-end becomes append.
func Apply(b Board, in MoveIntent) (Board, error) {
	if !in.Status.Valid() {
		return Board{}, domain.ErrInvalidStatus
	}
	source, sourceIndex, ok := b.Find(in.TaskID)
	if !ok {
		return Board{}, ErrUnknownTask
	}

	next := b.Clone()

	// Remove first. Same-column moves then insert into the shortened
	// sequence, which keeps the index math identical to the cross-column
	// case.
	sourceCol := next.columns[source]
	task := sourceCol[sourceIndex]
	sourceCol = append(sourceCol[:sourceIndex], sourceCol[sourceIndex+1:]...)
	next.columns[source] = sourceCol

	task.Status = in.Status
	destCol := next.columns[in.Status]
	index := in.Index
	if index < 0 {
		index = 0
	}
	if index > len(destCol) {
		index = len(destCol)
	}
	destCol = append(destCol, domain.Task{})
	copy(destCol[index+1:], destCol[index:])
	destCol[index] = task
	next.columns[in.Status] = destCol

	return next, nil
}
