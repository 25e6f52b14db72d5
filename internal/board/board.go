// Package board implements the four-column ordering and optimistic
// synchronization engine: the column model, move intents and their pure
// projection, drag lifecycle handling, snapshot reconciliation, positional
// placement enumeration, and multi-select tracking.
package board

import (
	"slices"
	"strings"

	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/domain"
)

// Board is the in-memory column model: one ordered task sequence per status.
// Sequence position is display order. The OrderIndex field on contained
// tasks reflects the store's persisted value at snapshot time and is not
// renumbered by local projections; only sequence order is authoritative
// inside a Board.
type Board struct {
	columns map[domain.Status][]domain.Task
}

// New builds a Board from a flat task snapshot. Tasks are grouped by status
// and ordered by OrderIndex, with the id as a deterministic tiebreak. Tasks
// carrying an unknown status are dropped rather than invented into a column.
func New(tasks []domain.Task) Board {
	columns := make(map[domain.Status][]domain.Task, len(statusOrderList()))
	for _, task := range tasks {
		if !task.Status.Valid() {
			continue
		}
		columns[task.Status] = append(columns[task.Status], task)
	}
	for status, col := range columns {
		slices.SortFunc(col, func(a, b domain.Task) int {
			if a.OrderIndex != b.OrderIndex {
				return a.OrderIndex - b.OrderIndex
			}
			return strings.Compare(a.ID, b.ID)
		})
		columns[status] = col
	}
	return Board{columns: columns}
}

// Empty returns a Board with four empty columns.
func Empty() Board {
	return Board{}
}

// statusOrderList returns the fixed column order.
func statusOrderList() []domain.Status {
	return domain.Statuses()
}

// Tasks returns a copy of the ordered task sequence for one status.
func (b Board) Tasks(status domain.Status) []domain.Task {
	return append([]domain.Task(nil), b.columns[status]...)
}

// IDs returns the ordered task ids for one status.
func (b Board) IDs(status domain.Status) []string {
	col := b.columns[status]
	out := make([]string, len(col))
	for i, task := range col {
		out[i] = task.ID
	}
	return out
}

// Len returns the number of tasks in one status column.
func (b Board) Len(status domain.Status) int {
	return len(b.columns[status])
}

// Total returns the number of tasks across all columns.
func (b Board) Total() int {
	total := 0
	for _, col := range b.columns {
		total += len(col)
	}
	return total
}

// TaskAt returns the task at one display position.
func (b Board) TaskAt(status domain.Status, index int) (domain.Task, bool) {
	col := b.columns[status]
	if index < 0 || index >= len(col) {
		return domain.Task{}, false
	}
	return col[index], true
}

// Task returns one task by id.
func (b Board) Task(taskID string) (domain.Task, bool) {
	for _, col := range b.columns {
		for _, task := range col {
			if task.ID == taskID {
				return task, true
			}
		}
	}
	return domain.Task{}, false
}

// Find locates a task and returns its column and display position.
func (b Board) Find(taskID string) (domain.Status, int, bool) {
	for _, status := range statusOrderList() {
		for i, task := range b.columns[status] {
			if task.ID == taskID {
				return status, i, true
			}
		}
	}
	return "", 0, false
}

// Clone returns a deep copy safe for independent mutation.
func (b Board) Clone() Board {
	if b.columns == nil {
		return Board{}
	}
	columns := make(map[domain.Status][]domain.Task, len(b.columns))
	for status, col := range b.columns {
		columns[status] = append([]domain.Task(nil), col...)
	}
	return Board{columns: columns}
}

// FlatTasks returns every task in display order, columns left to right.
func (b Board) FlatTasks() []domain.Task {
	out := make([]domain.Task, 0, b.Total())
	for _, status := range statusOrderList() {
		out = append(out, b.columns[status]...)
	}
	return out
}

// FlatIDs returns every task id in display order, columns left to right.
func (b Board) FlatIDs() []string {
	out := make([]string, 0, b.Total())
	for _, status := range statusOrderList() {
		for _, task := range b.columns[status] {
			out = append(out, task.ID)
		}
	}
	return out
}

// Without returns a copy of the board with the given task ids removed.
// Order of the remaining tasks is preserved.
func (b Board) Without(taskIDs []string) Board {
	if len(taskIDs) == 0 {
		return b.Clone()
	}
	drop := make(map[string]struct{}, len(taskIDs))
	for _, id := range taskIDs {
		drop[id] = struct{}{}
	}
	columns := make(map[domain.Status][]domain.Task, len(b.columns))
	for status, col := range b.columns {
		kept := make([]domain.Task, 0, len(col))
		for _, task := range col {
			if _, gone := drop[task.ID]; gone {
				continue
			}
			kept = append(kept, task)
		}
		columns[status] = kept
	}
	return Board{columns: columns}
}

// SameOrder reports whether two boards agree on task identity and order in
// every column. Only ids participate in the comparison; other task fields
// update independently and must not affect the result.
func SameOrder(a, b Board) bool {
	for _, status := range statusOrderList() {
		left := a.columns[status]
		right := b.columns[status]
		if len(left) != len(right) {
			return false
		}
		for i := range left {
			if left[i].ID != right[i].ID {
				return false
			}
		}
	}
	return true
}
