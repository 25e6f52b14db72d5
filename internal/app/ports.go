package app

import (
	"context"
	"time"

	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/domain"
)

// Store is the durable layer behind the board. Mutating calls return the
// authoritative row after the write so callers can fold server truth back
// into optimistic state. Order indexes are owned by the store: WriteMove
// and status-changing WriteUpdate calls renumber the touched columns.
type Store interface {
	FetchAll(context.Context) ([]domain.Task, error)
	Search(context.Context, SearchQuery) ([]domain.Task, error)

	CreateTask(context.Context, domain.Task) error
	GetTask(context.Context, string) (domain.Task, error)
	WriteMove(context.Context, string, domain.Status, int) (domain.Task, error)
	WriteUpdate(context.Context, string, TaskPatch) (domain.Task, error)
	WriteDelete(context.Context, string) error

	ReplaceAll(context.Context, []domain.Task) error
}

// TaskPatch is a field-scoped partial update. Nil fields are left untouched.
// A status change appends the task at the end of the destination column.
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *domain.Priority
	Status      *domain.Status
	DueAt       *time.Time
	ClearDueAt  bool
}

// IsZero reports whether the patch would change nothing.
func (p TaskPatch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Status == nil && p.DueAt == nil && !p.ClearDueAt
}

// SearchQuery filters the task set. The result keeps Fetch-all's shape so a
// search refresh can stand in for a full refresh during reconciliation.
type SearchQuery struct {
	Text       string
	Statuses   []domain.Status
	Priorities []domain.Priority
}
