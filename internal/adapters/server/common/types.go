// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"

	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/domain"
)

// ErrInvalidRequest reports malformed or unparseable transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrWritesDisabled reports that the serving process runs without a write surface.
var ErrWritesDisabled = errors.New("task writes are disabled")

// SupportedStatuses returns all canonical status values accepted by transport adapters.
func SupportedStatuses() []string {
	statuses := domain.Statuses()
	out := make([]string, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, string(status))
	}
	return out
}

// SupportedPriorities returns all canonical priority values accepted by transport adapters.
func SupportedPriorities() []string {
	return []string{
		string(domain.PriorityLow),
		string(domain.PriorityMedium),
		string(domain.PriorityHigh),
	}
}

// TaskPayload represents one task row surfaced by transport adapters.
type TaskPayload struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	OrderIndex  int        `json:"order_index"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BoardColumn carries one status column with its ordered task sequence.
type BoardColumn struct {
	Status string        `json:"status"`
	Label  string        `json:"label"`
	Tasks  []TaskPayload `json:"tasks"`
}

// BoardCapture is the full-board snapshot returned to HTTP and MCP callers.
// Columns are always present in display order, empty ones included, so
// clients can diff per-column id sequences against a previous capture.
type BoardCapture struct {
	CapturedAt     time.Time     `json:"captured_at"`
	TotalTasks     int           `json:"total_tasks"`
	Columns        []BoardColumn `json:"columns"`
	RequestedQuery string        `json:"requested_query,omitempty"`
}

// CreateTaskRequest captures input for new tasks.
type CreateTaskRequest struct {
	Status      string     `json:"status,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
}

// UpdateTaskRequest captures one field-scoped partial update. Nil fields stay
// untouched; ClearDueAt removes the due date and wins over DueAt.
type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	Status      *string    `json:"status,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	ClearDueAt  bool       `json:"clear_due_at,omitempty"`
}

/// MoveTaskRequest captures one durable move: destination status plus the
// 0-based insertion index counted after removal from the source column.
type MoveTaskRequest struct {
	Status string `json:"status"`
	Index  int    `json:"index"`
}

// SearchRequest captures search query filters.
type SearchRequest struct {
	Query      string   `json:"query,omitempty"`
	Statuses   []string `json:"statuses,omitempty"`
	Priorities []string `json:"priorities,omitempty"`
}

// BulkMoveRequest captures one bulk move to a destination column end.
type BulkMoveRequest struct {
	TaskIDs []string `json:"task_ids"`
	Status  string   `json:"status"`
}

// BulkDeleteRequest captures one bulk delete.
type BulkDeleteRequest struct {
	TaskIDs []string `json:"task_ids"`
}

// BulkPriorityRequest captures one bulk priority change.
type BulkPriorityRequest struct {
	TaskIDs  []string `json:"task_ids"`
	Priority string   `json:"priority"`
}

// BulkFailure pairs one failed task id with its error text.
type BulkFailure struct {
	TaskID string `json:"task_id"`
	Error  string `json:"error"`
}

// BulkOutcome reports one settled bulk batch. The batch is complete once
// every id was attempted; failures never abort the remainder.
type BulkOutcome struct {
	Attempted int           `json:"attempted"`
	Succeeded int           `json:"succeeded"`
	Failures  []BulkFailure `json:"failures,omitempty"`
}

// BoardReader resolves read-side board requests.
type BoardReader interface {
	CaptureBoard(context.Context) (BoardCapture, error)
	SearchTasks(context.Context, SearchRequest) (BoardCapture, error)
	GetTask(context.Context, string) (TaskPayload, error)
}

// TaskWriter captures write operations exposed by app services.
type TaskWriter interface {
	CreateTask(context.Context, CreateTaskRequest) (TaskPayload, error)
	UpdateTask(context.Context, string, UpdateTaskRequest) (TaskPayload, error)
	MoveTask(context.Context, string, MoveTaskRequest) (TaskPayload, error)
	DeleteTask(context.Context, string) error
	BulkMove(context.Context, BulkMoveRequest) (BulkOutcome, error)
	BulkDelete(context.Context, BulkDeleteRequest) (BulkOutcome, error)
	BulkSetPriority(context.Context, BulkPriorityRequest) (BulkOutcome, error)
}
