package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/board"
	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/domain"
)

// IDGenerator returns unique identifiers for new tasks.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service orchestrates board reads and task writes against the Store.
type Service struct {
	store Store
	idGen IDGenerator
	clock Clock
}

// NewService constructs a new value for this package.
func NewService(store Store, idGen IDGenerator, clock Clock) *Service {
	if idGen == nil {
		idGen = uuid.NewString
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, idGen: idGen, clock: clock}
}

// Board fetches every task grouped into the four status columns.
func (s *Service) Board(ctx context.Context) (board.Board, error) {
	tasks, err := s.store.FetchAll(ctx)
	if err != nil {
		return board.Board{}, err
	}
	return board.New(tasks), nil
}

// SearchBoard runs the query and groups matches the same way Board does, so
// a search refresh can stand in for a full snapshot during reconciliation.
func (s *Service) SearchBoard(ctx context.Context, q SearchQuery) (board.Board, error) {
	tasks, err := s.store.Search(ctx, q)
	if err != nil {
		return board.Board{}, err
	}
	return board.New(tasks), nil
}

// CreateTaskInput holds input values for create task operations.
type CreateTaskInput struct {
	Status      domain.Status
	Title       string
	Description string
	Priority    domain.Priority
	DueAt       *time.Time
}

// CreateTask appends a new task at the end of its status column.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (domain.Task, error) {
	if in.Status == "" {
		in.Status = domain.StatusBacklog
	}
	tasks, err := s.store.FetchAll(ctx)
	if err != nil {
		return domain.Task{}, err
	}
	orderIndex := 0
	for _, t := range tasks {
		if t.Status == in.Status && t.OrderIndex >= orderIndex {
			orderIndex = t.OrderIndex + 1
		}
	}

	task, err := domain.NewTask(domain.TaskInput{
		ID:          s.idGen(),
		Status:      in.Status,
		OrderIndex:  orderIndex,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		DueAt:       in.DueAt,
	}, s.clock())
	if err != nil {
		return domain.Task{}, err
	}

	if err := s.store.CreateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// GetTask gets one task.
func (s *Service) GetTask(ctx context.Context, taskID string) (domain.Task, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return domain.Task{}, domain.ErrInvalidID
	}
	return s.store.GetTask(ctx, taskID)
}

// MoveTask places the task at the given slot in the status column. The index
// counts positions in the destination sequence after the task is removed from
// its current column; out-of-range values clamp to the nearest valid slot.
func (s *Service) MoveTask(ctx context.Context, taskID string, status domain.Status, index int) (domain.Task, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return domain.Task{}, domain.ErrInvalidID
	}
	if !status.Valid() {
		return domain.Task{}, domain.ErrInvalidStatus
	}
	return s.store.WriteMove(ctx, taskID, status, index)
}

// UpdateTask applies a field-scoped patch to one task.
func (s *Service) UpdateTask(ctx context.Context, taskID string, patch TaskPatch) (domain.Task, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return domain.Task{}, domain.ErrInvalidID
	}
	if patch.IsZero() {
		return domain.Task{}, ErrEmptyPatch
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return domain.Task{}, domain.ErrInvalidTitle
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return domain.Task{}, domain.ErrInvalidPriority
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return domain.Task{}, domain.ErrInvalidStatus
	}
	return s.store.WriteUpdate(ctx, taskID, patch)
}

// DeleteTask deletes one task. The store closes the order gap it leaves.
func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return domain.ErrInvalidID
	}
	return s.store.WriteDelete(ctx, taskID)
}

// BulkResult reports the outcome of a best-effort batch. Every id is
// attempted; Failures records the ones that did not go through.
type BulkResult struct {
	Attempted int
	Failures  []BulkFailure
}

// BulkFailure pairs one failed task id with its error.
type BulkFailure struct {
	TaskID string
	Err    error
}

// OK reports whether every attempted write succeeded.
func (r BulkResult) OK() bool {
	return len(r.Failures) == 0
}

// Succeeded returns the number of writes that went through.
func (r BulkResult) Succeeded() int {
	return r.Attempted - len(r.Failures)
}

// BulkDelete deletes the tasks one at a time, awaiting each write before
// issuing the next so column reindexing stays well-defined. A failed delete
// is recorded and the loop continues with the remaining ids; only context
// cancellation aborts the remainder.
func (s *Service) BulkDelete(ctx context.Context, taskIDs []string) (BulkResult, error) {
	var res BulkResult
	for _, id := range taskIDs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Attempted++
		if err := s.DeleteTask(ctx, id); err != nil {
			res.Failures = append(res.Failures, BulkFailure{TaskID: id, Err: err})
		}
	}
	return res, nil
}

// BulkMove re-statuses the tasks one at a time under the same best-effort
// contract as BulkDelete. Each moved task is appended at the end of the
// destination column in batch order.
func (s *Service) BulkMove(ctx context.Context, taskIDs []string, status domain.Status) (BulkResult, error) {
	if !status.Valid() {
		return BulkResult{}, domain.ErrInvalidStatus
	}
	var res BulkResult
	for _, id := range taskIDs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Attempted++
		if _, err := s.UpdateTask(ctx, id, TaskPatch{Status: &status}); err != nil {
			res.Failures = append(res.Failures, BulkFailure{TaskID: id, Err: err})
		}
	}
	return res, nil
}

// BulkSetPriority sets the priority on each task in turn under the same
// best-effort contract as BulkDelete.
func (s *Service) BulkSetPriority(ctx context.Context, taskIDs []string, priority domain.Priority) (BulkResult, error) {
	if !priority.Valid() {
		return BulkResult{}, domain.ErrInvalidPriority
	}
	var res BulkResult
	for _, id := range taskIDs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Attempted++
		if _, err := s.UpdateTask(ctx, id, TaskPatch{Priority: &priority}); err != nil {
			res.Failures = append(res.Failures, BulkFailure{TaskID: id, Err: err})
		}
	}
	return res, nil
}
