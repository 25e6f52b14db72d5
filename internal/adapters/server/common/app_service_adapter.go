package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/app"
	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/board"
	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/domain"
)

// AppServiceAdapter maps transport contracts onto app.Service board and task APIs.
type AppServiceAdapter struct {
	service *app.Service
	now     func() time.Time
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{
		service: service,
		now:     time.Now,
	}
}

// CaptureBoard resolves one full-board snapshot through app-level APIs.
func (a *AppServiceAdapter) CaptureBoard(ctx context.Context) (BoardCapture, error) {
	if a == nil || a.service == nil {
		return BoardCapture{}, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	b, err := a.service.Board(ctx)
	if err != nil {
		return BoardCapture{}, mapAppError("capture board", err)
	}
	return boardCaptureFrom(b, a.now().UTC(), ""), nil
}

// SearchTasks resolves one filtered board snapshot through app-level APIs.
func (a *AppServiceAdapter) SearchTasks(ctx context.Context, in SearchRequest) (BoardCapture, error) {
	if a == nil || a.service == nil {
		return BoardCapture{}, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	query := app.SearchQuery{Text: strings.TrimSpace(in.Query)}

	var err error
	query.Statuses, err = parseStatusFilters(in.Statuses)
	if err != nil {
		return BoardCapture{}, err
	}
	query.Priorities, err = parsePriorityFilters(in.Priorities)
	if err != nil {
		return BoardCapture{}, err
	}

	b, err := a.service.SearchBoard(ctx, query)
	if err != nil {
		return BoardCapture{}, mapAppError("search tasks", err)
	}
	return boardCaptureFrom(b, a.now().UTC(), query.Text), nil
}

// GetTask resolves one task by id through app-level APIs.
func (a *AppServiceAdapter) GetTask(ctx context.Context, taskID string) (TaskPayload, error) {
	if a == nil || a.service == nil {
		return TaskPayload{}, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	task, err := a.service.GetTask(ctx, taskID)
	if err != nil {
		return TaskPayload{}, mapAppError("get task", err)
	}
	return taskPayloadFromDomain(task), nil
}

// CreateTask creates one task through app-level APIs.
func (a *AppServiceAdapter) CreateTask(ctx context.Context, in CreateTaskRequest) (TaskPayload, error) {
	if a == nil || a.service == nil {
		return TaskPayload{}, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}

	input := app.CreateTaskInput{
		Title:       in.Title,
		Description: in.Description,
		DueAt:       in.DueAt,
	}
	if strings.TrimSpace(in.Status) != "" {
		status, err := parseStatusArg(in.Status)
		if err != nil {
			return TaskPayload{}, err
		}
		input.Status = status
	}
	if strings.TrimSpace(in.Priority) != "" {
		priority, err := parsePriorityArg(in.Priority)
		if err != nil {
			return TaskPayload{}, err
		}
		input.Priority = priority
	}

	task, err := a.service.CreateTask(ctx, input)
	if err != nil {
		return TaskPayload{}, mapAppError("create task", err)
	}
	return taskPayloadFromDomain(task), nil
}

// UpdateTask applies one field-scoped partial update through app-level APIs.
func (a *AppServiceAdapter) UpdateTask(ctx context.Context, taskID string, in UpdateTaskRequest) (TaskPayload, error) {
	if a == nil || a.service == nil {
		return TaskPayload{}, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}

	patch := app.TaskPatch{
		Title:       in.Title,
		Description: in.Description,
		DueAt:       in.DueAt,
		ClearDueAt:  in.ClearDueAt,
	}
	if in.Priority != nil {
		priority, err := parsePriorityArg(*in.Priority)
		if err != nil {
			return TaskPayload{}, err
		}
		patch.Priority = &priority
	}
	if in.Status != nil {
		status, err := parseStatusArg(*in.Status)
		if err != nil {
			return TaskPayload{}, err
		}
		patch.Status = &status
	}

	task, err := a.service.UpdateTask(ctx, taskID, patch)
	if err != nil {
		return TaskPayload{}, mapAppError("update task", err)
	}
	return taskPayloadFromDomain(task), nil
}

// MoveTask applies one durable move through app-level APIs.
func (a *AppServiceAdapter) MoveTask(ctx context.Context, taskID string, in MoveTaskRequest) (TaskPayload, error) {
	if a == nil || a.service == nil {
		return TaskPayload{}, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	status, err := parseStatusArg(in.Status)
	if err != nil {
		return TaskPayload{}, err
	}
	task, err := a.service.MoveTask(ctx, taskID, status, in.Index)
	if err != nil {
		return TaskPayload{}, mapAppError("move task", err)
	}
	return taskPayloadFromDomain(task), nil
}

// DeleteTask deletes one task through app-level APIs.
func (a *AppServiceAdapter) DeleteTask(ctx context.Context, taskID string) error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	if err := a.service.DeleteTask(ctx, taskID); err != nil {
		return mapAppError("delete task", err)
	}
	return nil
}

// BulkMove moves every listed task to the destination column end, sequentially.
func (a *AppServiceAdapter) BulkMove(ctx context.Context, in BulkMoveRequest) (BulkOutcome, error) {
	if a == nil || a.service == nil {
		return BulkOutcome{}, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	status, err := parseStatusArg(in.Status)
	if err != nil {
		return BulkOutcome{}, err
	}
	res, err := a.service.BulkMove(ctx, in.TaskIDs, status)
	if err != nil {
		return BulkOutcome{}, mapAppError("bulk move", err)
	}
	return bulkOutcomeFrom(res), nil
}

// BulkDelete deletes every listed task, sequentially.
func (a *AppServiceAdapter) BulkDelete(ctx context.Context, in BulkDeleteRequest) (BulkOutcome, error) {
	if a == nil || a.service == nil {
		return BulkOutcome{}, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	res, err := a.service.BulkDelete(ctx, in.TaskIDs)
	if err != nil {
		return BulkOutcome{}, mapAppError("bulk delete", err)
	}
	return bulkOutcomeFrom(res), nil
}

// BulkSetPriority changes the priority of every listed task, sequentially.
func (a *AppServiceAdapter) BulkSetPriority(ctx context.Context, in BulkPriorityRequest) (BulkOutcome, error) {
	if a == nil || a.service == nil {
		return BulkOutcome{}, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	priority, err := parsePriorityArg(in.Priority)
	if err != nil {
		return BulkOutcome{}, err
	}
	res, err := a.service.BulkSetPriority(ctx, in.TaskIDs, priority)
	if err != nil {
		return BulkOutcome{}, mapAppError("bulk set priority", err)
	}
	return bulkOutcomeFrom(res), nil
}

// parseStatusArg parses one status argument.
func parseStatusArg(raw string) (domain.Status, error) {
	status, err := domain.ParseStatus(raw)
	if err != nil {
		return "", fmt.Errorf("status %q: %w", raw, errors.Join(ErrInvalidRequest, err))
	}
	return status, nil
}

// parsePriorityArg parses one priority argument.
func parsePriorityArg(raw string) (domain.Priority, error) {
	priority, err := domain.ParsePriority(raw)
	if err != nil {
		return "", fmt.Errorf("priority %q: %w", raw, errors.Join(ErrInvalidRequest, err))
	}
	return priority, nil
}

// parseStatusFilters parses an optional status filter list.
func parseStatusFilters(raw []string) ([]domain.Status, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]domain.Status, 0, len(raw))
	for _, value := range raw {
		status, err := parseStatusArg(value)
		if err != nil {
			return nil, err
		}
		out = append(out, status)
	}
	return out, nil
}

// parsePriorityFilters parses an optional priority filter list.
func parsePriorityFilters(raw []string) ([]domain.Priority, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]domain.Priority, 0, len(raw))
	for _, value := range raw {
		priority, err := parsePriorityArg(value)
		if err != nil {
			return nil, err
		}
		out = append(out, priority)
	}
	return out, nil
}

// mapAppError translates app and domain sentinels into transport sentinels.
func mapAppError(op string, err error) error {
	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", op, errors.Join(ErrNotFound, err))
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidOrderIndex),
		errors.Is(err, app.ErrEmptyPatch):
		return fmt.Errorf("%s: %w", op, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// taskPayloadFromDomain converts one domain task into its transport payload.
func taskPayloadFromDomain(t domain.Task) TaskPayload {
	return TaskPayload{
		ID:          t.ID,
		Status:      string(t.Status),
		OrderIndex:  t.OrderIndex,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		DueAt:       t.DueAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// boardCaptureFrom converts one board into a capture with all four columns present.
func boardCaptureFrom(b board.Board, capturedAt time.Time, requestedQuery string) BoardCapture {
	statuses := domain.Statuses()
	capture := BoardCapture{
		CapturedAt:     capturedAt,
		Columns:        make([]BoardColumn, 0, len(statuses)),
		RequestedQuery: requestedQuery,
	}
	for _, status := range statuses {
		tasks := b.Tasks(status)
		column := BoardColumn{
			Status: string(status),
			Label:  status.Label(),
			Tasks:  make([]TaskPayload, 0, len(tasks)),
		}
		for _, task := range tasks {
			column.Tasks = append(column.Tasks, taskPayloadFromDomain(task))
		}
		capture.TotalTasks += len(tasks)
		capture.Columns = append(capture.Columns, column)
	}
	return capture
}

// bulkOutcomeFrom converts one app bulk result into its transport payload.
func bulkOutcomeFrom(res app.BulkResult) BulkOutcome {
	out := BulkOutcome{
		Attempted: res.Attempted,
		Succeeded: res.Succeeded(),
	}
	for _, failure := range res.Failures {
		msg := "unknown error"
		if failure.Err != nil {
			msg = failure.Err.Error()
		}
		out.Failures = append(out.Failures, BulkFailure{
			TaskID: failure.TaskID,
			Error:  msg,
		})
	}
	return out
}
