package domain

import (
	"slices"
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var validPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

type Task struct {
	ID          string
	Status      Status
	OrderIndex  int
	Title       string
	Description string
	Priority    Priority
	DueAt       *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type TaskInput struct {
	ID          string
	Status      Status
	OrderIndex  int
	Title       string
	Description string
	Priority    Priority
	DueAt       *time.Time
}

func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	if !in.Status.Valid() {
		return Task{}, ErrInvalidStatus
	}
	if in.Title == "" {
		return Task{}, ErrInvalidTitle
	}
	if in.OrderIndex < 0 {
		return Task{}, ErrInvalidOrderIndex
	}

	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !slices.Contains(validPriorities, in.Priority) {
		return Task{}, ErrInvalidPriority
	}

	return Task{
		ID:          in.ID,
		Status:      in.Status,
		OrderIndex:  in.OrderIndex,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		DueAt:       normalizeDueAt(in.DueAt),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

func (t *Task) Move(status Status, orderIndex int, now time.Time) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	if orderIndex < 0 {
		return ErrInvalidOrderIndex
	}
	t.Status = status
	t.OrderIndex = orderIndex
	t.UpdatedAt = now.UTC()
	return nil
}

func (t *Task) UpdateDetails(title, description string, priority Priority, dueAt *time.Time, now time.Time) error {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" {
		return ErrInvalidTitle
	}
	if !slices.Contains(validPriorities, priority) {
		return ErrInvalidPriority
	}
	t.Title = title
	t.Description = description
	t.Priority = priority
	t.DueAt = normalizeDueAt(dueAt)
	t.UpdatedAt = now.UTC()
	return nil
}

func (t *Task) SetPriority(priority Priority, now time.Time) error {
	if !slices.Contains(validPriorities, priority) {
		return ErrInvalidPriority
	}
	t.Priority = priority
	t.UpdatedAt = now.UTC()
	return nil
}

func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if !slices.Contains(validPriorities, p) {
		return "", ErrInvalidPriority
	}
	return p, nil
}

func (p Priority) Valid() bool {
	return slices.Contains(validPriorities, p)
}

func normalizeDueAt(dueAt *time.Time) *time.Time {
	if dueAt == nil {
		return nil
	}
	ts := dueAt.UTC().Truncate(time.Second)
	return &ts
}
