package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/domain"
)

// SnapshotVersion defines a package constant value.
const SnapshotVersion = "mbb.snapshot.v1"

// Snapshot represents snapshot data used by this package.
type Snapshot struct {
	Version    string         `json:"version"`
	ExportedAt time.Time      `json:"exported_at"`
	Tasks      []SnapshotTask `json:"tasks"`
}

// SnapshotTask represents snapshot task data used by this package.
type SnapshotTask struct {
	ID          string          `json:"id"`
	Status      domain.Status   `json:"status"`
	OrderIndex  int             `json:"order_index"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    domain.Priority `json:"priority"`
	DueAt       *time.Time      `json:"due_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ExportSnapshot handles export snapshot.
func (s *Service) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	tasks, err := s.store.FetchAll(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Tasks:      make([]SnapshotTask, 0, len(tasks)),
	}
	for _, task := range tasks {
		snap.Tasks = append(snap.Tasks, snapshotTaskFromDomain(task))
	}

	snap.sort()
	return snap, nil
}

// ImportSnapshot validates the snapshot and replaces the entire task set
// with its contents.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	snap.sort()

	tasks := make([]domain.Task, 0, len(snap.Tasks))
	for _, task := range snap.Tasks {
		tasks = append(tasks, task.toDomain())
	}
	return s.store.ReplaceAll(ctx, tasks)
}

// Validate validates the requested operation.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version: %q", s.Version)
	}

	taskIDs := map[string]struct{}{}
	for i, t := range s.Tasks {
		if strings.TrimSpace(t.ID) == "" {
			return fmt.Errorf("tasks[%d].id is required", i)
		}
		if strings.TrimSpace(t.Title) == "" {
			return fmt.Errorf("tasks[%d].title is required", i)
		}
		if t.OrderIndex < 0 {
			return fmt.Errorf("tasks[%d].order_index must be >= 0", i)
		}
		if t.Status == "" {
			t.Status = domain.StatusBacklog
			s.Tasks[i].Status = t.Status
		}
		if !t.Status.Valid() {
			return fmt.Errorf("tasks[%d].status must be backlog|todo|doing|done", i)
		}
		if t.Priority == "" {
			t.Priority = domain.PriorityMedium
			s.Tasks[i].Priority = t.Priority
		}
		if !t.Priority.Valid() {
			return fmt.Errorf("tasks[%d].priority must be low|medium|high", i)
		}
		if t.CreatedAt.IsZero() || t.UpdatedAt.IsZero() {
			return fmt.Errorf("tasks[%d] timestamps are required", i)
		}
		if _, exists := taskIDs[t.ID]; exists {
			return fmt.Errorf("duplicate task id: %q", t.ID)
		}
		taskIDs[t.ID] = struct{}{}
	}

	return nil
}

// sort handles sort.
func (s *Snapshot) sort() {
	sort.Slice(s.Tasks, func(i, j int) bool {
		a := s.Tasks[i]
		b := s.Tasks[j]
		if a.Status == b.Status {
			if a.OrderIndex == b.OrderIndex {
				return a.ID < b.ID
			}
			return a.OrderIndex < b.OrderIndex
		}
		return statusRank(a.Status) < statusRank(b.Status)
	})
}

// statusRank orders statuses by board column position.
func statusRank(status domain.Status) int {
	for i, known := range domain.Statuses() {
		if known == status {
			return i
		}
	}
	return len(domain.Statuses())
}

// snapshotTaskFromDomain handles snapshot task from domain.
func snapshotTaskFromDomain(t domain.Task) SnapshotTask {
	return SnapshotTask{
		ID:          t.ID,
		Status:      t.Status,
		OrderIndex:  t.OrderIndex,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		DueAt:       copyTimePtr(t.DueAt),
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

// toDomain converts domain.
func (t SnapshotTask) toDomain() domain.Task {
	priority := t.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	status := t.Status
	if status == "" {
		status = domain.StatusBacklog
	}
	return domain.Task{
		ID:          strings.TrimSpace(t.ID),
		Status:      status,
		OrderIndex:  t.OrderIndex,
		Title:       strings.TrimSpace(t.Title),
		Description: strings.TrimSpace(t.Description),
		Priority:    priority,
		DueAt:       copyTimePtr(t.DueAt),
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

// copyTimePtr copies time ptr.
func copyTimePtr(in *time.Time) *time.Time {
	if in == nil {
		return nil
	}
	t := in.UTC().Truncate(time.Second)
	return &t
}
