package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/app"
	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// selectTaskColumns defines a package constant value.
const selectTaskColumns = `SELECT id, status, order_index, title, description, priority, due_at, created_at, updated_at FROM tasks`

// Store persists board tasks in a single sqlite database. It owns order
// indexes: every move, status change, and delete renumbers the touched
// columns densely inside one transaction.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the requested operation.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &Store{db: db, now: time.Now}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// OpenInMemory opens in memory.
func OpenInMemory() (*Store, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	store := &Store{db: db, now: time.Now}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the requested operation.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate handles migrate.
func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			order_index INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL DEFAULT 'medium',
			due_at TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status_order ON tasks(status, order_index);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// FetchAll returns every task ordered by column then slot.
func (s *Store) FetchAll(ctx context.Context) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, selectTaskColumns+` ORDER BY status ASC, order_index ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Search returns tasks matching the query in Fetch-all's shape. Status and
// priority filters run in SQL; the text match is a case-insensitive contains
// over title and description.
func (s *Store) Search(ctx context.Context, q app.SearchQuery) ([]domain.Task, error) {
	query := selectTaskColumns
	where := []string{}
	args := []any{}
	if len(q.Statuses) > 0 {
		where = append(where, `status IN (`+placeholders(len(q.Statuses))+`)`)
		for _, status := range q.Statuses {
			args = append(args, string(status))
		}
	}
	if len(q.Priorities) > 0 {
		where = append(where, `priority IN (`+placeholders(len(q.Priorities))+`)`)
		for _, priority := range q.Priorities {
			args = append(args, string(priority))
		}
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY status ASC, order_index ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	text := strings.ToLower(strings.TrimSpace(q.Text))
	out := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(t.Title), text) &&
			!strings.Contains(strings.ToLower(t.Description), text) {
			continue
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateTask creates task.
func (s *Store) CreateTask(ctx context.Context, t domain.Task) error {
	return insertTask(ctx, s.db, t)
}

// GetTask returns task.
func (s *Store) GetTask(ctx context.Context, id string) (domain.Task, error) {
	row := s.db.QueryRowContext(ctx, selectTaskColumns+` WHERE id = ?`, id)
	return scanTask(row)
}

// WriteMove places the task at the given post-removal index in the status
// column, clamping out-of-range indexes, and returns the authoritative row.
func (s *Store) WriteMove(ctx context.Context, id string, status domain.Status, index int) (domain.Task, error) {
	if !status.Valid() {
		return domain.Task{}, domain.ErrInvalidStatus
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	task, err := getTaskTx(ctx, tx, id)
	if err != nil {
		return domain.Task{}, err
	}
	err = placeTaskTx(ctx, tx, &task, status, index, s.now())
	if err != nil {
		return domain.Task{}, err
	}
	err = updateTaskRowTx(ctx, tx, task)
	if err != nil {
		return domain.Task{}, err
	}
	err = tx.Commit()
	if err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// WriteUpdate applies a field-scoped patch and returns the authoritative
// row. A status change appends the task at the end of the destination
// column and renumbers the column it left.
func (s *Store) WriteUpdate(ctx context.Context, id string, patch app.TaskPatch) (domain.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	task, err := getTaskTx(ctx, tx, id)
	if err != nil {
		return domain.Task{}, err
	}

	now := s.now()
	title := task.Title
	if patch.Title != nil {
		title = *patch.Title
	}
	description := task.Description
	if patch.Description != nil {
		description = *patch.Description
	}
	priority := task.Priority
	if patch.Priority != nil {
		priority = *patch.Priority
	}
	dueAt := task.DueAt
	if patch.ClearDueAt {
		dueAt = nil
	} else if patch.DueAt != nil {
		dueAt = patch.DueAt
	}
	err = task.UpdateDetails(title, description, priority, dueAt, now)
	if err != nil {
		return domain.Task{}, err
	}

	if patch.Status != nil && *patch.Status != task.Status {
		var dest []string
		dest, err = columnIDsTx(ctx, tx, *patch.Status, task.ID)
		if err != nil {
			return domain.Task{}, err
		}
		err = placeTaskTx(ctx, tx, &task, *patch.Status, len(dest), now)
		if err != nil {
			return domain.Task{}, err
		}
	}

	err = updateTaskRowTx(ctx, tx, task)
	if err != nil {
		return domain.Task{}, err
	}
	err = tx.Commit()
	if err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// WriteDelete deletes the task and closes the order gap in its column.
func (s *Store) WriteDelete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	task, err := getTaskTx(ctx, tx, id)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	err = translateNoRows(res)
	if err != nil {
		return err
	}

	remaining, err := columnIDsTx(ctx, tx, task.Status, id)
	if err != nil {
		return err
	}
	err = renumberTx(ctx, tx, remaining)
	if err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// ReplaceAll swaps the entire task set. Order indexes are assigned densely
// per column in the order given.
func (s *Store) ReplaceAll(ctx context.Context, tasks []domain.Task) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `DELETE FROM tasks`)
	if err != nil {
		return err
	}

	nextIndex := map[domain.Status]int{}
	for _, t := range tasks {
		t.OrderIndex = nextIndex[t.Status]
		nextIndex[t.Status]++
		err = insertTask(ctx, tx, t)
		if err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

// placeTaskTx renumbers the destination column with the task inserted at the
// clamped index, closes the gap in the source column on cross-column moves,
// and stamps the new slot on the struct. The caller persists the row.
func placeTaskTx(ctx context.Context, tx *sql.Tx, task *domain.Task, status domain.Status, index int, now time.Time) error {
	dest, err := columnIDsTx(ctx, tx, status, task.ID)
	if err != nil {
		return err
	}
	if index < 0 {
		index = 0
	}
	if index > len(dest) {
		index = len(dest)
	}

	ordered := make([]string, 0, len(dest)+1)
	ordered = append(ordered, dest[:index]...)
	ordered = append(ordered, task.ID)
	ordered = append(ordered, dest[index:]...)
	if err := renumberTx(ctx, tx, ordered); err != nil {
		return err
	}

	if task.Status != status {
		source, err := columnIDsTx(ctx, tx, task.Status, task.ID)
		if err != nil {
			return err
		}
		if err := renumberTx(ctx, tx, source); err != nil {
			return err
		}
	}

	return task.Move(status, index, now)
}

// columnIDsTx returns the column's task ids in slot order, excluding one id.
func columnIDsTx(ctx context.Context, tx *sql.Tx, status domain.Status, excludeID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM tasks
		WHERE status = ? AND id <> ?
		ORDER BY order_index ASC, id ASC
	`, string(status), excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// renumberTx rewrites order_index to the slice position for each id. Neighbor
// rows keep their updated_at; only the moved task is stamped by the caller.
func renumberTx(ctx context.Context, tx *sql.Tx, ids []string) error {
	for i, id := range ids {
		if _, err := tx.ExecContext(ctx, `UPDATE tasks SET order_index = ? WHERE id = ?`, i, id); err != nil {
			return err
		}
	}
	return nil
}

// getTaskTx handles get task tx.
func getTaskTx(ctx context.Context, tx *sql.Tx, id string) (domain.Task, error) {
	row := tx.QueryRowContext(ctx, selectTaskColumns+` WHERE id = ?`, id)
	return scanTask(row)
}

// updateTaskRowTx handles update task row tx.
func updateTaskRowTx(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE tasks
		SET status = ?, order_index = ?, title = ?, description = ?, priority = ?, due_at = ?, updated_at = ?
		WHERE id = ?
	`, string(t.Status), t.OrderIndex, t.Title, t.Description, string(t.Priority), nullableTS(t.DueAt), ts(t.UpdatedAt), t.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// execer abstracts the db and tx handles for shared insert statements.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// insertTask handles insert task.
func insertTask(ctx context.Context, ex execer, t domain.Task) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO tasks(id, status, order_index, title, description, priority, due_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID,
		string(t.Status),
		t.OrderIndex,
		t.Title,
		t.Description,
		string(t.Priority),
		nullableTS(t.DueAt),
		ts(t.CreatedAt),
		ts(t.UpdatedAt),
	)
	return err
}

// scanner represents scanner data used by this package.
type scanner interface {
	Scan(dest ...any) error
}

// scanTask handles scan task.
func scanTask(s scanner) (domain.Task, error) {
	var (
		t          domain.Task
		status     string
		priority   string
		dueRaw     sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := s.Scan(
		&t.ID,
		&status,
		&t.OrderIndex,
		&t.Title,
		&t.Description,
		&priority,
		&dueRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, app.ErrNotFound
		}
		return domain.Task{}, err
	}
	t.Status = domain.Status(status)
	t.Priority = domain.Priority(priority)
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	t.DueAt = parseNullTS(dueRaw)
	t.CreatedAt = parseTS(createdRaw)
	t.UpdatedAt = parseTS(updatedRaw)
	return t, nil
}

// translateNoRows handles translate no rows.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

// placeholders returns n comma-separated SQL parameter markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// nullableTS handles nullable ts.
func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

// parseNullTS parses input into a normalized form.
func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	ts := parseTS(v.String)
	return &ts
}
