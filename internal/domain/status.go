package domain

import "strings"

// Status identifies one of the four fixed board columns.
type Status string

const (
	StatusBacklog Status = "backlog"
	StatusTodo    Status = "todo"
	StatusDoing   Status = "doing"
	StatusDone    Status = "done"
)

// statusOrder fixes the board's left-to-right column order.
var statusOrder = []Status{StatusBacklog, StatusTodo, StatusDoing, StatusDone}

// Statuses returns the four board statuses in display order.
func Statuses() []Status {
	return append([]Status(nil), statusOrder...)
}

// ParseStatus normalizes raw input into one of the four statuses.
func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusBacklog:
		return StatusBacklog, nil
	case StatusTodo:
		return StatusTodo, nil
	case StatusDoing:
		return StatusDoing, nil
	case StatusDone:
		return StatusDone, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Valid reports whether s is one of the four board statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusBacklog, StatusTodo, StatusDoing, StatusDone:
		return true
	default:
		return false
	}
}

// Label returns the human-readable column heading for s.
func (s Status) Label() string {
	switch s {
	case StatusBacklog:
		return "Backlog"
	case StatusTodo:
		return "To Do"
	case StatusDoing:
		return "Doing"
	case StatusDone:
		return "Done"
	default:
		return string(s)
	}
}
