package board

import (
	"fmt"

	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/domain"
)

// Placement is one legal insertion point for a task, ready for menu
// display. Index is the post-removal insertion position and can be passed
// straight into a MoveIntent.
type Placement struct {
	Status domain.Status
	Index  int
	Label  string
	Detail string
}

// Placements enumerates every legal insertion point for one task across
// all four columns, in column display order.
//
// For the task's own column every final position except its current one is
// offered. For every other column every index from 0 through the column
// length is offered; the past-the-end slot is labeled "end" and is present
// even for an empty column. Non-end slots carry the task they would sit
// before, the end slot carries the task it would follow.
func Placements(b Board, taskID string) ([]Placement, error) {
	current, currentIndex, ok := b.Find(taskID)
	if !ok {
		return nil, ErrUnknownTask
	}

	var out []Placement
	for _, status := range statusOrderList() {
		col := b.Tasks(status)
		if status == current {
			col = append(col[:currentIndex], col[currentIndex+1:]...)
		}
		for idx := 0; idx <= len(col); idx++ {
			if status == current && idx == currentIndex {
				continue
			}
			p := Placement{Status: status, Index: idx}
			if idx == len(col) {
				p.Label = "end"
				if len(col) > 0 {
					p.Detail = "After: " + col[len(col)-1].Title
				}
			} else {
				p.Label = Ordinal(idx + 1)
				p.Detail = "Before: " + col[idx].Title
			}
			out = append(out, p)
		}
	}
	return out, nil
}

// Ordinal renders a 1-based position with its English ordinal suffix.
// Teens always take "th".
func Ordinal(n int) string {
	suffix := "th"
	if rem := n % 100; rem < 11 || rem > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
