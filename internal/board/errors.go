package board

import "errors"

var (
	ErrUnknownTask  = errors.New("unknown task")
	ErrNoTaskAtSlot = errors.New("no task at slot")
	ErrDragActive   = errors.New("drag already active")
)
