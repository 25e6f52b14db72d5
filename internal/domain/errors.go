package domain

import "errors"

var (
	ErrInvalidID         = errors.New("invalid id")
	ErrInvalidTitle      = errors.New("invalid title")
	ErrInvalidPriority   = errors.New("invalid priority")
	ErrInvalidOrderIndex = errors.New("invalid order index")
	ErrInvalidStatus     = errors.New("invalid status")
)
