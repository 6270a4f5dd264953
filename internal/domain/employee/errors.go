package employee

import "errors"

// Employee domain errors
var (
	// ErrInvalidSchedule is the only hard precondition in the core:
	// arrival must be strictly before departure.
	ErrInvalidSchedule = errors.New("arrival time must be before departure time")

	ErrEmployeeNotFound = errors.New("employee not found")
)
