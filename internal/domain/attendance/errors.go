package attendance

import "errors"

// Attendance domain errors
var (
	ErrRecordNotFound = errors.New("no attendance record for that date")
)
