package timeslice

import "errors"

// Sentinel kinds for time-slice errors.
var (
	ErrUnknownField = errors.New("field cannot be sliced")
	ErrMissingValue = errors.New("record has no value for field")
)
