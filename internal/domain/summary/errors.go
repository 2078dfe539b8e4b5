package summary

import "errors"

// ErrUnknownField is returned when aggregating a non-numeric field.
var ErrUnknownField = errors.New("field cannot be aggregated")
