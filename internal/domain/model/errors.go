package model

import "errors"

// Sentinel kinds for model validation errors.
var (
	ErrUnknownField    = errors.New("unknown field")
	ErrEmptyEntity     = errors.New("empty entity name")
	ErrDuplicateEntity = errors.New("duplicate entity name")
	ErrNegativeCount   = errors.New("negative cumulative count")
	ErrNonFinite       = errors.New("non-finite value")
	ErrInvalidTimeline = errors.New("invalid timeline")
)
