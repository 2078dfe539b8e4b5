package ranking

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrUnknownField     = errors.New("field cannot be ranked")
	ErrInvalidLimit     = errors.New("invalid ranking limit")
	ErrInvalidDirection = errors.New("invalid ranking direction")
)
