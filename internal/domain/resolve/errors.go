package resolve

import "errors"

// ErrNotFound is the sentinel behind *NotFoundError.
var ErrNotFound = errors.New("entity not found")
