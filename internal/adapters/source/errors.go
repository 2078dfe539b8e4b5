package source

import (
	"errors"
	"fmt"
)

// Sentinel kinds for source errors.
var (
	ErrEmptySource = errors.New("source has no rows")
	ErrBadStatus   = errors.New("unexpected response status")
	ErrBadDate     = errors.New("unparseable date")
	ErrDisabled    = errors.New("source disabled")
)

// LoadError reports a failed load together with the source and, when known,
// the 1-based data row that broke it.
type LoadError struct {
	Source string
	Row    int
	Err    error
}

func (e *LoadError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("load %s: row %d: %v", e.Source, e.Row, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
