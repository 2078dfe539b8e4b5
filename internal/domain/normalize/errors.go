package normalize

import "errors"

// Sentinel kinds for normalization errors.
var (
	ErrParse           = errors.New("unparseable value")
	ErrFractionalCount = errors.New("count has a fractional part")
	ErrNonFinite       = errors.New("value is not finite")
	ErrDuplicateColumn = errors.New("field given by more than one column")
)
