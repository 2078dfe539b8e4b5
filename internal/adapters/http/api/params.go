package api

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/okian/covidboard/internal/domain/model"
)

// fieldParam parses a field query parameter, falling back to def when absent.
func fieldParam(q url.Values, key string, def model.Field) (model.Field, error) {
	raw := q.Get(key)
	if raw == "" {
		return def, nil
	}
	return model.ParseField(raw)
}

// limitParam parses limit within 1..l.Max, falling back to l.Default.
func limitParam(q url.Values, l Limits) (int, error) {
	raw := q.Get("limit")
	if raw == "" {
		return l.Default, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest)
	}
	if n > l.Max {
		return 0, fmt.Errorf("%w: limit exceeds %d", ErrBadRequest, l.Max)
	}
	return n, nil
}
