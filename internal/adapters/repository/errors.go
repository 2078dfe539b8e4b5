package repository

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrNotFound  = errors.New("cache entry not found")
	ErrNilLoader = errors.New("nil loader")
	ErrEmptyKey  = errors.New("empty cache key")
)
