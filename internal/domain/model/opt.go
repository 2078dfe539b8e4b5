package model

import (
	"encoding/json"
)

type optValue interface {
	~int64 | ~float64 | ~string
}

// Opt is a value that may be absent. Fields without a matching source
// column stay unset instead of collapsing to zero.
type Opt[T optValue] struct {
	Value T
	Valid bool
}

// Some returns a set Opt holding v.
func Some[T optValue](v T) Opt[T] {
	return Opt[T]{Value: v, Valid: true}
}

// None returns an unset Opt.
func None[T optValue]() Opt[T] {
	return Opt[T]{}
}

// Get returns the value and whether it is set.
func (o Opt[T]) Get() (T, bool) {
	return o.Value, o.Valid
}

// Or returns the value, or def when unset.
func (o Opt[T]) Or(def T) T {
	if !o.Valid {
		return def
	}
	return o.Value
}

// MarshalJSON encodes an unset Opt as null.
func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// UnmarshalJSON decodes null into an unset Opt.
func (o *Opt[T]) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*o = Opt[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
