package model

import (
	"fmt"
	"strings"
)

// Field is a canonical column name of a Record.
type Field string

// Canonical fields.
const (
	FieldEntityName           Field = "entity_name"
	FieldCumulativeConfirmed  Field = "cumulative_confirmed"
	FieldCumulativeDeaths     Field = "cumulative_deaths"
	FieldCumulativeRecovered  Field = "cumulative_recovered"
	FieldActiveCases          Field = "active_cases"
	FieldNewConfirmed         Field = "new_confirmed"
	FieldNewDeaths            Field = "new_deaths"
	FieldNewRecovered         Field = "new_recovered"
	FieldConfirmedPriorPeriod Field = "confirmed_prior_period"
	FieldPeriodChange         Field = "period_change"
	FieldPeriodPctChange      Field = "period_pct_change"
	FieldRegionGroup          Field = "region_group"
)

var allFields = []Field{
	FieldEntityName,
	FieldCumulativeConfirmed,
	FieldCumulativeDeaths,
	FieldCumulativeRecovered,
	FieldActiveCases,
	FieldNewConfirmed,
	FieldNewDeaths,
	FieldNewRecovered,
	FieldConfirmedPriorPeriod,
	FieldPeriodChange,
	FieldPeriodPctChange,
	FieldRegionGroup,
}

// Fields returns every canonical field in declaration order.
func Fields() []Field {
	out := make([]Field, len(allFields))
	copy(out, allFields)
	return out
}

// NumericFields returns the fields that can be ranked or aggregated.
func NumericFields() []Field {
	out := make([]Field, 0, len(allFields))
	for _, f := range allFields {
		if f.Numeric() {
			out = append(out, f)
		}
	}
	return out
}

// Numeric reports whether f holds a number.
func (f Field) Numeric() bool {
	switch f {
	case FieldEntityName, FieldRegionGroup:
		return false
	}
	return f.Valid()
}

// Cumulative reports whether f is a running total that may never be negative.
func (f Field) Cumulative() bool {
	switch f {
	case FieldCumulativeConfirmed, FieldCumulativeDeaths, FieldCumulativeRecovered:
		return true
	}
	return false
}

// Valid reports whether f is a canonical field.
func (f Field) Valid() bool {
	for _, c := range allFields {
		if c == f {
			return true
		}
	}
	return false
}

func (f Field) String() string { return string(f) }

// ParseField parses a canonical field name, ignoring case and surrounding space.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
	return f, nil
}
