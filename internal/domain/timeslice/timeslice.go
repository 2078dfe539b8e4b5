// Package timeslice pairs two observations of one record for before/after charts.
package timeslice

import (
	"fmt"

	"github.com/okian/covidboard/internal/domain/model"
	"github.com/okian/covidboard/internal/domain/ranking"
)

// Default labels and fields for the weekly comparison.
const (
	DefaultBeforeLabel = "Last Week"
	DefaultAfterLabel  = "Current"

	DefaultBefore = model.FieldConfirmedPriorPeriod
	DefaultAfter  = model.FieldCumulativeConfirmed
)

// Observation is a labelled value.
type Observation struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Pair holds the before and after observations of one entity, in that order.
type Pair struct {
	EntityName string         `json:"entity_name"`
	Slices     [2]Observation `json:"slices"`
}

// Before returns the first observation.
func (p Pair) Before() Observation { return p.Slices[0] }

// After returns the second observation.
func (p Pair) After() Observation { return p.Slices[1] }

// Spec names the two fields to compare and how to label them.
type Spec struct {
	Before      model.Field
	After       model.Field
	BeforeLabel string
	AfterLabel  string
}

// DefaultSpec compares confirmed cases a week ago with now.
func DefaultSpec() Spec {
	return Spec{
		Before:      DefaultBefore,
		After:       DefaultAfter,
		BeforeLabel: DefaultBeforeLabel,
		AfterLabel:  DefaultAfterLabel,
	}
}

// Build reads the two fields of r named by s.
func Build(r model.Record, s Spec) (Pair, error) {
	if !s.Before.Numeric() || !s.After.Numeric() {
		return Pair{}, fmt.Errorf("%w: %q/%q", ErrUnknownField, s.Before, s.After)
	}
	before, ok := r.Number(s.Before)
	if !ok {
		return Pair{}, fmt.Errorf("%w: %s has no %s", ErrMissingValue, r.EntityName, s.Before)
	}
	after, ok := r.Number(s.After)
	if !ok {
		return Pair{}, fmt.Errorf("%w: %s has no %s", ErrMissingValue, r.EntityName, s.After)
	}
	return Pair{
		EntityName: r.EntityName,
		Slices: [2]Observation{
			{Label: s.BeforeLabel, Value: before},
			{Label: s.AfterLabel, Value: after},
		},
	}, nil
}

// BuildView builds a Pair for every row of v, in view order.
func BuildView(v ranking.RankedView, s Spec) ([]Pair, error) {
	out := make([]Pair, 0, v.Len())
	for _, row := range v.Rows {
		p, err := Build(row.Record, s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
