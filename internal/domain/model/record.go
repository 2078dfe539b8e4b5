// Package model contains the snapshot types shared by the pipeline stages.
package model

import (
	"fmt"
	"math"
)

// Record is one entity's statistics at a snapshot.
type Record struct {
	EntityName           string       `json:"entity_name"`
	CumulativeConfirmed  Opt[int64]   `json:"cumulative_confirmed"`
	CumulativeDeaths     Opt[int64]   `json:"cumulative_deaths"`
	CumulativeRecovered  Opt[int64]   `json:"cumulative_recovered"`
	ActiveCases          Opt[int64]   `json:"active_cases"`
	NewConfirmed         Opt[int64]   `json:"new_confirmed"`
	NewDeaths            Opt[int64]   `json:"new_deaths"`
	NewRecovered         Opt[int64]   `json:"new_recovered"`
	ConfirmedPriorPeriod Opt[int64]   `json:"confirmed_prior_period"`
	PeriodChange         Opt[int64]   `json:"period_change"`
	PeriodPctChange      Opt[float64] `json:"period_pct_change"`
	RegionGroup          Opt[string]  `json:"region_group"`
}

// intField returns a pointer to the integer field f, or nil.
func (r *Record) intField(f Field) *Opt[int64] {
	switch f {
	case FieldCumulativeConfirmed:
		return &r.CumulativeConfirmed
	case FieldCumulativeDeaths:
		return &r.CumulativeDeaths
	case FieldCumulativeRecovered:
		return &r.CumulativeRecovered
	case FieldActiveCases:
		return &r.ActiveCases
	case FieldNewConfirmed:
		return &r.NewConfirmed
	case FieldNewDeaths:
		return &r.NewDeaths
	case FieldNewRecovered:
		return &r.NewRecovered
	case FieldConfirmedPriorPeriod:
		return &r.ConfirmedPriorPeriod
	case FieldPeriodChange:
		return &r.PeriodChange
	}
	return nil
}

// Number returns the value of numeric field f and whether it is set.
func (r Record) Number(f Field) (float64, bool) {
	if f == FieldPeriodPctChange {
		return r.PeriodPctChange.Get()
	}
	p := r.intField(f)
	if p == nil || !p.Valid {
		return 0, false
	}
	return float64(p.Value), true
}

// Has reports whether field f carries a value.
func (r Record) Has(f Field) bool {
	switch f {
	case FieldEntityName:
		return r.EntityName != ""
	case FieldRegionGroup:
		return r.RegionGroup.Valid
	}
	_, ok := r.Number(f)
	return ok
}

// SetInt assigns an integer field.
func (r *Record) SetInt(f Field, v int64) error {
	p := r.intField(f)
	if p == nil {
		return fmt.Errorf("%w: %s is not an integer field", ErrUnknownField, f)
	}
	*p = Some(v)
	return nil
}

// Validate checks the per-record invariants.
func (r Record) Validate() error {
	if r.EntityName == "" {
		return ErrEmptyEntity
	}
	if v, ok := r.PeriodPctChange.Get(); ok && (math.IsNaN(v) || math.IsInf(v, 0)) {
		return fmt.Errorf("%w: %s %s=%v", ErrNonFinite, r.EntityName, FieldPeriodPctChange, v)
	}
	for _, f := range allFields {
		if !f.Cumulative() {
			continue
		}
		if v, ok := r.Number(f); ok && v < 0 {
			return fmt.Errorf("%w: %s %s=%v", ErrNegativeCount, r.EntityName, f, v)
		}
	}
	return nil
}
