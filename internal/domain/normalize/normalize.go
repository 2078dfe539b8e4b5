// Package normalize maps source-specific column labels onto canonical Record fields.
package normalize

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/covidboard/internal/domain/model"
)

// sourceLabels is the mapping table from the Kaggle country_wise_latest
// header to canonical fields. Every canonical field must appear exactly once;
// init panics otherwise.
var sourceLabels = map[string]model.Field{
	"Country/Region":      model.FieldEntityName,
	"Confirmed":           model.FieldCumulativeConfirmed,
	"Deaths":              model.FieldCumulativeDeaths,
	"Recovered":           model.FieldCumulativeRecovered,
	"Active":              model.FieldActiveCases,
	"New cases":           model.FieldNewConfirmed,
	"New deaths":          model.FieldNewDeaths,
	"New recovered":       model.FieldNewRecovered,
	"Confirmed last week": model.FieldConfirmedPriorPeriod,
	"1 week change":       model.FieldPeriodChange,
	"1 week % increase":   model.FieldPeriodPctChange,
	"WHO Region":          model.FieldRegionGroup,
}

// labels resolves both source labels and canonical names.
var labels map[string]model.Field

func init() {
	seen := make(map[model.Field]string, len(sourceLabels))
	labels = make(map[string]model.Field, 2*len(sourceLabels))
	for label, f := range sourceLabels {
		if prev, dup := seen[f]; dup {
			panic(fmt.Sprintf("normalize: field %s mapped by %q and %q", f, prev, label))
		}
		seen[f] = label
		labels[label] = f
		labels[string(f)] = f
	}
	for _, f := range model.Fields() {
		if _, ok := seen[f]; !ok {
			panic(fmt.Sprintf("normalize: field %s has no source label", f))
		}
	}
}

// SourceLabel returns the source header label for a canonical field.
func SourceLabel(f model.Field) string {
	for label, g := range sourceLabels {
		if g == f {
			return label
		}
	}
	return ""
}

// Lookup resolves a header label (source or canonical) to a field.
func Lookup(label string) (model.Field, bool) {
	f, ok := labels[strings.TrimSpace(label)]
	return f, ok
}

// Report describes how a row or header lined up with the canonical schema.
type Report struct {
	// Missing lists canonical fields with no matching key.
	Missing []model.Field
	// Unknown lists keys that map to no canonical field.
	Unknown []string
}

// Clean reports whether every field matched and no key was left over.
func (r Report) Clean() bool { return len(r.Missing) == 0 && len(r.Unknown) == 0 }

// CheckHeader compares a header against the mapping table.
func CheckHeader(header []string) Report {
	present := make(map[model.Field]bool, len(header))
	var rep Report
	for _, h := range header {
		f, ok := Lookup(h)
		if !ok {
			rep.Unknown = append(rep.Unknown, h)
			continue
		}
		present[f] = true
	}
	for _, f := range model.Fields() {
		if !present[f] {
			rep.Missing = append(rep.Missing, f)
		}
	}
	sort.Strings(rep.Unknown)
	return rep
}

// Normalize builds a Record from a row keyed by source labels or canonical names.
// Keys without a canonical field are reported, not rejected. Empty, NA and
// NaN cells leave the field unset; infinities are an error. Two keys naming
// the same field (a source label and its canonical name) are an error.
func Normalize(row map[string]string) (model.Record, Report, error) {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rep := CheckHeader(keys)

	var r model.Record
	from := make(map[model.Field]string, len(keys))
	for _, k := range keys {
		f, ok := Lookup(k)
		if !ok {
			continue
		}
		if prev, dup := from[f]; dup {
			return model.Record{}, rep, fmt.Errorf("%w: %s from %q and %q", ErrDuplicateColumn, f, prev, k)
		}
		from[f] = k
		if err := assign(&r, f, row[k]); err != nil {
			return model.Record{}, rep, fmt.Errorf("%w: column %q: %w", ErrParse, k, err)
		}
	}
	if err := r.Validate(); err != nil {
		return model.Record{}, rep, err
	}
	return r, rep, nil
}

// Denormalize renders a Record as a row keyed by canonical names.
// Unset fields are omitted, so Normalize(Denormalize(r)) == r.
func Denormalize(r model.Record) map[string]string {
	row := make(map[string]string, len(model.Fields()))
	row[string(model.FieldEntityName)] = r.EntityName
	if v, ok := r.RegionGroup.Get(); ok {
		row[string(model.FieldRegionGroup)] = v
	}
	if v, ok := r.PeriodPctChange.Get(); ok {
		row[string(model.FieldPeriodPctChange)] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	for _, f := range model.NumericFields() {
		if f == model.FieldPeriodPctChange {
			continue
		}
		if v, ok := r.Number(f); ok {
			row[string(f)] = strconv.FormatInt(int64(v), 10)
		}
	}
	return row
}

func assign(r *model.Record, f model.Field, raw string) error {
	v := strings.TrimSpace(raw)
	if isBlank(v) {
		return nil
	}
	switch f {
	case model.FieldEntityName:
		r.EntityName = v
		return nil
	case model.FieldRegionGroup:
		r.RegionGroup = model.Some(v)
		return nil
	case model.FieldPeriodPctChange:
		x, err := parseFinite(v)
		if err != nil {
			return err
		}
		r.PeriodPctChange = model.Some(x)
		return nil
	}
	n, err := parseCount(v)
	if err != nil {
		return err
	}
	return r.SetInt(f, n)
}

// parseCount accepts integers, and floats with no fractional part since
// some exports write counts as 123.0.
func parseCount(v string) (int64, error) {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	x, err := parseFinite(v)
	if err != nil {
		return 0, err
	}
	if x != math.Trunc(x) {
		return 0, fmt.Errorf("%w: %s", ErrFractionalCount, v)
	}
	if math.Abs(x) >= math.MaxInt64 {
		return 0, fmt.Errorf("count %s out of range", v)
	}
	return int64(x), nil
}

// parseFinite rejects the inf and nan spellings ParseFloat accepts.
func parseFinite(v string) (float64, error) {
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("%w: %s", ErrNonFinite, v)
	}
	return x, nil
}

func isBlank(v string) bool {
	return v == "" || strings.EqualFold(v, "nan") || strings.EqualFold(v, "na")
}
