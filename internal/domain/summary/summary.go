// Package summary computes dataset-wide aggregates for trailing summary text.
package summary

import (
	"fmt"
	"sort"

	"github.com/okian/covidboard/internal/domain/model"
)

// Summary is the entity count and, when requested, an aggregate of one field.
// Computed is false for an empty Dataset, no field, or no record carrying it.
type Summary struct {
	Count    int         `json:"count"`
	Field    model.Field `json:"field,omitempty"`
	Counted  int         `json:"counted"`
	Sum      float64     `json:"sum"`
	Mean     float64     `json:"mean"`
	Computed bool        `json:"computed"`
}

// Summarize counts records and aggregates f when non-empty.
func Summarize(d *model.Dataset, f model.Field) (Summary, error) {
	s := Summary{Count: d.Len(), Field: f}
	if f == "" {
		return s, nil
	}
	if !f.Numeric() {
		return Summary{}, fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	for i := 0; i < d.Len(); i++ {
		v, ok := d.At(i).Number(f)
		if !ok {
			continue
		}
		s.Sum += v
		s.Counted++
	}
	if s.Counted > 0 {
		s.Mean = s.Sum / float64(s.Counted)
		s.Computed = true
	}
	return s, nil
}

// Group is a per-region aggregate.
type Group struct {
	Region string  `json:"region"`
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
}

// ByRegion sums f per region_group, ordered by sum descending then name.
// Records without a region are grouped under the empty name.
func ByRegion(d *model.Dataset, f model.Field) ([]Group, error) {
	if !f.Numeric() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	idx := make(map[string]int)
	var groups []Group
	for i := 0; i < d.Len(); i++ {
		r := d.At(i)
		region := r.RegionGroup.Or("")
		j, ok := idx[region]
		if !ok {
			j = len(groups)
			idx[region] = j
			groups = append(groups, Group{Region: region})
		}
		groups[j].Count++
		if v, ok := r.Number(f); ok {
			groups[j].Sum += v
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Sum != groups[j].Sum {
			return groups[i].Sum > groups[j].Sum
		}
		return groups[i].Region < groups[j].Region
	})
	return groups, nil
}
