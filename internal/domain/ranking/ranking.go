// Package ranking orders Dataset records by a numeric field.
//
// Ordering: value in the chosen direction, then Dataset position ASC, so
// ties keep their original order. Records with no value for the field are
// left out of the view.
package ranking

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/covidboard/internal/domain/model"
)

// Direction selects largest-first or smallest-first ordering.
type Direction string

// Directions.
const (
	Largest  Direction = "desc"
	Smallest Direction = "asc"
)

// ParseDirection accepts desc/asc and the largest/smallest aliases.
// An empty string means Largest.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc", "largest", "top":
		return Largest, nil
	case "asc", "smallest", "bottom":
		return Smallest, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Ranked is one row of a RankedView.
type Ranked struct {
	// Position is 1-based within the view.
	Position int
	// Index is the record's position in the source Dataset.
	Index  int
	Value  float64
	Record model.Record
}

// RankedView is a read-only ordering of Dataset records.
type RankedView struct {
	// DatasetID is the ID of the Dataset load the view was ranked from.
	DatasetID uuid.UUID
	Field     model.Field
	Direction Direction
	Rows      []Ranked
}

// Len returns the number of rows.
func (v RankedView) Len() int { return len(v.Rows) }

// Names returns entity names in view order.
func (v RankedView) Names() []string {
	out := make([]string, len(v.Rows))
	for i, r := range v.Rows {
		out[i] = r.Record.EntityName
	}
	return out
}

// Reverse returns the view in opposite order, keeping Position as ranked.
// Horizontal bar charts draw bottom-up and want the leader last.
func (v RankedView) Reverse() RankedView {
	rows := make([]Ranked, len(v.Rows))
	for i, r := range v.Rows {
		rows[len(rows)-1-i] = r
	}
	return RankedView{DatasetID: v.DatasetID, Field: v.Field, Direction: v.Direction, Rows: rows}
}

// less returns true if (aVal, aIdx) should appear before (bVal, bIdx).
func less(dir Direction, aVal float64, aIdx int, bVal float64, bIdx int) bool {
	if aVal != bVal {
		if dir == Smallest {
			return aVal < bVal
		}
		return aVal > bVal
	}
	return aIdx < bIdx
}

// Rank returns the n records with the largest (or smallest) value of f.
// n larger than the Dataset returns every record that has a value.
func Rank(d *model.Dataset, f model.Field, dir Direction, n int) (RankedView, error) {
	if n < 0 {
		return RankedView{}, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	view, err := SortBy(d, f, dir)
	if err != nil {
		return RankedView{}, err
	}
	if n < len(view.Rows) {
		view.Rows = view.Rows[:n]
	}
	return view, nil
}

// SortBy returns every record with a value for f, fully ordered.
func SortBy(d *model.Dataset, f model.Field, dir Direction) (RankedView, error) {
	if !f.Numeric() {
		return RankedView{}, fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	if dir != Largest && dir != Smallest {
		return RankedView{}, fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}

	rows := make([]Ranked, 0, d.Len())
	for i := 0; i < d.Len(); i++ {
		r := d.At(i)
		v, ok := r.Number(f)
		if !ok {
			continue
		}
		rows = append(rows, Ranked{Index: i, Value: v, Record: r})
	}
	sort.Slice(rows, func(i, j int) bool {
		return less(dir, rows[i].Value, rows[i].Index, rows[j].Value, rows[j].Index)
	})
	for i := range rows {
		rows[i].Position = i + 1
	}
	return RankedView{DatasetID: d.ID(), Field: f, Direction: dir, Rows: rows}, nil
}

// ByName returns all records ordered alphabetically by entity name.
func ByName(d *model.Dataset) []model.Record {
	out := d.Records()
	sort.SliceStable(out, func(i, j int) bool { return out[i].EntityName < out[j].EntityName })
	return out
}
