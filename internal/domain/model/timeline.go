package model

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the canonical date format for timeline points.
const DateLayout = "2006-01-02"

// TimelinePoint holds global cumulative counts for one day.
type TimelinePoint struct {
	Date   time.Time `json:"-"`
	Cases  int64     `json:"cases"`
	Deaths int64     `json:"deaths"`
}

// Day returns the point's date formatted with DateLayout.
func (p TimelinePoint) Day() string { return p.Date.Format(DateLayout) }

// Timeline is a date-ordered series of TimelinePoints.
type Timeline struct {
	Source     string
	Provenance Provenance
	LoadedAt   time.Time
	Points     []TimelinePoint
}

// NewTimeline sorts points by date and rejects duplicate days.
func NewTimeline(source string, provenance Provenance, points []TimelinePoint) (Timeline, error) {
	ps := make([]TimelinePoint, len(points))
	copy(ps, points)
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Date.Before(ps[j].Date) })
	for i := 1; i < len(ps); i++ {
		if ps[i].Date.Equal(ps[i-1].Date) {
			return Timeline{}, fmt.Errorf("%w: duplicate date %s", ErrInvalidTimeline, ps[i].Day())
		}
	}
	return Timeline{
		Source:     source,
		Provenance: provenance,
		LoadedAt:   time.Now().UTC(),
		Points:     ps,
	}, nil
}

// Len returns the number of points.
func (t Timeline) Len() int { return len(t.Points) }

// Latest returns the most recent point.
func (t Timeline) Latest() (TimelinePoint, bool) {
	if len(t.Points) == 0 {
		return TimelinePoint{}, false
	}
	return t.Points[len(t.Points)-1], true
}
