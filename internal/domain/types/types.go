// Package types contains the JSON response shapes shared by the HTTP API
// and the console report.
package types

import (
	"github.com/google/uuid"

	"github.com/okian/covidboard/internal/domain/model"
	"github.com/okian/covidboard/internal/domain/ranking"
	"github.com/okian/covidboard/internal/domain/resolve"
)

// Row is one ranked entity.
type Row struct {
	Position   int          `json:"position"`
	EntityName string       `json:"entity_name"`
	Value      float64      `json:"value"`
	Record     model.Record `json:"record"`
}

// Leaderboard is a ranked view ready for a bar chart.
type Leaderboard struct {
	DatasetID string `json:"dataset_id,omitempty"`
	Metric    string `json:"metric"`
	Order     string `json:"order"`
	Rows      []Row  `json:"rows"`
}

// NewLeaderboard converts a RankedView.
func NewLeaderboard(v ranking.RankedView) Leaderboard {
	rows := make([]Row, len(v.Rows))
	for i, r := range v.Rows {
		rows[i] = Row{
			Position:   r.Position,
			EntityName: r.Record.EntityName,
			Value:      r.Value,
			Record:     r.Record,
		}
	}
	lb := Leaderboard{Metric: v.Field.String(), Order: string(v.Direction), Rows: rows}
	if v.DatasetID != uuid.Nil {
		lb.DatasetID = v.DatasetID.String()
	}
	return lb
}

// Entity is the result of resolving a name.
type Entity struct {
	Query      string       `json:"query"`
	Match      string       `json:"match"`
	Kind       string       `json:"kind"`
	Ambiguous  bool         `json:"ambiguous"`
	Candidates []string     `json:"candidates,omitempty"`
	Record     model.Record `json:"record"`
}

// NewEntity converts a resolver Match.
func NewEntity(query string, m resolve.Match) Entity {
	return Entity{
		Query:      query,
		Match:      m.Record.EntityName,
		Kind:       string(m.Kind),
		Ambiguous:  m.Ambiguous(),
		Candidates: m.Candidates,
		Record:     m.Record,
	}
}

// TimelinePoint is one day of the global series.
type TimelinePoint struct {
	Date   string `json:"date"`
	Cases  int64  `json:"cases"`
	Deaths int64  `json:"deaths"`
}

// Timeline is the global series plus where it came from.
type Timeline struct {
	Source     string          `json:"source"`
	Provenance string          `json:"provenance"`
	Synthetic  bool            `json:"synthetic"`
	Points     []TimelinePoint `json:"points"`
}

// NewTimeline converts a model.Timeline.
func NewTimeline(t model.Timeline) Timeline {
	pts := make([]TimelinePoint, len(t.Points))
	for i, p := range t.Points {
		pts[i] = TimelinePoint{Date: p.Day(), Cases: p.Cases, Deaths: p.Deaths}
	}
	return Timeline{
		Source:     t.Source,
		Provenance: string(t.Provenance),
		Synthetic:  t.Provenance.Synthetic(),
		Points:     pts,
	}
}
