package source

import (
	"time"

	"github.com/okian/covidboard/internal/domain/model"
)

// PlaceholderSource is the Timeline.Source of synthetic series.
const PlaceholderSource = "placeholder"

// Defaults for the synthetic series.
const (
	DefaultPlaceholderDays      = 100
	DefaultPlaceholderMaxCases  = 1_000_000
	DefaultPlaceholderMaxDeaths = 50_000
)

// DefaultPlaceholderStart is the first day of the synthetic series.
var DefaultPlaceholderStart = time.Date(2020, time.January, 22, 0, 0, 0, 0, time.UTC)

// SyntheticTimeline returns days points starting at start, with cases and
// deaths rising linearly from zero to maxCases and maxDeaths. The result
// is tagged ProvenancePlaceholder.
func SyntheticTimeline(start time.Time, days int, maxCases, maxDeaths int64) model.Timeline {
	if days < 0 {
		days = 0
	}
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	points := make([]model.TimelinePoint, days)
	for i := range points {
		points[i] = model.TimelinePoint{
			Date:   day.AddDate(0, 0, i),
			Cases:  linear(maxCases, i, days),
			Deaths: linear(maxDeaths, i, days),
		}
	}
	return model.Timeline{
		Source:     PlaceholderSource,
		Provenance: model.ProvenancePlaceholder,
		LoadedAt:   time.Now().UTC(),
		Points:     points,
	}
}

// linear is the i-th of n evenly spaced values from 0 to top inclusive.
func linear(top int64, i, n int) int64 {
	if n <= 1 {
		return 0
	}
	return int64(float64(top) * float64(i) / float64(n-1))
}
