package dataset

import (
	"github.com/louisbranch/rentpressure/internal/services/story/domain"
)

const (
	// YearFloor is the earliest year the time-lapse shows.
	YearFloor = 2015
	// YearCeiling is the latest year the time-lapse shows.
	YearCeiling = 2025
	// DefaultYear is the year shown when a city is first opened.
	DefaultYear = 2018
)

// TimelineIndex groups one city's time-lapse points by the year they enter
// and the year they last appear.
type TimelineIndex struct {
	Points  []domain.ListingPoint
	ByFirst map[int][]domain.ListingPoint
	ByLast  map[int][]domain.ListingPoint
	MinYear int
	MaxYear int
}

// NewTimelineIndex indexes points that already passed CleanTimeline. The
// year range comes from the data, clamped to [YearFloor, YearCeiling].
func NewTimelineIndex(points []domain.ListingPoint) *TimelineIndex {
	ix := &TimelineIndex{
		Points:  points,
		ByFirst: map[int][]domain.ListingPoint{},
		ByLast:  map[int][]domain.ListingPoint{},
	}
	minData, maxData := YearFloor, YearCeiling
	for i, p := range points {
		first, last := *p.FirstYear, *p.LastYear
		ix.ByFirst[first] = append(ix.ByFirst[first], p)
		ix.ByLast[last] = append(ix.ByLast[last], p)
		if i == 0 || first < minData {
			minData = first
		}
		if i == 0 || last > maxData {
			maxData = last
		}
	}
	ix.MinYear = max(YearFloor, minData)
	ix.MaxYear = min(YearCeiling, maxData)
	if ix.MinYear > ix.MaxYear {
		ix.MinYear = ix.MaxYear
	}
	return ix
}

// Active returns every point visible in year, the full-rebuild set.
func (ix *TimelineIndex) Active(year int) []domain.ListingPoint {
	var out []domain.ListingPoint
	for _, p := range ix.Points {
		if p.ActiveIn(year) {
			out = append(out, p)
		}
	}
	return out
}

// Clamp limits year to the index's range.
func (ix *TimelineIndex) Clamp(year int) int {
	return min(max(year, ix.MinYear), ix.MaxYear)
}
