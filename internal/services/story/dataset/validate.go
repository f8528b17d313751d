package dataset

import (
	"math"
	"strconv"
	"strings"

	"github.com/louisbranch/rentpressure/internal/services/story/domain"
)

// ParsePrice cleans currency strings such as "$1,234.00" or "€95". It
// returns nil when nothing numeric remains.
func ParsePrice(raw string) *float64 {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', ',', ' ':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	if cleaned == "" {
		return nil
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}
	return &value
}

// ParseCoordinate parses a latitude or longitude cell.
func ParseCoordinate(raw string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

// ParseYear parses an integer year, accepting "2019" and "2019.0".
func ParseYear(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if year, err := strconv.Atoi(raw); err == nil {
		return year, true
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value != math.Trunc(value) {
		return 0, false
	}
	return int(value), true
}

// CleanCities drops cities without an id or a usable center.
func CleanCities(cities []domain.CityRecord) ([]domain.CityRecord, int) {
	out := make([]domain.CityRecord, 0, len(cities))
	seen := make(map[string]bool, len(cities))
	for _, city := range cities {
		id := strings.TrimSpace(city.ID)
		if id == "" || seen[id] || !city.Center.Valid() {
			continue
		}
		seen[id] = true
		city.ID = id
		out = append(out, city)
	}
	return out, len(cities) - len(out)
}

// CleanPoints drops points with unusable coordinates or duplicate ids.
func CleanPoints(points []domain.ListingPoint) ([]domain.ListingPoint, int) {
	out := make([]domain.ListingPoint, 0, len(points))
	seen := make(map[string]bool, len(points))
	for _, p := range points {
		if p.ID == "" || seen[p.ID] || !p.Position.Valid() {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out, len(points) - len(out)
}

// CleanTimeline applies CleanPoints and additionally requires a closed,
// ordered active-year range ending no earlier than YearFloor.
func CleanTimeline(points []domain.ListingPoint) ([]domain.ListingPoint, int) {
	cleaned, _ := CleanPoints(points)
	out := cleaned[:0]
	for _, p := range cleaned {
		if p.FirstYear == nil || p.LastYear == nil {
			continue
		}
		if *p.LastYear < *p.FirstYear || *p.LastYear < YearFloor {
			continue
		}
		out = append(out, p)
	}
	return out, len(points) - len(out)
}
