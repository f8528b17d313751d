package files

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/louisbranch/rentpressure/internal/services/story/dataset"
	"github.com/louisbranch/rentpressure/internal/services/story/domain"
)

// FullListingsPath returns the full listings export for a city, the one
// carrying review dates.
func FullListingsPath(cityID string) string {
	return path.Join("raw/full_listings", cityID+".csv")
}

// DeriveTimelinePoints builds a city's time-lapse points from its full
// listings export when no processed timeline exists.
func (s *Source) DeriveTimelinePoints(ctx context.Context, cityID string) ([]domain.ListingPoint, error) {
	name := FullListingsPath(cityID)
	f, err := s.open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	points, err := DeriveTimeline(f, cityID)
	if err != nil {
		return nil, fmt.Errorf("derive %s: %w", name, err)
	}
	return points, nil
}

// DeriveTimeline reads a full listings CSV and uses the first and last
// review dates as the years a listing was active. Listings without both
// dates, or first reviewed before YearFloor, are skipped.
func DeriveTimeline(r io.Reader, cityID string) ([]domain.ListingPoint, error) {
	var out []domain.ListingPoint
	err := eachRow(r, []string{"latitude", "longitude", "first_review", "last_review"}, func(row int, get func(string) string) {
		position, ok := parsePosition(get)
		if !ok {
			return
		}
		first, okFirst := reviewYear(get("first_review"))
		last, okLast := reviewYear(get("last_review"))
		if !okFirst || !okLast || first < dataset.YearFloor {
			return
		}
		id := strings.TrimSpace(get("id"))
		if id == "" {
			id = fmt.Sprintf("%s-%d", cityID, row)
		}
		out = append(out, domain.ListingPoint{
			ID:        id,
			Position:  position,
			RoomType:  get("room_type"),
			FirstYear: &first,
			LastYear:  &last,
		})
	})
	return out, err
}

var reviewLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05", "02/01/2006"}

func reviewYear(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	for _, layout := range reviewLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Year(), true
		}
	}
	return 0, false
}
