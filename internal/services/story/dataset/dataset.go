// Package dataset loads, validates and memoizes the records behind the
// story: city statistics, per-city listing points, time-lapse points and the
// affordability, density and housing-pressure tables.
package dataset

import (
	"context"
	"errors"

	"github.com/louisbranch/rentpressure/internal/services/story/domain"
)

// ErrNotFound is returned when a dataset is absent.
var ErrNotFound = errors.New("dataset not found")

// Kind names one dataset family.
type Kind string

const (
	KindStats         Kind = "stats"
	KindPoints        Kind = "points"
	KindTimeline      Kind = "timeline"
	KindAffordability Kind = "affordability"
	KindDensity       Kind = "density"
	KindPressure      Kind = "pressure"
)

// Source loads raw records. Each loader fails independently; a missing
// dataset is reported with ErrNotFound.
type Source interface {
	LoadCityStats(ctx context.Context) ([]domain.CityRecord, error)
	LoadCityPoints(ctx context.Context, cityID string) ([]domain.ListingPoint, error)
	LoadTimelinePoints(ctx context.Context, cityID string) ([]domain.ListingPoint, error)
	LoadAffordability(ctx context.Context) ([]domain.Affordability, error)
	LoadDensity(ctx context.Context) ([]domain.Density, error)
	LoadHousingPressure(ctx context.Context) ([]domain.HousingPressure, error)
}

// Writer persists validated records. The SQLite store implements it for
// the importer.
type Writer interface {
	PutCityStats(ctx context.Context, cities []domain.CityRecord) error
	PutCityPoints(ctx context.Context, cityID string, points []domain.ListingPoint) error
	PutTimelinePoints(ctx context.Context, cityID string, points []domain.ListingPoint) error
	PutAffordability(ctx context.Context, rows []domain.Affordability) error
	PutDensity(ctx context.Context, rows []domain.Density) error
	PutHousingPressure(ctx context.Context, rows []domain.HousingPressure) error
}
