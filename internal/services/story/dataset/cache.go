package dataset

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/louisbranch/rentpressure/internal/platform/errors"
	"github.com/louisbranch/rentpressure/internal/platform/telemetry/metrics"
	"github.com/louisbranch/rentpressure/internal/platform/timeouts"
	"github.com/louisbranch/rentpressure/internal/services/story/domain"
)

// HeatPoint is one weighted heatmap sample.
type HeatPoint struct {
	Position  domain.LatLng
	Intensity float64
}

// CityPoints holds a city's listings with their precomputed heatmap samples.
type CityPoints struct {
	CityID string
	Points []domain.ListingPoint
	Heat   []HeatPoint
}

// Cache memoizes validated datasets by key. Concurrent first requests for a
// key share one load; failures are returned to every waiter and never cached.
type Cache struct {
	source  Source
	metrics *metrics.Metrics
	logf    func(string, ...any)
	timeout time.Duration

	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]any
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithMetrics records dataset loads.
func WithMetrics(m *metrics.Metrics) CacheOption {
	return func(c *Cache) { c.metrics = m }
}

// WithLogf overrides the load-failure logger.
func WithLogf(logf func(string, ...any)) CacheOption {
	return func(c *Cache) {
		if logf != nil {
			c.logf = logf
		}
	}
}

// WithLoadTimeout caps each underlying load.
func WithLoadTimeout(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewCache wraps source.
func NewCache(source Source, opts ...CacheOption) *Cache {
	c := &Cache{
		source:  source,
		logf:    log.Printf,
		timeout: timeouts.DatasetLoad,
		entries: map[string]any{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func cacheKey(kind Kind, city string) string {
	if city == "" {
		return string(kind)
	}
	return string(kind) + "/" + city
}

// load returns the memoized value for key or runs fn once for all waiters.
// The load runs detached from the first caller's cancellation so one
// abandoned request does not fail the others.
func load[T any](ctx context.Context, c *Cache, kind Kind, city string, fn func(context.Context) (T, error)) (T, error) {
	key := cacheKey(kind, city)
	c.mu.RLock()
	if v, ok := c.entries[key]; ok {
		c.mu.RUnlock()
		return v.(T), nil
	}
	c.mu.RUnlock()

	result := c.group.DoChan(key, func() (any, error) {
		c.mu.RLock()
		if v, ok := c.entries[key]; ok {
			c.mu.RUnlock()
			return v, nil
		}
		c.mu.RUnlock()

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		v, err := fn(loadCtx)
		c.metrics.DatasetLoad(string(kind), err)
		if err != nil {
			c.logf("dataset %s load failed: %v", key, err)
			return nil, apperrors.WrapWithMetadata(apperrors.CodeMissingDataset, "load dataset "+key, map[string]string{"dataset": key}, err)
		}
		c.mu.Lock()
		c.entries[key] = v
		c.mu.Unlock()
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Stats returns validated city statistics.
func (c *Cache) Stats(ctx context.Context) ([]domain.CityRecord, error) {
	return load(ctx, c, KindStats, "", func(ctx context.Context) ([]domain.CityRecord, error) {
		raw, err := c.source.LoadCityStats(ctx)
		if err != nil {
			return nil, err
		}
		cities, dropped := CleanCities(raw)
		c.logDropped(KindStats, "", dropped)
		return cities, nil
	})
}

// City looks up one city from the statistics dataset.
func (c *Cache) City(ctx context.Context, cityID string) (domain.CityRecord, error) {
	cities, err := c.Stats(ctx)
	if err != nil {
		return domain.CityRecord{}, err
	}
	for _, city := range cities {
		if city.ID == cityID {
			return city, nil
		}
	}
	return domain.CityRecord{}, apperrors.WithMetadata(apperrors.CodeUnknownCity, "unknown city", map[string]string{"city": cityID})
}

// Points returns a city's listings and heatmap samples.
func (c *Cache) Points(ctx context.Context, cityID string) (*CityPoints, error) {
	cityID = normalizeCity(cityID)
	return load(ctx, c, KindPoints, cityID, func(ctx context.Context) (*CityPoints, error) {
		raw, err := c.source.LoadCityPoints(ctx, cityID)
		if err != nil {
			return nil, err
		}
		points, dropped := CleanPoints(raw)
		c.logDropped(KindPoints, cityID, dropped)
		heat := make([]HeatPoint, len(points))
		for i, p := range points {
			heat[i] = HeatPoint{Position: p.Position, Intensity: p.HeatIntensity()}
		}
		return &CityPoints{CityID: cityID, Points: points, Heat: heat}, nil
	})
}

// Timeline returns a city's indexed time-lapse points.
func (c *Cache) Timeline(ctx context.Context, cityID string) (*TimelineIndex, error) {
	cityID = normalizeCity(cityID)
	return load(ctx, c, KindTimeline, cityID, func(ctx context.Context) (*TimelineIndex, error) {
		raw, err := c.source.LoadTimelinePoints(ctx, cityID)
		if err != nil {
			return nil, err
		}
		points, dropped := CleanTimeline(raw)
		c.logDropped(KindTimeline, cityID, dropped)
		return NewTimelineIndex(points), nil
	})
}

// Affordability returns the affordability table.
func (c *Cache) Affordability(ctx context.Context) ([]domain.Affordability, error) {
	return load(ctx, c, KindAffordability, "", func(ctx context.Context) ([]domain.Affordability, error) {
		return c.source.LoadAffordability(ctx)
	})
}

// Density returns the density table sorted by listings per 1,000 residents,
// highest first.
func (c *Cache) Density(ctx context.Context) ([]domain.Density, error) {
	return load(ctx, c, KindDensity, "", func(ctx context.Context) ([]domain.Density, error) {
		rows, err := c.source.LoadDensity(ctx)
		if err != nil {
			return nil, err
		}
		sorted := append([]domain.Density(nil), rows...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].PerThousand > sorted[j].PerThousand
		})
		return sorted, nil
	})
}

// HousingPressure returns the housing-pressure table.
func (c *Cache) HousingPressure(ctx context.Context) ([]domain.HousingPressure, error) {
	return load(ctx, c, KindPressure, "", func(ctx context.Context) ([]domain.HousingPressure, error) {
		return c.source.LoadHousingPressure(ctx)
	})
}

func (c *Cache) logDropped(kind Kind, city string, dropped int) {
	if dropped > 0 {
		c.logf("dataset %s: dropped %d invalid records", cacheKey(kind, city), dropped)
	}
}

func normalizeCity(cityID string) string {
	return strings.ToLower(strings.TrimSpace(cityID))
}
