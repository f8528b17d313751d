package dataset

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/louisbranch/rentpressure/internal/platform/errors"
	"github.com/louisbranch/rentpressure/internal/services/story/domain"
)

type fakeSource struct {
	statsCalls    atomic.Int32
	pointsCalls   atomic.Int32
	timelineCalls atomic.Int32
	gate          chan struct{}

	statsErr error
	stats    []domain.CityRecord
	points   map[string][]domain.ListingPoint
	timeline map[string][]domain.ListingPoint
}

func (f *fakeSource) LoadCityStats(ctx context.Context) ([]domain.CityRecord, error) {
	f.statsCalls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats, nil
}

func (f *fakeSource) LoadCityPoints(ctx context.Context, cityID string) ([]domain.ListingPoint, error) {
	f.pointsCalls.Add(1)
	points, ok := f.points[cityID]
	if !ok {
		return nil, fmt.Errorf("points %s: %w", cityID, ErrNotFound)
	}
	return points, nil
}

func (f *fakeSource) LoadTimelinePoints(ctx context.Context, cityID string) ([]domain.ListingPoint, error) {
	f.timelineCalls.Add(1)
	points, ok := f.timeline[cityID]
	if !ok {
		return nil, fmt.Errorf("timeline %s: %w", cityID, ErrNotFound)
	}
	return points, nil
}

func (f *fakeSource) LoadAffordability(ctx context.Context) ([]domain.Affordability, error) {
	return nil, ErrNotFound
}

func (f *fakeSource) LoadDensity(ctx context.Context) ([]domain.Density, error) {
	return []domain.Density{
		{ID: "low", PerThousand: 1},
		{ID: "high", PerThousand: 30},
		{ID: "mid", PerThousand: 10},
	}, nil
}

func (f *fakeSource) LoadHousingPressure(ctx context.Context) ([]domain.HousingPressure, error) {
	return []domain.HousingPressure{{ID: "girona", AirbnbShare: 7.1}}, nil
}

func quietCache(src Source) *Cache {
	return NewCache(src, WithLogf(func(string, ...any) {}))
}

func TestCacheMemoizesPoints(t *testing.T) {
	price := 400.0
	src := &fakeSource{points: map[string][]domain.ListingPoint{
		"paris": {
			{ID: "p1", Position: domain.LatLng{Lat: 48.85, Lng: 2.35}, Price: &price},
			{ID: "p2", Position: domain.LatLng{Lat: 48.86, Lng: 2.36}},
		},
	}}
	cache := quietCache(src)

	first, err := cache.Points(context.Background(), "paris")
	if err != nil {
		t.Fatalf("points: %v", err)
	}
	second, err := cache.Points(context.Background(), " Paris ")
	if err != nil {
		t.Fatalf("points again: %v", err)
	}
	if first != second {
		t.Fatal("expected the same cached structure")
	}
	if src.pointsCalls.Load() != 1 {
		t.Fatalf("source calls = %d, want 1", src.pointsCalls.Load())
	}
	if first.Heat[0].Intensity != 1 || first.Heat[1].Intensity != 0.5 {
		t.Fatalf("heat = %+v", first.Heat)
	}
}

func TestCacheSharesConcurrentFirstLoad(t *testing.T) {
	src := &fakeSource{
		gate:  make(chan struct{}),
		stats: []domain.CityRecord{{ID: "paris", Center: domain.LatLng{Lat: 48.85, Lng: 2.35}}},
	}
	cache := quietCache(src)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Stats(context.Background())
			errs <- err
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
	}
	if got := src.statsCalls.Load(); got != 1 {
		t.Fatalf("source calls = %d, want 1", got)
	}
}

func TestCacheDoesNotCacheFailures(t *testing.T) {
	src := &fakeSource{statsErr: errors.New("disk on fire")}
	cache := quietCache(src)

	_, err := cache.Stats(context.Background())
	if apperrors.CodeOf(err) != apperrors.CodeMissingDataset {
		t.Fatalf("code = %s, err = %v", apperrors.CodeOf(err), err)
	}
	src.statsErr = nil
	src.stats = []domain.CityRecord{{ID: "rome", Center: domain.LatLng{Lat: 41.9, Lng: 12.5}}}
	cities, err := cache.Stats(context.Background())
	if err != nil || len(cities) != 1 {
		t.Fatalf("retry = %v, %v", cities, err)
	}
	if src.statsCalls.Load() != 2 {
		t.Fatalf("source calls = %d, want 2", src.statsCalls.Load())
	}
}

func TestCacheFailuresAreIndependent(t *testing.T) {
	src := &fakeSource{}
	cache := quietCache(src)

	if _, err := cache.Affordability(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("affordability err = %v, want ErrNotFound", err)
	}
	rows, err := cache.HousingPressure(context.Background())
	if err != nil || len(rows) != 1 {
		t.Fatalf("pressure = %v, %v", rows, err)
	}
}

func TestCacheDensitySortedDescending(t *testing.T) {
	cache := quietCache(&fakeSource{})
	rows, err := cache.Density(context.Background())
	if err != nil {
		t.Fatalf("density: %v", err)
	}
	if rows[0].ID != "high" || rows[1].ID != "mid" || rows[2].ID != "low" {
		t.Fatalf("order = %+v", rows)
	}
}

func TestCacheTimelineIndexed(t *testing.T) {
	src := &fakeSource{timeline: map[string][]domain.ListingPoint{
		"amsterdam": {
			timelinePoint("a", 2016, 2019),
			timelinePoint("bad", 2019, 2016),
		},
	}}
	cache := quietCache(src)
	ix, err := cache.Timeline(context.Background(), "amsterdam")
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(ix.Points) != 1 || ix.MinYear != 2016 || ix.MaxYear != 2019 {
		t.Fatalf("index = %+v", ix)
	}
	if _, err := cache.Timeline(context.Background(), "paris"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing city err = %v", err)
	}
}

func TestCacheCityLookup(t *testing.T) {
	src := &fakeSource{stats: []domain.CityRecord{{ID: "paris", Name: "Paris", Center: domain.LatLng{Lat: 48.85, Lng: 2.35}}}}
	cache := quietCache(src)
	city, err := cache.City(context.Background(), "paris")
	if err != nil || city.Name != "Paris" {
		t.Fatalf("city = %+v, %v", city, err)
	}
	if _, err := cache.City(context.Background(), "oslo"); apperrors.CodeOf(err) != apperrors.CodeUnknownCity {
		t.Fatalf("unknown city err = %v", err)
	}
}

func TestCacheWaiterHonorsContext(t *testing.T) {
	src := &fakeSource{gate: make(chan struct{})}
	cache := quietCache(src)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := cache.Stats(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	close(src.gate)
}
