package router

import (
	"context"
	"math"
	"strings"

	"github.com/louisbranch/rentpressure/internal/services/story/catalog"
	"github.com/louisbranch/rentpressure/internal/services/story/dataset"
	"github.com/louisbranch/rentpressure/internal/services/story/domain"
	"github.com/louisbranch/rentpressure/internal/services/story/highlight"
	"github.com/louisbranch/rentpressure/internal/services/story/surface"
)

// Start places the initial views and loads every dataset in the
// background. Each dataset fails on its own: a missing one disables only
// the visuals that need it.
func (r *Router) Start(ctx context.Context) {
	c := r.cfg.Catalog
	r.camera.SetView(surface.Act1Map, c.Europe.Center, c.Europe.Zoom)
	r.camera.SetView(surface.Act3Map, c.Europe.Center, c.Europe.Zoom)

	background(r, func() ([]domain.CityRecord, error) {
		return r.cfg.Data.Stats(ctx)
	}, r.statsLoaded)
	background(r, func() ([]domain.Affordability, error) {
		return r.cfg.Data.Affordability(ctx)
	}, r.affordabilityLoaded)
	background(r, func() ([]domain.Density, error) {
		return r.cfg.Data.Density(ctx)
	}, r.densityLoaded)
	background(r, func() ([]domain.HousingPressure, error) {
		return r.cfg.Data.HousingPressure(ctx)
	}, r.pressureLoaded)

	for _, city := range append(append([]catalog.City(nil), c.TopCities...), c.DeepDiveCities...) {
		id := city.ID
		background(r, func() (*dataset.CityPoints, error) {
			return r.cfg.Data.Points(ctx, id)
		}, func(points *dataset.CityPoints, err error) {
			if err != nil {
				r.cfg.Logf("points %s unavailable: %v", id, err)
				return
			}
			r.points[id] = points
			r.pointsArrived(id)
		})
	}

	if err := r.player.SwitchCity(ctx, c.DefaultTimelapse); err != nil {
		r.cfg.Logf("timelapse default city: %v", err)
	}
}

// background runs load off the loop and delivers its result on the loop,
// unless the router closed in between.
func background[T any](r *Router, load func() (T, error), done func(T, error)) {
	var (
		value T
		err   error
	)
	r.cfg.Runtime.Go(func() {
		value, err = load()
	}, func() {
		if r.closed {
			return
		}
		done(value, err)
	})
}

func (r *Router) statsLoaded(cities []domain.CityRecord, err error) {
	if err != nil {
		r.cfg.Logf("city statistics unavailable: %v", err)
		r.emit(surface.Command{
			Surface: surface.Page,
			Op:      surface.OpNotice,
			Message: r.cfg.Printer.Sprintf("story.notice.stats_unavailable"),
		})
		return
	}
	for _, city := range cities {
		r.cities[city.ID] = city
	}
	r.placeMarkers(cities)
	r.replay(dataset.KindStats)
}

func (r *Router) affordabilityLoaded(rows []domain.Affordability, err error) {
	if err != nil {
		r.cfg.Logf("affordability unavailable: %v", err)
		return
	}
	r.affordRows = rows
	r.afford.Render(highlight.AffordabilityChart(rows, r.metric, r.cfg.Printer))
	r.replay(dataset.KindAffordability)
}

func (r *Router) densityLoaded(rows []domain.Density, err error) {
	if err != nil {
		r.cfg.Logf("density unavailable: %v", err)
		return
	}
	r.density.Render(highlight.DensityChart(rows, r.cfg.Catalog.DensityLimit, r.cfg.Printer))
	r.replay(dataset.KindDensity)
}

func (r *Router) pressureLoaded(rows []domain.HousingPressure, err error) {
	if err != nil {
		r.cfg.Logf("housing pressure unavailable: %v", err)
		return
	}
	r.pressure = rows
	r.havePress = true
	r.replay(dataset.KindPressure)
}

func (r *Router) placeMarkers(cities []domain.CityRecord) {
	p := r.cfg.Printer
	markers := make([]surface.Marker, 0, len(cities))
	for _, city := range cities {
		lines := []string{city.Name, city.Country, p.Sprintf("story.marker.listings", city.ListingCount)}
		if city.AvgPrice != nil {
			lines = append(lines, p.Sprintf("story.marker.avg_price", *city.AvgPrice))
		}
		markers = append(markers, surface.Marker{
			ID:       city.ID,
			Name:     city.Name,
			Position: city.Center,
			Size:     MarkerSize(city.ListingCount),
			Top:      r.cfg.Catalog.IsTopCity(city.ID),
			Tooltip:  strings.Join(lines, "\n"),
		})
	}
	r.emit(surface.Command{Surface: surface.Act1Map, Op: surface.OpPlaceMarkers, Markers: markers})
}

// MarkerSize is the marker diameter in pixels for a city's listing count.
func MarkerSize(count int) float64 {
	if count < 0 {
		count = 0
	}
	return math.Sqrt(float64(count)/1000)*4 + 8
}
