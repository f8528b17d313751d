package router

import (
	"github.com/louisbranch/rentpressure/internal/services/story/dataset"
	"github.com/louisbranch/rentpressure/internal/services/story/scheduler"
	"github.com/louisbranch/rentpressure/internal/services/story/surface"
)

var overviewReveal = scheduler.Key{Surface: surface.Act1Map, Kind: scheduler.KindReveal}

// showOverviewStep drives the act 1 map. Every step starts from a clean
// map: no heatmap, no pending reveal and every top-city marker visible.
func (r *Router) showOverviewStep(step string) {
	c := r.cfg.Catalog
	r.layers.HideAll(surface.Act1Map)
	r.resetMarkers()

	switch step {
	case "intro", "transition":
		r.camera.FlyTo(surface.Act1Map, c.Europe.Center, c.Europe.Zoom, c.CityFlight)
	case "top-cities-intro":
		r.camera.FlyTo(surface.Act1Map, c.Europe.Center, c.TopCitiesZoom, c.CityFlight)
	default:
		r.zoomToCity(step)
	}
}

// zoomToCity hides the city's marker, flies to it and reveals its heatmap
// once the camera settles.
func (r *Router) zoomToCity(step string) {
	city, ok := r.cfg.Catalog.TopCityForStep(step)
	if !ok {
		return
	}
	record, ok := r.cities[city.ID]
	if !ok {
		r.wait(dataset.KindStats)
		return
	}

	r.emit(surface.Command{
		Surface: surface.Act1Map,
		Op:      surface.OpMarkerOpacity,
		IDs:     []string{city.ID},
		Opacity: surface.Float(0),
	})
	settle := r.camera.FlyTo(surface.Act1Map, record.Center, r.cfg.Catalog.CityZoom, r.cfg.Catalog.CityFlight)
	r.sched.Schedule(overviewReveal, settle, func() {
		r.revealHeatmap(surface.Act1Map, city.ID)
	})
}

func (r *Router) resetMarkers() {
	if len(r.cities) == 0 {
		return
	}
	ids := make([]string, 0, len(r.cfg.Catalog.TopCities))
	for _, city := range r.cfg.Catalog.TopCities {
		if _, ok := r.cities[city.ID]; ok {
			ids = append(ids, city.ID)
		}
	}
	if len(ids) == 0 {
		return
	}
	r.emit(surface.Command{
		Surface: surface.Act1Map,
		Op:      surface.OpMarkerOpacity,
		IDs:     ids,
		Opacity: surface.Float(1),
	})
}

// revealHeatmap makes cityID's heatmap the only overlay on key. Cities
// without points show none.
func (r *Router) revealHeatmap(key surface.Key, cityID string) {
	points, ok := r.points[cityID]
	if !ok {
		r.layers.Clear(key)
		return
	}
	r.layers.Show(key, surface.Layer{
		ID:     "heatmap-" + cityID,
		Kind:   surface.LayerHeatmap,
		Points: heatPoints(points),
	})
}

func heatPoints(points *dataset.CityPoints) []surface.Point {
	out := make([]surface.Point, len(points.Heat))
	for i, h := range points.Heat {
		out[i] = surface.Point{ID: points.Points[i].ID, Position: h.Position, Intensity: h.Intensity}
	}
	return out
}
