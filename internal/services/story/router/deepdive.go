package router

import (
	"strings"

	"github.com/louisbranch/rentpressure/internal/services/story/catalog"
	"github.com/louisbranch/rentpressure/internal/services/story/classify"
	"github.com/louisbranch/rentpressure/internal/services/story/dataset"
	"github.com/louisbranch/rentpressure/internal/services/story/domain"
	"github.com/louisbranch/rentpressure/internal/services/story/scheduler"
	"github.com/louisbranch/rentpressure/internal/services/story/surface"
)

// StatsPanel is the act 3 panel showing the focused city's figures.
const StatsPanel = "city-stats"

var deepDiveReveal = scheduler.Key{Surface: surface.Act3Map, Kind: scheduler.KindReveal}

// showDeepDiveStep drives the act 3 map. City intros fly to the city;
// the act's intro and closing steps return to Europe. Other steps keep
// whatever is shown.
func (r *Router) showDeepDiveStep(step string) {
	if city, ok := r.cfg.Catalog.DeepDiveIntro(step); ok {
		r.showDeepDiveCity(city)
		return
	}
	if strings.HasPrefix(step, "concentration-") {
		r.resetDeepDive()
	}
}

func (r *Router) showDeepDiveCity(city catalog.City) {
	record, ok := r.cities[city.ID]
	if !ok {
		r.wait(dataset.KindStats)
		return
	}
	r.layers.HideAll(surface.Act3Map)
	r.emitStatsPanel(record)
	c := r.cfg.Catalog
	settle := r.camera.FlyTo(surface.Act3Map, record.Center, c.CityZoom, c.CityFlight)
	r.sched.Schedule(deepDiveReveal, settle, r.renderDeepDive)
}

func (r *Router) resetDeepDive() {
	c := r.cfg.Catalog
	r.layers.HideAll(surface.Act3Map)
	r.camera.FlyTo(surface.Act3Map, c.Europe.Center, c.Europe.Zoom, c.ResetFlight)
	empty := r.cfg.Printer.Sprintf("story.panel.empty")
	r.emit(surface.Command{
		Surface: surface.Page,
		Op:      surface.OpPanel,
		Panel:   StatsPanel,
		Text:    map[string]string{"city": empty, "listings": empty, "price": empty},
	})
}

func (r *Router) emitStatsPanel(city domain.CityRecord) {
	p := r.cfg.Printer
	price := p.Sprintf("story.panel.na")
	if city.AvgPrice != nil {
		price = p.Sprintf("story.panel.avg_price", *city.AvgPrice)
	}
	r.emit(surface.Command{
		Surface: surface.Page,
		Op:      surface.OpPanel,
		Panel:   StatsPanel,
		Text: map[string]string{
			"city":     city.Name,
			"listings": p.Sprintf("story.panel.listings", city.ListingCount),
			"price":    price,
		},
	})
}

// renderDeepDive draws the city named by the active step in the current
// view mode. The mode is read now, not when the flight started.
func (r *Router) renderDeepDive() {
	if classify.Step(r.current).Region != classify.RegionDeepDive {
		return
	}
	city, ok := r.cfg.Catalog.DeepDiveCityForStep(r.current)
	if !ok {
		r.layers.Clear(surface.Act3Map)
		return
	}
	if r.viewMode == domain.ViewHeatmap {
		r.revealHeatmap(surface.Act3Map, city.ID)
		return
	}
	points, ok := r.points[city.ID]
	if !ok {
		r.layers.Clear(surface.Act3Map)
		return
	}
	r.layers.Show(surface.Act3Map, surface.Layer{
		ID:     "dots-" + city.ID,
		Kind:   surface.LayerDots,
		Points: r.dotPoints(points.Points),
	})
}

func (r *Router) dotPoints(listings []domain.ListingPoint) []surface.Point {
	p := r.cfg.Printer
	out := make([]surface.Point, len(listings))
	for i, l := range listings {
		name := l.Name
		if name == "" {
			name = p.Sprintf("story.listing.unnamed")
		}
		lines := []string{name}
		if l.Price != nil {
			lines = append(lines, p.Sprintf("story.listing.price", *l.Price))
		}
		roomType := l.RoomType
		if roomType == "" {
			roomType = p.Sprintf("story.panel.na")
		}
		lines = append(lines, roomType)
		out[i] = surface.Point{ID: l.ID, Position: l.Position, Tooltip: strings.Join(lines, "\n")}
	}
	return out
}

// pointsArrived shows a city's listings when they load after the camera
// already settled on it.
func (r *Router) pointsArrived(cityID string) {
	switch classify.Step(r.current).Region {
	case classify.RegionMap:
		city, ok := r.cfg.Catalog.TopCityForStep(r.current)
		if !ok || city.ID != cityID {
			return
		}
		if _, pending := r.sched.Pending(overviewReveal); pending {
			return
		}
		if _, ok := r.cities[cityID]; ok {
			r.revealHeatmap(surface.Act1Map, cityID)
		}
	case classify.RegionDeepDive:
		city, ok := r.cfg.Catalog.DeepDiveCityForStep(r.current)
		if !ok || city.ID != cityID || len(r.layers.Attached(surface.Act3Map)) > 0 {
			return
		}
		if _, pending := r.sched.Pending(deepDiveReveal); pending {
			return
		}
		if _, ok := r.cities[cityID]; ok {
			r.renderDeepDive()
		}
	}
}
