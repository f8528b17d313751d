// Package catalog holds the fixed narrative configuration of the story: the
// cities each act visits, camera targets, highlight lists and timings.
package catalog

import (
	"strings"
	"time"

	"github.com/louisbranch/rentpressure/internal/services/story/domain"
)

// View is a camera target.
type View struct {
	Center domain.LatLng
	Zoom   float64
}

// City is a city the narrative visits on a given step.
type City struct {
	ID   string
	Name string
	Step string
}

// TimelapseCity is a city offered by the time-lapse selector.
type TimelapseCity struct {
	ID   string
	Name string
	View View
}

// Catalog is the story configuration. Every session reads the same value.
type Catalog struct {
	Europe          View
	TopCitiesZoom   float64
	CityZoom        float64
	CityFlight      time.Duration
	ResetFlight     time.Duration
	RevealMargin    time.Duration
	GrowDelay       time.Duration
	MetricFade      time.Duration
	HighlightFade   time.Duration
	EntranceLength  time.Duration
	EntranceStagger time.Duration

	TopCities      []City
	DeepDiveCities []City

	TimelapseCities  []TimelapseCity
	DefaultTimelapse string
	PlaybackInterval time.Duration
	SliderDebounce   time.Duration

	AffordabilityHighlights map[string][]string
	DensityHighlights       map[string][]string
	GaugeCities             map[string]string
	DensityLimit            int
	GaugeMax                float64
}

// Default returns the configuration of the published story.
func Default() *Catalog {
	return &Catalog{
		Europe:          View{Center: domain.LatLng{Lat: 54, Lng: 15}, Zoom: 4},
		TopCitiesZoom:   4.5,
		CityZoom:        11,
		CityFlight:      2400 * time.Millisecond,
		ResetFlight:     1500 * time.Millisecond,
		RevealMargin:    100 * time.Millisecond,
		GrowDelay:       100 * time.Millisecond,
		MetricFade:      300 * time.Millisecond,
		HighlightFade:   400 * time.Millisecond,
		EntranceLength:  800 * time.Millisecond,
		EntranceStagger: 30 * time.Millisecond,

		TopCities: []City{
			{ID: "london", Name: "London", Step: "city-1"},
			{ID: "paris", Name: "Paris", Step: "city-2"},
			{ID: "rome", Name: "Rome", Step: "city-3"},
			{ID: "istanbul", Name: "Istanbul", Step: "city-4"},
			{ID: "madrid", Name: "Madrid", Step: "city-5"},
		},
		DeepDiveCities: []City{
			{ID: "barcelona", Name: "Barcelona", Step: "barcelona-intro"},
			{ID: "lisbon", Name: "Lisbon", Step: "lisbon-intro"},
			{ID: "amsterdam", Name: "Amsterdam", Step: "amsterdam-intro"},
		},

		TimelapseCities: []TimelapseCity{
			{ID: "amsterdam", Name: "Amsterdam", View: View{Center: domain.LatLng{Lat: 52.3702, Lng: 4.8952}, Zoom: 12}},
			{ID: "paris", Name: "Paris", View: View{Center: domain.LatLng{Lat: 48.8566, Lng: 2.3522}, Zoom: 12}},
			{ID: "berlin", Name: "Berlin", View: View{Center: domain.LatLng{Lat: 52.52, Lng: 13.405}, Zoom: 12}},
			{ID: "barcelona", Name: "Barcelona", View: View{Center: domain.LatLng{Lat: 41.3851, Lng: 2.1734}, Zoom: 12}},
		},
		DefaultTimelapse: "amsterdam",
		PlaybackInterval: 500 * time.Millisecond,
		SliderDebounce:   30 * time.Millisecond,

		AffordabilityHighlights: map[string][]string{
			"affordability-intro":      nil,
			"private-room-intro":       nil,
			"private-room-top":         {"Munich", "Riga", "Budapest"},
			"entire-home-intro":        nil,
			"entire-home-outlier":      {"Hague"},
			"entire-home-top":          {"Munich", "Prague", "Berlin"},
			"affordability-transition": nil,
		},
		DensityHighlights: map[string][]string{
			"impact-intro":      nil,
			"impact-extremes":   {"south_aegean", "crete", "venice", "florence", "mallorca", "copenhagen"},
			"impact-comparison": {"rotterdam", "stockholm", "berlin", "naples"},
			"impact-transition": nil,
		},
		GaugeCities: map[string]string{
			"pressure-intro": "girona",
			"pressure-high":  "bergamo",
			"pressure-low":   "berlin",
		},
		DensityLimit: 20,
		GaugeMax:     15,
	}
}

// TopCityForStep returns the overview city a city-N step flies to.
func (c *Catalog) TopCityForStep(step string) (City, bool) {
	for _, city := range c.TopCities {
		if city.Step == step {
			return city, true
		}
	}
	return City{}, false
}

// IsTopCity reports whether id is one of the overview's highlighted cities.
func (c *Catalog) IsTopCity(id string) bool {
	for _, city := range c.TopCities {
		if city.ID == id {
			return true
		}
	}
	return false
}

// DeepDiveIntro returns the deep-dive city whose intro step is step.
func (c *Catalog) DeepDiveIntro(step string) (City, bool) {
	for _, city := range c.DeepDiveCities {
		if city.Step == step {
			return city, true
		}
	}
	return City{}, false
}

// DeepDiveCityForStep returns the deep-dive city a step belongs to. Any step
// naming the city counts, not only its intro.
func (c *Catalog) DeepDiveCityForStep(step string) (City, bool) {
	for _, city := range c.DeepDiveCities {
		if strings.Contains(step, city.ID) {
			return city, true
		}
	}
	return City{}, false
}

// Timelapse looks up a time-lapse city by id.
func (c *Catalog) Timelapse(id string) (TimelapseCity, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, city := range c.TimelapseCities {
		if city.ID == id {
			return city, true
		}
	}
	return TimelapseCity{}, false
}

// CityFlightSettle is how long after a city flight starts its dependents may
// assume the camera has settled.
func (c *Catalog) CityFlightSettle() time.Duration {
	return c.CityFlight + c.RevealMargin
}
