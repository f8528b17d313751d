// Package domain defines the immutable records the story controller reads.
package domain

import "math"

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate is finite, non-zero and in range.
func (p LatLng) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	if p.Lat == 0 || p.Lng == 0 {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// CityRecord is the aggregate view of one city's listings.
type CityRecord struct {
	ID           string   `json:"id"`
	Name         string   `json:"city"`
	Country      string   `json:"country"`
	Center       LatLng   `json:"center"`
	ListingCount int      `json:"count"`
	AvgPrice     *float64 `json:"avg_price"`
}

// ListingPoint is one short-term-rental listing. FirstYear and LastYear are
// only set for time-lapse datasets.
type ListingPoint struct {
	ID        string   `json:"id"`
	Position  LatLng   `json:"position"`
	Price     *float64 `json:"price,omitempty"`
	RoomType  string   `json:"room_type,omitempty"`
	Name      string   `json:"name,omitempty"`
	FirstYear *int     `json:"first_year,omitempty"`
	LastYear  *int     `json:"last_year,omitempty"`
}

// ActiveIn reports whether the point's closed active-year range contains year.
func (p ListingPoint) ActiveIn(year int) bool {
	if p.FirstYear == nil || p.LastYear == nil {
		return false
	}
	return *p.FirstYear <= year && year <= *p.LastYear
}

// HeatIntensity maps price to a heatmap weight in [0, 1]; unknown or
// non-positive prices get the midpoint.
func (p ListingPoint) HeatIntensity() float64 {
	if p.Price == nil || *p.Price <= 0 {
		return 0.5
	}
	return math.Min(*p.Price/200, 1)
}

// Affordability compares short-term-rental income with long-term rent.
type Affordability struct {
	City             string   `json:"city"`
	Country          string   `json:"country"`
	PrivateRoomRatio *float64 `json:"affordability_private_room_vs_1bed_rent"`
	EntireHomeRatio  *float64 `json:"affordability_entire_home_vs_house_rent"`
	Rent1Bed         *float64 `json:"rent_1bed_month"`
	RentHouse        *float64 `json:"rent_house_detached_month"`
}

// Density is the listings-per-resident measure of one city.
type Density struct {
	ID               string  `json:"id"`
	City             string  `json:"city"`
	Country          string  `json:"country"`
	PerThousand      float64 `json:"airbnbs_per_1k"`
	Listings         int     `json:"listings"`
	Population       int     `json:"population"`
	PopulationSource string  `json:"population_source,omitempty"`
}

// HousingPressure is the share of a city's housing stock listed short-term.
type HousingPressure struct {
	ID           string  `json:"id"`
	City         string  `json:"city"`
	Country      string  `json:"country"`
	Year         int     `json:"year"`
	AirbnbShare  float64 `json:"airbnb_share"`
	AirbnbHomes  int     `json:"airbnb_homes"`
	TotalHousing int     `json:"total_housing"`
}

// Metric selects which affordability ratio the chart shows.
type Metric string

const (
	MetricPrivateRoom Metric = "private"
	MetricEntireHome  Metric = "entire"
)

// Valid reports whether m is a known metric.
func (m Metric) Valid() bool {
	return m == MetricPrivateRoom || m == MetricEntireHome
}

// Value returns the ratio for metric m, or nil when absent.
func (a Affordability) Value(m Metric) *float64 {
	switch m {
	case MetricPrivateRoom:
		return a.PrivateRoomRatio
	case MetricEntireHome:
		return a.EntireHomeRatio
	default:
		return nil
	}
}

// ViewMode selects how deep-dive listings are drawn.
type ViewMode string

const (
	ViewDots    ViewMode = "dots"
	ViewHeatmap ViewMode = "heatmap"
)

// Valid reports whether v is a known view mode.
func (v ViewMode) Valid() bool {
	return v == ViewDots || v == ViewHeatmap
}
