package server

import (
	"context"
	"sync"

	"github.com/louisbranch/rentpressure/internal/services/story/dataset"
	"github.com/louisbranch/rentpressure/internal/services/story/domain"
)

type fakeData struct {
	mu        sync.Mutex
	stats     []domain.CityRecord
	statsErr  error
	timelines map[string]*dataset.TimelineIndex
	afford    []domain.Affordability
}

func (f *fakeData) Stats(context.Context) ([]domain.CityRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats, nil
}

func (f *fakeData) Points(context.Context, string) (*dataset.CityPoints, error) {
	return nil, dataset.ErrNotFound
}

func (f *fakeData) Timeline(_ context.Context, cityID string) (*dataset.TimelineIndex, error) {
	if ix, ok := f.timelines[cityID]; ok {
		return ix, nil
	}
	return nil, dataset.ErrNotFound
}

func (f *fakeData) Affordability(context.Context) ([]domain.Affordability, error) {
	if f.afford == nil {
		return nil, dataset.ErrNotFound
	}
	return f.afford, nil
}

func (f *fakeData) Density(context.Context) ([]domain.Density, error) {
	return nil, dataset.ErrNotFound
}

func (f *fakeData) HousingPressure(context.Context) ([]domain.HousingPressure, error) {
	return nil, dataset.ErrNotFound
}

func price(v float64) *float64 { return &v }

func year(v int) *int { return &v }

func newFakeData() *fakeData {
	return &fakeData{
		stats: []domain.CityRecord{
			{ID: "london", Name: "London", Country: "United Kingdom", Center: domain.LatLng{Lat: 51.5074, Lng: -0.1278}, ListingCount: 90000},
			{ID: "paris", Name: "Paris", Country: "France", Center: domain.LatLng{Lat: 48.8566, Lng: 2.3522}, ListingCount: 80000, AvgPrice: price(210.5)},
			{ID: "ghent", Name: "Ghent", Country: "Belgium", Center: domain.LatLng{Lat: 51.05, Lng: 3.7303}, ListingCount: 1200},
		},
		timelines: map[string]*dataset.TimelineIndex{
			"amsterdam": dataset.NewTimelineIndex([]domain.ListingPoint{
				{ID: "a1", Position: domain.LatLng{Lat: 52.37, Lng: 4.89}, FirstYear: year(2016), LastYear: year(2024)},
				{ID: "a2", Position: domain.LatLng{Lat: 52.36, Lng: 4.88}, FirstYear: year(2019), LastYear: year(2020)},
			}),
			"paris": dataset.NewTimelineIndex([]domain.ListingPoint{
				{ID: "p1", Position: domain.LatLng{Lat: 48.86, Lng: 2.35}, FirstYear: year(2017), LastYear: year(2023)},
			}),
		},
		afford: []domain.Affordability{
			{City: "Munich", Country: "Germany", PrivateRoomRatio: price(2.4), EntireHomeRatio: price(1.9)},
			{City: "Hague", Country: "Netherlands", PrivateRoomRatio: price(0.9), EntireHomeRatio: price(3.1)},
		},
	}
}
