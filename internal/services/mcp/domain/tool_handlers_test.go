package domain

import (
	"context"
	"errors"
	"strings"
	"testing"

	i18n "github.com/louisbranch/rentpressure/internal/platform/i18n/catalog"
	"github.com/louisbranch/rentpressure/internal/services/story/catalog"
	"github.com/louisbranch/rentpressure/internal/services/story/dataset"
	storydomain "github.com/louisbranch/rentpressure/internal/services/story/domain"
)

type fakeData struct {
	stats     []storydomain.CityRecord
	statsErr  error
	timelines map[string]*dataset.TimelineIndex
	afford    []storydomain.Affordability
	pressure  []storydomain.HousingPressure
}

func (f *fakeData) Stats(context.Context) ([]storydomain.CityRecord, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats, nil
}

func (f *fakeData) Timeline(_ context.Context, cityID string) (*dataset.TimelineIndex, error) {
	if ix, ok := f.timelines[cityID]; ok {
		return ix, nil
	}
	return nil, dataset.ErrNotFound
}

func (f *fakeData) Affordability(context.Context) ([]storydomain.Affordability, error) {
	if f.afford == nil {
		return nil, dataset.ErrNotFound
	}
	return f.afford, nil
}

func (f *fakeData) Density(context.Context) ([]storydomain.Density, error) {
	return nil, dataset.ErrNotFound
}

func (f *fakeData) HousingPressure(context.Context) ([]storydomain.HousingPressure, error) {
	if f.pressure == nil {
		return nil, dataset.ErrNotFound
	}
	return f.pressure, nil
}

func ratio(v float64) *float64 { return &v }

func year(v int) *int { return &v }

func newFakeData() *fakeData {
	return &fakeData{
		stats: []storydomain.CityRecord{
			{ID: "london", Name: "London", Country: "United Kingdom", Center: storydomain.LatLng{Lat: 51.5, Lng: -0.12}, ListingCount: 90000},
			{ID: "ghent", Name: "Ghent", Country: "Belgium", Center: storydomain.LatLng{Lat: 51.05, Lng: 3.73}, ListingCount: 1200, AvgPrice: ratio(98)},
		},
		timelines: map[string]*dataset.TimelineIndex{
			"amsterdam": dataset.NewTimelineIndex([]storydomain.ListingPoint{
				{ID: "a1", Position: storydomain.LatLng{Lat: 52.37, Lng: 4.89}, FirstYear: year(2016), LastYear: year(2024)},
				{ID: "a2", Position: storydomain.LatLng{Lat: 52.36, Lng: 4.88}, FirstYear: year(2019), LastYear: year(2020)},
				{ID: "a3", Position: storydomain.LatLng{Lat: 52.35, Lng: 4.87}, FirstYear: year(2015), LastYear: year(2019)},
			}),
		},
		afford: []storydomain.Affordability{
			{City: "Hague", Country: "Netherlands", PrivateRoomRatio: ratio(0.9), EntireHomeRatio: ratio(3.1)},
			{City: "Munich", Country: "Germany", PrivateRoomRatio: ratio(2.4), EntireHomeRatio: ratio(1.9)},
			{City: "Porto", Country: "Portugal", EntireHomeRatio: ratio(2.2)},
		},
		pressure: []storydomain.HousingPressure{
			{ID: "girona", City: "Girona", Country: "Spain", Year: 2023, AirbnbShare: 7.4, AirbnbHomes: 3700, TotalHousing: 50000},
			{ID: "berlin", City: "Berlin", Country: "Germany", Year: 2023, AirbnbShare: 0.6, AirbnbHomes: 12000, TotalHousing: 2000000},
		},
	}
}

func TestCityListHandler(t *testing.T) {
	handler := CityListHandler(newFakeData(), catalog.Default())
	_, result, err := handler(context.Background(), nil, struct{}{})
	if err != nil {
		t.Fatalf("city list: %v", err)
	}
	if len(result.Cities) != 2 {
		t.Fatalf("cities = %+v", result.Cities)
	}
	if !result.Cities[0].Top || result.Cities[1].Top {
		t.Fatalf("top flags = %+v", result.Cities)
	}
	if result.Cities[1].AvgPrice == nil || *result.Cities[1].AvgPrice != 98 {
		t.Fatalf("ghent price = %v", result.Cities[1].AvgPrice)
	}
}

func TestCityListHandlerReportsMissingDataset(t *testing.T) {
	data := newFakeData()
	data.statsErr = dataset.ErrNotFound
	_, _, err := CityListHandler(data, catalog.Default())(context.Background(), nil, struct{}{})
	if err == nil || !strings.Contains(err.Error(), "stats dataset is not available") {
		t.Fatalf("err = %v", err)
	}

	data.statsErr = errors.New("boom")
	_, _, err = CityListHandler(data, catalog.Default())(context.Background(), nil, struct{}{})
	if err == nil || !strings.Contains(err.Error(), "load stats") {
		t.Fatalf("err = %v", err)
	}
}

func TestCityListResourceHandler(t *testing.T) {
	result, err := CityListResourceHandler(newFakeData(), catalog.Default())(context.Background(), nil)
	if err != nil {
		t.Fatalf("read resource: %v", err)
	}
	if len(result.Contents) != 1 || result.Contents[0].URI != "story://cities" {
		t.Fatalf("contents = %+v", result.Contents)
	}
	if !strings.Contains(result.Contents[0].Text, `"id": "ghent"`) {
		t.Fatalf("text = %s", result.Contents[0].Text)
	}
}

func TestTimelineSnapshotHandler(t *testing.T) {
	handler := TimelineSnapshotHandler(newFakeData(), catalog.Default())
	tests := []struct {
		name    string
		input   TimelineSnapshotInput
		year    int
		active  int
		enter   int
		leave   int
		wantErr bool
	}{
		{name: "default year", input: TimelineSnapshotInput{City: "amsterdam"}, year: 2018, active: 2},
		{name: "explicit year", input: TimelineSnapshotInput{City: "Amsterdam", Year: 2019}, year: 2019, active: 3, enter: 1, leave: 1},
		{name: "clamped", input: TimelineSnapshotInput{City: "amsterdam", Year: 1990}, year: 2015, active: 1, enter: 1},
		{name: "missing city", input: TimelineSnapshotInput{}, wantErr: true},
		{name: "not a time-lapse city", input: TimelineSnapshotInput{City: "oslo"}, wantErr: true},
		{name: "missing dataset", input: TimelineSnapshotInput{City: "berlin"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got, err := handler(context.Background(), nil, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("snapshot: %v", err)
			}
			if got.Year != tt.year || got.Active != tt.active || got.Entering != tt.enter || got.Leaving != tt.leave {
				t.Fatalf("snapshot = %+v", got)
			}
			if got.Total != 3 || got.FirstYear != 2015 || got.LastYear != 2024 {
				t.Fatalf("range = %+v", got)
			}
		})
	}
}

func TestGaugeHandler(t *testing.T) {
	handler := GaugeHandler(newFakeData(), catalog.Default(), i18n.Default())

	_, got, err := handler(context.Background(), nil, GaugeInput{City: "Girona"})
	if err != nil {
		t.Fatalf("gauge: %v", err)
	}
	if got.Zone != "high" || got.Share != 7.4 || got.CityID != "girona" {
		t.Fatalf("gauge = %+v", got)
	}

	_, got, err = handler(context.Background(), nil, GaugeInput{City: "berlin", Locale: "pt-PT"})
	if err != nil {
		t.Fatalf("gauge: %v", err)
	}
	if got.Zone != "low" {
		t.Fatalf("berlin zone = %q", got.Zone)
	}

	if _, _, err := handler(context.Background(), nil, GaugeInput{City: "oslo"}); err == nil {
		t.Fatal("expected unknown city error")
	}
}

func TestAffordabilityHandler(t *testing.T) {
	handler := AffordabilityHandler(newFakeData())

	_, got, err := handler(context.Background(), nil, AffordabilityInput{})
	if err != nil {
		t.Fatalf("affordability: %v", err)
	}
	if got.Metric != "private" || got.Absent != 1 || len(got.Rows) != 2 {
		t.Fatalf("ranking = %+v", got)
	}
	if got.Rows[0].City != "Munich" || got.Rows[0].Rank != 1 {
		t.Fatalf("first row = %+v", got.Rows[0])
	}

	_, got, err = handler(context.Background(), nil, AffordabilityInput{Metric: "entire", Limit: 1})
	if err != nil {
		t.Fatalf("affordability: %v", err)
	}
	if len(got.Rows) != 1 || got.Rows[0].City != "Hague" {
		t.Fatalf("entire ranking = %+v", got.Rows)
	}

	if _, _, err := handler(context.Background(), nil, AffordabilityInput{Metric: "hotel"}); err == nil {
		t.Fatal("expected metric error")
	}
	if _, _, err := handler(context.Background(), nil, AffordabilityInput{Limit: -1}); err == nil {
		t.Fatal("expected limit error")
	}
}

func TestStepHandler(t *testing.T) {
	handler := StepHandler(catalog.Default())
	tests := []struct {
		input  StepInput
		step   string
		known  bool
		region string
		act    int
		city   string
	}{
		{input: StepInput{Step: "city-2"}, step: "city-2", known: true, region: "map", act: 1, city: "paris"},
		{input: StepInput{Step: "lisbon-intro"}, step: "lisbon-intro", known: true, region: "deep-dive", act: 3, city: "lisbon"},
		{input: StepInput{Step: "pressure-high"}, step: "pressure-high", known: true, region: "gauge", act: 4, city: "bergamo"},
		{input: StepInput{Act: 5}, step: "timeline", known: true, region: "timeline", act: 5},
		{input: StepInput{Step: "credits"}, step: "credits"},
	}
	for _, tt := range tests {
		_, got, err := handler(context.Background(), nil, tt.input)
		if err != nil {
			t.Fatalf("step %+v: %v", tt.input, err)
		}
		if got.Step != tt.step || got.Known != tt.known || got.Region != tt.region || got.Act != tt.act || got.City != tt.city {
			t.Fatalf("step %+v = %+v", tt.input, got)
		}
	}

	if _, _, err := handler(context.Background(), nil, StepInput{Act: 2}); err == nil {
		t.Fatal("expected error without a step")
	}
}
