// Package files reads story datasets from a directory laid out like the
// published data tree:
//
//	processed/cities_statistical_data.json
//	processed/cities_affordability_2023.json
//	processed/city_population_density.json
//	processed/housing_pressure.json
//	processed/<city>_timeline_points.csv
//	raw/listings/<city>.csv
package files

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/louisbranch/rentpressure/internal/services/story/dataset"
	"github.com/louisbranch/rentpressure/internal/services/story/domain"
)

const (
	statsPath         = "processed/cities_statistical_data.json"
	affordabilityPath = "processed/cities_affordability_2023.json"
	densityPath       = "processed/city_population_density.json"
	pressurePath      = "processed/housing_pressure.json"
)

// Source implements dataset.Source over an fs.FS.
type Source struct {
	fsys fs.FS
}

// New returns a Source rooted at fsys.
func New(fsys fs.FS) *Source {
	return &Source{fsys: fsys}
}

// ListingsPath returns the raw listings CSV path for a city.
func ListingsPath(cityID string) string {
	return path.Join("raw/listings", cityID+".csv")
}

// TimelinePath returns the time-lapse CSV path for a city.
func TimelinePath(cityID string) string {
	return path.Join("processed", cityID+"_timeline_points.csv")
}

func (s *Source) open(ctx context.Context, name string) (fs.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := s.fsys.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, dataset.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

func (s *Source) readJSON(ctx context.Context, name string, target any) error {
	f, err := s.open(ctx, name)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

type cityStatsRow struct {
	ID       string   `json:"id"`
	Country  string   `json:"country"`
	City     string   `json:"city"`
	AvgPrice *float64 `json:"avg_price"`
	Count    number   `json:"count"`
	Lat      number   `json:"lat"`
	Lng      number   `json:"lng"`
}

// LoadCityStats implements dataset.Source.
func (s *Source) LoadCityStats(ctx context.Context) ([]domain.CityRecord, error) {
	var rows []cityStatsRow
	if err := s.readJSON(ctx, statsPath, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.CityRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.CityRecord{
			ID:           row.ID,
			Name:         row.City,
			Country:      row.Country,
			Center:       domain.LatLng{Lat: float64(row.Lat), Lng: float64(row.Lng)},
			ListingCount: int(row.Count),
			AvgPrice:     row.AvgPrice,
		})
	}
	return out, nil
}

// LoadCityPoints implements dataset.Source. Rows without an id column get
// "<city>-<row>" ids.
func (s *Source) LoadCityPoints(ctx context.Context, cityID string) ([]domain.ListingPoint, error) {
	name := ListingsPath(cityID)
	f, err := s.open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	points, err := ReadListings(f, cityID)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return points, nil
}

// LoadTimelinePoints implements dataset.Source.
func (s *Source) LoadTimelinePoints(ctx context.Context, cityID string) ([]domain.ListingPoint, error) {
	name := TimelinePath(cityID)
	f, err := s.open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	points, err := ReadTimeline(f, cityID)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return points, nil
}

type affordabilityRow struct {
	City             string  `json:"city"`
	Country          string  `json:"country"`
	PrivateRoomRatio *number `json:"affordability_private_room_vs_1bed_rent"`
	EntireHomeRatio  *number `json:"affordability_entire_home_vs_house_rent"`
	Rent1Bed         *number `json:"rent_1bed_month"`
	RentHouse        *number `json:"rent_house_detached_month"`
}

// LoadAffordability implements dataset.Source.
func (s *Source) LoadAffordability(ctx context.Context) ([]domain.Affordability, error) {
	var rows []affordabilityRow
	if err := s.readJSON(ctx, affordabilityPath, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.Affordability, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Affordability{
			City:             row.City,
			Country:          row.Country,
			PrivateRoomRatio: row.PrivateRoomRatio.float(),
			EntireHomeRatio:  row.EntireHomeRatio.float(),
			Rent1Bed:         row.Rent1Bed.float(),
			RentHouse:        row.RentHouse.float(),
		})
	}
	return out, nil
}

type densityRow struct {
	ID               string `json:"id"`
	City             string `json:"city"`
	Country          string `json:"country"`
	PerThousand      number `json:"airbnbs_per_1k"`
	Listings         number `json:"listings"`
	Population       number `json:"population"`
	PopulationSource string `json:"population_source"`
}

// LoadDensity implements dataset.Source.
func (s *Source) LoadDensity(ctx context.Context) ([]domain.Density, error) {
	var rows []densityRow
	if err := s.readJSON(ctx, densityPath, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.Density, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Density{
			ID:               row.ID,
			City:             row.City,
			Country:          row.Country,
			PerThousand:      float64(row.PerThousand),
			Listings:         int(row.Listings),
			Population:       int(row.Population),
			PopulationSource: row.PopulationSource,
		})
	}
	return out, nil
}

type pressureRow struct {
	ID           string `json:"id"`
	City         string `json:"city"`
	Country      string `json:"country"`
	Year         number `json:"year"`
	AirbnbHomes  number `json:"airbnb_homes"`
	TotalHousing number `json:"total_housing"`
	AirbnbShare  number `json:"airbnb_share"`
}

// LoadHousingPressure implements dataset.Source.
func (s *Source) LoadHousingPressure(ctx context.Context) ([]domain.HousingPressure, error) {
	var rows []pressureRow
	if err := s.readJSON(ctx, pressurePath, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.HousingPressure, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.HousingPressure{
			ID:           row.ID,
			City:         row.City,
			Country:      row.Country,
			Year:         int(row.Year),
			AirbnbShare:  float64(row.AirbnbShare),
			AirbnbHomes:  int(row.AirbnbHomes),
			TotalHousing: int(row.TotalHousing),
		})
	}
	return out, nil
}

// ReadListings parses a listings CSV with latitude, longitude and optional
// id, price, name and room_type columns. Rows with unparseable coordinates
// are skipped.
func ReadListings(r io.Reader, cityID string) ([]domain.ListingPoint, error) {
	var out []domain.ListingPoint
	err := eachRow(r, []string{"latitude", "longitude"}, func(row int, get func(string) string) {
		position, ok := parsePosition(get)
		if !ok {
			return
		}
		id := strings.TrimSpace(get("id"))
		if id == "" {
			id = fmt.Sprintf("%s-%d", cityID, row)
		}
		out = append(out, domain.ListingPoint{
			ID:       id,
			Position: position,
			Price:    dataset.ParsePrice(get("price")),
			Name:     get("name"),
			RoomType: get("room_type"),
		})
	})
	return out, err
}

// ReadTimeline parses a time-lapse CSV with id, latitude, longitude,
// room_type, first_year and last_year columns.
func ReadTimeline(r io.Reader, cityID string) ([]domain.ListingPoint, error) {
	var out []domain.ListingPoint
	err := eachRow(r, []string{"latitude", "longitude", "first_year", "last_year"}, func(row int, get func(string) string) {
		position, ok := parsePosition(get)
		if !ok {
			return
		}
		first, okFirst := dataset.ParseYear(get("first_year"))
		last, okLast := dataset.ParseYear(get("last_year"))
		if !okFirst || !okLast {
			return
		}
		id := strings.TrimSpace(get("id"))
		if id == "" {
			id = fmt.Sprintf("%s-%d", cityID, row)
		}
		out = append(out, domain.ListingPoint{
			ID:        id,
			Position:  position,
			RoomType:  get("room_type"),
			FirstYear: &first,
			LastYear:  &last,
		})
	})
	return out, err
}

func parsePosition(get func(string) string) (domain.LatLng, bool) {
	lat, okLat := dataset.ParseCoordinate(get("latitude"))
	lng, okLng := dataset.ParseCoordinate(get("longitude"))
	if !okLat || !okLng {
		return domain.LatLng{}, false
	}
	return domain.LatLng{Lat: lat, Lng: lng}, true
}

// eachRow streams CSV records to fn with a column getter. Missing required
// columns fail the whole file; short rows are tolerated.
func eachRow(r io.Reader, required []string, fn func(row int, get func(string) string)) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	header, err := reader.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return fmt.Errorf("missing column %q", name)
		}
	}

	for row := 0; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read row %d: %w", row, err)
		}
		get := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}
		fn(row, get)
	}
}
