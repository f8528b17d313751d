// Package sqlite persists imported story datasets in SQLite so the story
// service can serve them without re-parsing the raw CSV and JSON exports.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/rentpressure/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/rentpressure/internal/services/story/dataset"
	"github.com/louisbranch/rentpressure/internal/services/story/domain"
	"github.com/louisbranch/rentpressure/internal/services/story/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

var errNotConfigured = errors.New("storage is not configured")

// Store provides SQLite-backed dataset persistence.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

var (
	_ dataset.Source = (*Store)(nil)
	_ dataset.Writer = (*Store)(nil)
)

// Imported describes one dataset written by the importer.
type Imported struct {
	Key        string
	Rows       int
	ImportedAt time.Time
}

// Open opens a SQLite dataset store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite store: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return errNotConfigured
	}
	return nil
}

// Dataset keys recorded in imported_datasets. Per-city datasets append the
// city id.
const (
	keyStats         = "stats"
	keyAffordability = "affordability"
	keyDensity       = "density"
	keyPressure      = "pressure"
)

func pointsKey(cityID string) string   { return "points/" + cityID }
func timelineKey(cityID string) string { return "timeline/" + cityID }

// requireImported returns dataset.ErrNotFound when key was never written.
// An imported dataset with zero rows is present but empty.
func (s *Store) requireImported(ctx context.Context, key string) error {
	var rows int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT row_count FROM imported_datasets WHERE dataset_key = ?`, key,
	).Scan(&rows)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", key, dataset.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check dataset %s: %w", key, err)
	}
	return nil
}

// Datasets lists every dataset the importer has written, ordered by key.
func (s *Store) Datasets(ctx context.Context) ([]Imported, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT dataset_key, row_count, imported_at FROM imported_datasets ORDER BY dataset_key`)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	var out []Imported
	for rows.Next() {
		var (
			item Imported
			at   int64
		)
		if err := rows.Scan(&item.Key, &item.Rows, &at); err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		item.ImportedAt = time.UnixMilli(at).UTC()
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate datasets: %w", err)
	}
	return out, nil
}

// replace runs fill inside a transaction after clearing the target rows and
// records the dataset as imported.
func (s *Store) replace(ctx context.Context, key string, rowCount int, clearSQL string, clearArgs []any, fill func(*sql.Tx) error) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", key, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, clearSQL, clearArgs...); err != nil {
		return fmt.Errorf("clear %s: %w", key, err)
	}
	if err := fill(tx); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO imported_datasets (dataset_key, row_count, imported_at) VALUES (?, ?, ?)
		 ON CONFLICT(dataset_key) DO UPDATE SET row_count = excluded.row_count, imported_at = excluded.imported_at`,
		key, rowCount, s.now().UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("record %s: %w", key, err)
	}
	return tx.Commit()
}

// PutCityStats replaces the city statistics table.
func (s *Store) PutCityStats(ctx context.Context, cities []domain.CityRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.replace(ctx, keyStats, len(cities), `DELETE FROM cities`, nil, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO cities (id, name, country, lat, lng, listing_count, avg_price) VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, c := range cities {
			if _, err := stmt.ExecContext(ctx, c.ID, c.Name, c.Country, c.Center.Lat, c.Center.Lng, c.ListingCount, nullFloat(c.AvgPrice)); err != nil {
				return fmt.Errorf("city %s: %w", c.ID, err)
			}
		}
		return nil
	})
}

// LoadCityStats returns every city ordered by listing count, largest first.
func (s *Store) LoadCityStats(ctx context.Context) ([]domain.CityRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if err := s.requireImported(ctx, keyStats); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, name, country, lat, lng, listing_count, avg_price FROM cities ORDER BY listing_count DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query cities: %w", err)
	}
	defer rows.Close()

	var out []domain.CityRecord
	for rows.Next() {
		var (
			c     domain.CityRecord
			price sql.NullFloat64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Country, &c.Center.Lat, &c.Center.Lng, &c.ListingCount, &price); err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		c.AvgPrice = floatPtr(price)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cities: %w", err)
	}
	return out, nil
}

// PutCityPoints replaces the listing points of one city.
func (s *Store) PutCityPoints(ctx context.Context, cityID string, points []domain.ListingPoint) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	cityID = normalizeCity(cityID)
	if cityID == "" {
		return fmt.Errorf("city id is required")
	}
	return s.replace(ctx, pointsKey(cityID), len(points), `DELETE FROM listing_points WHERE city_id = ?`, []any{cityID}, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO listing_points (city_id, id, lat, lng, price, room_type, name, seq) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, p := range points {
			if _, err := stmt.ExecContext(ctx, cityID, p.ID, p.Position.Lat, p.Position.Lng, nullFloat(p.Price), p.RoomType, p.Name, i); err != nil {
				return fmt.Errorf("point %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

// LoadCityPoints returns one city's listing points in import order.
func (s *Store) LoadCityPoints(ctx context.Context, cityID string) ([]domain.ListingPoint, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	cityID = normalizeCity(cityID)
	if err := s.requireImported(ctx, pointsKey(cityID)); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, lat, lng, price, room_type, name FROM listing_points WHERE city_id = ? ORDER BY seq`, cityID)
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	defer rows.Close()

	var out []domain.ListingPoint
	for rows.Next() {
		var (
			p     domain.ListingPoint
			price sql.NullFloat64
		)
		if err := rows.Scan(&p.ID, &p.Position.Lat, &p.Position.Lng, &price, &p.RoomType, &p.Name); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		p.Price = floatPtr(price)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate points: %w", err)
	}
	return out, nil
}

// PutTimelinePoints replaces the time-lapse points of one city. Points
// without a closed active-year range are rejected.
func (s *Store) PutTimelinePoints(ctx context.Context, cityID string, points []domain.ListingPoint) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	cityID = normalizeCity(cityID)
	if cityID == "" {
		return fmt.Errorf("city id is required")
	}
	return s.replace(ctx, timelineKey(cityID), len(points), `DELETE FROM timeline_points WHERE city_id = ?`, []any{cityID}, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO timeline_points (city_id, id, lat, lng, room_type, first_year, last_year, seq) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, p := range points {
			if p.FirstYear == nil || p.LastYear == nil {
				return fmt.Errorf("point %s: active years are required", p.ID)
			}
			if _, err := stmt.ExecContext(ctx, cityID, p.ID, p.Position.Lat, p.Position.Lng, p.RoomType, *p.FirstYear, *p.LastYear, i); err != nil {
				return fmt.Errorf("point %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

// LoadTimelinePoints returns one city's time-lapse points in import order.
func (s *Store) LoadTimelinePoints(ctx context.Context, cityID string) ([]domain.ListingPoint, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	cityID = normalizeCity(cityID)
	if err := s.requireImported(ctx, timelineKey(cityID)); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, lat, lng, room_type, first_year, last_year FROM timeline_points WHERE city_id = ? ORDER BY seq`, cityID)
	if err != nil {
		return nil, fmt.Errorf("query timeline: %w", err)
	}
	defer rows.Close()

	var out []domain.ListingPoint
	for rows.Next() {
		var (
			p           domain.ListingPoint
			first, last int
		)
		if err := rows.Scan(&p.ID, &p.Position.Lat, &p.Position.Lng, &p.RoomType, &first, &last); err != nil {
			return nil, fmt.Errorf("scan timeline point: %w", err)
		}
		p.FirstYear, p.LastYear = &first, &last
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timeline: %w", err)
	}
	return out, nil
}

// PutAffordability replaces the affordability table.
func (s *Store) PutAffordability(ctx context.Context, rows []domain.Affordability) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.replace(ctx, keyAffordability, len(rows), `DELETE FROM affordability`, nil, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO affordability (city, country, private_room_ratio, entire_home_ratio, rent_1bed, rent_house, seq) VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, a := range rows {
			if _, err := stmt.ExecContext(ctx, a.City, a.Country,
				nullFloat(a.PrivateRoomRatio), nullFloat(a.EntireHomeRatio),
				nullFloat(a.Rent1Bed), nullFloat(a.RentHouse), i); err != nil {
				return fmt.Errorf("affordability %s: %w", a.City, err)
			}
		}
		return nil
	})
}

// LoadAffordability returns the affordability rows in import order.
func (s *Store) LoadAffordability(ctx context.Context) ([]domain.Affordability, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if err := s.requireImported(ctx, keyAffordability); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT city, country, private_room_ratio, entire_home_ratio, rent_1bed, rent_house FROM affordability ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query affordability: %w", err)
	}
	defer rows.Close()

	var out []domain.Affordability
	for rows.Next() {
		var (
			a                       domain.Affordability
			private, entire, r1, rh sql.NullFloat64
		)
		if err := rows.Scan(&a.City, &a.Country, &private, &entire, &r1, &rh); err != nil {
			return nil, fmt.Errorf("scan affordability: %w", err)
		}
		a.PrivateRoomRatio = floatPtr(private)
		a.EntireHomeRatio = floatPtr(entire)
		a.Rent1Bed = floatPtr(r1)
		a.RentHouse = floatPtr(rh)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate affordability: %w", err)
	}
	return out, nil
}

// PutDensity replaces the density table.
func (s *Store) PutDensity(ctx context.Context, rows []domain.Density) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.replace(ctx, keyDensity, len(rows), `DELETE FROM density`, nil, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO density (id, city, country, per_thousand, listings, population, population_source) VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, d := range rows {
			if _, err := stmt.ExecContext(ctx, d.ID, d.City, d.Country, d.PerThousand, d.Listings, d.Population, d.PopulationSource); err != nil {
				return fmt.Errorf("density %s: %w", d.ID, err)
			}
		}
		return nil
	})
}

// LoadDensity returns the density rows, densest first.
func (s *Store) LoadDensity(ctx context.Context) ([]domain.Density, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if err := s.requireImported(ctx, keyDensity); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, city, country, per_thousand, listings, population, population_source FROM density ORDER BY per_thousand DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query density: %w", err)
	}
	defer rows.Close()

	var out []domain.Density
	for rows.Next() {
		var d domain.Density
		if err := rows.Scan(&d.ID, &d.City, &d.Country, &d.PerThousand, &d.Listings, &d.Population, &d.PopulationSource); err != nil {
			return nil, fmt.Errorf("scan density: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate density: %w", err)
	}
	return out, nil
}

// PutHousingPressure replaces the housing-pressure table.
func (s *Store) PutHousingPressure(ctx context.Context, rows []domain.HousingPressure) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.replace(ctx, keyPressure, len(rows), `DELETE FROM housing_pressure`, nil, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO housing_pressure (id, city, country, year, airbnb_share, airbnb_homes, total_housing) VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, h := range rows {
			if _, err := stmt.ExecContext(ctx, h.ID, h.City, h.Country, h.Year, h.AirbnbShare, h.AirbnbHomes, h.TotalHousing); err != nil {
				return fmt.Errorf("housing pressure %s: %w", h.ID, err)
			}
		}
		return nil
	})
}

// LoadHousingPressure returns the housing-pressure rows ordered by id.
func (s *Store) LoadHousingPressure(ctx context.Context) ([]domain.HousingPressure, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if err := s.requireImported(ctx, keyPressure); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, city, country, year, airbnb_share, airbnb_homes, total_housing FROM housing_pressure ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query housing pressure: %w", err)
	}
	defer rows.Close()

	var out []domain.HousingPressure
	for rows.Next() {
		var h domain.HousingPressure
		if err := rows.Scan(&h.ID, &h.City, &h.Country, &h.Year, &h.AirbnbShare, &h.AirbnbHomes, &h.TotalHousing); err != nil {
			return nil, fmt.Errorf("scan housing pressure: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate housing pressure: %w", err)
	}
	return out, nil
}

func normalizeCity(cityID string) string {
	return strings.ToLower(strings.TrimSpace(cityID))
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
