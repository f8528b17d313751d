// Package importer validates the raw and processed story datasets and
// writes them into the SQLite dataset store the story service reads.
package importer

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	entrypoint "github.com/louisbranch/rentpressure/internal/platform/cmd"
	"github.com/louisbranch/rentpressure/internal/services/story/catalog"
	"github.com/louisbranch/rentpressure/internal/services/story/dataset"
	"github.com/louisbranch/rentpressure/internal/services/story/dataset/files"
	"github.com/louisbranch/rentpressure/internal/services/story/domain"
	"github.com/louisbranch/rentpressure/internal/services/story/storage/sqlite"
)

// Config holds importer configuration.
type Config struct {
	DataDir string `env:"RENTPRESSURE_DATA_DIR" envDefault:"data"`
	DBPath  string `env:"RENTPRESSURE_DB_PATH"  envDefault:"data/rentpressure.db"`
	DryRun  bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory holding the raw and processed datasets")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite dataset store path")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "validate without writing to the database")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.DataDir) == "" {
		return Config{}, errors.New("data-dir is required")
	}
	if !cfg.DryRun && strings.TrimSpace(cfg.DBPath) == "" {
		return Config{}, errors.New("db-path is required")
	}
	return cfg, nil
}

// Run imports every dataset found under cfg.DataDir.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if out == nil {
		out = io.Discard
	}

	var dst dataset.Writer
	if !cfg.DryRun {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open dataset store: %w", err)
		}
		defer store.Close()
		dst = store
	}

	report, err := Import(ctx, files.New(os.DirFS(cfg.DataDir)), dst, catalog.Default())
	if err != nil {
		return err
	}
	for _, line := range report {
		if _, err := fmt.Fprintln(out, line.String()); err != nil {
			return err
		}
	}
	if cfg.DryRun {
		_, err = fmt.Fprintf(out, "validated %d dataset(s)\n", report.Imported())
		return err
	}
	_, err = fmt.Fprintf(out, "imported %d dataset(s) into %s\n", report.Imported(), cfg.DBPath)
	return err
}

// Source is what the importer reads: the dataset loaders plus time-lapse
// derivation from full listings.
type Source interface {
	dataset.Source
	DeriveTimelinePoints(ctx context.Context, cityID string) ([]domain.ListingPoint, error)
}

// Line is the outcome for one dataset key.
type Line struct {
	Key     string
	Rows    int
	Dropped int
	Skipped bool
	Derived bool
}

func (l Line) String() string {
	switch {
	case l.Skipped:
		return fmt.Sprintf("%s: skipped (not found)", l.Key)
	case l.Derived:
		return fmt.Sprintf("%s: %d rows, %d dropped (derived from review dates)", l.Key, l.Rows, l.Dropped)
	default:
		return fmt.Sprintf("%s: %d rows, %d dropped", l.Key, l.Rows, l.Dropped)
	}
}

// Report lists every dataset key the importer considered, in import order.
type Report []Line

// Imported counts the keys that were not skipped.
func (r Report) Imported() int {
	n := 0
	for _, line := range r {
		if !line.Skipped {
			n++
		}
	}
	return n
}

// Import validates each dataset from src and writes it to dst. A nil dst
// validates only. Missing datasets are skipped; any other failure stops the
// import.
func Import(ctx context.Context, src Source, dst dataset.Writer, c *catalog.Catalog) (Report, error) {
	var report Report
	put := func(fn func() error) error {
		if dst == nil {
			return nil
		}
		return fn()
	}

	if err := importSet(ctx, &report, string(dataset.KindStats), src.LoadCityStats, dataset.CleanCities,
		func(rows []domain.CityRecord) error {
			return put(func() error { return dst.PutCityStats(ctx, rows) })
		}); err != nil {
		return report, err
	}

	for _, cityID := range pointCities(c) {
		id := cityID
		if err := importSet(ctx, &report, string(dataset.KindPoints)+"/"+id,
			func(ctx context.Context) ([]domain.ListingPoint, error) { return src.LoadCityPoints(ctx, id) },
			dataset.CleanPoints,
			func(rows []domain.ListingPoint) error {
				return put(func() error { return dst.PutCityPoints(ctx, id, rows) })
			}); err != nil {
			return report, err
		}
	}

	for _, city := range c.TimelapseCities {
		if err := importTimeline(ctx, &report, src, city.ID, put, dst); err != nil {
			return report, err
		}
	}

	if err := importSet(ctx, &report, string(dataset.KindAffordability), src.LoadAffordability, nil,
		func(rows []domain.Affordability) error {
			return put(func() error { return dst.PutAffordability(ctx, rows) })
		}); err != nil {
		return report, err
	}
	if err := importSet(ctx, &report, string(dataset.KindDensity), src.LoadDensity, nil,
		func(rows []domain.Density) error {
			return put(func() error { return dst.PutDensity(ctx, rows) })
		}); err != nil {
		return report, err
	}
	if err := importSet(ctx, &report, string(dataset.KindPressure), src.LoadHousingPressure, nil,
		func(rows []domain.HousingPressure) error {
			return put(func() error { return dst.PutHousingPressure(ctx, rows) })
		}); err != nil {
		return report, err
	}
	return report, nil
}

func importSet[T any](
	ctx context.Context,
	report *Report,
	key string,
	load func(context.Context) ([]T, error),
	clean func([]T) ([]T, int),
	write func([]T) error,
) error {
	rows, err := load(ctx)
	if errors.Is(err, dataset.ErrNotFound) {
		*report = append(*report, Line{Key: key, Skipped: true})
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	dropped := 0
	if clean != nil {
		rows, dropped = clean(rows)
	}
	if err := write(rows); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	*report = append(*report, Line{Key: key, Rows: len(rows), Dropped: dropped})
	return nil
}

// importTimeline prefers the processed time-lapse file and falls back to
// deriving active years from the full listings export.
func importTimeline(ctx context.Context, report *Report, src Source, cityID string, put func(func() error) error, dst dataset.Writer) error {
	key := string(dataset.KindTimeline) + "/" + cityID
	derived := false
	points, err := src.LoadTimelinePoints(ctx, cityID)
	if errors.Is(err, dataset.ErrNotFound) {
		derived = true
		points, err = src.DeriveTimelinePoints(ctx, cityID)
	}
	if errors.Is(err, dataset.ErrNotFound) {
		*report = append(*report, Line{Key: key, Skipped: true})
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	cleaned, dropped := dataset.CleanTimeline(points)
	if err := put(func() error { return dst.PutTimelinePoints(ctx, cityID, cleaned) }); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	*report = append(*report, Line{Key: key, Rows: len(cleaned), Dropped: dropped, Derived: derived})
	return nil
}

// pointCities lists the cities whose listings the story draws, overview
// cities first, without duplicates.
func pointCities(c *catalog.Catalog) []string {
	var out []string
	seen := map[string]bool{}
	for _, city := range append(append([]catalog.City(nil), c.TopCities...), c.DeepDiveCities...) {
		if seen[city.ID] {
			continue
		}
		seen[city.ID] = true
		out = append(out, city.ID)
	}
	return out
}
