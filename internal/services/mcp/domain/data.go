package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/rentpressure/internal/services/story/dataset"
	storydomain "github.com/louisbranch/rentpressure/internal/services/story/domain"
)

// Data is the dataset access the tools read. *dataset.Cache implements it.
type Data interface {
	Stats(ctx context.Context) ([]storydomain.CityRecord, error)
	Timeline(ctx context.Context, cityID string) (*dataset.TimelineIndex, error)
	Affordability(ctx context.Context) ([]storydomain.Affordability, error)
	Density(ctx context.Context) ([]storydomain.Density, error)
	HousingPressure(ctx context.Context) ([]storydomain.HousingPressure, error)
}

// dataError turns a dataset failure into a tool error message. A missing
// dataset is reported by name so the assistant can tell it apart from a
// broken one.
func dataError(kind dataset.Kind, err error) error {
	if errors.Is(err, dataset.ErrNotFound) {
		return fmt.Errorf("%s dataset is not available", kind)
	}
	return fmt.Errorf("load %s: %w", kind, err)
}
