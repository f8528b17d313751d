package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	i18n "github.com/louisbranch/rentpressure/internal/platform/i18n/catalog"
	"github.com/louisbranch/rentpressure/internal/platform/timeouts"
	"github.com/louisbranch/rentpressure/internal/services/story/catalog"
	"github.com/louisbranch/rentpressure/internal/services/story/dataset"
	"github.com/louisbranch/rentpressure/internal/services/story/gauge"
	"github.com/louisbranch/rentpressure/internal/services/story/surface"
)

// GaugeInput selects a housing-pressure city.
type GaugeInput struct {
	City   string `json:"city" jsonschema:"city identifier in the housing pressure dataset, for example girona"`
	Locale string `json:"locale,omitempty" jsonschema:"label language such as en-US or pt-PT"`
}

// GaugeTool defines the MCP tool schema for gauge readings.
func GaugeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "story_housing_gauge",
		Description: "Reads the housing pressure gauge for a city: share of housing listed short-term and its zone",
	}
}

// GaugeHandler builds the same reading the story renders.
func GaugeHandler(data Data, c *catalog.Catalog, bundle *i18n.Bundle) mcp.ToolHandlerFor[GaugeInput, surface.Gauge] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GaugeInput) (*mcp.CallToolResult, surface.Gauge, error) {
		cityID := strings.ToLower(strings.TrimSpace(input.City))
		if cityID == "" {
			return nil, surface.Gauge{}, fmt.Errorf("city is required")
		}

		runCtx, cancel := context.WithTimeout(ctx, timeouts.DatasetLoad)
		defer cancel()
		rows, err := data.HousingPressure(runCtx)
		if err != nil {
			return nil, surface.Gauge{}, dataError(dataset.KindPressure, err)
		}
		row, ok := gauge.Find(rows, cityID)
		if !ok {
			return nil, surface.Gauge{}, fmt.Errorf("city %q is not in the housing pressure dataset", cityID)
		}
		locale := bundle.Match(input.Locale)
		return nil, gauge.Reading(row, c.GaugeMax, bundle.Printer(locale)), nil
	}
}
