package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/rentpressure/internal/platform/timeouts"
	"github.com/louisbranch/rentpressure/internal/services/story/catalog"
	"github.com/louisbranch/rentpressure/internal/services/story/dataset"
)

// TimelineSnapshotInput selects a time-lapse city and year.
type TimelineSnapshotInput struct {
	City string `json:"city" jsonschema:"time-lapse city identifier, for example amsterdam"`
	Year int    `json:"year,omitempty" jsonschema:"year to inspect; defaults to the opening year and is clamped to the data range"`
}

// TimelineSnapshotResult describes the listings visible in one year.
type TimelineSnapshotResult struct {
	City      string `json:"city" jsonschema:"time-lapse city identifier"`
	Year      int    `json:"year" jsonschema:"year after clamping"`
	FirstYear int    `json:"first_year" jsonschema:"earliest year the slider offers"`
	LastYear  int    `json:"last_year" jsonschema:"latest year the slider offers"`
	Active    int    `json:"active" jsonschema:"listings visible in the year"`
	Entering  int    `json:"entering" jsonschema:"listings whose first active year is this year"`
	Leaving   int    `json:"leaving" jsonschema:"listings whose last active year is this year"`
	Total     int    `json:"total" jsonschema:"listings in the time-lapse dataset"`
}

// TimelineSnapshotTool defines the MCP tool schema for time-lapse snapshots.
func TimelineSnapshotTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "story_timeline_snapshot",
		Description: "Counts the listings the time-lapse shows for a city in a given year",
	}
}

// TimelineSnapshotHandler counts active listings for the requested year.
func TimelineSnapshotHandler(data Data, c *catalog.Catalog) mcp.ToolHandlerFor[TimelineSnapshotInput, TimelineSnapshotResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TimelineSnapshotInput) (*mcp.CallToolResult, TimelineSnapshotResult, error) {
		cityID := strings.ToLower(strings.TrimSpace(input.City))
		if cityID == "" {
			return nil, TimelineSnapshotResult{}, fmt.Errorf("city is required")
		}
		if _, ok := c.Timelapse(cityID); !ok {
			return nil, TimelineSnapshotResult{}, fmt.Errorf("city %q has no time-lapse", cityID)
		}

		runCtx, cancel := context.WithTimeout(ctx, timeouts.DatasetLoad)
		defer cancel()
		ix, err := data.Timeline(runCtx, cityID)
		if err != nil {
			return nil, TimelineSnapshotResult{}, dataError(dataset.KindTimeline, err)
		}

		year := input.Year
		if year == 0 {
			year = dataset.DefaultYear
		}
		year = ix.Clamp(year)
		return nil, TimelineSnapshotResult{
			City:      cityID,
			Year:      year,
			FirstYear: ix.MinYear,
			LastYear:  ix.MaxYear,
			Active:    len(ix.Active(year)),
			Entering:  len(ix.ByFirst[year]),
			Leaving:   len(ix.ByLast[year]),
			Total:     len(ix.Points),
		}, nil
	}
}
