package domain

import (
	"context"
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/rentpressure/internal/platform/timeouts"
	"github.com/louisbranch/rentpressure/internal/services/story/dataset"
	storydomain "github.com/louisbranch/rentpressure/internal/services/story/domain"
)

// AffordabilityInput selects the ratio to rank by.
type AffordabilityInput struct {
	Metric string `json:"metric,omitempty" jsonschema:"private or entire; defaults to private"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum rows to return; 0 returns all"`
}

// AffordabilityEntry is one ranked city.
type AffordabilityEntry struct {
	Rank    int     `json:"rank" jsonschema:"1 is the highest ratio"`
	City    string  `json:"city" jsonschema:"city name"`
	Country string  `json:"country" jsonschema:"country name"`
	Ratio   float64 `json:"ratio" jsonschema:"monthly short-term income over long-term rent"`
}

// AffordabilityResult is the ranking for one metric.
type AffordabilityResult struct {
	Metric string               `json:"metric" jsonschema:"metric used for the ranking"`
	Rows   []AffordabilityEntry `json:"rows" jsonschema:"cities ordered by descending ratio"`
	Absent int                  `json:"absent" jsonschema:"cities with no value for the metric"`
}

// AffordabilityTool defines the MCP tool schema for affordability rankings.
func AffordabilityTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "story_affordability",
		Description: "Ranks cities by how much more a listing earns than a long-term rental",
	}
}

// AffordabilityHandler ranks the affordability rows for the chosen metric.
func AffordabilityHandler(data Data) mcp.ToolHandlerFor[AffordabilityInput, AffordabilityResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AffordabilityInput) (*mcp.CallToolResult, AffordabilityResult, error) {
		metric := storydomain.Metric(input.Metric)
		if metric == "" {
			metric = storydomain.MetricPrivateRoom
		}
		if !metric.Valid() {
			return nil, AffordabilityResult{}, fmt.Errorf("metric %q is not supported", input.Metric)
		}
		if input.Limit < 0 {
			return nil, AffordabilityResult{}, fmt.Errorf("limit must not be negative")
		}

		runCtx, cancel := context.WithTimeout(ctx, timeouts.DatasetLoad)
		defer cancel()
		rows, err := data.Affordability(runCtx)
		if err != nil {
			return nil, AffordabilityResult{}, dataError(dataset.KindAffordability, err)
		}
		return nil, rankAffordability(rows, metric, input.Limit), nil
	}
}

func rankAffordability(rows []storydomain.Affordability, metric storydomain.Metric, limit int) AffordabilityResult {
	result := AffordabilityResult{Metric: string(metric)}
	for _, row := range rows {
		value := row.Value(metric)
		if value == nil {
			result.Absent++
			continue
		}
		result.Rows = append(result.Rows, AffordabilityEntry{City: row.City, Country: row.Country, Ratio: *value})
	}
	sort.SliceStable(result.Rows, func(i, j int) bool {
		return result.Rows[i].Ratio > result.Rows[j].Ratio
	})
	if limit > 0 && len(result.Rows) > limit {
		result.Rows = result.Rows[:limit]
	}
	for i := range result.Rows {
		result.Rows[i].Rank = i + 1
	}
	return result
}
