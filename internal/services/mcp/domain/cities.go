package domain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/rentpressure/internal/platform/timeouts"
	"github.com/louisbranch/rentpressure/internal/services/story/catalog"
	"github.com/louisbranch/rentpressure/internal/services/story/dataset"
)

// CityEntry is one city of the statistics dataset.
type CityEntry struct {
	ID       string   `json:"id" jsonschema:"city identifier"`
	Name     string   `json:"name" jsonschema:"city name"`
	Country  string   `json:"country" jsonschema:"country name"`
	Lat      float64  `json:"lat" jsonschema:"latitude of the city marker"`
	Lng      float64  `json:"lng" jsonschema:"longitude of the city marker"`
	Listings int      `json:"listings" jsonschema:"number of short-term rental listings"`
	AvgPrice *float64 `json:"avg_price,omitempty" jsonschema:"average nightly price, when known"`
	Top      bool     `json:"top" jsonschema:"whether the story visits the city in the overview act"`
}

// CityListResult is the output of the city listing tool.
type CityListResult struct {
	Cities []CityEntry `json:"cities" jsonschema:"cities in dataset order"`
}

// CityListTool defines the MCP tool schema for listing cities.
func CityListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "story_cities",
		Description: "Lists every city in the statistics dataset with its listing count and average price",
	}
}

// CityListHandler returns the cleaned city statistics.
func CityListHandler(data Data, c *catalog.Catalog) mcp.ToolHandlerFor[struct{}, CityListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, CityListResult, error) {
		result, err := listCities(ctx, data, c)
		if err != nil {
			return nil, CityListResult{}, err
		}
		return nil, result, nil
	}
}

func listCities(ctx context.Context, data Data, c *catalog.Catalog) (CityListResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeouts.DatasetLoad)
	defer cancel()

	cities, err := data.Stats(runCtx)
	if err != nil {
		return CityListResult{}, dataError(dataset.KindStats, err)
	}
	result := CityListResult{Cities: make([]CityEntry, 0, len(cities))}
	for _, city := range cities {
		result.Cities = append(result.Cities, CityEntry{
			ID:       city.ID,
			Name:     city.Name,
			Country:  city.Country,
			Lat:      city.Center.Lat,
			Lng:      city.Center.Lng,
			Listings: city.ListingCount,
			AvgPrice: city.AvgPrice,
			Top:      c.IsTopCity(city.ID),
		})
	}
	return result, nil
}

// CityListResource defines the MCP resource for the city listing.
func CityListResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "city_list",
		Title:       "Cities",
		Description: "Readable listing of the city statistics dataset",
		MIMEType:    "application/json",
		URI:         "story://cities",
	}
}

// CityListResourceHandler serves the city listing as JSON.
func CityListResourceHandler(data Data, c *catalog.Catalog) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := CityListResource().URI
		if req != nil && req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}

		result, err := listCities(ctx, data, c)
		if err != nil {
			return nil, err
		}
		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal city list: %w", err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(payload),
				},
			},
		}, nil
	}
}
