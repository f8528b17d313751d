package domain

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/rentpressure/internal/services/story/catalog"
	"github.com/louisbranch/rentpressure/internal/services/story/classify"
)

// StepInput names a narrative step, or an act for steps without an id.
type StepInput struct {
	Step string `json:"step,omitempty" jsonschema:"narrative step identifier, for example city-2"`
	Act  int    `json:"act,omitempty" jsonschema:"act number of the viewport entry, used when step is empty"`
}

// StepResult is how the story treats a step.
type StepResult struct {
	Step   string `json:"step" jsonschema:"resolved step identifier"`
	Known  bool   `json:"known" jsonschema:"whether the story reacts to the step"`
	Region string `json:"region,omitempty" jsonschema:"part of the story the step drives"`
	Act    int    `json:"act,omitempty" jsonschema:"act lit in the progress dots"`
	City   string `json:"city,omitempty" jsonschema:"city the camera visits on this step"`
}

// StepTool defines the MCP tool schema for step classification.
func StepTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "story_step",
		Description: "Explains which part of the story a narrative step drives",
	}
}

// StepHandler classifies a step the way the story router does.
func StepHandler(c *catalog.Catalog) mcp.ToolHandlerFor[StepInput, StepResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input StepInput) (*mcp.CallToolResult, StepResult, error) {
		step := classify.Resolve(input.Step, input.Act)
		if step == "" {
			return nil, StepResult{}, fmt.Errorf("step or act 5 is required")
		}
		class := classify.Step(step)
		result := StepResult{Step: step, Known: class.Known(), Region: string(class.Region), Act: class.Act}
		if city, ok := c.TopCityForStep(step); ok {
			result.City = city.ID
		} else if city, ok := c.DeepDiveCityForStep(step); ok {
			result.City = city.ID
		} else if cityID, ok := c.GaugeCities[step]; ok {
			result.City = cityID
		}
		return nil, result, nil
	}
}
