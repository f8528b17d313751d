// Package classify maps narrative step identifiers to the region of the
// story they drive and the act shown in the progress dots.
package classify

import "strings"

// Region is the part of the story a step mutates.
type Region string

const (
	RegionNone     Region = ""
	RegionMap      Region = "map"
	RegionChart    Region = "chart"
	RegionDeepDive Region = "deep-dive"
	RegionImpact   Region = "impact"
	RegionGauge    Region = "gauge"
	RegionTimeline Region = "timeline"
	RegionResponse Region = "response"
)

// TimelineStep is the step the time-lapse act reports when its viewport
// entries carry no explicit step.
const TimelineStep = "timeline"

// Result is a step's classification. Act is 0 when the step has no dot.
type Result struct {
	Region Region
	Act    int
}

// Known reports whether the step maps to any region.
func (r Result) Known() bool {
	return r.Region != RegionNone
}

var mapSteps = map[string]bool{
	"intro":            true,
	"top-cities-intro": true,
	"city-1":           true,
	"city-2":           true,
	"city-3":           true,
	"city-4":           true,
	"city-5":           true,
	"transition":       true,
}

var deepDiveCities = []string{"barcelona", "lisbon", "amsterdam"}

// Step classifies step. It is pure: the same input always yields the same
// result, and unknown steps yield RegionNone.
func Step(step string) Result {
	switch {
	case step == "":
		return Result{}
	case mapSteps[step]:
		return Result{Region: RegionMap, Act: 1}
	case hasAnyPrefix(step, "affordability-", "private-room-", "entire-home-"):
		return Result{Region: RegionChart, Act: 2}
	case strings.HasPrefix(step, "concentration-") || containsAny(step, deepDiveCities...):
		return Result{Region: RegionDeepDive, Act: 3}
	case strings.HasPrefix(step, "impact-"):
		return Result{Region: RegionImpact, Act: 4}
	case strings.HasPrefix(step, "pressure-"):
		// The gauge sits between the impact chart and the timeline.
		return Result{Region: RegionGauge, Act: 4}
	case step == TimelineStep:
		return Result{Region: RegionTimeline, Act: 5}
	case strings.HasPrefix(step, "response-"):
		return Result{Region: RegionResponse, Act: 6}
	default:
		return Result{}
	}
}

// Resolve picks the step a viewport entry stands for. An explicit step wins;
// otherwise only the time-lapse act has a fallback step. The literal "act5"
// is accepted as that act's name.
func Resolve(step string, act int) string {
	step = strings.TrimSpace(step)
	if step == "act5" {
		return TimelineStep
	}
	if step != "" {
		return step
	}
	if act == 5 {
		return TimelineStep
	}
	return ""
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func containsAny(s string, parts ...string) bool {
	for _, p := range parts {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
