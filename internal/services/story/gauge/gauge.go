// Package gauge turns a housing-pressure record into a gauge reading.
package gauge

import "golang.org/x/text/message"

// Zone is a pressure band on the gauge dial.
type Zone string

const (
	ZoneLow    Zone = "low"
	ZoneMedium Zone = "medium"
	ZoneHigh   Zone = "high"
)

// Band edges, in percent of housing stock.
const (
	LowUpper    = 2.0
	MediumUpper = 5.0
)

// ZoneFor classifies a share: low below 2%, medium from 2% to 5%
// inclusive, high above 5%.
func ZoneFor(share float64) Zone {
	switch {
	case share < LowUpper:
		return ZoneLow
	case share <= MediumUpper:
		return ZoneMedium
	default:
		return ZoneHigh
	}
}

// Label returns the localized zone name.
func (z Zone) Label(p *message.Printer) string {
	switch z {
	case ZoneHigh:
		return p.Sprintf("story.gauge.zone.high")
	case ZoneMedium:
		return p.Sprintf("story.gauge.zone.medium")
	default:
		return p.Sprintf("story.gauge.zone.low")
	}
}
