package gauge

import (
	"math"
	"strconv"

	"golang.org/x/text/message"

	"github.com/louisbranch/rentpressure/internal/services/story/domain"
	"github.com/louisbranch/rentpressure/internal/services/story/surface"
)

// Reading builds the gauge for h. The needle is pinned to max; the value
// label always shows the true share.
func Reading(h domain.HousingPressure, max float64, p *message.Printer) surface.Gauge {
	share := h.AirbnbShare
	if math.IsNaN(share) || share < 0 {
		share = 0
	}
	zone := ZoneFor(share)
	return surface.Gauge{
		CityID:     h.ID,
		Caption:    p.Sprintf("story.gauge.caption", h.City, strconv.Itoa(h.Year)),
		Share:      share,
		Needle:     math.Min(share, max),
		Max:        max,
		Zone:       string(zone),
		ZoneLabel:  zone.Label(p),
		ValueLabel: p.Sprintf("story.gauge.share", share),
		Homes:      p.Sprintf("story.gauge.homes", h.AirbnbHomes, h.TotalHousing),
	}
}

// Find returns the record for cityID.
func Find(rows []domain.HousingPressure, cityID string) (domain.HousingPressure, bool) {
	for _, row := range rows {
		if row.ID == cityID {
			return row, true
		}
	}
	return domain.HousingPressure{}, false
}
