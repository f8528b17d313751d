package highlight

import (
	"sort"
	"strings"

	"golang.org/x/text/message"

	"github.com/louisbranch/rentpressure/internal/services/story/domain"
	"github.com/louisbranch/rentpressure/internal/services/story/surface"
)

// AffordabilityChart builds the affordability bars for metric: cities with
// a value, highest ratio first, keyed by lowercased city name.
func AffordabilityChart(rows []domain.Affordability, metric domain.Metric, p *message.Printer) surface.Chart {
	type entry struct {
		row   domain.Affordability
		value float64
	}
	entries := make([]entry, 0, len(rows))
	for _, row := range rows {
		if v := row.Value(metric); v != nil {
			entries = append(entries, entry{row: row, value: *v})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].value > entries[j].value
	})

	metricLabel := p.Sprintf("story.chart.metric.private")
	if metric == domain.MetricEntireHome {
		metricLabel = p.Sprintf("story.chart.metric.entire")
	}
	chart := surface.Chart{Metric: string(metric), Bars: make([]surface.Bar, 0, len(entries))}
	for _, e := range entries {
		valueLabel := p.Sprintf("story.chart.ratio", e.value)
		chart.Bars = append(chart.Bars, surface.Bar{
			Key:        strings.ToLower(e.row.City),
			Label:      e.row.City,
			Value:      e.value,
			ValueLabel: valueLabel,
			Tooltip: strings.Join([]string{
				e.row.City + ", " + e.row.Country,
				metricLabel + ": " + valueLabel,
				rentLine(e.row, metric, p),
			}, "\n"),
		})
	}
	if len(chart.Bars) == 0 {
		chart.Note = p.Sprintf("story.chart.empty")
	}
	return chart
}

func rentLine(row domain.Affordability, metric domain.Metric, p *message.Printer) string {
	if metric == domain.MetricEntireHome {
		if row.RentHouse == nil {
			return p.Sprintf("story.chart.rent_house_na")
		}
		return p.Sprintf("story.chart.rent_house", *row.RentHouse)
	}
	if row.Rent1Bed == nil {
		return p.Sprintf("story.chart.rent_1bed_na")
	}
	return p.Sprintf("story.chart.rent_1bed", *row.Rent1Bed)
}

// DensityChart builds the density bars: the first limit rows by listings per
// 1,000 residents, keyed by city id. A footnote is set when any shown row
// carries a population source.
func DensityChart(rows []domain.Density, limit int, p *message.Printer) surface.Chart {
	sorted := append([]domain.Density(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PerThousand > sorted[j].PerThousand
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	chart := surface.Chart{Bars: make([]surface.Bar, 0, len(sorted))}
	sourced := false
	for _, row := range sorted {
		lines := []string{
			row.City + ", " + row.Country,
			p.Sprintf("story.chart.per_thousand", row.PerThousand),
			p.Sprintf("story.chart.listings_population", row.Listings, row.Population),
		}
		if row.PopulationSource != "" {
			sourced = true
			lines = append(lines, p.Sprintf("story.chart.population_source", row.PopulationSource))
		}
		chart.Bars = append(chart.Bars, surface.Bar{
			Key:        row.ID,
			Label:      row.City,
			Value:      row.PerThousand,
			ValueLabel: p.Sprintf("%.1f", row.PerThousand),
			Tooltip:    strings.Join(lines, "\n"),
		})
	}
	if sourced {
		chart.Note = p.Sprintf("story.chart.density_note")
	}
	return chart
}
