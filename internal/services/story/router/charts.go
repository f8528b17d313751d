package router

import (
	"strings"

	"github.com/louisbranch/rentpressure/internal/services/story/dataset"
	"github.com/louisbranch/rentpressure/internal/services/story/domain"
	"github.com/louisbranch/rentpressure/internal/services/story/gauge"
	"github.com/louisbranch/rentpressure/internal/services/story/highlight"
	"github.com/louisbranch/rentpressure/internal/services/story/scheduler"
	"github.com/louisbranch/rentpressure/internal/services/story/surface"
)

var (
	affordabilityGrow = scheduler.Key{Surface: surface.AffordabilityChart, Kind: scheduler.KindGrow}
	affordabilityFade = scheduler.Key{Surface: surface.AffordabilityChart, Kind: scheduler.KindFade}
	densityGrow       = scheduler.Key{Surface: surface.DensityChart, Kind: scheduler.KindGrow}
)

// showAffordabilityStep drives the act 2 chart. Metric steps switch the
// chart to their metric; every step sets its highlight list, where a
// missing list means neutral.
func (r *Router) showAffordabilityStep(step string) {
	c := r.cfg.Catalog
	if !r.afford.Rendered() {
		r.wait(dataset.KindAffordability)
	}

	switch {
	case step == "affordability-intro":
		r.afford.Highlight(nil)
		r.sched.Schedule(affordabilityGrow, c.GrowDelay, func() { r.afford.Grow() })
		return
	case strings.HasPrefix(step, "private-room-"):
		r.switchMetric(domain.MetricPrivateRoom)
	case strings.HasPrefix(step, "entire-home-"):
		r.switchMetric(domain.MetricEntireHome)
	}
	r.afford.Highlight(c.AffordabilityHighlights[step])
	r.growNow(r.afford, affordabilityGrow)
}

// growNow runs a chart's entrance if it has not run yet, for readers who
// land past the act's first step.
func (r *Router) growNow(chart *highlight.Chart, key scheduler.Key) {
	if chart.Grown() || !chart.Rendered() {
		return
	}
	r.sched.Cancel(key)
	chart.Grow()
}

// switchMetric fades the chart out, re-renders it with metric once the
// fade has finished and fades it back in. A newer switch supersedes a
// pending one; switching to the shown metric is a no-op.
func (r *Router) switchMetric(metric domain.Metric) {
	if metric == r.metric {
		return
	}
	r.metric = metric
	if !r.afford.Rendered() {
		return
	}
	fade := r.cfg.Catalog.MetricFade
	r.afford.SetOpacity(0, fade)
	r.sched.Schedule(affordabilityFade, fade, func() {
		r.afford.Render(highlight.AffordabilityChart(r.affordRows, r.metric, r.cfg.Printer))
		r.afford.SetOpacity(1, fade)
	})
}

// showDensityStep drives the act 4 chart.
func (r *Router) showDensityStep(step string) {
	c := r.cfg.Catalog
	if !r.density.Rendered() {
		r.wait(dataset.KindDensity)
	}

	switch step {
	case "impact-intro":
		r.density.Highlight(nil)
		r.sched.Schedule(densityGrow, c.GrowDelay, func() { r.density.Grow() })
		return
	case "impact-all":
		r.growNow(r.density, densityGrow)
		return
	}
	if keys, ok := c.DensityHighlights[step]; ok {
		r.density.Highlight(keys)
	}
	r.growNow(r.density, densityGrow)
}

// showGaugeStep renders the housing-pressure gauge for the step's city.
func (r *Router) showGaugeStep(step string) {
	cityID, ok := r.cfg.Catalog.GaugeCities[step]
	if !ok {
		return
	}
	if !r.havePress {
		r.wait(dataset.KindPressure)
		return
	}
	row, ok := gauge.Find(r.pressure, cityID)
	if !ok {
		r.cfg.Logf("housing pressure for %s not found", cityID)
		return
	}
	reading := gauge.Reading(row, r.cfg.Catalog.GaugeMax, r.cfg.Printer)
	r.emit(surface.Command{Surface: surface.HousingGauge, Op: surface.OpRenderGauge, Gauge: &reading})
}
