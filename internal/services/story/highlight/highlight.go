// Package highlight drives the opacity of bar-chart elements: the one-time
// entrance animation, emphasis of a set of entities and the fade around a
// chart re-render.
package highlight

import (
	"sort"
	"strings"
	"time"

	"github.com/louisbranch/rentpressure/internal/services/story/surface"
)

// Element opacities.
const (
	BarNeutral   = surface.BarNeutral
	BarDimmed    = 0.3
	BarFocused   = 1.0
	LabelNeutral = surface.LabelNeutral
	LabelDimmed  = 0.4
	LabelFocused = 1.0
)

// Timing holds the chart animation durations.
type Timing struct {
	Fade     time.Duration
	Entrance time.Duration
	Stagger  time.Duration
}

// DefaultTiming matches the published story.
var DefaultTiming = Timing{
	Fade:     400 * time.Millisecond,
	Entrance: 800 * time.Millisecond,
	Stagger:  30 * time.Millisecond,
}

// Chart owns the opacity of one chart surface. Call it only from the
// session loop.
type Chart struct {
	key    surface.Key
	sink   surface.Sink
	timing Timing

	bars     []surface.Bar
	rendered bool
	grown    bool
	focus    map[string]bool
}

// NewChart returns a chart with nothing rendered.
func NewChart(key surface.Key, sink surface.Sink, timing Timing) *Chart {
	return &Chart{key: key, sink: sink, timing: timing, focus: map[string]bool{}}
}

// Key returns the chart's surface key.
func (c *Chart) Key() surface.Key {
	return c.key
}

// Rendered reports whether the chart has bars on screen.
func (c *Chart) Rendered() bool {
	return c.rendered
}

// Grown reports whether the entrance animation has run.
func (c *Chart) Grown() bool {
	return c.grown
}

// Highlighted returns the focused keys in sorted order.
func (c *Chart) Highlighted() []string {
	out := make([]string, 0, len(c.focus))
	for k := range c.focus {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Render replaces the chart's bars. Once grown, bars render at their target
// width and the current highlight is re-applied without a fade; before the
// entrance they render collapsed.
func (c *Chart) Render(chart surface.Chart) {
	chart.Grown = c.grown
	c.bars = chart.Bars
	c.rendered = true
	c.sink.Emit(surface.Command{Surface: c.key, Op: surface.OpRenderChart, Chart: &chart})
	if c.grown && len(c.focus) > 0 {
		c.apply(0)
	}
}

// Grow runs the entrance animation. It runs at most once per chart and
// only once the chart is rendered; it reports whether it ran.
func (c *Chart) Grow() bool {
	if c.grown || !c.rendered {
		return false
	}
	c.grown = true
	c.sink.Emit(surface.Command{
		Surface:    c.key,
		Op:         surface.OpGrowBars,
		DurationMS: c.timing.Entrance.Milliseconds(),
		StaggerMS:  c.timing.Stagger.Milliseconds(),
	})
	if len(c.focus) > 0 {
		c.apply(c.timing.Fade)
	}
	return true
}

// Highlight focuses keys, matched case-insensitively, and dims the rest.
// An empty set restores every element to neutral. Before the entrance the
// set is only remembered.
func (c *Chart) Highlight(keys []string) {
	focus := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k = normalize(k); k != "" {
			focus[k] = true
		}
	}
	c.focus = focus
	if c.grown {
		c.apply(c.timing.Fade)
	}
}

// SetOpacity fades the whole chart.
func (c *Chart) SetOpacity(opacity float64, d time.Duration) {
	c.sink.Emit(surface.Command{
		Surface:    c.key,
		Op:         surface.OpChartOpacity,
		Opacity:    surface.Float(opacity),
		DurationMS: d.Milliseconds(),
	})
}

func (c *Chart) apply(d time.Duration) {
	elements := make([]surface.Element, 0, 2*len(c.bars))
	for _, b := range c.bars {
		bar, label := BarNeutral, LabelNeutral
		if len(c.focus) > 0 {
			if c.focus[normalize(b.Key)] {
				bar, label = BarFocused, LabelFocused
			} else {
				bar, label = BarDimmed, LabelDimmed
			}
		}
		elements = append(elements,
			surface.Element{Kind: surface.ElementBar, Key: b.Key, Opacity: bar},
			surface.Element{Kind: surface.ElementLabel, Key: b.Key, Opacity: label},
		)
	}
	if len(elements) == 0 {
		return
	}
	c.sink.Emit(surface.Command{
		Surface:    c.key,
		Op:         surface.OpElementOpacity,
		Elements:   elements,
		DurationMS: d.Milliseconds(),
	})
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
