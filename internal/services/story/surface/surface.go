// Package surface defines the commands the story controller emits to the
// browser renderer and an in-memory Recorder that applies them.
package surface

import (
	"github.com/louisbranch/rentpressure/internal/services/story/domain"
)

// Key names one rendering surface.
type Key string

const (
	Act1Map            Key = "act1-map"
	Act3Map            Key = "act3-map"
	Act5Map            Key = "act5-map"
	AffordabilityChart Key = "affordability-chart"
	DensityChart       Key = "density-chart"
	HousingGauge       Key = "housing-gauge"
	Page               Key = "page"
)

// Op is the mutation a command performs.
type Op string

const (
	OpFlyTo          Op = "fly_to"
	OpSetView        Op = "set_view"
	OpPlaceMarkers   Op = "place_markers"
	OpMarkerOpacity  Op = "marker_opacity"
	OpAttachLayer    Op = "attach_layer"
	OpDetachLayer    Op = "detach_layer"
	OpAddPoints      Op = "add_points"
	OpRemovePoints   Op = "remove_points"
	OpClearPoints    Op = "clear_points"
	OpRenderChart    Op = "render_chart"
	OpGrowBars       Op = "grow_bars"
	OpElementOpacity Op = "element_opacity"
	OpChartOpacity   Op = "chart_opacity"
	OpRenderGauge    Op = "render_gauge"
	OpPanel          Op = "panel"
	OpActiveStep     Op = "active_step"
	OpProgress       Op = "progress"
	OpNotice         Op = "notice"
	OpScrollToAct    Op = "scroll_to_act"
)

// LayerKind tags an overlay layer's rendering strategy.
type LayerKind string

const (
	LayerHeatmap   LayerKind = "heatmap"
	LayerDots      LayerKind = "dots"
	LayerTimelapse LayerKind = "timelapse"
)

// Marker is a city marker on the overview map.
type Marker struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Position domain.LatLng `json:"position"`
	Size     float64       `json:"size"`
	Top      bool          `json:"top,omitempty"`
	Tooltip  string        `json:"tooltip,omitempty"`
}

// Point is one rendered listing; Intensity is only meaningful for heatmaps.
type Point struct {
	ID        string        `json:"id"`
	Position  domain.LatLng `json:"position"`
	Intensity float64       `json:"intensity,omitempty"`
	Tooltip   string        `json:"tooltip,omitempty"`
}

// Layer is an overlay attached to a map surface.
type Layer struct {
	ID     string    `json:"id"`
	Kind   LayerKind `json:"kind"`
	Points []Point   `json:"points,omitempty"`
}

// ElementKind distinguishes chart bars from their value labels.
type ElementKind string

const (
	ElementBar   ElementKind = "bar"
	ElementLabel ElementKind = "label"
)

// Element is an opacity target for one chart element.
type Element struct {
	Kind    ElementKind `json:"kind"`
	Key     string      `json:"key"`
	Opacity float64     `json:"opacity"`
}

// Bar is one row of a bar chart.
type Bar struct {
	Key        string  `json:"key"`
	Label      string  `json:"label"`
	Value      float64 `json:"value"`
	ValueLabel string  `json:"value_label"`
	Tooltip    string  `json:"tooltip,omitempty"`
}

// Chart is a full chart render. Grown reports whether bars start at their
// target width or at zero awaiting the entrance animation.
type Chart struct {
	Metric string `json:"metric,omitempty"`
	Bars   []Bar  `json:"bars"`
	Grown  bool   `json:"grown"`
	Note   string `json:"note,omitempty"`
}

// Gauge is one housing-pressure reading.
type Gauge struct {
	CityID     string  `json:"city_id"`
	Caption    string  `json:"caption"`
	Share      float64 `json:"share"`
	Needle     float64 `json:"needle"`
	Max        float64 `json:"max"`
	Zone       string  `json:"zone"`
	ZoneLabel  string  `json:"zone_label"`
	ValueLabel string  `json:"value_label"`
	Homes      string  `json:"homes"`
}

// Command is one surface mutation. Only the fields relevant to Op are set.
type Command struct {
	Surface Key `json:"surface"`
	Op      Op  `json:"op"`

	Center     *domain.LatLng `json:"center,omitempty"`
	Zoom       float64        `json:"zoom,omitempty"`
	DurationMS int64          `json:"duration_ms,omitempty"`
	StaggerMS  int64          `json:"stagger_ms,omitempty"`

	Markers []Marker `json:"markers,omitempty"`
	Layer   *Layer   `json:"layer,omitempty"`
	Points  []Point  `json:"points,omitempty"`
	IDs     []string `json:"ids,omitempty"`

	Opacity  *float64  `json:"opacity,omitempty"`
	Elements []Element `json:"elements,omitempty"`
	Chart    *Chart    `json:"chart,omitempty"`
	Gauge    *Gauge    `json:"gauge,omitempty"`

	Panel string            `json:"panel,omitempty"`
	Text  map[string]string `json:"text,omitempty"`

	Step    string `json:"step,omitempty"`
	Act     int    `json:"act,omitempty"`
	Message string `json:"message,omitempty"`
}

// Sink receives surface commands.
type Sink interface {
	Emit(Command)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Command)

// Emit implements Sink.
func (f SinkFunc) Emit(cmd Command) {
	if f != nil {
		f(cmd)
	}
}

// Discard drops every command.
var Discard Sink = SinkFunc(func(Command) {})

type tee []Sink

func (t tee) Emit(cmd Command) {
	for _, sink := range t {
		sink.Emit(cmd)
	}
}

// Tee fans commands out to every non-nil sink in order.
func Tee(sinks ...Sink) Sink {
	out := make(tee, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			out = append(out, sink)
		}
	}
	return out
}

// Float returns a pointer to v, for Command.Opacity.
func Float(v float64) *float64 {
	return &v
}
