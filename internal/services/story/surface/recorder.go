package surface

import (
	"sync"

	"github.com/louisbranch/rentpressure/internal/services/story/domain"
)

const (
	// BarNeutral is the resting opacity of a grown bar.
	BarNeutral = 0.7
	// LabelNeutral is the resting opacity of a visible value label.
	LabelNeutral = 1.0
)

// MapView is the recorded state of one map surface.
type MapView struct {
	Center        domain.LatLng
	Zoom          float64
	Flights       int
	Views         int
	Markers       map[string]Marker
	MarkerOpacity map[string]float64
	Layers        []Layer
	Points        map[string]Point

	// DuplicateAdds and MissingRemoves count point commands that did not
	// change the rendered set.
	DuplicateAdds  int
	MissingRemoves int
}

// ChartView is the recorded state of one chart surface.
type ChartView struct {
	Chart   *Chart
	Renders int
	Grows   int
	Opacity float64
	Bars    map[string]float64
	Labels  map[string]float64
}

// Recorder applies commands to an in-memory model of every surface. It is
// safe for concurrent use.
type Recorder struct {
	mu sync.Mutex

	commands     []Command
	maps         map[Key]*MapView
	charts       map[Key]*ChartView
	gauge        *Gauge
	gaugeRenders int
	panels       map[string]map[string]string
	activeStep   string
	progress     int
	notices      []string
	scrollTo     int
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		maps:   map[Key]*MapView{},
		charts: map[Key]*ChartView{},
		panels: map[string]map[string]string{},
	}
}

// Emit implements Sink.
func (r *Recorder) Emit(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)

	switch cmd.Op {
	case OpFlyTo, OpSetView:
		m := r.mapView(cmd.Surface)
		if cmd.Center != nil {
			m.Center = *cmd.Center
		}
		m.Zoom = cmd.Zoom
		if cmd.Op == OpFlyTo {
			m.Flights++
		} else {
			m.Views++
		}
	case OpPlaceMarkers:
		m := r.mapView(cmd.Surface)
		m.Markers = map[string]Marker{}
		m.MarkerOpacity = map[string]float64{}
		for _, marker := range cmd.Markers {
			m.Markers[marker.ID] = marker
			m.MarkerOpacity[marker.ID] = 1
		}
	case OpMarkerOpacity:
		m := r.mapView(cmd.Surface)
		if cmd.Opacity == nil {
			return
		}
		for _, id := range cmd.IDs {
			m.MarkerOpacity[id] = *cmd.Opacity
		}
	case OpAttachLayer:
		if cmd.Layer != nil {
			m := r.mapView(cmd.Surface)
			m.Layers = append(m.Layers, *cmd.Layer)
		}
	case OpDetachLayer:
		if cmd.Layer != nil {
			m := r.mapView(cmd.Surface)
			kept := m.Layers[:0]
			for _, layer := range m.Layers {
				if layer.ID != cmd.Layer.ID {
					kept = append(kept, layer)
				}
			}
			m.Layers = kept
		}
	case OpAddPoints:
		m := r.mapView(cmd.Surface)
		for _, p := range cmd.Points {
			if _, ok := m.Points[p.ID]; ok {
				m.DuplicateAdds++
				continue
			}
			m.Points[p.ID] = p
		}
	case OpRemovePoints:
		m := r.mapView(cmd.Surface)
		for _, id := range cmd.IDs {
			if _, ok := m.Points[id]; !ok {
				m.MissingRemoves++
				continue
			}
			delete(m.Points, id)
		}
	case OpClearPoints:
		r.mapView(cmd.Surface).Points = map[string]Point{}
	case OpRenderChart:
		c := r.chartView(cmd.Surface)
		c.Chart = cmd.Chart
		c.Renders++
		c.Bars = map[string]float64{}
		c.Labels = map[string]float64{}
		if cmd.Chart != nil {
			bar, label := 0.0, 0.0
			if cmd.Chart.Grown {
				bar, label = BarNeutral, LabelNeutral
			}
			for _, b := range cmd.Chart.Bars {
				c.Bars[b.Key] = bar
				c.Labels[b.Key] = label
			}
		}
	case OpGrowBars:
		c := r.chartView(cmd.Surface)
		c.Grows++
		for key := range c.Bars {
			c.Bars[key] = BarNeutral
			c.Labels[key] = LabelNeutral
		}
	case OpElementOpacity:
		c := r.chartView(cmd.Surface)
		for _, el := range cmd.Elements {
			switch el.Kind {
			case ElementBar:
				c.Bars[el.Key] = el.Opacity
			case ElementLabel:
				c.Labels[el.Key] = el.Opacity
			}
		}
	case OpChartOpacity:
		if cmd.Opacity != nil {
			r.chartView(cmd.Surface).Opacity = *cmd.Opacity
		}
	case OpRenderGauge:
		r.gauge = cmd.Gauge
		r.gaugeRenders++
	case OpPanel:
		text := make(map[string]string, len(cmd.Text))
		for k, v := range cmd.Text {
			text[k] = v
		}
		r.panels[cmd.Panel] = text
	case OpActiveStep:
		r.activeStep = cmd.Step
	case OpProgress:
		r.progress = cmd.Act
	case OpNotice:
		r.notices = append(r.notices, cmd.Message)
	case OpScrollToAct:
		r.scrollTo = cmd.Act
	}
}

func (r *Recorder) mapView(key Key) *MapView {
	m, ok := r.maps[key]
	if !ok {
		m = &MapView{
			Markers:       map[string]Marker{},
			MarkerOpacity: map[string]float64{},
			Points:        map[string]Point{},
		}
		r.maps[key] = m
	}
	return m
}

func (r *Recorder) chartView(key Key) *ChartView {
	c, ok := r.charts[key]
	if !ok {
		c = &ChartView{Opacity: 1, Bars: map[string]float64{}, Labels: map[string]float64{}}
		r.charts[key] = c
	}
	return c
}

// Commands returns a copy of every command received.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.commands...)
}

// Count returns how many commands with op targeted key.
func (r *Recorder) Count(key Key, op Op) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, cmd := range r.commands {
		if cmd.Surface == key && cmd.Op == op {
			n++
		}
	}
	return n
}

// Map returns a snapshot of a map surface.
func (r *Recorder) Map(key Key) MapView {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.mapView(key)
	out := *m
	out.Markers = copyMap(m.Markers)
	out.MarkerOpacity = copyMap(m.MarkerOpacity)
	out.Points = copyMap(m.Points)
	out.Layers = append([]Layer(nil), m.Layers...)
	return out
}

// Chart returns a snapshot of a chart surface.
func (r *Recorder) Chart(key Key) ChartView {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.chartView(key)
	out := *c
	out.Bars = copyMap(c.Bars)
	out.Labels = copyMap(c.Labels)
	return out
}

// Gauge returns the last rendered gauge and the render count.
func (r *Recorder) Gauge() (*Gauge, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gauge, r.gaugeRenders
}

// Panel returns the last text written to a named panel.
func (r *Recorder) Panel(name string) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyMap(r.panels[name])
}

// ActiveStep returns the last active step.
func (r *Recorder) ActiveStep() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeStep
}

// Progress returns the last progress act.
func (r *Recorder) Progress() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

// Notices returns every notice message in order.
func (r *Recorder) Notices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.notices...)
}

// ScrollTo returns the last act the page was asked to scroll to.
func (r *Recorder) ScrollTo() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scrollTo
}

// PointIDs returns the rendered point ids of a map surface.
func (r *Recorder) PointIDs(key Key) map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]bool{}
	for id := range r.mapView(key).Points {
		out[id] = true
	}
	return out
}

func copyMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
