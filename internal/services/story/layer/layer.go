// Package layer attaches overlay layers to map surfaces. Layer kinds are
// grouped; a surface holds at most one layer per group, and showing a layer
// replaces whatever held its group.
package layer

import (
	"github.com/louisbranch/rentpressure/internal/services/story/scheduler"
	"github.com/louisbranch/rentpressure/internal/services/story/surface"
)

type group string

const (
	groupOverlay   group = "overlay"
	groupTimelapse group = "timelapse"
)

// groupOf maps a layer kind to its exclusion group. Heatmaps and dot layers
// are alternative views of the same listings.
func groupOf(kind surface.LayerKind) group {
	switch kind {
	case surface.LayerTimelapse:
		return groupTimelapse
	default:
		return groupOverlay
	}
}

// Manager is not safe for concurrent use; call it from the session loop.
type Manager struct {
	sink     surface.Sink
	sched    *scheduler.Scheduler
	attached map[surface.Key]map[group]surface.Layer
}

// New returns a manager. sched may be nil when no reveals are scheduled.
func New(sink surface.Sink, sched *scheduler.Scheduler) *Manager {
	return &Manager{
		sink:     sink,
		sched:    sched,
		attached: map[surface.Key]map[group]surface.Layer{},
	}
}

// Show attaches l to key, detaching the layer currently in its group.
// Showing the already-attached layer again is a no-op.
func (m *Manager) Show(key surface.Key, l surface.Layer) {
	g := groupOf(l.Kind)
	layers := m.attached[key]
	if layers == nil {
		layers = map[group]surface.Layer{}
		m.attached[key] = layers
	}
	if current, ok := layers[g]; ok {
		if current.ID == l.ID && current.Kind == l.Kind {
			return
		}
		m.detach(key, current)
	}
	layers[g] = l
	m.sink.Emit(surface.Command{Surface: key, Op: surface.OpAttachLayer, Layer: &l})
}

// HideAll detaches every overlay from key and cancels any reveal still
// pending for it, so a hidden layer cannot come back on a stale timer.
func (m *Manager) HideAll(key surface.Key) {
	if m.sched != nil {
		m.sched.Cancel(scheduler.Key{Surface: key, Kind: scheduler.KindReveal})
	}
	m.Clear(key)
}

// Clear detaches every layer from key without touching pending reveals.
func (m *Manager) Clear(key surface.Key) {
	for _, g := range []group{groupOverlay, groupTimelapse} {
		if l, ok := m.attached[key][g]; ok {
			m.detach(key, l)
		}
	}
}

// Attached returns the layers currently on key.
func (m *Manager) Attached(key surface.Key) []surface.Layer {
	var out []surface.Layer
	for _, g := range []group{groupOverlay, groupTimelapse} {
		if l, ok := m.attached[key][g]; ok {
			out = append(out, l)
		}
	}
	return out
}

func (m *Manager) detach(key surface.Key, l surface.Layer) {
	delete(m.attached[key], groupOf(l.Kind))
	ref := surface.Layer{ID: l.ID, Kind: l.Kind}
	m.sink.Emit(surface.Command{Surface: key, Op: surface.OpDetachLayer, Layer: &ref})
}
