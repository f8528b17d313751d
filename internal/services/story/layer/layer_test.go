package layer

import (
	"testing"
	"time"

	"github.com/louisbranch/rentpressure/internal/platform/eventloop"
	"github.com/louisbranch/rentpressure/internal/services/story/scheduler"
	"github.com/louisbranch/rentpressure/internal/services/story/surface"
)

func heat(id string) surface.Layer {
	return surface.Layer{ID: id, Kind: surface.LayerHeatmap}
}

func TestShowReplacesLayerInGroup(t *testing.T) {
	rec := surface.NewRecorder()
	m := New(rec, nil)

	m.Show(surface.Act1Map, heat("paris"))
	m.Show(surface.Act1Map, heat("rome"))
	layers := rec.Map(surface.Act1Map).Layers
	if len(layers) != 1 || layers[0].ID != "rome" {
		t.Fatalf("layers = %+v, want only rome", layers)
	}

	m.Show(surface.Act1Map, surface.Layer{ID: "rome-dots", Kind: surface.LayerDots})
	layers = rec.Map(surface.Act1Map).Layers
	if len(layers) != 1 || layers[0].Kind != surface.LayerDots {
		t.Fatalf("dots must replace the heatmap, got %+v", layers)
	}
}

func TestShowSameLayerIsNoop(t *testing.T) {
	rec := surface.NewRecorder()
	m := New(rec, nil)
	m.Show(surface.Act1Map, heat("paris"))
	m.Show(surface.Act1Map, heat("paris"))
	if n := rec.Count(surface.Act1Map, surface.OpAttachLayer); n != 1 {
		t.Fatalf("attach count = %d, want 1", n)
	}
}

func TestTimelapseLayerCoexistsWithOverlay(t *testing.T) {
	rec := surface.NewRecorder()
	m := New(rec, nil)
	m.Show(surface.Act5Map, surface.Layer{ID: "timelapse", Kind: surface.LayerTimelapse})
	m.Show(surface.Act5Map, heat("paris"))
	if got := len(m.Attached(surface.Act5Map)); got != 2 {
		t.Fatalf("attached = %d, want 2", got)
	}
}

func TestHideAllCancelsPendingReveal(t *testing.T) {
	rt := eventloop.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	rec := surface.NewRecorder()
	sched := scheduler.New(rt)
	m := New(rec, sched)

	m.Show(surface.Act1Map, heat("paris"))
	sched.Schedule(scheduler.Key{Surface: surface.Act1Map, Kind: scheduler.KindReveal}, time.Second, func() {
		m.Show(surface.Act1Map, heat("rome"))
	})
	m.HideAll(surface.Act1Map)
	rt.Advance(2 * time.Second)

	if layers := rec.Map(surface.Act1Map).Layers; len(layers) != 0 {
		t.Fatalf("layers = %+v, want none", layers)
	}
	if len(m.Attached(surface.Act1Map)) != 0 {
		t.Fatal("manager still tracks a layer")
	}
}

func TestClearKeepsPendingReveal(t *testing.T) {
	rt := eventloop.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	rec := surface.NewRecorder()
	sched := scheduler.New(rt)
	m := New(rec, sched)

	sched.Schedule(scheduler.Key{Surface: surface.Act3Map, Kind: scheduler.KindReveal}, time.Second, func() {
		m.Show(surface.Act3Map, heat("lisbon"))
	})
	m.Clear(surface.Act3Map)
	rt.Advance(2 * time.Second)
	if layers := rec.Map(surface.Act3Map).Layers; len(layers) != 1 {
		t.Fatalf("layers = %+v, want the revealed heatmap", layers)
	}
}
