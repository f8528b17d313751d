package camera

import (
	"testing"
	"time"

	"github.com/louisbranch/rentpressure/internal/services/story/domain"
	"github.com/louisbranch/rentpressure/internal/services/story/surface"
)

func TestFlyToReturnsSettleDelay(t *testing.T) {
	rec := surface.NewRecorder()
	c := New(rec, DefaultMargin)
	paris := domain.LatLng{Lat: 48.8566, Lng: 2.3522}

	settle := c.FlyTo(surface.Act1Map, paris, 11, 2400*time.Millisecond)
	if settle != 2500*time.Millisecond {
		t.Fatalf("settle = %v, want 2.5s", settle)
	}
	view := rec.Map(surface.Act1Map)
	if view.Center != paris || view.Zoom != 11 || view.Flights != 1 {
		t.Fatalf("view = %+v", view)
	}
	cmds := rec.Commands()
	if cmds[0].DurationMS != 2400 {
		t.Fatalf("duration = %d, want 2400", cmds[0].DurationMS)
	}
}

func TestSetViewDoesNotAnimate(t *testing.T) {
	rec := surface.NewRecorder()
	c := New(rec, -time.Second)
	if got := c.FlyTo(surface.Act3Map, domain.LatLng{Lat: 1, Lng: 1}, 4, time.Second); got != time.Second {
		t.Fatalf("negative margin must clamp to zero, got %v", got)
	}
	c.SetView(surface.Act5Map, domain.LatLng{Lat: 52.37, Lng: 4.89}, 12)
	view := rec.Map(surface.Act5Map)
	if view.Flights != 0 || view.Views != 1 || view.Zoom != 12 {
		t.Fatalf("view = %+v", view)
	}
}
