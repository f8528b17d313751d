// Package camera issues viewport transitions on map surfaces.
package camera

import (
	"time"

	"github.com/louisbranch/rentpressure/internal/services/story/domain"
	"github.com/louisbranch/rentpressure/internal/services/story/surface"
)

// DefaultMargin absorbs jitter in animation completion.
const DefaultMargin = 100 * time.Millisecond

// Controller owns the viewport of every map surface. Flights are
// fire-and-forget; a new flight supersedes one in progress on the renderer.
type Controller struct {
	sink   surface.Sink
	margin time.Duration
}

// New returns a controller emitting to sink.
func New(sink surface.Sink, margin time.Duration) *Controller {
	if margin < 0 {
		margin = 0
	}
	return &Controller{sink: sink, margin: margin}
}

// FlyTo starts an animated flight and returns the delay after which work
// depending on the settled camera may be scheduled.
func (c *Controller) FlyTo(key surface.Key, center domain.LatLng, zoom float64, duration time.Duration) time.Duration {
	c.sink.Emit(surface.Command{
		Surface:    key,
		Op:         surface.OpFlyTo,
		Center:     &center,
		Zoom:       zoom,
		DurationMS: duration.Milliseconds(),
	})
	return duration + c.margin
}

// SetView jumps without animation.
func (c *Controller) SetView(key surface.Key, center domain.LatLng, zoom float64) {
	c.sink.Emit(surface.Command{
		Surface: key,
		Op:      surface.OpSetView,
		Center:  &center,
		Zoom:    zoom,
	})
}
