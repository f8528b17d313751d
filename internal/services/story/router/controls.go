package router

import (
	"context"

	apperrors "github.com/louisbranch/rentpressure/internal/platform/errors"
	"github.com/louisbranch/rentpressure/internal/services/story/classify"
	"github.com/louisbranch/rentpressure/internal/services/story/domain"
	"github.com/louisbranch/rentpressure/internal/services/story/surface"
)

// SetMetric switches the affordability chart from its own control.
func (r *Router) SetMetric(metric domain.Metric) error {
	if !metric.Valid() {
		return apperrors.WithMetadata(apperrors.CodeInvalidArgument, "unknown metric", map[string]string{"metric": string(metric)})
	}
	if r.closed {
		return nil
	}
	r.switchMetric(metric)
	return nil
}

// SetViewMode switches the deep-dive map between dots and heatmap. A city
// on screen is redrawn at once; a city still in flight picks the mode up
// when it is revealed.
func (r *Router) SetViewMode(mode domain.ViewMode) error {
	if !mode.Valid() {
		return apperrors.WithMetadata(apperrors.CodeInvalidArgument, "unknown view mode", map[string]string{"mode": string(mode)})
	}
	if r.closed || mode == r.viewMode {
		return nil
	}
	r.viewMode = mode
	if classify.Step(r.current).Region != classify.RegionDeepDive {
		return nil
	}
	if _, pending := r.sched.Pending(deepDiveReveal); pending {
		return nil
	}
	if len(r.layers.Attached(surface.Act3Map)) == 0 {
		return nil
	}
	r.renderDeepDive()
	return nil
}

// SwitchCity selects the time-lapse city.
func (r *Router) SwitchCity(ctx context.Context, cityID string) error {
	if r.closed {
		return nil
	}
	return r.player.SwitchCity(ctx, cityID)
}

// ScrubToYear moves the time-lapse slider.
func (r *Router) ScrubToYear(year int) {
	if r.closed {
		return
	}
	r.player.ScrubToYear(year)
}

// TogglePlayback starts or stops time-lapse playback and returns whether it
// is now playing.
func (r *Router) TogglePlayback() bool {
	if r.closed {
		return false
	}
	return r.player.TogglePlayback()
}
