// Package router is the story controller. It turns step changes and UI
// control input into surface commands, composing the camera, layer,
// highlight and time-lapse components of one session.
//
// A Router is owned by a single event loop: every method, and every timer
// and load completion it arms, runs on that loop.
package router

import (
	"context"
	"log"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/message"

	apperrors "github.com/louisbranch/rentpressure/internal/platform/errors"
	"github.com/louisbranch/rentpressure/internal/platform/eventloop"
	i18n "github.com/louisbranch/rentpressure/internal/platform/i18n/catalog"
	"github.com/louisbranch/rentpressure/internal/platform/otel"
	"github.com/louisbranch/rentpressure/internal/platform/telemetry/metrics"
	"github.com/louisbranch/rentpressure/internal/services/story/camera"
	"github.com/louisbranch/rentpressure/internal/services/story/catalog"
	"github.com/louisbranch/rentpressure/internal/services/story/classify"
	"github.com/louisbranch/rentpressure/internal/services/story/dataset"
	"github.com/louisbranch/rentpressure/internal/services/story/domain"
	"github.com/louisbranch/rentpressure/internal/services/story/highlight"
	"github.com/louisbranch/rentpressure/internal/services/story/layer"
	"github.com/louisbranch/rentpressure/internal/services/story/scheduler"
	"github.com/louisbranch/rentpressure/internal/services/story/surface"
	"github.com/louisbranch/rentpressure/internal/services/story/timelapse"
)

// Data is the dataset access the story reads. *dataset.Cache implements it.
type Data interface {
	Stats(ctx context.Context) ([]domain.CityRecord, error)
	Points(ctx context.Context, cityID string) (*dataset.CityPoints, error)
	Timeline(ctx context.Context, cityID string) (*dataset.TimelineIndex, error)
	Affordability(ctx context.Context) ([]domain.Affordability, error)
	Density(ctx context.Context) ([]domain.Density, error)
	HousingPressure(ctx context.Context) ([]domain.HousingPressure, error)
}

// Config wires a Router. Runtime, Sink and Data are required.
type Config struct {
	Runtime eventloop.Runtime
	Sink    surface.Sink
	Data    Data
	Catalog *catalog.Catalog
	Metrics *metrics.Metrics
	Tracer  trace.Tracer
	Printer *message.Printer
	Logf    func(string, ...any)
}

// Router holds one session's story state.
type Router struct {
	cfg     Config
	sched   *scheduler.Scheduler
	camera  *camera.Controller
	layers  *layer.Manager
	player  *timelapse.Player
	afford  *highlight.Chart
	density *highlight.Chart

	current  string
	lastAct  int
	awaiting pending
	closed   bool

	cities     map[string]domain.CityRecord
	points     map[string]*dataset.CityPoints
	affordRows []domain.Affordability
	pressure   []domain.HousingPressure
	havePress  bool
	metric     domain.Metric
	viewMode   domain.ViewMode
}

// New builds a router. Call Start to place the initial views and begin
// loading data.
func New(cfg Config) *Router {
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.Default()
	}
	if cfg.Printer == nil {
		cfg.Printer = i18n.Default().Printer(i18n.BaseLocale)
	}
	if cfg.Logf == nil {
		cfg.Logf = log.Printf
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer("rentpressure/story")
	}
	if cfg.Sink == nil {
		cfg.Sink = surface.Discard
	}

	c := cfg.Catalog
	sched := scheduler.New(cfg.Runtime, scheduler.WithMetrics(cfg.Metrics))
	cam := camera.New(cfg.Sink, c.RevealMargin)
	layers := layer.New(cfg.Sink, sched)
	timing := highlight.Timing{Fade: c.HighlightFade, Entrance: c.EntranceLength, Stagger: c.EntranceStagger}

	r := &Router{
		cfg:      cfg,
		sched:    sched,
		camera:   cam,
		layers:   layers,
		afford:   highlight.NewChart(surface.AffordabilityChart, cfg.Sink, timing),
		density:  highlight.NewChart(surface.DensityChart, cfg.Sink, timing),
		cities:   map[string]domain.CityRecord{},
		points:   map[string]*dataset.CityPoints{},
		metric:   domain.MetricPrivateRoom,
		viewMode: domain.ViewDots,
	}
	r.player = timelapse.NewPlayer(timelapse.Config{
		Runtime:   cfg.Runtime,
		Scheduler: sched,
		Sink:      cfg.Sink,
		Layers:    layers,
		Camera:    cam,
		Loader:    cfg.Data,
		Catalog:   c,
		Printer:   cfg.Printer,
		Metrics:   cfg.Metrics,
		Logf:      cfg.Logf,
	})
	return r
}

// Current returns the active step.
func (r *Router) Current() string {
	return r.current
}

// LastAct returns the last act the reader reached, or 0.
func (r *Router) LastAct() int {
	return r.lastAct
}

// Metric returns the affordability metric on display.
func (r *Router) Metric() domain.Metric {
	return r.metric
}

// ViewMode returns the deep-dive view mode.
func (r *Router) ViewMode() domain.ViewMode {
	return r.viewMode
}

// Player returns the time-lapse player.
func (r *Router) Player() *timelapse.Player {
	return r.player
}

// OnStepChange activates step and reports whether it was accepted. The
// active step again and unknown steps are no-ops: neither moves a camera
// nor touches pending effects.
func (r *Router) OnStepChange(ctx context.Context, step string) bool {
	if r.closed || step == r.current {
		return false
	}
	result := classify.Step(step)
	if !result.Known() {
		return false
	}

	_, span := r.cfg.Tracer.Start(ctx, "story.step", trace.WithAttributes(
		attribute.String("story.step", step),
		attribute.String("story.region", string(result.Region)),
	))
	defer span.End()

	r.current = step
	r.awaiting = pending{}
	r.cfg.Metrics.StepAccepted(string(result.Region))
	r.emit(surface.Command{Surface: surface.Page, Op: surface.OpActiveStep, Step: step})
	if result.Act > 0 {
		r.lastAct = result.Act
		r.emit(surface.Command{Surface: surface.Page, Op: surface.OpProgress, Act: result.Act})
	}
	r.dispatch(step, result.Region)
	return true
}

// OnViewportEntry resolves a viewport entry that may carry only its act and
// activates the resulting step.
func (r *Router) OnViewportEntry(ctx context.Context, step string, act int) bool {
	return r.OnStepChange(ctx, classify.Resolve(step, act))
}

func (r *Router) dispatch(step string, region classify.Region) {
	switch region {
	case classify.RegionMap:
		r.showOverviewStep(step)
	case classify.RegionChart:
		r.showAffordabilityStep(step)
	case classify.RegionDeepDive:
		r.showDeepDiveStep(step)
	case classify.RegionImpact:
		r.showDensityStep(step)
	case classify.RegionGauge:
		r.showGaugeStep(step)
	case classify.RegionTimeline, classify.RegionResponse:
		// Progress only; the time-lapse map is driven by its own controls.
	}
}

// pending is a step that could not finish because a dataset had not
// loaded yet.
type pending struct {
	step string
	kind dataset.Kind
}

// wait marks the active step as blocked on kind; replay re-runs it once
// kind arrives, unless the reader has moved on.
func (r *Router) wait(kind dataset.Kind) {
	r.awaiting = pending{step: r.current, kind: kind}
}

func (r *Router) replay(kind dataset.Kind) {
	if r.awaiting.kind != kind || r.awaiting.step == "" || r.awaiting.step != r.current {
		return
	}
	step := r.awaiting.step
	r.awaiting = pending{}
	r.dispatch(step, classify.Step(step).Region)
}

// Resume scrolls the page back to act.
func (r *Router) Resume(act int) error {
	if act < 1 || act > 6 {
		return apperrors.WithMetadata(apperrors.CodeInvalidArgument, "act out of range", map[string]string{"act": strconv.Itoa(act)})
	}
	r.emit(surface.Command{Surface: surface.Page, Op: surface.OpScrollToAct, Act: act})
	return nil
}

// Close stops every timer and ignores loads still in flight.
func (r *Router) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.player.Close()
	r.sched.CancelAll()
}

func (r *Router) emit(cmd surface.Command) {
	r.cfg.Sink.Emit(cmd)
}
