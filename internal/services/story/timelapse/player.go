package timelapse

import (
	"context"
	"log"
	"strconv"

	"golang.org/x/text/message"

	apperrors "github.com/louisbranch/rentpressure/internal/platform/errors"
	"github.com/louisbranch/rentpressure/internal/platform/eventloop"
	i18n "github.com/louisbranch/rentpressure/internal/platform/i18n/catalog"
	"github.com/louisbranch/rentpressure/internal/platform/telemetry/metrics"
	"github.com/louisbranch/rentpressure/internal/services/story/camera"
	"github.com/louisbranch/rentpressure/internal/services/story/catalog"
	"github.com/louisbranch/rentpressure/internal/services/story/dataset"
	"github.com/louisbranch/rentpressure/internal/services/story/layer"
	"github.com/louisbranch/rentpressure/internal/services/story/scheduler"
	"github.com/louisbranch/rentpressure/internal/services/story/surface"
)

// PanelName is the overlay panel the player writes its title, year and
// active count to.
const PanelName = "timeline"

const layerID = "timelapse"

var (
	playbackKey = scheduler.Key{Surface: surface.Act5Map, Kind: scheduler.KindPlayback}
	debounceKey = scheduler.Key{Surface: surface.Act5Map, Kind: scheduler.KindDebounce}
)

// Loader returns a city's indexed time-lapse points.
type Loader interface {
	Timeline(ctx context.Context, cityID string) (*dataset.TimelineIndex, error)
}

// Config wires a Player.
type Config struct {
	Runtime   eventloop.Runtime
	Scheduler *scheduler.Scheduler
	Sink      surface.Sink
	Layers    *layer.Manager
	Camera    *camera.Controller
	Loader    Loader
	Catalog   *catalog.Catalog
	Printer   *message.Printer
	Metrics   *metrics.Metrics
	Logf      func(string, ...any)
}

// Player owns the time-lapse map. Call it only from the session loop.
type Player struct {
	cfg Config

	city       catalog.TimelapseCity
	engine     *Engine
	year       int
	playing    bool
	loadSeq    uint64
	loadFailed bool
}

// NewPlayer returns an idle player; call SwitchCity to load a city.
func NewPlayer(cfg Config) *Player {
	if cfg.Printer == nil {
		cfg.Printer = i18n.Default().Printer(i18n.BaseLocale)
	}
	if cfg.Logf == nil {
		cfg.Logf = log.Printf
	}
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.Default()
	}
	return &Player{cfg: cfg, year: dataset.DefaultYear}
}

// City returns the selected city id.
func (p *Player) City() string {
	return p.city.ID
}

// Year returns the slider year.
func (p *Player) Year() int {
	return p.year
}

// Playing reports whether playback is running.
func (p *Player) Playing() bool {
	return p.playing
}

// Engine returns the selected city's engine, or nil while it loads.
func (p *Player) Engine() *Engine {
	return p.engine
}

// SwitchCity stops playback, clears the map and loads cityID. The slider
// keeps its year when the new city's range allows it. A load that completes
// after a later switch is discarded.
func (p *Player) SwitchCity(ctx context.Context, cityID string) error {
	city, ok := p.cfg.Catalog.Timelapse(cityID)
	if !ok {
		return apperrors.WithMetadata(apperrors.CodeUnknownCity, "unknown time-lapse city", map[string]string{"city": cityID})
	}

	p.Stop()
	p.cfg.Scheduler.Cancel(debounceKey)
	p.city = city
	p.engine = nil
	p.loadFailed = false
	p.cfg.Layers.Show(surface.Act5Map, surface.Layer{ID: layerID, Kind: surface.LayerTimelapse})
	p.cfg.Sink.Emit(surface.Command{Surface: surface.Act5Map, Op: surface.OpClearPoints})
	p.cfg.Camera.SetView(surface.Act5Map, city.View.Center, city.View.Zoom)
	p.emitOverlay()

	p.loadSeq++
	seq := p.loadSeq
	var (
		index *dataset.TimelineIndex
		err   error
	)
	p.cfg.Runtime.Go(func() {
		index, err = p.cfg.Loader.Timeline(ctx, city.ID)
	}, func() {
		if seq != p.loadSeq {
			return
		}
		if err != nil {
			p.cfg.Logf("timelapse %s unavailable: %v", city.ID, err)
			p.loadFailed = true
			p.Stop()
			return
		}
		p.engine = NewEngine(index)
		p.year = index.Clamp(p.year)
		p.apply(p.engine.SetYear(p.year))
	})
	return nil
}

// ScrubToYear moves the slider. Rendering waits for the input to settle;
// only the last year within the debounce window is drawn.
func (p *Player) ScrubToYear(year int) {
	if p.engine != nil {
		year = p.engine.Index().Clamp(year)
	}
	p.year = year
	p.cfg.Scheduler.Schedule(debounceKey, p.cfg.Catalog.SliderDebounce, func() {
		p.SetYear(year)
	})
}

// SetYear draws year immediately.
func (p *Player) SetYear(year int) {
	if p.engine == nil {
		p.year = year
		return
	}
	p.year = p.engine.Index().Clamp(year)
	p.apply(p.engine.SetYear(p.year))
}

// TogglePlayback starts playback, or stops it when already running, and
// returns the new state. A city whose timeline failed to load never plays.
func (p *Player) TogglePlayback() bool {
	if p.playing {
		p.Stop()
		return false
	}
	if p.loadFailed {
		return false
	}
	p.playing = true
	p.scheduleTick()
	p.emitOverlay()
	return true
}

// Stop halts playback. Stopping an idle player is a no-op.
func (p *Player) Stop() {
	p.cfg.Scheduler.Cancel(playbackKey)
	if !p.playing {
		return
	}
	p.playing = false
	p.emitOverlay()
}

// Close stops every timer and discards in-flight loads.
func (p *Player) Close() {
	p.Stop()
	p.cfg.Scheduler.Cancel(debounceKey)
	p.loadSeq++
}

func (p *Player) scheduleTick() {
	p.cfg.Scheduler.Schedule(playbackKey, p.cfg.Catalog.PlaybackInterval, p.tick)
}

// tick advances one year, looping from the last year back to the first
// with a full rebuild.
func (p *Player) tick() {
	if !p.playing {
		return
	}
	p.scheduleTick()
	if p.engine == nil {
		return
	}
	index := p.engine.Index()
	if p.year >= index.MaxYear {
		p.year = index.MinYear
		p.engine.Reset()
	} else {
		p.year++
	}
	p.apply(p.engine.SetYear(p.year))
}

func (p *Player) apply(t Transition) {
	p.cfg.Metrics.TimelapseTransition(string(t.Path))
	if t.Cleared {
		p.cfg.Sink.Emit(surface.Command{Surface: surface.Act5Map, Op: surface.OpClearPoints})
	}
	if len(t.Added) > 0 {
		points := make([]surface.Point, len(t.Added))
		for i, lp := range t.Added {
			points[i] = surface.Point{ID: lp.ID, Position: lp.Position, Tooltip: lp.RoomType}
		}
		p.cfg.Sink.Emit(surface.Command{Surface: surface.Act5Map, Op: surface.OpAddPoints, Points: points})
	}
	if len(t.Removed) > 0 {
		p.cfg.Sink.Emit(surface.Command{Surface: surface.Act5Map, Op: surface.OpRemovePoints, IDs: t.Removed})
	}
	p.emitOverlay()
}

func (p *Player) emitOverlay() {
	text := map[string]string{
		"title":   p.cfg.Printer.Sprintf("story.timeline.title", p.city.Name),
		"year":    strconv.Itoa(p.year),
		"playing": strconv.FormatBool(p.playing),
	}
	if p.engine != nil {
		index := p.engine.Index()
		text["count"] = p.cfg.Printer.Sprintf("story.panel.listings", p.engine.Len())
		text["min"] = strconv.Itoa(index.MinYear)
		text["max"] = strconv.Itoa(index.MaxYear)
	}
	p.cfg.Sink.Emit(surface.Command{Surface: surface.Page, Op: surface.OpPanel, Panel: PanelName, Text: text})
}
