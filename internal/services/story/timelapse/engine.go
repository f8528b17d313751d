// Package timelapse renders a city's listings year by year. The Engine
// computes the point additions and removals between displayed years; the
// Player drives it from the city selector, the year slider and playback.
package timelapse

import (
	"sort"

	"github.com/louisbranch/rentpressure/internal/services/story/dataset"
	"github.com/louisbranch/rentpressure/internal/services/story/domain"
)

// Path is how a transition was computed.
type Path string

const (
	PathNone        Path = "none"
	PathFull        Path = "full"
	PathIncremental Path = "incremental"
)

// Transition is the change needed to display Year. When Cleared is set the
// renderer drops every point before applying Added.
type Transition struct {
	Year    int
	Path    Path
	Cleared bool
	Added   []domain.ListingPoint
	Removed []string
}

// Engine holds one city's displayed state. After SetYear(y) the rendered
// set is exactly the points active in y, whichever path produced it.
type Engine struct {
	index    *dataset.TimelineIndex
	current  int
	hasYear  bool
	rendered map[string]struct{}
}

// NewEngine returns an engine with nothing rendered.
func NewEngine(index *dataset.TimelineIndex) *Engine {
	return &Engine{index: index, rendered: map[string]struct{}{}}
}

// Index returns the city's timeline index.
func (e *Engine) Index() *dataset.TimelineIndex {
	return e.index
}

// CurrentYear returns the displayed year; ok is false before the first
// SetYear and after Reset.
func (e *Engine) CurrentYear() (year int, ok bool) {
	return e.current, e.hasYear
}

// Len returns the number of rendered points.
func (e *Engine) Len() int {
	return len(e.rendered)
}

// RenderedIDs returns the rendered point ids in sorted order.
func (e *Engine) RenderedIDs() []string {
	out := make([]string, 0, len(e.rendered))
	for id := range e.rendered {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Reset forgets the displayed year so the next SetYear rebuilds fully.
func (e *Engine) Reset() {
	e.hasYear = false
	e.current = 0
	e.rendered = map[string]struct{}{}
}

// SetYear moves the display to year. Moving forward walks each intermediate
// year adding entering points and removing points that left the year
// before; moving backward or starting fresh rebuilds from scratch, since
// removals cannot be undone without a rescan.
func (e *Engine) SetYear(year int) Transition {
	switch {
	case !e.hasYear || year < e.current:
		return e.rebuild(year)
	case year == e.current:
		return Transition{Year: year, Path: PathNone}
	}

	t := Transition{Year: year, Path: PathIncremental}
	for k := e.current + 1; k <= year; k++ {
		for _, p := range e.index.ByFirst[k] {
			if _, ok := e.rendered[p.ID]; ok {
				continue
			}
			e.rendered[p.ID] = struct{}{}
			t.Added = append(t.Added, p)
		}
		for _, p := range e.index.ByLast[k-1] {
			if _, ok := e.rendered[p.ID]; !ok {
				continue
			}
			delete(e.rendered, p.ID)
			t.Removed = append(t.Removed, p.ID)
		}
	}
	e.current = year
	return t
}

func (e *Engine) rebuild(year int) Transition {
	e.rendered = map[string]struct{}{}
	t := Transition{Year: year, Path: PathFull, Cleared: true}
	for _, p := range e.index.Active(year) {
		if _, ok := e.rendered[p.ID]; ok {
			continue
		}
		e.rendered[p.ID] = struct{}{}
		t.Added = append(t.Added, p)
	}
	e.current = year
	e.hasYear = true
	return t
}
