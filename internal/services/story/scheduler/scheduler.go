// Package scheduler owns the cancellable, time-delayed effects of a story
// session. At most one effect is outstanding per (surface, kind) pair;
// scheduling a new one supersedes the old, which then never fires.
package scheduler

import (
	"time"

	"github.com/google/uuid"

	"github.com/louisbranch/rentpressure/internal/platform/eventloop"
	"github.com/louisbranch/rentpressure/internal/platform/telemetry/metrics"
	"github.com/louisbranch/rentpressure/internal/services/story/surface"
)

// Kind distinguishes independent effects targeting the same surface.
type Kind string

const (
	// KindReveal shows a layer once the camera has settled.
	KindReveal Kind = "reveal"
	// KindGrow starts a chart's entrance animation.
	KindGrow Kind = "grow"
	// KindFade re-renders a chart once its fade-out completes.
	KindFade Kind = "fade"
	// KindPlayback advances the time-lapse.
	KindPlayback Kind = "playback"
	// KindDebounce applies the last slider input.
	KindDebounce Kind = "debounce"
)

// Key identifies one pending-effect slot.
type Key struct {
	Surface surface.Key
	Kind    Kind
}

// Token identifies one scheduled effect.
type Token string

type entry struct {
	token Token
	timer eventloop.Timer
}

// Scheduler is not safe for concurrent use; call it from the session loop.
type Scheduler struct {
	rt      eventloop.Runtime
	metrics *metrics.Metrics
	pending map[Key]*entry
	newID   func() string
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMetrics counts scheduled, cancelled and fired effects.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// New returns a scheduler on rt.
func New(rt eventloop.Runtime, opts ...Option) *Scheduler {
	s := &Scheduler{
		rt:      rt,
		pending: map[Key]*entry{},
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule registers effect to run after delay, cancelling any effect still
// pending for key.
func (s *Scheduler) Schedule(key Key, delay time.Duration, effect func()) Token {
	s.Cancel(key)

	e := &entry{token: Token(s.newID())}
	s.pending[key] = e
	s.metrics.EffectScheduled(string(key.Kind))
	e.timer = s.rt.AfterFunc(delay, func() {
		// A timer that lost the race with Stop must not run a superseded
		// effect.
		current, ok := s.pending[key]
		if !ok || current.token != e.token {
			return
		}
		delete(s.pending, key)
		s.metrics.EffectFired(string(key.Kind))
		if effect != nil {
			effect()
		}
	})
	return e.token
}

// Cancel drops the effect pending for key. It reports whether one was
// pending; cancelling an empty slot is a no-op.
func (s *Scheduler) Cancel(key Key) bool {
	e, ok := s.pending[key]
	if !ok {
		return false
	}
	delete(s.pending, key)
	e.timer.Stop()
	s.metrics.EffectCancelled(string(key.Kind))
	return true
}

// CancelSurface drops every effect pending for surface and returns how many
// were dropped.
func (s *Scheduler) CancelSurface(key surface.Key) int {
	n := 0
	for k := range s.pending {
		if k.Surface == key && s.Cancel(k) {
			n++
		}
	}
	return n
}

// CancelAll drops every pending effect.
func (s *Scheduler) CancelAll() {
	for k := range s.pending {
		s.Cancel(k)
	}
}

// Pending returns the token scheduled for key, if any.
func (s *Scheduler) Pending(key Key) (Token, bool) {
	e, ok := s.pending[key]
	if !ok {
		return "", false
	}
	return e.token, true
}

// Len returns the number of pending effects.
func (s *Scheduler) Len() int {
	return len(s.pending)
}
