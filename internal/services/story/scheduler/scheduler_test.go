package scheduler

import (
	"testing"
	"time"

	"github.com/louisbranch/rentpressure/internal/platform/eventloop"
	"github.com/louisbranch/rentpressure/internal/services/story/surface"
)

var (
	start  = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	reveal = Key{Surface: surface.Act1Map, Kind: KindReveal}
)

func TestScheduleFiresAfterDelay(t *testing.T) {
	rt := eventloop.NewManual(start)
	s := New(rt)
	fired := 0
	s.Schedule(reveal, 2500*time.Millisecond, func() { fired++ })

	rt.Advance(2499 * time.Millisecond)
	if fired != 0 {
		t.Fatal("fired early")
	}
	rt.Advance(time.Millisecond)
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
	if _, ok := s.Pending(reveal); ok {
		t.Fatal("slot must be empty after firing")
	}
}

func TestScheduleSupersedesPendingEffect(t *testing.T) {
	rt := eventloop.NewManual(start)
	s := New(rt)
	var got []string
	first := s.Schedule(reveal, time.Second, func() { got = append(got, "a") })
	rt.Advance(500 * time.Millisecond)
	second := s.Schedule(reveal, time.Second, func() { got = append(got, "b") })
	if first == second {
		t.Fatal("tokens must be unique")
	}
	if s.Len() != 1 {
		t.Fatalf("pending = %d, want 1", s.Len())
	}

	rt.Advance(5 * time.Second)
	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("fired = %v, want only b", got)
	}
}

func TestCancel(t *testing.T) {
	rt := eventloop.NewManual(start)
	s := New(rt)
	fired := false
	s.Schedule(reveal, time.Second, func() { fired = true })

	if !s.Cancel(reveal) {
		t.Fatal("expected pending effect to be cancelled")
	}
	if s.Cancel(reveal) {
		t.Fatal("second cancel must be a no-op")
	}
	rt.Advance(time.Hour)
	if fired {
		t.Fatal("cancelled effect fired")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	rt := eventloop.NewManual(start)
	s := New(rt)
	var got []Kind
	s.Schedule(reveal, time.Second, func() { got = append(got, KindReveal) })
	s.Schedule(Key{Surface: surface.Act1Map, Kind: KindGrow}, time.Second, func() { got = append(got, KindGrow) })
	s.Schedule(Key{Surface: surface.Act3Map, Kind: KindReveal}, time.Second, func() { got = append(got, "other") })

	if n := s.CancelSurface(surface.Act1Map); n != 2 {
		t.Fatalf("cancelled = %d, want 2", n)
	}
	rt.Advance(2 * time.Second)
	if len(got) != 1 || got[0] != "other" {
		t.Fatalf("fired = %v, want only the act3 effect", got)
	}
}

func TestEffectMayRescheduleItsOwnSlot(t *testing.T) {
	rt := eventloop.NewManual(start)
	s := New(rt)
	key := Key{Surface: surface.Act5Map, Kind: KindPlayback}
	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		if ticks < 3 {
			s.Schedule(key, 500*time.Millisecond, tick)
		}
	}
	s.Schedule(key, 500*time.Millisecond, tick)

	rt.Advance(10 * time.Second)
	if ticks != 3 {
		t.Fatalf("ticks = %d, want 3", ticks)
	}
}

type staleTimer struct{}

func (staleTimer) Stop() bool { return false }

// lateRuntime hands out timers whose Stop always loses the race, so the
// callbacks run anyway.
type lateRuntime struct {
	fns []func()
}

func (r *lateRuntime) Now() time.Time { return start }
func (r *lateRuntime) AfterFunc(_ time.Duration, fn func()) eventloop.Timer {
	r.fns = append(r.fns, fn)
	return staleTimer{}
}
func (r *lateRuntime) Go(work func(), done func()) { work(); done() }

func TestSupersededEffectNeverRunsEvenIfTimerFires(t *testing.T) {
	rt := &lateRuntime{}
	s := New(rt)
	var got []string
	s.Schedule(reveal, time.Second, func() { got = append(got, "a") })
	s.Schedule(reveal, time.Second, func() { got = append(got, "b") })
	for _, fn := range rt.fns {
		fn()
	}
	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("fired = %v, want only b", got)
	}
}

func TestCancelAll(t *testing.T) {
	rt := eventloop.NewManual(start)
	s := New(rt)
	s.Schedule(reveal, time.Second, func() { t.Fatal("fired after CancelAll") })
	s.Schedule(Key{Surface: surface.DensityChart, Kind: KindGrow}, time.Second, func() { t.Fatal("fired after CancelAll") })
	s.CancelAll()
	if s.Len() != 0 {
		t.Fatalf("pending = %d", s.Len())
	}
	rt.Advance(time.Minute)
}
