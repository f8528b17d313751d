package eventloop

import (
	"sort"
	"time"
)

// Manual is a deterministic Runtime. Time only moves through Advance, and
// timer callbacks run on the caller's goroutine in deadline order.
type Manual struct {
	now    time.Time
	seq    int
	timers []*manualTimer

	holding bool
	held    []heldJob
}

type heldJob struct {
	work func()
	done func()
}

// NewManual returns a Manual runtime starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the virtual clock.
func (m *Manual) Now() time.Time {
	return m.now
}

// AfterFunc arms a virtual timer.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTimer{deadline: m.now.Add(d), seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Go runs work and done inline, or queues them while Hold is in effect.
func (m *Manual) Go(work func(), done func()) {
	if m.holding {
		m.held = append(m.held, heldJob{work: work, done: done})
		return
	}
	if work != nil {
		work()
	}
	if done != nil {
		done()
	}
}

// Hold defers Go jobs until Release, to model slow loads.
func (m *Manual) Hold() {
	m.holding = true
}

// Release runs held jobs in submission order and stops holding.
func (m *Manual) Release() {
	m.holding = false
	jobs := m.held
	m.held = nil
	for _, job := range jobs {
		m.Go(job.work, job.done)
	}
}

// Advance moves the clock forward by d, firing every timer whose deadline
// falls inside the window, including timers armed by earlier callbacks.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		next := m.nextDue(target)
		if next == nil {
			break
		}
		if next.deadline.After(m.now) {
			m.now = next.deadline
		}
		next.fired = true
		next.fn()
	}
	m.now = target
}

// Pending returns the number of armed timers.
func (m *Manual) Pending() int {
	m.compact()
	return len(m.timers)
}

func (m *Manual) nextDue(target time.Time) *manualTimer {
	m.compact()
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].deadline.Equal(m.timers[j].deadline) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].deadline.Before(m.timers[j].deadline)
	})
	if len(m.timers) == 0 || m.timers[0].deadline.After(target) {
		return nil
	}
	return m.timers[0]
}

func (m *Manual) compact() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.fired && !t.stopped {
			live = append(live, t)
		}
	}
	m.timers = live
}

type manualTimer struct {
	deadline time.Time
	seq      int
	fn       func()
	fired    bool
	stopped  bool
}

func (t *manualTimer) Stop() bool {
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}
