package eventloop

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLoopRunsPostedWorkInOrder(t *testing.T) {
	loop := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		loop.Post(func() { got = append(got, i) })
	}
	if err := loop.Call(ctx, func() {}); err != nil {
		t.Fatalf("call: %v", err)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("order = %v", got)
		}
	}
	if len(got) != 5 {
		t.Fatalf("ran %d callbacks, want 5", len(got))
	}
}

func TestLoopStoppedTimerNeverRuns(t *testing.T) {
	loop := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	var mu sync.Mutex
	fired := false
	var timer Timer
	if err := loop.Call(ctx, func() {
		timer = loop.AfterFunc(10*time.Millisecond, func() {
			mu.Lock()
			fired = true
			mu.Unlock()
		})
	}); err != nil {
		t.Fatalf("call: %v", err)
	}
	if err := loop.Call(ctx, func() {
		if !timer.Stop() {
			t.Errorf("expected pending timer")
		}
	}); err != nil {
		t.Fatalf("call: %v", err)
	}
	time.Sleep(40 * time.Millisecond)
	_ = loop.Call(ctx, func() {})

	mu.Lock()
	defer mu.Unlock()
	if fired {
		t.Fatal("stopped timer fired")
	}
}

func TestLoopGoPostsDoneToLoop(t *testing.T) {
	loop := New()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	result := make(chan int, 1)
	loop.Go(func() {}, func() { result <- 42 })
	select {
	case v := <-result:
		if v != 42 {
			t.Fatalf("result = %d", v)
		}
	case <-ctx.Done():
		t.Fatal("done callback never ran")
	}
}

func TestLoopClosedRejectsWork(t *testing.T) {
	loop := New()
	loop.Close()
	if loop.Post(func() {}) {
		t.Fatal("expected post to fail after close")
	}
	if err := loop.Call(context.Background(), func() {}); err != ErrClosed {
		t.Fatalf("call err = %v, want ErrClosed", err)
	}
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("run after close: %v", err)
	}
}

func TestManualFiresInDeadlineOrder(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var got []string
	m.AfterFunc(300*time.Millisecond, func() { got = append(got, "c") })
	m.AfterFunc(100*time.Millisecond, func() { got = append(got, "a") })
	m.AfterFunc(100*time.Millisecond, func() { got = append(got, "b") })

	m.Advance(200 * time.Millisecond)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("after 200ms got %v", got)
	}
	m.Advance(100 * time.Millisecond)
	if len(got) != 3 || got[2] != "c" {
		t.Fatalf("after 300ms got %v", got)
	}
	if m.Pending() != 0 {
		t.Fatalf("pending = %d", m.Pending())
	}
}

func TestManualChainsTimersArmedDuringAdvance(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		m.AfterFunc(500*time.Millisecond, tick)
	}
	m.AfterFunc(500*time.Millisecond, tick)
	m.Advance(2 * time.Second)
	if ticks != 4 {
		t.Fatalf("ticks = %d, want 4", ticks)
	}
	if got := m.Now().Sub(time.Unix(0, 0)); got != 2*time.Second {
		t.Fatalf("clock advanced %s", got)
	}
}

func TestManualStop(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	fired := false
	timer := m.AfterFunc(time.Second, func() { fired = true })
	if !timer.Stop() {
		t.Fatal("expected pending timer")
	}
	if timer.Stop() {
		t.Fatal("second stop must report false")
	}
	m.Advance(2 * time.Second)
	if fired {
		t.Fatal("stopped timer fired")
	}
}

func TestManualHoldDefersGo(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	m.Hold()
	var order []string
	m.Go(func() { order = append(order, "work1") }, func() { order = append(order, "done1") })
	m.Go(nil, func() { order = append(order, "done2") })
	if len(order) != 0 {
		t.Fatalf("held jobs ran early: %v", order)
	}
	m.Release()
	want := []string{"work1", "done1", "done2"}
	if len(order) != len(want) {
		t.Fatalf("order = %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}
