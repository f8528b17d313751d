package timelapse

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/louisbranch/rentpressure/internal/services/story/dataset"
	"github.com/louisbranch/rentpressure/internal/services/story/domain"
)

func point(id string, first, last int) domain.ListingPoint {
	return domain.ListingPoint{
		ID:        id,
		Position:  domain.LatLng{Lat: 52.37, Lng: 4.89},
		FirstYear: &first,
		LastYear:  &last,
	}
}

func expected(points []domain.ListingPoint, year int) []string {
	var out []string
	for _, p := range points {
		if p.ActiveIn(year) {
			out = append(out, p.ID)
		}
	}
	sort.Strings(out)
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func randomPoints(r *rand.Rand, n int) []domain.ListingPoint {
	points := make([]domain.ListingPoint, n)
	for i := range points {
		first := dataset.YearFloor + r.Intn(11)
		last := first + r.Intn(dataset.YearCeiling-first+1)
		points[i] = point(fmt.Sprintf("p%03d", i), first, last)
	}
	return points
}

func TestSetYearPaths(t *testing.T) {
	points := []domain.ListingPoint{
		point("a", 2015, 2016),
		point("b", 2016, 2020),
		point("c", 2018, 2018),
	}
	e := NewEngine(dataset.NewTimelineIndex(points))
	if _, ok := e.CurrentYear(); ok {
		t.Fatal("fresh engine must have no year")
	}

	tr := e.SetYear(2016)
	if tr.Path != PathFull || !tr.Cleared || len(tr.Added) != 2 {
		t.Fatalf("first SetYear = %+v, want full rebuild of a,b", tr)
	}

	tr = e.SetYear(2016)
	if tr.Path != PathNone || len(tr.Added)+len(tr.Removed) != 0 {
		t.Fatalf("same year = %+v, want no-op", tr)
	}

	tr = e.SetYear(2018)
	if tr.Path != PathIncremental || tr.Cleared {
		t.Fatalf("forward = %+v, want incremental", tr)
	}
	if len(tr.Added) != 1 || tr.Added[0].ID != "c" || len(tr.Removed) != 1 || tr.Removed[0] != "a" {
		t.Fatalf("forward diff = +%v -%v, want +c -a", tr.Added, tr.Removed)
	}

	tr = e.SetYear(2017)
	if tr.Path != PathFull {
		t.Fatalf("backward = %+v, want full rebuild", tr.Path)
	}
	if got := e.RenderedIDs(); !equalIDs(got, []string{"b"}) {
		t.Fatalf("rendered = %v, want [b]", got)
	}
	if year, ok := e.CurrentYear(); !ok || year != 2017 {
		t.Fatalf("current = %d, %v", year, ok)
	}
}

func TestResetForcesFullRebuild(t *testing.T) {
	e := NewEngine(dataset.NewTimelineIndex([]domain.ListingPoint{point("a", 2015, 2025)}))
	e.SetYear(2015)
	e.Reset()
	if e.Len() != 0 {
		t.Fatalf("len after reset = %d", e.Len())
	}
	if tr := e.SetYear(2016); tr.Path != PathFull {
		t.Fatalf("path = %s, want full", tr.Path)
	}
}

func TestRenderedSetMatchesActiveYearsOnAnyPath(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for trial := 0; trial < 20; trial++ {
		points := randomPoints(r, 60)
		e := NewEngine(dataset.NewTimelineIndex(points))
		for step := 0; step < 40; step++ {
			year := dataset.YearFloor + r.Intn(11)
			e.SetYear(year)
			if got, want := e.RenderedIDs(), expected(points, year); !equalIDs(got, want) {
				t.Fatalf("trial %d step %d year %d: rendered %v, want %v", trial, step, year, got, want)
			}
		}
	}
}

func TestIncrementalMatchesFullRebuild(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	points := randomPoints(r, 200)
	index := dataset.NewTimelineIndex(points)

	walker := NewEngine(index)
	for year := index.MinYear; year <= index.MaxYear; year++ {
		tr := walker.SetYear(year)
		if year > index.MinYear && tr.Path != PathIncremental {
			t.Fatalf("year %d path = %s, want incremental", year, tr.Path)
		}
		direct := NewEngine(index)
		if tr := direct.SetYear(year); tr.Path != PathFull {
			t.Fatalf("direct path = %s, want full", tr.Path)
		}
		if !equalIDs(walker.RenderedIDs(), direct.RenderedIDs()) {
			t.Fatalf("year %d: incremental %v != full %v", year, walker.RenderedIDs(), direct.RenderedIDs())
		}
	}
}

func TestTransitionsReplayToRenderedSet(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	points := randomPoints(r, 80)
	e := NewEngine(dataset.NewTimelineIndex(points))
	shown := map[string]bool{}
	for step := 0; step < 60; step++ {
		tr := e.SetYear(dataset.YearFloor + r.Intn(11))
		if tr.Cleared {
			shown = map[string]bool{}
		}
		for _, p := range tr.Added {
			if shown[p.ID] {
				t.Fatalf("step %d: %s added twice", step, p.ID)
			}
			shown[p.ID] = true
		}
		for _, id := range tr.Removed {
			if !shown[id] {
				t.Fatalf("step %d: %s removed while not shown", step, id)
			}
			delete(shown, id)
		}
		if len(shown) != e.Len() {
			t.Fatalf("step %d: replayed %d points, engine has %d", step, len(shown), e.Len())
		}
	}
}
