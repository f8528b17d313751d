package classify

import "testing"

func TestStep(t *testing.T) {
	tests := []struct {
		step string
		want Result
	}{
		{"intro", Result{RegionMap, 1}},
		{"city-3", Result{RegionMap, 1}},
		{"transition", Result{RegionMap, 1}},
		{"affordability-intro", Result{RegionChart, 2}},
		{"private-room-top", Result{RegionChart, 2}},
		{"entire-home-outlier", Result{RegionChart, 2}},
		{"concentration-intro", Result{RegionDeepDive, 3}},
		{"barcelona-intro", Result{RegionDeepDive, 3}},
		{"amsterdam-canals", Result{RegionDeepDive, 3}},
		{"impact-extremes", Result{RegionImpact, 4}},
		{"pressure-high", Result{RegionGauge, 4}},
		{"timeline", Result{RegionTimeline, 5}},
		{"response-regulation", Result{RegionResponse, 6}},
		{"city-6", Result{}},
		{"", Result{}},
		{"unknown-step", Result{}},
	}
	for _, tt := range tests {
		t.Run(tt.step, func(t *testing.T) {
			got := Step(tt.step)
			if got != tt.want {
				t.Fatalf("Step(%q) = %+v, want %+v", tt.step, got, tt.want)
			}
			if again := Step(tt.step); again != got {
				t.Fatalf("Step(%q) not stable: %+v then %+v", tt.step, got, again)
			}
			if got.Known() != (tt.want.Region != RegionNone) {
				t.Fatalf("Known mismatch for %q", tt.step)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		step string
		act  int
		want string
	}{
		{name: "explicit", step: "city-1", act: 1, want: "city-1"},
		{name: "explicit wins over act", step: "impact-all", act: 5, want: "impact-all"},
		{name: "act five fallback", step: "", act: 5, want: "timeline"},
		{name: "act name", step: "act5", want: "timeline"},
		{name: "no fallback", step: " ", act: 2, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.step, tt.act); got != tt.want {
				t.Fatalf("Resolve(%q, %d) = %q, want %q", tt.step, tt.act, got, tt.want)
			}
		})
	}
}
