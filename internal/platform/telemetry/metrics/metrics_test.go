package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.StepAccepted("act1")
	m.EffectScheduled("reveal")
	m.EffectCancelled("reveal")
	m.EffectFired("reveal")
	m.TimelapseTransition("full")
	m.DatasetLoad("stats", nil)
	m.SessionOpened()
	m.SessionClosed()
	if h := m.WrapHandler("/", http.NotFoundHandler()); h == nil {
		t.Fatal("expected passthrough handler")
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg, reg)
	m.StepAccepted("act1")
	m.StepAccepted("act1")
	m.EffectCancelled("reveal")
	m.DatasetLoad("stats", errors.New("boom"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	text := rec.Body.String()

	for _, want := range []string{
		`rentpressure_story_steps_total{region="act1"} 2`,
		`rentpressure_story_effects_cancelled_total{kind="reveal"} 1`,
		`rentpressure_dataset_loads_total{dataset="stats",result="error"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, text)
		}
	}
}

func TestWrapHandlerRecordsStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg, reg)
	h := m.WrapHandler("/data/cities.json", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/data/cities.json", nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `rentpressure_http_requests_total{route="/data/cities.json",status="503"} 1`) {
		t.Fatalf("expected request counter, got:\n%s", rec.Body.String())
	}
}
