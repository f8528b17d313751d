package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rentpressure"

// Metrics holds the story service collectors.
type Metrics struct {
	gatherer prometheus.Gatherer

	steps            *prometheus.CounterVec
	effectsScheduled *prometheus.CounterVec
	effectsCancelled *prometheus.CounterVec
	effectsFired     *prometheus.CounterVec
	rebuilds         *prometheus.CounterVec
	datasetLoads     *prometheus.CounterVec
	sessions         prometheus.Gauge
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New registers the collectors with a fresh registry that also carries the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors with reg and serves gatherer.
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: gatherer,
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "story_steps_total",
			Help:      "Accepted step changes by region.",
		}, []string{"region"}),
		effectsScheduled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "story_effects_scheduled_total",
			Help:      "Transition effects scheduled by kind.",
		}, []string{"kind"}),
		effectsCancelled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "story_effects_cancelled_total",
			Help:      "Transition effects cancelled before firing by kind.",
		}, []string{"kind"}),
		effectsFired: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "story_effects_fired_total",
			Help:      "Transition effects that fired by kind.",
		}, []string{"kind"}),
		rebuilds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timelapse_transitions_total",
			Help:      "Time-lapse year transitions by path (full, incremental, noop).",
		}, []string{"path"}),
		datasetLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      "Dataset cache loads by dataset kind and result.",
		}, []string{"dataset", "result"}),
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "story_sessions_active",
			Help:      "Open story WebSocket sessions.",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// StepAccepted counts an accepted step change.
func (m *Metrics) StepAccepted(region string) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(region).Inc()
}

// EffectScheduled counts a scheduled transition effect.
func (m *Metrics) EffectScheduled(kind string) {
	if m == nil {
		return
	}
	m.effectsScheduled.WithLabelValues(kind).Inc()
}

// EffectCancelled counts a superseded or cleared transition effect.
func (m *Metrics) EffectCancelled(kind string) {
	if m == nil {
		return
	}
	m.effectsCancelled.WithLabelValues(kind).Inc()
}

// EffectFired counts a transition effect that ran.
func (m *Metrics) EffectFired(kind string) {
	if m == nil {
		return
	}
	m.effectsFired.WithLabelValues(kind).Inc()
}

// TimelapseTransition counts a time-lapse setYear by path.
func (m *Metrics) TimelapseTransition(path string) {
	if m == nil {
		return
	}
	m.rebuilds.WithLabelValues(path).Inc()
}

// DatasetLoad counts a dataset cache miss and its outcome.
func (m *Metrics) DatasetLoad(dataset string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.datasetLoads.WithLabelValues(dataset, result).Inc()
}

// SessionOpened increments the active session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessions.Inc()
}

// SessionClosed decrements the active session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessions.Dec()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler records request count and latency for route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)
		m.httpRequests.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
