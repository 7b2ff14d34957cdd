// Package metrics holds the client's Prometheus collectors. Each Metrics
// value owns its registry so tests and multiple sessions in one process do
// not collide on the default registerer.
package metrics

import (
	"fmt"
	"io"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "voxkeeper"

// Breaker states as exported by the breaker_state gauge.
const (
	BreakerClosed   = 0
	BreakerHalfOpen = 1
	BreakerOpen     = 2
)

type Metrics struct {
	registry *prometheus.Registry

	// ProfileSync counts synchronizer outcomes by result and reason.
	ProfileSync *prometheus.CounterVec

	// AuthorizerDecisions counts pre-flight checks by verdict.
	AuthorizerDecisions *prometheus.CounterVec

	// StaleResults counts hydrate/refresh results dropped because the
	// session changed while they were in flight.
	StaleResults prometheus.Counter

	// BreakerState is the profile fetch breaker state (0=closed, 1=half-open, 2=open).
	BreakerState prometheus.Gauge

	// FetchDuration observes remote profile fetch latency in seconds.
	FetchDuration prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ProfileSync: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "profile_sync_total",
				Help:      "Profile synchronization outcomes by result and reason",
			},
			[]string{"result", "reason"},
		),
		AuthorizerDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "authorizer_decisions_total",
				Help:      "Pre-flight credit checks by verdict",
			},
			[]string{"verdict"},
		),
		StaleResults: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_stale_results_total",
				Help:      "Profile results discarded because the session epoch moved on",
			},
		),
		BreakerState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "profile_breaker_state",
				Help:      "Profile fetch circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
		),
		FetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "profile_fetch_duration_seconds",
				Help:      "Remote profile fetch duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
	}

	m.registry.MustRegister(
		m.ProfileSync,
		m.AuthorizerDecisions,
		m.StaleResults,
		m.BreakerState,
		m.FetchDuration,
	)
	return m
}

// Registry exposes the private registry, e.g. for promhttp.HandlerFor.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// The observe helpers accept a nil receiver so components can run without metrics.

func (m *Metrics) ObserveSync(result, reason string) {
	if m == nil {
		return
	}
	m.ProfileSync.WithLabelValues(result, reason).Inc()
}

func (m *Metrics) ObserveDecision(verdict string) {
	if m == nil {
		return
	}
	m.AuthorizerDecisions.WithLabelValues(verdict).Inc()
}

func (m *Metrics) ObserveStale() {
	if m == nil {
		return
	}
	m.StaleResults.Inc()
}

func (m *Metrics) SetBreakerState(state float64) {
	if m == nil {
		return
	}
	m.BreakerState.Set(state)
}

func (m *Metrics) ObserveFetch(seconds float64) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(seconds)
}

// WriteText dumps every family in the Prometheus text exposition format,
// sorted by name.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
