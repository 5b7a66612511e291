// Package metrics exposes Prometheus collectors for the level engine.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus counters and gauges for level selection and
// health tracking. A nil *Metrics is a no-op so instrumentation stays
// optional.
type Metrics struct {
	registry          *prometheus.Registry
	switchesTotal     prometheus.Counter
	loadRequestsTotal prometheus.Counter
	loadErrorsTotal   prometheus.Counter
	fragErrorsTotal   prometheus.Counter
	levelsRemoved     prometheus.Counter
	currentLevel      prometheus.Gauge
	levelCount        prometheus.Gauge
}

// New creates and registers the engine collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	switchesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "abr_level_switches_total",
		Help: "Total number of level switches",
	})
	loadRequestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "abr_level_load_requests_total",
		Help: "Total number of playlist load requests dispatched",
	})
	loadErrorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "abr_level_load_errors_total",
		Help: "Total number of playlist load errors counted",
	})
	fragErrorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "abr_fragment_errors_total",
		Help: "Total number of fragment errors counted",
	})
	levelsRemoved := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "abr_levels_removed_total",
		Help: "Total number of levels or fallback URLs removed",
	})
	currentLevel := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "abr_current_level",
		Help: "Index of the currently selected level (-1 when none)",
	})
	levelCount := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "abr_level_count",
		Help: "Number of levels in the registry",
	})

	registry.MustRegister(
		switchesTotal,
		loadRequestsTotal,
		loadErrorsTotal,
		fragErrorsTotal,
		levelsRemoved,
		currentLevel,
		levelCount,
	)

	return &Metrics{
		registry:          registry,
		switchesTotal:     switchesTotal,
		loadRequestsTotal: loadRequestsTotal,
		loadErrorsTotal:   loadErrorsTotal,
		fragErrorsTotal:   fragErrorsTotal,
		levelsRemoved:     levelsRemoved,
		currentLevel:      currentLevel,
		levelCount:        levelCount,
	}
}

// Registry returns the underlying registry for handler wiring.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// LevelSwitched records a switch to index.
func (m *Metrics) LevelSwitched(index int) {
	if m == nil {
		return
	}
	m.switchesTotal.Inc()
	m.currentLevel.Set(float64(index))
}

// LoadRequested records a dispatched playlist load.
func (m *Metrics) LoadRequested() {
	if m == nil {
		return
	}
	m.loadRequestsTotal.Inc()
}

// LoadError records a counted playlist load error.
func (m *Metrics) LoadError() {
	if m == nil {
		return
	}
	m.loadErrorsTotal.Inc()
}

// FragmentError records a counted fragment error.
func (m *Metrics) FragmentError() {
	if m == nil {
		return
	}
	m.fragErrorsTotal.Inc()
}

// LevelRemoved records a removal of a level or fallback URL.
func (m *Metrics) LevelRemoved() {
	if m == nil {
		return
	}
	m.levelsRemoved.Inc()
}

// LevelsReplaced records the registry size after a rebuild or replacement.
func (m *Metrics) LevelsReplaced(count int) {
	if m == nil {
		return
	}
	m.levelCount.Set(float64(count))
}
