package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the session counters. Each instance owns its registry so
// several sessions (or tests) never collide on registration.
type Metrics struct {
	Registry *prometheus.Registry

	// Catalog metrics
	CatalogLoads *prometheus.CounterVec

	// Device metrics
	PackagesLoaded  *prometheus.GaugeVec
	UsersProtected  prometheus.Gauge
	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// Engine metrics
	Transitions *prometheus.CounterVec
	Selected    prometheus.Gauge
}

// New creates a metrics collector bound to a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		CatalogLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uad_catalog_loads_total",
				Help: "Catalog loads by the source that finally served them",
			},
			[]string{"source"},
		),
		PackagesLoaded: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "uad_packages_loaded",
				Help: "Packages enumerated per device user",
			},
			[]string{"user"},
		),
		UsersProtected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "uad_users_protected",
			Help: "Device users whose package list could not be read",
		}),
		Commands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uad_commands_total",
				Help: "Device commands executed by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "uad_command_duration_seconds",
				Help:    "Device command latency",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"kind"},
		),
		Transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uad_transitions_total",
				Help: "Package state transitions applied to the record store",
			},
			[]string{"target"},
		),
		Selected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "uad_selection_size",
			Help: "Current size of the selection set",
		}),
	}
}

// RecordCommand counts a command outcome and its latency.
func (m *Metrics) RecordCommand(kind string, ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.Commands.WithLabelValues(kind, outcome).Inc()
	m.CommandDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// RecordCatalog counts which source served a catalog load.
func (m *Metrics) RecordCatalog(source string) {
	if m == nil {
		return
	}
	m.CatalogLoads.WithLabelValues(source).Inc()
}

// RecordTransition counts a state change applied to a record.
func (m *Metrics) RecordTransition(target string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(target).Inc()
}

// WriteTextfile dumps every metric in the Prometheus text format, suitable
// for node_exporter's textfile collector. A blank path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
