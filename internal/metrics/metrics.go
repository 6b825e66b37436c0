package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for malsim.
type Registry struct {
	// Simulation metrics
	TicksTotal         *prometheus.CounterVec
	TickDuration       prometheus.Histogram
	InfectedNodes      *prometheus.GaugeVec
	GraphsGenerated    *prometheus.CounterVec
	FullInfections     *prometheus.CounterVec
	TicksToSaturation  *prometheus.HistogramVec
	SessionsActive     prometheus.Gauge
	SessionStateChange *prometheus.CounterVec

	// Server metrics
	WebsocketMessagesTotal *prometheus.CounterVec
	ExportsTotal           prometheus.Counter

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process wide registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	f := promauto.With(r.registry)

	r.TicksTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "malsim_ticks_total",
			Help: "Simulation ticks executed, by strain",
		},
		[]string{"strain"},
	)
	r.TickDuration = f.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "malsim_tick_duration_seconds",
			Help:    "Wall time spent computing one tick",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		},
	)
	r.InfectedNodes = f.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "malsim_infected_nodes",
			Help: "Infected node count of each live session",
		},
		[]string{"session"},
	)
	r.GraphsGenerated = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "malsim_graphs_generated_total",
			Help: "Contact graphs generated, by strain",
		},
		[]string{"strain"},
	)
	r.FullInfections = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "malsim_full_infections_total",
			Help: "Runs that reached full infection, by strain",
		},
		[]string{"strain"},
	)
	r.TicksToSaturation = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "malsim_ticks_to_full_infection",
			Help:    "Ticks a run needed to infect every node",
			Buckets: prometheus.LinearBuckets(0, 5, 12),
		},
		[]string{"strain"},
	)
	r.SessionsActive = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "malsim_sessions_active",
			Help: "Open simulation sessions",
		},
	)
	r.SessionStateChange = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "malsim_session_state_changes_total",
			Help: "Driver state transitions, by new state",
		},
		[]string{"state"},
	)
	r.WebsocketMessagesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "malsim_websocket_messages_total",
			Help: "Websocket messages, by direction and type",
		},
		[]string{"direction", "type"},
	)
	r.ExportsTotal = f.NewCounter(
		prometheus.CounterOpts{
			Name: "malsim_csv_exports_total",
			Help: "Time series CSV exports served",
		},
	)

	return r
}

// RecordTick records one executed tick.
func (r *Registry) RecordTick(session, strain string, infected int, duration time.Duration) {
	r.TicksTotal.WithLabelValues(strain).Inc()
	r.TickDuration.Observe(duration.Seconds())
	r.InfectedNodes.WithLabelValues(session).Set(float64(infected))
}

// RecordGenerate records a freshly generated graph.
func (r *Registry) RecordGenerate(session, strain string, infected int) {
	r.GraphsGenerated.WithLabelValues(strain).Inc()
	r.InfectedNodes.WithLabelValues(session).Set(float64(infected))
}

// RecordFullInfection records a run reaching the absorbing state after ticks steps.
func (r *Registry) RecordFullInfection(strain string, ticks int) {
	r.FullInfections.WithLabelValues(strain).Inc()
	r.TicksToSaturation.WithLabelValues(strain).Observe(float64(ticks))
}

// SessionOpened and SessionClosed track live sessions. Closing also drops the
// session's infected gauge.
func (r *Registry) SessionOpened() {
	r.SessionsActive.Inc()
}

func (r *Registry) SessionClosed(session string) {
	r.SessionsActive.Dec()
	r.InfectedNodes.DeleteLabelValues(session)
}

func (r *Registry) RecordStateChange(state string) {
	r.SessionStateChange.WithLabelValues(state).Inc()
}

func (r *Registry) RecordMessage(direction, msgType string) {
	r.WebsocketMessagesTotal.WithLabelValues(direction, msgType).Inc()
}

func (r *Registry) RecordExport() {
	r.ExportsTotal.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// GetPrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
