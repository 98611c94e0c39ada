package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks session lifecycle and tool policy activity.
type Metrics struct {
	// SessionOps counts session lifecycle operations.
	// Labels: op (create|resume|reuse|destroy), outcome (ok|error)
	SessionOps *prometheus.CounterVec

	// ActiveSessions gauges sessions currently held in the store.
	ActiveSessions prometheus.Gauge

	// ToolDecisions counts pre-call policy decisions.
	// Labels: class (native|custom|mcp|unknown), decision (allow|deny)
	ToolDecisions *prometheus.CounterVec

	// StreamDuration measures wall-clock prompt streaming time in seconds.
	StreamDuration prometheus.Histogram
}

// NewMetrics creates metrics registered on reg; a nil registerer uses the
// default one.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		SessionOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "conduit_session_ops_total",
			Help: "Session lifecycle operations by op and outcome.",
		}, []string{"op", "outcome"}),

		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "conduit_active_sessions",
			Help: "Sessions currently held in the store.",
		}),

		ToolDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "conduit_tool_decisions_total",
			Help: "Pre-call tool policy decisions by class and decision.",
		}, []string{"class", "decision"}),

		StreamDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "conduit_stream_duration_seconds",
			Help:    "Wall-clock duration of prompt streaming calls.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
	}
}
