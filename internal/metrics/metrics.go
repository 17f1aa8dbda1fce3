// Package metrics defines the prometheus collectors exposed by the bridge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the bridge's collectors. A fresh instance registers its
// collectors on the given registry, so tests can use isolated registries
// instead of the process-wide default.
type Metrics struct {
	Registry *prometheus.Registry

	ToolCalls       *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
	RelaySessions   prometheus.Gauge
}

// New creates and registers the bridge collectors. A nil registry creates a
// private one.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		Registry: reg,
		ToolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_tool_calls_total",
				Help: "Total number of MCP tool invocations",
			},
			[]string{"tool", "outcome"},
		),
		BackendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "bridge_backend_request_duration_seconds",
				Help: "Duration of HTTP round-trips to the n8n backend",
			},
			[]string{"operation"},
		),
		RelaySessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bridge_relay_sessions_active",
				Help: "Number of currently open event relay sessions",
			},
		),
	}

	reg.MustRegister(m.ToolCalls, m.BackendDuration, m.RelaySessions)
	return m
}

// ObserveTool records one terminal tool result. outcome is "success" or
// "error"; every invocation produces exactly one observation.
func (m *Metrics) ObserveTool(tool string, success bool) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
}
