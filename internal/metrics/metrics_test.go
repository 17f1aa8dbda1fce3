package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/aretw0/n8n-mcp-bridge/internal/metrics"
)

func TestObserveTool(t *testing.T) {
	m := metrics.New(nil)

	m.ObserveTool("list_n8n_workflows", true)
	m.ObserveTool("list_n8n_workflows", true)
	m.ObserveTool("trigger_n8n_workflow", false)

	if got := testutil.ToFloat64(m.ToolCalls.WithLabelValues("list_n8n_workflows", "success")); got != 2 {
		t.Errorf("Expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(m.ToolCalls.WithLabelValues("trigger_n8n_workflow", "error")); got != 1 {
		t.Errorf("Expected 1 error, got %v", got)
	}
}

func TestRegistersOnProvidedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.RelaySessions.Inc()

	count, err := testutil.GatherAndCount(reg, "bridge_relay_sessions_active")
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected gauge to be registered, got %d series", count)
	}
}
