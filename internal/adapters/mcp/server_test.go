package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/n8n-mcp-bridge/internal/logging"
	"github.com/aretw0/n8n-mcp-bridge/internal/metrics"
	"github.com/aretw0/n8n-mcp-bridge/internal/n8n"
)

func TestInstrumentedCountsOutcomes(t *testing.T) {
	m := metrics.New(nil)
	backend := &fakeBackend{workflows: []n8n.Workflow{{ID: "1", Name: "Demo"}}}
	s := NewServer(backend, "test", WithLogger(logging.NewNop()), WithMetrics(m))

	ok := s.instrumented("list_n8n_workflows", s.handleListWorkflows)
	_, err := ok(context.Background(), request(nil))
	require.NoError(t, err)

	backend.err = &n8n.StatusError{Code: 500, Body: "boom"}
	_, err = ok(context.Background(), request(nil))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("list_n8n_workflows", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("list_n8n_workflows", "error")))
}

func TestEveryInvocationYieldsExactlyOneTerminalResult(t *testing.T) {
	s := newTestServer(&fakeBackend{err: &n8n.TransportError{Op: "list workflows", Err: assert.AnError}})

	handlers := map[string]func(context.Context, mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error){
		"list":    s.handleListWorkflows,
		"trigger": s.handleTriggerWorkflow,
		"send":    s.handleSendMessage,
		"analyze": s.handleAnalyzeText,
	}
	args := map[string]any{
		"workflow_id": "1",
		"message":     "m",
		"text":        "t",
	}

	for name, h := range handlers {
		result, err := h(context.Background(), request(args))
		require.NoError(t, err, "handler %s must absorb failures", name)
		require.NotNil(t, result, "handler %s must produce a terminal result", name)
		require.Len(t, result.Content, 1, "handler %s must produce exactly one string", name)
	}
}

func TestCORSMiddleware(t *testing.T) {
	wrapped := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/sse", nil))
	assert.Equal(t, http.StatusOK, rr.Code, "preflight should short-circuit")
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sse", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code, "non-preflight should pass through")
}
