package n8n_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/n8n-mcp-bridge/internal/logging"
	"github.com/aretw0/n8n-mcp-bridge/internal/n8n"
)

func newTestClient(t *testing.T, handler http.Handler) (*n8n.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := n8n.New(srv.URL+"/api/v1", srv.URL+"/messages",
		n8n.WithHTTPClient(srv.Client()),
		n8n.WithLogger(logging.NewNop()),
	)
	return client, srv
}

func TestListWorkflows(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/workflows", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"1","name":"Demo"},{"id":"2","name":"Second"}]`))
	}))

	workflows, err := client.ListWorkflows(context.Background())
	require.NoError(t, err)
	require.Len(t, workflows, 2)
	assert.Equal(t, n8n.Workflow{ID: "1", Name: "Demo"}, workflows[0])
	assert.Equal(t, n8n.Workflow{ID: "2", Name: "Second"}, workflows[1])
}

func TestListWorkflows_Idempotent(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"1","name":"Demo"}]`))
	}))

	first, err := client.ListWorkflows(context.Background())
	require.NoError(t, err)
	second, err := client.ListWorkflows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestListWorkflows_StatusError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))

	_, err := client.ListWorkflows(context.Background())
	require.Error(t, err)

	var statusErr *n8n.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.Equal(t, "boom", statusErr.Body)
	assert.Equal(t, "500 - boom", statusErr.Error())
}

func TestListWorkflows_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close() // connection refused from here on

	client := n8n.New(url+"/api/v1", url+"/messages", n8n.WithLogger(logging.NewNop()))

	_, err := client.ListWorkflows(context.Background())
	require.Error(t, err)

	var transportErr *n8n.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, "list workflows", transportErr.Op)
}

func TestExecuteWorkflow(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusCreated} {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v1/workflows/42/execute", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var payload map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "value", payload["key"])

			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))

		body, err := client.ExecuteWorkflow(context.Background(), "42", map[string]any{"key": "value"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":true}`, string(body))
	}
}

func TestExecuteWorkflow_StatusError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("not found"))
	}))

	_, err := client.ExecuteWorkflow(context.Background(), "99", map[string]any{})
	var statusErr *n8n.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, "not found", statusErr.Body)
}

func TestPostMessage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/messages", r.URL.Path)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "hi there", payload["message"])

		_, _ = w.Write([]byte(`{"received":true}`))
	}))

	body, err := client.PostMessage(context.Background(), "hi there")
	require.NoError(t, err)
	assert.JSONEq(t, `{"received":true}`, string(body))
}

func TestPostMessage_StatusError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))

	_, err := client.PostMessage(context.Background(), "hello")
	var statusErr *n8n.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
}
