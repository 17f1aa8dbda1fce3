// Package n8n provides a minimal client for the n8n workflow-automation REST API.
package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/n8n-mcp-bridge/internal/metrics"
)

// Workflow is a read-only projection of a remote workflow record.
type Workflow struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Client issues single HTTP round-trips against the n8n API. It holds no
// state between calls: no retries, no caching, no connection discipline
// beyond what the injected http.Client provides.
type Client struct {
	baseURL     string
	messagesURL string
	httpClient  *http.Client
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient injects a custom HTTP client, so tests can point the
// Client at an httptest server or a recording transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets a structured logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics wires the backend request duration histogram.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New returns a Client for the n8n API rooted at baseURL (e.g.
// "http://localhost:5678/api/v1"). messagesURL is the absolute URL of the
// messages endpoint, which lives outside the API root.
func New(baseURL, messagesURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		messagesURL: messagesURL,
		httpClient:  http.DefaultClient,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListWorkflows fetches the workflow collection. A 200 response is decoded
// as a JSON array of workflow records; any other status yields a
// *StatusError carrying the code and raw body.
func (c *Client) ListWorkflows(ctx context.Context) ([]Workflow, error) {
	body, err := c.roundTrip(ctx, http.MethodGet, c.baseURL+"/workflows", nil, "list workflows", http.StatusOK)
	if err != nil {
		return nil, err
	}

	var workflows []Workflow
	if err := json.Unmarshal(body, &workflows); err != nil {
		return nil, &TransportError{Op: "list workflows", Err: err}
	}
	return workflows, nil
}

// ExecuteWorkflow triggers the workflow with the given id, posting payload as
// the JSON request body. 200 and 201 are both accepted; the raw response body
// is returned so callers can render it however they need.
func (c *Client) ExecuteWorkflow(ctx context.Context, workflowID string, payload map[string]any) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, &TransportError{Op: "execute workflow", Err: err}
	}

	url := c.baseURL + "/workflows/" + workflowID + "/execute"
	return c.roundTrip(ctx, http.MethodPost, url, reqBody, "execute workflow", http.StatusOK, http.StatusCreated)
}

// PostMessage sends {"message": message} to the messages endpoint and returns
// the echoed response body on 200.
func (c *Client) PostMessage(ctx context.Context, message string) ([]byte, error) {
	reqBody, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return nil, &TransportError{Op: "post message", Err: err}
	}
	return c.roundTrip(ctx, http.MethodPost, c.messagesURL, reqBody, "post message", http.StatusOK)
}

// roundTrip performs one request/response cycle and applies the uniform
// failure policy: accepted status -> body, other status -> *StatusError,
// anything below HTTP -> *TransportError.
func (c *Client) roundTrip(ctx context.Context, method, url string, reqBody []byte, op string, accepted ...int) ([]byte, error) {
	var reader io.Reader
	if reqBody != nil {
		reader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	if c.metrics != nil {
		start := time.Now()
		defer func() {
			c.metrics.BackendDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		}()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("n8n request failed", "op", op, "err", err)
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	for _, code := range accepted {
		if resp.StatusCode == code {
			return body, nil
		}
	}

	c.logger.Warn("n8n returned unexpected status", "op", op, "status", resp.StatusCode)
	return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
}
