package n8nbridge

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	httpadapter "github.com/aretw0/n8n-mcp-bridge/internal/adapters/http"
	mcpadapter "github.com/aretw0/n8n-mcp-bridge/internal/adapters/mcp"
	"github.com/aretw0/n8n-mcp-bridge/internal/config"
	"github.com/aretw0/n8n-mcp-bridge/internal/metrics"
	"github.com/aretw0/n8n-mcp-bridge/internal/n8n"
	"github.com/aretw0/n8n-mcp-bridge/internal/relay"
)

// Version is the bridge release version.
const Version = "0.1.0"

// Bridge is the high-level entry point. It wires the n8n client, the MCP
// front door, the event relay and the ops endpoints together from one Config.
type Bridge struct {
	cfg        config.Config
	logger     *slog.Logger
	httpClient *http.Client
	registry   *prometheus.Registry

	metrics *metrics.Metrics
	client  *n8n.Client
	mcp     *mcpadapter.Server
	ops     http.Handler
}

// Option defines a functional option for configuring the Bridge.
type Option func(*Bridge)

// WithLogger sets a custom structured logger for all components.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithHTTPClient injects the HTTP client used for every backend call,
// including the relay's streaming connection.
func WithHTTPClient(hc *http.Client) Option {
	return func(b *Bridge) {
		if hc != nil {
			b.httpClient = hc
		}
	}
}

// WithRegistry sets the prometheus registry the bridge registers its
// collectors on.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(b *Bridge) {
		if reg != nil {
			b.registry = reg
		}
	}
}

// New initializes a Bridge from the given configuration.
func New(cfg config.Config, opts ...Option) (*Bridge, error) {
	cfg.FillDerived()
	b := &Bridge{
		cfg:        cfg,
		logger:     slog.Default(),
		httpClient: http.DefaultClient,
		registry:   prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.metrics = metrics.New(b.registry)

	b.client = n8n.New(cfg.N8NBaseURL, cfg.MessagesURL,
		n8n.WithHTTPClient(b.httpClient),
		n8n.WithLogger(b.logger),
		n8n.WithMetrics(b.metrics),
	)

	b.mcp = mcpadapter.NewServer(b.client, Version,
		mcpadapter.WithLogger(b.logger),
		mcpadapter.WithMetrics(b.metrics),
	)

	eventRelay := relay.New(cfg.UpstreamSSEURL,
		relay.WithHTTPClient(b.httpClient),
		relay.WithLogger(b.logger),
		relay.WithMetrics(b.metrics),
	)
	b.ops = httpadapter.NewHandler(eventRelay, b.logger, b.metrics)

	return b, nil
}

// ServeStdio runs the MCP server over Stdin/Stdout. The ops endpoints are not
// served in this mode.
func (b *Bridge) ServeStdio() error {
	return b.mcp.ServeStdio()
}

// ServeSSE runs the MCP server over SSE alongside the ops endpoints, until
// ctx is cancelled.
func (b *Bridge) ServeSSE(ctx context.Context) error {
	return b.mcp.ServeSSE(ctx, b.cfg.ListenAddr(), b.ops)
}

// OpsHandler exposes the ops router (relay, health, metrics), so hosts can
// mount it on their own server.
func (b *Bridge) OpsHandler() http.Handler {
	return b.ops
}
