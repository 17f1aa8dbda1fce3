// Package mcp exposes the bridge's tools over the Model Context Protocol.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/n8n-mcp-bridge/internal/metrics"
	"github.com/aretw0/n8n-mcp-bridge/internal/n8n"
)

// Backend defines the n8n operations the tool handlers need. The concrete
// implementation is internal/n8n.Client; tests substitute a fake.
type Backend interface {
	ListWorkflows(ctx context.Context) ([]n8n.Workflow, error)
	ExecuteWorkflow(ctx context.Context, workflowID string, payload map[string]any) ([]byte, error)
	PostMessage(ctx context.Context, message string) ([]byte, error)
}

// Server wraps the MCP server and exposes the n8n tools over it.
type Server struct {
	backend   Backend
	logger    *slog.Logger
	metrics   *metrics.Metrics
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a structured logger for the server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics wires per-tool instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// NewServer creates the MCP front door for the given backend.
func NewServer(backend Backend, version string, opts ...Option) *Server {
	s := &Server{
		backend:   backend,
		logger:    slog.Default(),
		mcpServer: server.NewMCPServer("n8nMCPBridge", version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server over SSE on addr. The optional ops handler is
// mounted as the fallback route for everything that is not MCP transport
// (health, metrics, the event relay endpoint).
func (s *Server) ServeSSE(ctx context.Context, addr string, ops http.Handler) error {
	baseURL := "http://" + addr

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	if ops != nil {
		mux.Handle("/", ops)
	}

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		// Create a timeout context for the graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, shutting down server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("hello_world",
		mcp.WithDescription("A simple connectivity test."),
	), s.instrumented("hello_world", s.handleHelloWorld))

	s.mcpServer.AddTool(mcp.NewTool("list_n8n_workflows",
		mcp.WithDescription("Lists available workflows from n8n."),
	), s.instrumented("list_n8n_workflows", s.handleListWorkflows))

	s.mcpServer.AddTool(mcp.NewTool("trigger_n8n_workflow",
		mcp.WithDescription("Triggers an n8n workflow by its ID."),
		mcp.WithString("workflow_id", mcp.Required(), mcp.Description("The ID of the workflow to trigger")),
		mcp.WithString("data", mcp.Description("Optional JSON string with data to pass to the workflow")),
	), s.instrumented("trigger_n8n_workflow", s.handleTriggerWorkflow))

	s.mcpServer.AddTool(mcp.NewTool("send_to_n8n_mcp",
		mcp.WithDescription("Sends a message to the n8n MCP API endpoint."),
		mcp.WithString("message", mcp.Required(), mcp.Description("The message to send to n8n")),
	), s.instrumented("send_to_n8n_mcp", s.handleSendMessage))

	s.mcpServer.AddTool(mcp.NewTool("analyze_text_with_n8n",
		mcp.WithDescription("Analyzes text using a specific n8n workflow."),
		mcp.WithString("text", mcp.Required(), mcp.Description("The text to analyze")),
		mcp.WithString("workflow_id", mcp.Required(), mcp.Description("The ID of the workflow to use for analysis")),
	), s.instrumented("analyze_text_with_n8n", s.handleAnalyzeText))
}

// instrumented wraps a tool handler with metrics and logging. Handlers never
// return a protocol-level error: every outcome is a single text result.
func (s *Server) instrumented(name string, h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := h(ctx, request)
		if err != nil {
			// Should not happen: handlers absorb failures into text results.
			s.logger.Error("tool handler fault", "tool", name, "err", err)
			if s.metrics != nil {
				s.metrics.ObserveTool(name, false)
			}
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.ObserveTool(name, !result.IsError)
		}
		return result, nil
	}
}
