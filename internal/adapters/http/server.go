// Package http serves the bridge's operational endpoints: the event relay,
// health, and metrics.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/n8n-mcp-bridge/internal/metrics"
	"github.com/aretw0/n8n-mcp-bridge/internal/relay"
)

// EventSource opens one relay session per subscriber.
type EventSource interface {
	Open(ctx context.Context) (*relay.Session, error)
}

// Server holds the ops routes and their dependencies.
type Server struct {
	relay  EventSource
	logger *slog.Logger
}

// NewHandler builds the ops router. The relay source may be nil, in which
// case /forward-sse reports the relay as unavailable.
func NewHandler(source EventSource, logger *slog.Logger, m *metrics.Metrics) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{relay: source, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/forward-sse", s.handleForwardSSE)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleForwardSSE relays the backend's event stream to one subscriber. The
// session's three exit paths map onto the wire as: subscriber disconnect ->
// silent teardown, upstream error -> one final "error" event, upstream end ->
// one final "error" event ("upstream event stream closed").
func (s *Server) handleForwardSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	if s.relay == nil {
		http.Error(w, "Relay not configured", http.StatusNotFound)
		return
	}

	session, err := s.relay.Open(r.Context())
	if err != nil {
		s.logger.Warn("relay open failed", "err", err)
		http.Error(w, fmt.Sprintf("Relay error: %v", err), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-session.Events():
			if !open {
				return
			}
			if ev.Err != nil {
				fmt.Fprintf(w, "event: error\ndata: %s\n\n", ev.Err)
				flusher.Flush()
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", ev.Data)
			flusher.Flush()
		}
	}
}
