// Package relay forwards a server-sent-event stream from the n8n backend to
// local subscribers, one upstream connection per subscriber.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/tmaxmax/go-sse"

	"github.com/aretw0/n8n-mcp-bridge/internal/metrics"
)

// State tracks the lifecycle of one relay session.
type State int

const (
	// StateIdle is the state before the upstream connection is established.
	StateIdle State = iota
	// StateStreaming means the upstream stream is open and events flow.
	StateStreaming
	// StateClosed means the subscriber went away and the upstream connection
	// was released. No terminal event is emitted on this path.
	StateClosed
	// StateErrored means the upstream disconnected or failed. Exactly one
	// terminal event carrying the error is emitted before the channel closes.
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ErrUpstreamClosed is the terminal error of a session whose upstream ended
// the stream. The relay is one-shot: it never reconnects.
var ErrUpstreamClosed = errors.New("upstream event stream closed")

// Event is one unit forwarded to a subscriber. Data carries the upstream
// payload with the SSE framing already stripped. Err is non-nil only on the
// single terminal event of an errored session.
type Event struct {
	Data string
	Err  error
}

// Relay opens sessions against a fixed upstream SSE endpoint.
type Relay struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures a Relay.
type Option func(*Relay)

// WithHTTPClient injects the HTTP client used for the streaming GET.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *Relay) {
		if hc != nil {
			r.httpClient = hc
		}
	}
}

// WithLogger sets a structured logger for the relay.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics wires the active-session gauge.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

// New returns a Relay subscribing to the given upstream SSE endpoint.
func New(endpoint string, opts ...Option) *Relay {
	r := &Relay{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Session is one subscriber's view of the upstream stream. Events are
// delivered unbuffered; the session never replays and never reconnects.
type Session struct {
	id     string
	events chan Event

	mu    sync.Mutex
	state State
}

// Open establishes the upstream connection and starts forwarding. The session
// ends when the upstream stream ends, errors, or ctx is cancelled (subscriber
// disconnect); the upstream connection is released on every exit path.
func (r *Relay) Open(ctx context.Context) (*Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to upstream stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected upstream status: %d", resp.StatusCode)
	}

	s := &Session{
		id:     uuid.NewString(),
		events: make(chan Event),
		state:  StateStreaming,
	}
	if r.metrics != nil {
		r.metrics.RelaySessions.Inc()
	}
	r.logger.Info("relay session opened", "session", s.id, "endpoint", r.endpoint)

	go r.forward(ctx, s, resp)
	return s, nil
}

// Events returns the subscriber-facing channel. It is closed after the
// terminal event (errored sessions) or silently (closed sessions).
func (s *Session) Events() <-chan Event {
	return s.events
}

// ID identifies the session in logs.
func (s *Session) ID() string {
	return s.id
}

// State reports the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (r *Relay) forward(ctx context.Context, s *Session, resp *http.Response) {
	defer close(s.events)
	defer resp.Body.Close()
	if r.metrics != nil {
		defer r.metrics.RelaySessions.Dec()
	}

	for ev, err := range sse.Read(resp.Body, nil) {
		if err != nil {
			// Cancelling the request context tears down the body read, which
			// surfaces here as a read error. That is the subscriber leaving,
			// not an upstream fault.
			if ctx.Err() != nil {
				s.setState(StateClosed)
				r.logger.Info("relay session closed by subscriber", "session", s.id)
				return
			}
			s.setState(StateErrored)
			r.logger.Warn("relay upstream failed", "session", s.id, "err", err)
			s.emit(ctx, Event{Err: err})
			return
		}
		if !s.emit(ctx, Event{Data: ev.Data}) {
			s.setState(StateClosed)
			r.logger.Info("relay session closed by subscriber", "session", s.id)
			return
		}
	}

	if ctx.Err() != nil {
		s.setState(StateClosed)
		r.logger.Info("relay session closed by subscriber", "session", s.id)
		return
	}

	// Upstream ended the stream cleanly. One-shot relay: surface it as the
	// terminal event and end the session.
	s.setState(StateErrored)
	r.logger.Info("relay upstream disconnected", "session", s.id)
	s.emit(ctx, Event{Err: ErrUpstreamClosed})
}

// emit delivers one event unless the subscriber is gone.
func (s *Session) emit(ctx context.Context, ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
