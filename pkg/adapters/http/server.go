package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/automat/internal/logging"
	"github.com/aretw0/automat/internal/presentation/graph"
	"github.com/aretw0/automat/pkg/domain"
	"github.com/aretw0/automat/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the instances of one machine over HTTP.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager

	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics serves the gatherer's metrics on GET /metrics.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

// InputRequest is the body of POST /instances/{id}/inputs/{input}.
type InputRequest struct {
	Args []any `json:"args"`
}

// InputResponse reports the outcome of an input. State is always the stored
// state after the call; Error is set when the input failed.
type InputResponse struct {
	Result any               `json:"result"`
	State  map[string]string `json:"state"`
	Error  string            `json:"error,omitempty"`
}

// Event is streamed to subscribers of an instance after each input that
// changed or kept its state.
type Event struct {
	ID     string            `json:"id"`
	Input  string            `json:"input"`
	State  map[string]string `json:"state"`
	Result any               `json:"result,omitempty"`
}

// NewHandler creates the HTTP handler for the instances managed by mgr.
func NewHandler(mgr *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		Sessions: mgr,
		Streams:  NewStreamManager(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/graph", s.GetGraph)
	r.Route("/instances", func(r chi.Router) {
		r.Post("/", s.CreateInstance)
		r.Get("/", s.ListInstances)
		r.Get("/{id}", s.GetInstance)
		r.Delete("/{id}", s.DeleteInstance)
		r.Post("/{id}/inputs/{input}", s.SendInput)
		r.Get("/{id}/events", s.SubscribeEvents)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "machine": s.Sessions.Definition().Name()})
}

// GetGraph handles the GET /graph request. format is mermaid (default) or dot.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	def := s.Sessions.Definition()
	switch format := r.URL.Query().Get("format"); format {
	case "", "mermaid":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, graph.GenerateMermaid(def.Automaton(), nil))
	case "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		fmt.Fprint(w, graph.GenerateDOT(def.Name(), def.Automaton(), nil))
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("unknown graph format %q", format))
	}
}

// CreateInstance handles the POST /instances request.
func (s *Server) CreateInstance(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Sessions.Start(r.Context(), uuid.NewString())
	if err != nil {
		s.fail(w, "CreateInstance", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, snap)
}

// ListInstances handles the GET /instances request.
func (s *Server) ListInstances(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, "ListInstances", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"instances": ids})
}

// GetInstance handles the GET /instances/{id} request.
func (s *Server) GetInstance(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetInstance", err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// DeleteInstance handles the DELETE /instances/{id} request.
func (s *Server) DeleteInstance(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, "DeleteInstance", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SendInput handles the POST /instances/{id}/inputs/{input} request.
func (s *Server) SendInput(w http.ResponseWriter, r *http.Request) {
	id, input := chi.URLParam(r, "id"), chi.URLParam(r, "input")

	var body InputRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}

	result, snap, err := s.Sessions.Input(r.Context(), id, input, body.Args...)
	resp := InputResponse{Result: result}
	if snap != nil {
		resp.State = snap.State
	}
	if err != nil {
		status := statusOf(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("SendInput failed", "instance_id", id, "input", input, "err", err)
		}
		resp.Error = err.Error()
		if snap != nil && status == http.StatusInternalServerError {
			// The state advanced before the output failed.
			s.broadcast(id, input, snap.State, nil)
		}
		s.writeJSON(w, status, resp)
		return
	}

	s.broadcast(id, input, snap.State, result)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) broadcast(id, input string, state map[string]string, result any) {
	payload, err := json.Marshal(Event{ID: id, Input: input, State: state, Result: result})
	if err != nil {
		s.logger.Warn("Event encode failed", "instance_id", id, "err", err)
		return
	}
	s.Streams.Broadcast(id, string(payload))
}

// SubscribeEvents handles the GET /instances/{id}/events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}
	id := chi.URLParam(r, "id")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// statusOf maps the error taxonomy to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrSnapshotNotFound), errors.Is(err, domain.ErrUnknownInput):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBadArguments):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoTransition), errors.Is(err, session.ErrMachineMismatch):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	}
	s.writeError(w, status, err)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

// StreamManager fans instance events out to SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // instance ID -> set of channels
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

// Subscribe registers a channel for id. The returned func unsubscribes and
// closes it.
func (sm *StreamManager) Subscribe(id string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[id]; !ok {
		sm.subscribers[id] = make(map[chan<- string]struct{})
	}
	sm.subscribers[id][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[id]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, id)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of id. Slow subscribers miss it.
func (sm *StreamManager) Broadcast(id string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[id] {
		select {
		case ch <- msg:
		default:
		}
	}
}
