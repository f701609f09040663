// Package httpapi is the HTTP delivery layer for the scheduling engine:
// a gorilla/mux router exposing run submission, run retrieval, and a
// gorilla/websocket progress stream, rate-limited per spec §6's external
// interfaces. Grounded on the teacher's web/internal/handlers package.
package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/pageza/shift-scheduler/internal/config"
	"github.com/pageza/shift-scheduler/internal/distancematrix"
	"github.com/pageza/shift-scheduler/internal/domain"
	"github.com/pageza/shift-scheduler/internal/orchestrator"
)

// Handlers wires config, a distance matrix and an in-memory run store into
// a gorilla/mux router, matching the teacher's Handlers{cfg, svc} shape.
type Handlers struct {
	cfg    *config.Config
	dist   distancematrix.Lookup
	logger *log.Logger
	runs   *runStore
	limiter *rate.Limiter
}

// NewHandlers constructs the HTTP layer. logger may be nil.
func NewHandlers(cfg *config.Config, dist distancematrix.Lookup, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.Default()
	}
	return &Handlers{
		cfg:     cfg,
		dist:    dist,
		logger:  logger,
		runs:    newRunStore(),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRequestsPerMinute)/60, cfg.RateLimitRequestsPerMinute),
	}
}

// SetupRoutes builds the router, mirroring the teacher's h.SetupRoutes().
func (h *Handlers) SetupRoutes() *mux.Router {
	router := mux.NewRouter()
	router.Use(h.rateLimitMiddleware)

	router.HandleFunc("/v1/schedule", h.postSchedule).Methods(http.MethodPost)
	router.HandleFunc("/v1/schedule/{runId}", h.getSchedule).Methods(http.MethodGet)
	router.HandleFunc("/v1/schedule/{runId}/stream", h.streamSchedule).Methods(http.MethodGet)
	return router
}

func (h *Handlers) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Allow() {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type scheduleRequest struct {
	Jobs []domain.Job `json:"jobs"`
}

type scheduleAccepted struct {
	RunID string `json:"runId"`
}

// postSchedule accepts a job batch, starts the orchestration in a background
// goroutine and answers 202 with the run id at once. Progress goes to any
// websocket clients subscribed on /stream, and the finished run is kept for
// GET afterward.
func (h *Handlers) postSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	runID := uuid.New().String()
	h.runs.start(runID)

	orch := orchestrator.New(h.cfg, h.dist, h.logger)
	go func() {
		output, err := orch.Run(req.Jobs, func(e domain.ProgressEvent) {
			h.runs.publish(runID, e)
		}, nil)
		if err != nil {
			h.logger.Printf("httpapi: run %s failed: %v", runID, err)
			h.runs.fail(runID, err)
			return
		}
		h.runs.complete(runID, output)
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(scheduleAccepted{RunID: runID})
}

func (h *Handlers) getSchedule(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runId"]
	run, ok := h.runs.get(runID)
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if run.err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": run.err.Error()})
		return
	}
	if run.output == nil {
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "running"})
		return
	}
	json.NewEncoder(w).Encode(run.output)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// streamSchedule upgrades to a websocket and relays progress events for
// runID until a "result" event arrives or the client disconnects.
func (h *Handlers) streamSchedule(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runId"]

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("httpapi: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	events, unsubscribe := h.runs.subscribe(runID)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				return
			}
			if e.Type == "result" {
				return
			}
		}
	}
}

type run struct {
	output *domain.Output
	err    error
	subs   []chan domain.ProgressEvent
}

type runStore struct {
	mu   sync.Mutex
	runs map[string]*run
}

func newRunStore() *runStore {
	return &runStore{runs: make(map[string]*run)}
}

func (s *runStore) start(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[runID] = &run{}
}

func (s *runStore) publish(runID string, e domain.ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[runID]
	if !ok {
		return
	}
	for _, ch := range r.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (s *runStore) complete(runID string, output *domain.Output) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[runID]
	if !ok {
		return
	}
	r.output = output
	for _, ch := range r.subs {
		close(ch)
	}
	r.subs = nil
}

func (s *runStore) fail(runID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[runID]
	if !ok {
		return
	}
	r.err = err
	for _, ch := range r.subs {
		close(ch)
	}
	r.subs = nil
}

func (s *runStore) get(runID string) (*run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[runID]
	return r, ok
}

func (s *runStore) subscribe(runID string) (<-chan domain.ProgressEvent, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan domain.ProgressEvent, 8)
	r, ok := s.runs[runID]
	if !ok || r.output != nil || r.err != nil {
		close(ch)
		return ch, func() {}
	}
	r.subs = append(r.subs, ch)
	return ch, func() {}
}
