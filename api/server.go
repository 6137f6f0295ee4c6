package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/projecthive/hive/config"
	"github.com/projecthive/hive/internal/ctxkeys"
	"github.com/projecthive/hive/llm"
	"github.com/projecthive/hive/persistence"
	"github.com/projecthive/hive/queue"
	"github.com/projecthive/hive/replay"
	"github.com/projecthive/hive/types"
)

// HealthChecker probes the model backends. Satisfied by *llm.Router.
type HealthChecker interface {
	HealthCheck(ctx context.Context) map[string]*llm.HealthStatus
}

// HTTPMetrics receives per-request telemetry. Implemented by
// internal/metrics.Collector; nil disables recording.
type HTTPMetrics interface {
	RecordHTTPRequest(method, route string, code int, duration time.Duration)
}

// Server is the HTTP front end.
type Server struct {
	httpServer      *http.Server
	router          *mux.Router
	queue           *queue.Manager
	recorder        *replay.Recorder
	store           persistence.RunStore
	health          HealthChecker
	metricsHandler  http.Handler
	metrics         HTTPMetrics
	shutdownTimeout time.Duration
	logger          *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithRecorder exposes session replay endpoints.
func WithRecorder(r *replay.Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

// WithRunStore exposes persisted run snapshots under /api/v1/history.
func WithRunStore(store persistence.RunStore) Option {
	return func(s *Server) { s.store = store }
}

// WithHealthChecker adds provider probes to /healthz.
func WithHealthChecker(h HealthChecker) Option {
	return func(s *Server) { s.health = h }
}

// WithMetricsHandler mounts the given handler at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// WithHTTPMetrics attaches a request telemetry sink.
func WithHTTPMetrics(m HTTPMetrics) Option {
	return func(s *Server) { s.metrics = m }
}

// NewServer builds the server and its routes.
func NewServer(cfg config.ServerConfig, q *queue.Manager, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		router:          mux.NewRouter(),
		queue:           q,
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger.With(zap.String("component", "api")),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.routes()
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) routes() {
	s.router.Use(s.observe)

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/runs", s.handleSubmitRun).Methods(http.MethodPost)
	v1.HandleFunc("/runs", s.handleListRuns).Methods(http.MethodGet)
	v1.HandleFunc("/runs/{id}", s.handleGetRun).Methods(http.MethodGet)
	v1.HandleFunc("/runs/{id}", s.handleCancelRun).Methods(http.MethodDelete)
	v1.HandleFunc("/runs/{id}/events", s.handleRunEvents).Methods(http.MethodGet)
	v1.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	if s.store != nil {
		v1.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
		v1.HandleFunc("/history/{run_id}", s.handleHistoryRun).Methods(http.MethodGet)
		v1.HandleFunc("/history/{run_id}", s.handleHistoryDelete).Methods(http.MethodDelete)
	}

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.metricsHandler != nil {
		s.router.Handle("/metrics", s.metricsHandler).Methods(http.MethodGet)
	}
}

// Handler exposes the routes for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
	}
	return s.httpServer.Shutdown(ctx)
}

type submitRequest struct {
	Goal     string `json:"goal"`
	Pipeline string `json:"pipeline"`
}

func (s *Server) handleSubmitRun(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, types.ErrInvalidRequest, "invalid JSON body")
		return
	}
	if req.Goal == "" {
		s.writeError(w, http.StatusBadRequest, types.ErrInvalidRequest, "goal is required")
		return
	}
	if req.Pipeline == "" {
		req.Pipeline = "t1"
	}

	id, err := s.queue.Submit(req.Goal, req.Pipeline)
	if err != nil {
		s.writeTypedError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"task_id": id})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	s.writeJSON(w, http.StatusOK, map[string]any{"tasks": s.queue.List(limit, offset)})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	task, err := s.queue.Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeTypedError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	if err := s.queue.Cancel(mux.Vars(r)["id"]); err != nil {
		s.writeTypedError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": string(queue.StatusCancelled)})
}

func (s *Server) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		s.writeError(w, http.StatusNotFound, types.ErrInvalidRequest, "session replay is not enabled")
		return
	}
	id := mux.Vars(r)["id"]
	session, ok := s.recorder.Session(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, types.ErrTaskNotFound, "no session for task "+id)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"session": session,
		"events":  s.recorder.Events(id),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context())
	if err != nil {
		s.writeTypedError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleHistoryRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), mux.Vars(r)["run_id"])
	if err != nil {
		s.writeTypedError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRun(r.Context(), mux.Vars(r)["run_id"]); err != nil {
		s.writeTypedError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.queue.Stats())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if s.health != nil {
		body["providers"] = s.health.HealthCheck(r.Context())
	}
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code types.ErrorCode, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": map[string]any{"code": code, "message": message},
	})
}

// writeTypedError maps framework error codes onto HTTP statuses.
func (s *Server) writeTypedError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch types.GetErrorCode(err) {
	case types.ErrTaskNotFound, types.ErrRunNotFound:
		status = http.StatusNotFound
	case types.ErrInvalidRequest:
		status = http.StatusBadRequest
	case types.ErrTaskNotCancelled:
		status = http.StatusConflict
	case types.ErrRateLimited:
		status = http.StatusTooManyRequests
	case types.ErrQueueClosed:
		status = http.StatusServiceUnavailable
	}
	s.writeError(w, status, types.GetErrorCode(err), err.Error())
}

// statusRecorder captures the response code for the observation middleware.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.NewString()
		r = r.WithContext(ctxkeys.WithRequestID(r.Context(), reqID))
		w.Header().Set("X-Request-ID", reqID)

		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		duration := time.Since(start)
		if s.metrics != nil {
			s.metrics.RecordHTTPRequest(r.Method, route, rec.code, duration)
		}
		s.logger.Info("request handled",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("code", rec.code),
			zap.Duration("duration", duration),
		)
	})
}
