package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/oddslock/oddslock/internal/domain"
	"github.com/oddslock/oddslock/internal/engine"
	"github.com/oddslock/oddslock/internal/metrics"
	"github.com/oddslock/oddslock/internal/persistence"
	"github.com/oddslock/oddslock/internal/version"
)

// Server is the engine's ops surface: health, metrics, decision
// computation, and audit lookups. No auth and no business routing; the
// gateway in front of it owns those concerns.
type Server struct {
	router  *mux.Router
	server  *http.Server
	engine  *engine.Engine
	audit   persistence.AuditRepo // optional
	verman  *version.Manager
	metrics *metrics.Registry
	limiter *rate.Limiter
	log     zerolog.Logger
}

// Config holds the HTTP server settings.
type Config struct {
	Addr         string
	RateLimitRPS float64
}

// NewServer wires the routes over the injected collaborators.
func NewServer(cfg Config, eng *engine.Engine, audit persistence.AuditRepo, verman *version.Manager, reg *metrics.Registry, log zerolog.Logger) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		engine:  eng,
		audit:   audit,
		verman:  verman,
		metrics: reg,
		log:     log,
	}
	if cfg.RateLimitRPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), int(cfg.RateLimitRPS)+1)
	}

	s.router.Use(s.logRequest, s.rateLimit)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(reg.Prometheus(), promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/decide", s.handleDecide).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/decisions/{game_id}", s.handleDecisions).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/version", s.handleVersion).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().Str("method", r.Method).Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).Msg("http request")
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"decision_version": s.verman.Current().String(),
		"engine_version":   version.EngineVersion,
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	meta := s.verman.Metadata()
	writeJSON(w, http.StatusOK, map[string]string{
		"decision_version": meta.DecisionVersion,
		"git_commit_sha":   meta.GitCommitSHA,
		"engine_version":   meta.EngineVersion,
	})
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req domain.DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := s.engine.Decide(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeError(w, http.StatusServiceUnavailable, "audit store not configured")
		return
	}

	gameID := mux.Vars(r)["game_id"]
	records, err := s.audit.ListByGame(r.Context(), gameID, 50)
	if err != nil {
		s.log.Error().Err(err).Str("game_id", gameID).Msg("audit lookup failed")
		writeError(w, http.StatusInternalServerError, "audit lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
