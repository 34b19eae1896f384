package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hazz-dev/sitepulse/internal/checker"
	"github.com/hazz-dev/sitepulse/internal/config"
	"github.com/hazz-dev/sitepulse/internal/status"
	"github.com/hazz-dev/sitepulse/internal/version"
)

// LatestSource provides the most recent result per target.
type LatestSource interface {
	Latest(target config.Target) (status.Entry, bool)
}

// StateFunc reports the scheduler's current state.
type StateFunc func() string

// Server holds the chi router and its dependencies.
type Server struct {
	targets  []config.Target
	latest   LatestSource
	state    StateFunc
	gatherer prometheus.Gatherer
	router   chi.Router
	logger   *zap.Logger
}

// New creates a new Server and registers all routes. A nil gatherer
// leaves /metrics unmounted.
func New(targets []config.Target, latest LatestSource, state StateFunc, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if state == nil {
		state = func() string { return "unknown" }
	}
	s := &Server{
		targets:  targets,
		latest:   latest,
		state:    state,
		gatherer: gatherer,
		router:   chi.NewRouter(),
		logger:   logger,
	}
	s.registerRoutes()
	return s
}

// Router returns the chi router (for mounting or testing).
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/targets", s.handleListTargets)
	r.Get("/api/targets/{name}", s.handleGetTarget)

	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// --- Response helpers ---

type envelope struct {
	Data  interface{} `json:"data"`
	Error string      `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Error: msg})
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"state":   s.state(),
		"version": version.Version,
	})
}

type targetDetail struct {
	Name     string        `json:"name"`
	URL      string        `json:"url"`
	Scheme   string        `json:"scheme"`
	Expected string        `json:"expected"`
	Status   string        `json:"status"`
	Latest   *status.Entry `json:"latest"`
}

func (s *Server) detail(t config.Target) targetDetail {
	d := targetDetail{
		Name:     t.Name,
		URL:      t.URL,
		Scheme:   checker.ClassifyScheme(t.URL).String(),
		Expected: t.Expected,
		Status:   "unknown",
	}
	if s.latest == nil {
		return d
	}
	if e, ok := s.latest.Latest(t); ok {
		d.Status = e.Status
		d.Latest = &e
	}
	return d
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	details := make([]targetDetail, 0, len(s.targets))
	for _, t := range s.targets {
		details = append(details, s.detail(t))
	}
	writeJSON(w, http.StatusOK, details)
}

// handleGetTarget returns every registry entry sharing the name, typically
// the http and https variants of one site.
func (s *Server) handleGetTarget(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var details []targetDetail
	for _, t := range s.targets {
		if t.Name == name {
			details = append(details, s.detail(t))
		}
	}
	if len(details) == 0 {
		writeError(w, http.StatusNotFound, "target not found")
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// --- Middleware ---

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
