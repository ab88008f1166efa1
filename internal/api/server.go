// Package api exposes the aggregation, export, restaurant directory and
// invite operations over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"places-workers/internal/common/logger"
	"places-workers/internal/common/observability"
	"places-workers/internal/common/validation"
	"places-workers/internal/models"
	"places-workers/internal/restaurants"
	"places-workers/internal/tours"
)

const defaultMaxBodyBytes = 10 << 20

type ToursAggregator interface {
	Aggregate(ctx context.Context, city, keywords string) (*tours.Result, error)
}

type RestaurantDirectory interface {
	Refresh(ctx context.Context, region string) (*restaurants.RefreshReport, error)
	List(ctx context.Context) ([]models.RestaurantRecord, error)
}

type InviteSender interface {
	Send(ctx context.Context, inv models.Invite) (string, error)
}

// Deps are the collaborators behind the routes. Invites may be nil when
// delivery is disabled; Ready may be nil when there is nothing to probe.
type Deps struct {
	Tours       ToursAggregator
	Restaurants RestaurantDirectory
	Invites     InviteSender
	Ready       func(ctx context.Context) error
}

type Options struct {
	HashSecret   string
	MaxBodyBytes int64
}

type Server struct {
	deps      Deps
	opts      Options
	validator *validation.Validator
	logger    logger.Logger
	obs       *observability.Observability
	mux       *http.ServeMux
}

// NewServer builds the route table. obs may be nil.
func NewServer(deps Deps, opts Options, validator *validation.Validator, log logger.Logger, obs *observability.Observability) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	s := &Server{
		deps:      deps,
		opts:      opts,
		validator: validator,
		logger:    log.WithFields(map[string]interface{}{"component": "api"}),
		obs:       obs,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.handle("POST /api/tours", s.handleTours)
	s.handle("POST /api/download", s.handleDownload)
	s.handle("POST /api/restaurants", s.handleRefreshRestaurants)
	s.handle("GET /api/restaurants", s.handleListRestaurants)
	s.handle("POST /api/send-invite", s.handleSendInvite)
	s.handle("GET /api/dashboard-link", s.handleDashboardLink)

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /ready", s.handleReady)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handle registers h and records its outcome under the route pattern.
func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.obs.Record(r.Context(), pattern, strconv.Itoa(rec.status), time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.deps.Ready(ctx); err != nil {
			s.logger.Warn("readiness probe failed", map[string]interface{}{"error": err})
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"time":   time.Now().Format(time.RFC3339),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
