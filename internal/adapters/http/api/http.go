// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/internal/domain/session"
	"github.com/okian/spotrank/internal/domain/tier"
	"github.com/okian/spotrank/internal/domain/types"
	"github.com/okian/spotrank/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Read operations expose a user's list and the shared catalog.
	Rankings(ctx context.Context, user string) ([]Entry, error)
	Current(ctx context.Context, user string) (session.View, error)
	Suggestions(ctx context.Context, user, query string, limit int) ([]model.Spot, error)
	Feed(limit int) []model.Activity

	// Session operations drive one user's ranking session.
	BeginAdd(ctx context.Context, user string, c model.Candidate) (Step, error)
	BeginEdit(ctx context.Context, user, name string, notes *string) (Step, error)
	SelectTier(ctx context.Context, user string, t tier.Tier) (Step, error)
	Choose(ctx context.Context, user string, preferNew bool) (Step, error)
	Retry(ctx context.Context, user string) (Step, error)
	Cancel(ctx context.Context, user string) error
	Delete(ctx context.Context, user, name string) ([]Entry, error)
}

// Entry mirrors the read shape of one ranked row.
type Entry = types.Entry

// Step mirrors the outcome of a session action.
type Step = types.Step

// Server wires HTTP routes for the business API.
type Server struct {
	router chi.Router
	logger logger.Logger

	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	rankingsHandler *RankingsHandler
	sessionHandler  *SessionHandler
	spotsHandler    *SpotsHandler

	limiter *rate.Limiter
	origins []string
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		router:          chi.NewRouter(),
		logger:          logger.Get().Named("http"),
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		rankingsHandler: NewRankingsHandler(deps),
		sessionHandler:  NewSessionHandler(deps),
		spotsHandler:    NewSpotsHandler(deps),
		origins:         []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupMiddleware()
	return s
}

// Router returns the underlying chi router so other packages can mount routes.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

// Register attaches all business routes to the router.
func (s *Server) Register(_ context.Context) {
	// Operational endpoints bypass the rate limiter.
	s.router.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	s.router.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	s.router.Group(func(r chi.Router) {
		r.Use(RateLimit(s.limiter))

		r.Route("/api/rankings/{user}", func(r chi.Router) {
			r.Get("/", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings"))
			r.Delete("/items/{name}", MetricsMiddleware(s.rankingsHandler.HandleDeleteItem, "rankings_item"))

			r.Route("/session", func(r chi.Router) {
				r.Get("/", MetricsMiddleware(s.sessionHandler.HandleGetSession, "session"))
				r.Post("/", MetricsMiddleware(s.sessionHandler.HandleStartAdd, "session"))
				r.Delete("/", MetricsMiddleware(s.sessionHandler.HandleCancel, "session"))
				r.Post("/edit", MetricsMiddleware(s.sessionHandler.HandleStartEdit, "session_edit"))
				r.Post("/tier", MetricsMiddleware(s.sessionHandler.HandleSelectTier, "session_tier"))
				r.Post("/choice", MetricsMiddleware(s.sessionHandler.HandleChoice, "session_choice"))
				r.Post("/retry", MetricsMiddleware(s.sessionHandler.HandleRetry, "session_retry"))
			})
		})

		r.Get("/api/spots", MetricsMiddleware(s.spotsHandler.HandleSuggestions, "spots"))
		r.Get("/api/feed", MetricsMiddleware(s.spotsHandler.HandleFeed, "feed"))
	})
}

type errorResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Session *session.View `json:"session,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return ErrBadRequest
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return ErrBadRequest
	}
	return nil
}

// pathParam returns the unescaped chi URL parameter key.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		raw = v
	}
	return strings.TrimSpace(raw)
}
