// Package api provides the HTTP API server and handlers for the ScoreDeck server.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/scoredeck/scoredeck-server/internal/realtime"
	"github.com/scoredeck/scoredeck-server/internal/service"
	"github.com/scoredeck/scoredeck-server/internal/store"
)

// Services groups the business logic services used by the API server.
type Services struct {
	Auth       *service.AuthService
	Scoreboard *service.ScoreboardService
	Search     service.SearchIndexer
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           *store.Store
	services        *Services
	hub             *realtime.Hub
	router          *chi.Mux
	api             huma.API
	metrics         *Metrics
	logger          *slog.Logger
	authRateLimiter *RateLimiter
}

// NewServer creates the HTTP server with all routes configured.
func NewServer(st *store.Store, services *Services, hub *realtime.Hub, allowedOrigins []string, logger *slog.Logger) *Server {
	s := &Server{
		store:    st,
		services: services,
		hub:      hub,
		router:   chi.NewRouter(),
		metrics:  NewMetrics(),
		logger:   logger,
		// 20 attempts per minute per IP on the credential endpoints.
		authRateLimiter: NewRateLimiter(20, time.Minute, 10),
	}

	s.setupMiddleware(allowedOrigins)

	humaConfig := huma.DefaultConfig("ScoreDeck API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerScoreboardRoutes()
	s.registerItemRoutes()
	s.registerSearchRoutes()
	s.registerAuditRoutes()
	s.registerLiveRoutes()

	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware(allowedOrigins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(s.metrics.Middleware)
	s.router.Use(middleware.Recoverer)
}
