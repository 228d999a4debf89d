// Package server provides the HTTP server and routing for folio.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/mgalanis/folio/internal/auth"
	"github.com/mgalanis/folio/internal/config"
	"github.com/mgalanis/folio/internal/database"
	"github.com/mgalanis/folio/internal/events"
	"github.com/mgalanis/folio/internal/modules/history"
	"github.com/mgalanis/folio/internal/modules/ledger"
	ledgerhandlers "github.com/mgalanis/folio/internal/modules/ledger/handlers"
	"github.com/mgalanis/folio/internal/modules/users"

	"github.com/mgalanis/folio/internal/domain"
)

// Config holds server configuration
type Config struct {
	Log            zerolog.Logger
	Config         *config.Config
	FolioDB        *database.DB
	CacheDB        *database.DB
	Bus            *events.Bus
	UsersService   *users.Service
	LedgerService  *ledger.Service
	QuoteProvider  domain.QuoteProvider
	HistoryService *history.Service
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    *config.Config
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg.Config,
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(cfg Config) {
	systemHandlers := NewSystemHandlers(s.log, cfg.FolioDB, cfg.CacheDB)
	authHandlers := users.NewHandler(cfg.UsersService, s.log)
	portfolioHandlers := ledgerhandlers.NewHandler(cfg.LedgerService, cfg.QuoteProvider, cfg.HistoryService, s.log)
	streamHandler := NewEventsStreamHandler(cfg.Bus, s.log)

	s.router.Route("/api", func(r chi.Router) {
		// Public endpoints
		authHandlers.RegisterRoutes(r)
		r.Get("/system/health", systemHandlers.HandleHealth)

		// Everything else needs a bearer token
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cfg.UsersService))
			portfolioHandlers.RegisterRoutes(r)
			r.Get("/events/stream", streamHandler.ServeHTTP)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests with structured fields
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
