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

	"github.com/mkarag/riskfolio/internal/modules/allocation"
	"github.com/mkarag/riskfolio/internal/modules/history"
	"github.com/mkarag/riskfolio/internal/modules/risk"
	"github.com/mkarag/riskfolio/internal/scheduler"
)

// Config holds server configuration
type Config struct {
	Port    int
	DevMode bool
	Log     zerolog.Logger

	HistoryHandler    *history.Handler
	RiskHandler       *risk.Handler
	AllocationHandler *allocation.Handler
	Provider          *history.Provider
	Scheduler         *scheduler.Scheduler
	RefreshJobName    string
}

// Server represents the HTTP server
type Server struct {
	router  *chi.Mux
	server  *http.Server
	log     zerolog.Logger
	started time.Time

	provider       *history.Provider
	sched          *scheduler.Scheduler
	refreshJobName string
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		started:  time.Now(),
		provider: cfg.Provider,

		sched:          cfg.Scheduler,
		refreshJobName: cfg.RefreshJobName,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes(cfg Config) {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.handleSystemStatus)
		})
		r.Route("/history", cfg.HistoryHandler.Routes)
		r.Route("/risk", cfg.RiskHandler.Routes)
		r.Route("/allocation", cfg.AllocationHandler.Routes)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
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
