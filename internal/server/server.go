// Package server sets up the HTTP servers, routers, and route definitions.
//
// The binary runs two services, each with its own http.Server and chi
// router:
//
//	lists  favorites / watchlist / profile, backed by the store
//	proxy  the metadata API relay under /api
//
// Both share the same middleware stack and expose /health and /metrics.
// Run starts any number of them and shuts them all down on SIGINT/SIGTERM.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/prince-mali2/Filmpire-backend/internal/handler"
	"github.com/prince-mali2/Filmpire-backend/internal/middleware"
	"github.com/prince-mali2/Filmpire-backend/internal/model"
	"github.com/prince-mali2/Filmpire-backend/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Config holds the settings shared by both servers.
type Config struct {
	Port               int
	CORSAllowedOrigins []string
}

// Observability is what every server needs for /metrics and request
// instrumentation.
type Observability struct {
	Recorder       middleware.RequestRecorder
	MetricsHandler http.Handler
}

// Server is one named HTTP service.
type Server struct {
	name   string
	router *chi.Mux
	config Config
	logger *slog.Logger
}

// newServer creates a router with the middleware every service runs.
//
// MIDDLEWARE ORDER:
//  1. RequestID: assigns X-Request-ID for log correlation
//  2. RealIP: extracts the client IP from proxy headers
//  3. Recoverer: turns a panic into a 500
//  4. Logger, Metrics: observe the final status
//  5. CORS: answers preflights before routing
func newServer(name string, cfg Config, obs Observability, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("service", name))

	s := &Server{
		name:   name,
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(logger))
	if obs.Recorder != nil {
		s.router.Use(middleware.Metrics(name, obs.Recorder))
	}
	s.router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	if obs.MetricsHandler != nil {
		s.router.Handle("/metrics", obs.MetricsHandler)
	}
	return s
}

// NewLists builds the user-list service.
//
// ROUTES (for kind in favorites, watchlist):
// POST   /{kind}                     → add a movie
// GET    /{kind}/{userId}            → the user's list
// GET    /{kind}/{userId}/{movieId}  → membership flag
// DELETE /{kind}/{userId}/{movieId}  → remove a movie
// GET    /profile/{userId}           → both lists
// GET    /health                     → store ping
func NewLists(cfg Config, lists *service.ListService, store handler.Pinger, obs Observability, logger *slog.Logger) *Server {
	s := newServer("lists", cfg, obs, logger)

	listHandler := handler.NewListHandler(lists, s.logger)
	healthHandler := handler.NewHealthHandler(store, s.logger)

	for _, kind := range model.Kinds {
		s.router.Route("/"+string(kind), func(r chi.Router) {
			r.Post("/", listHandler.HandleAdd(kind))
			r.Get("/{userId}", listHandler.HandleList(kind))
			r.Get("/{userId}/{movieId}", listHandler.HandleStatus(kind))
			r.Delete("/{userId}/{movieId}", listHandler.HandleRemove(kind))
		})
	}
	s.router.Get("/profile/{userId}", listHandler.HandleProfile)
	s.router.Get("/health", healthHandler.HandleHealth)

	return s
}

// NewProxy builds the metadata proxy. Route table lives in handler/proxy.go.
func NewProxy(cfg Config, upstream handler.Upstream, obs Observability, logger *slog.Logger) *Server {
	s := newServer("proxy", cfg, obs, logger)

	proxyHandler := handler.NewProxyHandler(upstream, s.logger)
	healthHandler := handler.NewHealthHandler(nil, s.logger)

	s.router.Get("/", proxyHandler.HandleWelcome)
	s.router.Get("/health", healthHandler.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/genre/movie/list", proxyHandler.HandleGenres)
		r.Get("/movie/popular", proxyHandler.HandlePopular)
		r.Get("/discover/movie", proxyHandler.HandleDiscover)
		r.Get("/discover/movie/{with_cast}", proxyHandler.HandleDiscoverByCast)
		r.Get("/movie/{id}", proxyHandler.HandleMovie)
		r.Get("/movie/{movie_id}/{list}", proxyHandler.HandleMovieList)
		r.Get("/person/{id}", proxyHandler.HandlePerson)
		r.Get("/account/{accountId}/favorite/movies", proxyHandler.HandleAccountFavorites)
		r.Get("/account/{accountId}/watchlist/movies", proxyHandler.HandleAccountWatchlist)
		r.Get("/search/movie", proxyHandler.HandleSearch)
		r.Get("/auth/request_token", proxyHandler.HandleRequestToken)
		r.Post("/auth/session", proxyHandler.HandleCreateSession)
		r.Get("/account", proxyHandler.HandleAccount)
	})

	return s
}

// Name is "lists" or "proxy".
func (s *Server) Name() string { return s.name }

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) httpServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Run starts every server and blocks until a SIGINT/SIGTERM arrives or one
// of them fails. All servers then get shutdownTimeout to drain.
func Run(logger *slog.Logger, servers ...*Server) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return RunContext(ctx, logger, servers...)
}

// RunContext is Run with the stop signal supplied by ctx.
func RunContext(ctx context.Context, logger *slog.Logger, servers ...*Server) error {
	if len(servers) == 0 {
		return errors.New("server: nothing to run")
	}

	httpServers := make([]*http.Server, len(servers))
	serverErrors := make(chan error, len(servers))

	for i, s := range servers {
		srv := s.httpServer()
		httpServers[i] = srv

		go func(s *Server, srv *http.Server) {
			s.logger.Info("server starting",
				slog.Int("port", s.config.Port),
				slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErrors <- fmt.Errorf("%s server: %w", s.name, err)
			}
		}(s, srv)
	}

	var runErr error
	select {
	case runErr = <-serverErrors:
		logger.Error("server failed, shutting down", slog.String("error", runErr.Error()))
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for i, srv := range httpServers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("%s graceful shutdown failed: %w", servers[i].name, err))
		}
	}
	if runErr == nil {
		logger.Info("servers stopped gracefully")
	}
	return runErr
}
