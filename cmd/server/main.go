// Package main is the entry point for the Filmpire backend.
//
// One binary serves both services. The first argument picks what runs:
//
//	serve        both services (default)
//	lists        favorites / watchlist / profile only
//	proxy        metadata proxy only
//	migrate      apply the store schema and exit
//	healthcheck  GET /health on the local lists port
//
// All settings come from the environment (optionally a .env file); see
// internal/config.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/prince-mali2/Filmpire-backend/internal/config"
	"github.com/prince-mali2/Filmpire-backend/internal/logging"
	"github.com/prince-mali2/Filmpire-backend/internal/metrics"
	"github.com/prince-mali2/Filmpire-backend/internal/repository"
	"github.com/prince-mali2/Filmpire-backend/internal/server"
	"github.com/prince-mali2/Filmpire-backend/internal/service"
	"github.com/prince-mali2/Filmpire-backend/internal/store"
	"github.com/prince-mali2/Filmpire-backend/internal/tmdb"
)

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck skips full initialisation; it only needs the port.
	if cmd == CommandHealthcheck {
		port := strings.TrimSpace(os.Getenv("LISTS_PORT"))
		if port == "" {
			port = "3002"
		}
		return runHealthcheck("http://localhost:" + port)
	}

	// === 1. CONFIGURATION ===
	cfg, err := config.Load(config.Options{RequireTMDB: cmd.needsTMDB()})
	if err != nil {
		return err
	}

	// === 2. LOGGING ===
	logger, closeLogs, err := newLogger(w, cfg)
	if err != nil {
		return err
	}
	defer closeLogs()

	logger.Info("starting application", slog.String("command", string(cmd)))

	// === 3. STORE ===
	var st repository.Store
	if cmd.needsStore() {
		st, err = openStore(cfg, logger)
		if err != nil {
			logger.Error("failed to open store", slog.String("error", err.Error()))
			return err
		}
		defer st.Close()
	}

	if cmd == CommandMigrate {
		logger.Info("store migrations completed")
		return nil
	}

	// === 4. METRICS ===
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)
	obs := server.Observability{
		Recorder:       collector,
		MetricsHandler: metrics.Handler(reg),
	}

	// === 5. SERVERS ===
	var servers []*server.Server

	if cmd == CommandServe || cmd == CommandLists {
		lists := service.NewListService(st, logger, collector)
		servers = append(servers, server.NewLists(server.Config{
			Port:               cfg.ListsPort,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		}, lists, st, obs, logger))
	}

	if cmd == CommandServe || cmd == CommandProxy {
		httpClient := &http.Client{Timeout: cfg.TMDBTimeout}
		client := tmdb.NewClient(httpClient, logger, cfg.TMDBBaseURL, cfg.TMDBAPIKey, collector)
		servers = append(servers, server.NewProxy(server.Config{
			Port:               cfg.ProxyPort,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		}, client, obs, logger))
	}

	// Run blocks until SIGINT / SIGTERM.
	if err := server.Run(logger, servers...); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// newLogger builds the application logger. The returned func flushes and
// closes the Fluent Bit client when one is in use.
func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, func(), error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	opts := logging.Options{
		Writer:  w,
		Level:   level,
		Format:  cfg.LogFormat,
		AppName: cfg.AppName,
	}
	closeLogs := func() {}

	if cfg.FluentBitEnabled {
		client, err := logging.NewFluentClient(cfg.FluentBitHost, cfg.FluentBitPort, cfg.AppName)
		if err != nil {
			return nil, nil, err
		}
		opts.Fluent = client
		closeLogs = func() { client.Close() }
	}

	return logging.New(opts), closeLogs, nil
}

// openStore connects to the configured backend and brings its schema up to
// date. Every command that opens the store migrates it, so a fresh database
// works without a separate migrate step.
func openStore(cfg *config.Config, logger *slog.Logger) (repository.Store, error) {
	if dir := sqliteDir(cfg.StoreURL); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backend, _ := store.Detect(cfg.StoreURL)
	logger.Info("opening store",
		slog.String("backend", string(backend)),
		slog.String("url", maskURL(cfg.StoreURL)),
	)

	st, err := store.Open(ctx, store.Config{URL: cfg.StoreURL, Database: cfg.StoreDatabase})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrating store: %w", err)
	}
	return st, nil
}

// runHealthcheck GETs {baseURL}/health and fails on anything but 200.
func runHealthcheck(baseURL string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// sqliteDir returns the directory an SQLite store URL points into, or ""
// when there is nothing to create.
func sqliteDir(storeURL string) string {
	backend, dsn := store.Detect(storeURL)
	if backend != store.SQLite {
		return ""
	}
	if i := strings.IndexByte(dsn, '?'); i >= 0 {
		dsn = dsn[:i]
	}
	if dsn == "" || dsn == ":memory:" {
		return ""
	}
	if dir := filepath.Dir(dsn); dir != "." {
		return dir
	}
	return ""
}

// maskURL hides the password in a connection URL before it is logged.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
