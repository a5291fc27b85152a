package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prince-mali2/Filmpire-backend/internal/metrics"
	"github.com/prince-mali2/Filmpire-backend/internal/repository/sqlite"
	"github.com/prince-mali2/Filmpire-backend/internal/service"
	"github.com/prince-mali2/Filmpire-backend/internal/tmdb"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestObservability() (Observability, *prometheus.Registry, *metrics.Collector) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	return Observability{Recorder: collector, MetricsHandler: metrics.Handler(reg)}, reg, collector
}

func newTestLists(t *testing.T) (*Server, *prometheus.Registry) {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	obs, reg, collector := newTestObservability()
	lists := service.NewListService(db, discardLogger(), collector)
	cfg := Config{Port: 0, CORSAllowedOrigins: []string{"http://localhost:3000"}}
	return NewLists(cfg, lists, db, obs, discardLogger()), reg
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, bytes.NewBufferString(body)))
	return rr
}

func TestLists_RoutesAndHealth(t *testing.T) {
	s, _ := newTestLists(t)
	h := s.Handler()

	assert.Equal(t, "lists", s.Name())

	rr := serve(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = serve(h, http.MethodPost, "/favorites", `{"userId":"u1","movie":{"id":5,"title":"A"}}`)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))

	rr = serve(h, http.MethodGet, "/favorites/u1/5", "")
	assert.JSONEq(t, `{"isFavorited":true}`, rr.Body.String())

	rr = serve(h, http.MethodGet, "/watchlist/u1", "")
	assert.JSONEq(t, `{"watchlist":[]}`, rr.Body.String())

	rr = serve(h, http.MethodGet, "/profile/u1", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLists_MetricsEndpoint(t *testing.T) {
	s, _ := newTestLists(t)
	h := s.Handler()

	serve(h, http.MethodPost, "/watchlist", `{"userId":"u1","movie":{"id":9}}`)
	serve(h, http.MethodPost, "/watchlist", `{"userId":"u1","movie":{"id":9}}`)

	rr := serve(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `filmpire_http_requests_total{method="POST"`)
	assert.Contains(t, body, `service="lists"`)
	assert.Contains(t, body, `filmpire_list_mutations_total{kind="watchlist",op="add",outcome="ok"} 1`)
	assert.Contains(t, body, `filmpire_list_mutations_total{kind="watchlist",op="add",outcome="conflict"} 1`)
}

func TestLists_CORSPreflight(t *testing.T) {
	s, _ := newTestLists(t)

	req := httptest.NewRequest(http.MethodOptions, "/favorites", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestProxy_Routes(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"genres":[]}`))
	}))
	t.Cleanup(upstream.Close)

	obs, _, collector := newTestObservability()
	client := tmdb.NewClient(upstream.Client(), discardLogger(), upstream.URL, "k", collector)
	s := NewProxy(Config{CORSAllowedOrigins: []string{"*"}}, client, obs, discardLogger())
	h := s.Handler()

	assert.Equal(t, "proxy", s.Name())

	rr := serve(h, http.MethodGet, "/", "")
	assert.Equal(t, "Welcome to the Server Proxy for TMDB API!", rr.Body.String())

	rr = serve(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(h, http.MethodGet, "/api/genre/movie/list", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"genres":[]}`, rr.Body.String())

	rr = serve(h, http.MethodGet, "/metrics", "")
	assert.Contains(t, rr.Body.String(), `filmpire_upstream_requests_total{status="200"} 1`)
}

func TestRunContext(t *testing.T) {
	t.Run("no servers", func(t *testing.T) {
		err := RunContext(context.Background(), discardLogger())
		assert.Error(t, err)
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		s, _ := newTestLists(t)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- RunContext(ctx, discardLogger(), s) }()

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("RunContext did not return after cancel")
		}
	})
}
