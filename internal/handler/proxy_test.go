package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prince-mali2/Filmpire-backend/internal/handler"
	"github.com/prince-mali2/Filmpire-backend/internal/tmdb"
)

// fakeTMDB records every call it receives and answers with a canned reply.
type fakeTMDB struct {
	mu     sync.Mutex
	calls  []*http.Request
	bodies []string

	status int
	body   string
}

func (f *fakeTMDB) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, r)
	f.bodies = append(f.bodies, string(raw))
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json;charset=utf-8")
	if f.status != 0 {
		w.WriteHeader(f.status)
	}
	w.Write([]byte(f.body))
}

func (f *fakeTMDB) only(t *testing.T) *http.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.calls, 1, "expected exactly one upstream call")
	return f.calls[0]
}

func proxyRouter(h *handler.ProxyHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.HandleWelcome)
	r.Route("/api", func(r chi.Router) {
		r.Get("/genre/movie/list", h.HandleGenres)
		r.Get("/movie/popular", h.HandlePopular)
		r.Get("/discover/movie", h.HandleDiscover)
		r.Get("/discover/movie/{with_cast}", h.HandleDiscoverByCast)
		r.Get("/movie/{id}", h.HandleMovie)
		r.Get("/movie/{movie_id}/{list}", h.HandleMovieList)
		r.Get("/person/{id}", h.HandlePerson)
		r.Get("/account/{accountId}/favorite/movies", h.HandleAccountFavorites)
		r.Get("/account/{accountId}/watchlist/movies", h.HandleAccountWatchlist)
		r.Get("/search/movie", h.HandleSearch)
		r.Get("/auth/request_token", h.HandleRequestToken)
		r.Post("/auth/session", h.HandleCreateSession)
		r.Get("/account", h.HandleAccount)
	})
	return r
}

func newProxy(t *testing.T, upstream *fakeTMDB) http.Handler {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	client := tmdb.NewClient(&http.Client{Timeout: 5 * time.Second}, testLogger(), srv.URL, "server-key", nil)
	return proxyRouter(handler.NewProxyHandler(client, testLogger()))
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestProxy_PopularPassesPageAndKey(t *testing.T) {
	up := &fakeTMDB{body: `{"page":2,"results":[]}`}
	p := newProxy(t, up)

	rr := get(p, "/api/movie/popular?page=2")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"page":2,"results":[]}`, rr.Body.String())
	assert.Equal(t, "application/json;charset=utf-8", rr.Header().Get("Content-Type"))

	call := up.only(t)
	assert.Equal(t, "/movie/popular", call.URL.Path)
	assert.Equal(t, url.Values{"page": {"2"}, "api_key": {"server-key"}}, call.URL.Query())
}

func TestProxy_RouteTable(t *testing.T) {
	tests := []struct {
		name      string
		inbound   string
		wantPath  string
		wantQuery url.Values
	}{
		{"genres", "/api/genre/movie/list", "/genre/movie/list", url.Values{}},
		{"popular default page", "/api/movie/popular", "/movie/popular", url.Values{"page": {"1"}}},
		{"discover by genre", "/api/discover/movie?with_genres=28", "/discover/movie",
			url.Values{"with_genres": {"28"}, "page": {"1"}}},
		{"discover with query searches", "/api/discover/movie?query=alien&page=3", "/search/movie",
			url.Values{"query": {"alien"}, "page": {"3"}}},
		{"discover drops empty params", "/api/discover/movie?with_genres=&query=", "/discover/movie",
			url.Values{"page": {"1"}}},
		{"discover by cast from query", "/api/discover/movie/ignored?with_cast=287", "/discover/movie",
			url.Values{"with_cast": {"287"}, "page": {"1"}}},
		{"movie detail", "/api/movie/550?append_to_response=videos,credits", "/movie/550",
			url.Values{"append_to_response": {"videos,credits"}}},
		{"movie detail without append", "/api/movie/550", "/movie/550", url.Values{}},
		{"recommendations", "/api/movie/550/recommendations", "/movie/550/recommendations", url.Values{}},
		{"person", "/api/person/287", "/person/287", url.Values{}},
		{"account favorites", "/api/account/9/favorite/movies?session_id=s1", "/account/9/favorite/movies",
			url.Values{"session_id": {"s1"}, "page": {"1"}}},
		{"account watchlist", "/api/account/9/watchlist/movies?session_id=s1&page=4", "/account/9/watchlist/movies",
			url.Values{"session_id": {"s1"}, "page": {"4"}}},
		{"search", "/api/search/movie?query=heat", "/search/movie",
			url.Values{"query": {"heat"}, "page": {"1"}}},
		{"request token", "/api/auth/request_token", "/authentication/token/new", url.Values{}},
		{"account", "/api/account?session_id=s1", "/account", url.Values{"session_id": {"s1"}}},
		{"unlisted params are not forwarded", "/api/person/1?evil=1", "/person/1", url.Values{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &fakeTMDB{body: `{}`}
			p := newProxy(t, up)

			rr := get(p, tt.inbound)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

			call := up.only(t)
			assert.Equal(t, tt.wantPath, call.URL.Path)

			want := url.Values{"api_key": {"server-key"}}
			for k, v := range tt.wantQuery {
				want[k] = v
			}
			assert.Equal(t, want, call.URL.Query())
		})
	}
}

func TestProxy_RequiredParamsFailFast(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		wantErr string
	}{
		{"search without query", http.MethodGet, "/api/search/movie", "", "Query parameter is required"},
		{"cast without with_cast", http.MethodGet, "/api/discover/movie/287", "", "Actor ID (with_cast) is required"},
		{"account without session", http.MethodGet, "/api/account", "", "Session ID required"},
		{"session without token", http.MethodPost, "/api/auth/session", `{}`, "Request token required"},
		{"session with bad JSON", http.MethodPost, "/api/auth/session", `{`, "Request token required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &fakeTMDB{body: `{}`}
			p := newProxy(t, up)

			rr := httptest.NewRecorder()
			p.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body)))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			var body handler.ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.wantErr, body.Error)
			assert.Empty(t, up.calls, "no upstream call expected")
		})
	}
}

func TestProxy_CreateSessionPostsToken(t *testing.T) {
	up := &fakeTMDB{body: `{"success":true,"session_id":"abc"}`}
	p := newProxy(t, up)

	rr := httptest.NewRecorder()
	p.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/session",
		bytes.NewBufferString(`{"request_token":"tok"}`)))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"session_id":"abc"}`, rr.Body.String())

	call := up.only(t)
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "/authentication/session/new", call.URL.Path)
	assert.Equal(t, "server-key", call.URL.Query().Get("api_key"))
	assert.JSONEq(t, `{"request_token":"tok"}`, up.bodies[0])
}

func TestProxy_ForwardsUpstreamStatus(t *testing.T) {
	upstreamBody := `{"status_code":34,"status_message":"The resource you requested could not be found."}`
	up := &fakeTMDB{status: http.StatusNotFound, body: upstreamBody}
	p := newProxy(t, up)

	rr := get(p, "/api/movie/0")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, upstreamBody, rr.Body.String())
}

func TestProxy_TransportFailureIsBadGateway(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	client := tmdb.NewClient(&http.Client{Timeout: time.Second}, logger, deadURL, "server-key", nil)
	p := proxyRouter(handler.NewProxyHandler(client, logger))

	rr := get(p, "/api/genre/movie/list")

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	var body handler.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error)
	assert.NotContains(t, body.Error, "server-key")

	assert.Contains(t, logs.String(), "proxy request failed")
	assert.NotContains(t, logs.String(), "server-key")
}

func TestProxy_PathSegmentsAreEscaped(t *testing.T) {
	up := &fakeTMDB{body: `{}`}
	p := newProxy(t, up)

	get(p, "/api/person/1%3Fapi_key=stolen")

	call := up.only(t)
	assert.True(t, strings.HasPrefix(call.URL.Path, "/person/1"), call.URL.Path)
	assert.Equal(t, []string{"server-key"}, call.URL.Query()["api_key"])
}

func TestProxy_Welcome(t *testing.T) {
	p := newProxy(t, &fakeTMDB{})

	rr := get(p, "/")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Welcome to the Server Proxy for TMDB API!", rr.Body.String())
}
