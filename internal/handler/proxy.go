package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/prince-mali2/Filmpire-backend/internal/apperror"
	"github.com/prince-mali2/Filmpire-backend/internal/tmdb"
)

const welcomeText = "Welcome to the Server Proxy for TMDB API!"

// Upstream is the metadata API client. *tmdb.Client implements it.
type Upstream interface {
	Get(ctx context.Context, path string, params url.Values) (*tmdb.Response, error)
	Post(ctx context.Context, path string, params url.Values, body any) (*tmdb.Response, error)
}

// ProxyHandler relays a fixed set of routes to the metadata API.
//
// Every route follows the same steps: copy an allow-list of query params,
// build the upstream path, make exactly one call, and relay status,
// Content-Type and body verbatim. Only transport failures are translated
// (502 {"error": "..."}).
type ProxyHandler struct {
	upstream Upstream
	logger   *slog.Logger
}

func NewProxyHandler(upstream Upstream, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{upstream: upstream, logger: logger}
}

// HandleWelcome serves GET / as plain text.
func (h *ProxyHandler) HandleWelcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(welcomeText))
}

// HandleGenres: GET /api/genre/movie/list
func (h *ProxyHandler) HandleGenres(w http.ResponseWriter, r *http.Request) {
	h.relay(w, r, "/genre/movie/list", nil)
}

// HandlePopular: GET /api/movie/popular?page
func (h *ProxyHandler) HandlePopular(w http.ResponseWriter, r *http.Request) {
	h.relay(w, r, "/movie/popular", url.Values{"page": {page(r)}})
}

// HandleDiscover: GET /api/discover/movie?with_genres&page&query
// A query switches the call to /search/movie.
func (h *ProxyHandler) HandleDiscover(w http.ResponseWriter, r *http.Request) {
	params := copyQuery(r, "with_genres", "query")
	params.Set("page", page(r))

	path := "/discover/movie"
	if params.Get("query") != "" {
		path = "/search/movie"
	}
	h.relay(w, r, path, params)
}

// HandleDiscoverByCast: GET /api/discover/movie/{with_cast}?with_cast&page
// The filter comes from the query string; the path segment is ignored.
func (h *ProxyHandler) HandleDiscoverByCast(w http.ResponseWriter, r *http.Request) {
	cast := strings.TrimSpace(r.URL.Query().Get("with_cast"))
	if cast == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Actor ID (with_cast) is required"})
		return
	}
	h.relay(w, r, "/discover/movie", url.Values{"with_cast": {cast}, "page": {page(r)}})
}

// HandleMovie: GET /api/movie/{id}?append_to_response
func (h *ProxyHandler) HandleMovie(w http.ResponseWriter, r *http.Request) {
	h.relay(w, r, "/movie/"+segment(r, "id"), copyQuery(r, "append_to_response"))
}

// HandleMovieList: GET /api/movie/{movie_id}/{list}, e.g. recommendations or similar.
func (h *ProxyHandler) HandleMovieList(w http.ResponseWriter, r *http.Request) {
	h.relay(w, r, "/movie/"+segment(r, "movie_id")+"/"+segment(r, "list"), nil)
}

// HandlePerson: GET /api/person/{id}
func (h *ProxyHandler) HandlePerson(w http.ResponseWriter, r *http.Request) {
	h.relay(w, r, "/person/"+segment(r, "id"), nil)
}

// HandleAccountFavorites: GET /api/account/{accountId}/favorite/movies?session_id&page
func (h *ProxyHandler) HandleAccountFavorites(w http.ResponseWriter, r *http.Request) {
	params := copyQuery(r, "session_id")
	params.Set("page", page(r))
	h.relay(w, r, "/account/"+segment(r, "accountId")+"/favorite/movies", params)
}

// HandleAccountWatchlist: GET /api/account/{accountId}/watchlist/movies?session_id&page
func (h *ProxyHandler) HandleAccountWatchlist(w http.ResponseWriter, r *http.Request) {
	params := copyQuery(r, "session_id")
	params.Set("page", page(r))
	h.relay(w, r, "/account/"+segment(r, "accountId")+"/watchlist/movies", params)
}

// HandleSearch: GET /api/search/movie?query&page. query is required.
func (h *ProxyHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if strings.TrimSpace(query) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Query parameter is required"})
		return
	}
	h.relay(w, r, "/search/movie", url.Values{"query": {query}, "page": {page(r)}})
}

// HandleRequestToken: GET /api/auth/request_token
func (h *ProxyHandler) HandleRequestToken(w http.ResponseWriter, r *http.Request) {
	h.relay(w, r, "/authentication/token/new", nil)
}

// HandleCreateSession: POST /api/auth/session {"request_token": "..."}
func (h *ProxyHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RequestToken string `json:"request_token"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.RequestToken) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Request token required"})
		return
	}

	resp, err := h.upstream.Post(r.Context(), "/authentication/session/new", nil,
		map[string]string{"request_token": body.RequestToken})
	h.write(w, r, resp, err)
}

// HandleAccount: GET /api/account?session_id. session_id is required.
func (h *ProxyHandler) HandleAccount(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if strings.TrimSpace(sessionID) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Session ID required"})
		return
	}
	h.relay(w, r, "/account", url.Values{"session_id": {sessionID}})
}

func (h *ProxyHandler) relay(w http.ResponseWriter, r *http.Request, path string, params url.Values) {
	resp, err := h.upstream.Get(r.Context(), path, params)
	h.write(w, r, resp, err)
}

// write relays resp, or maps err to a status. The full error is logged;
// the client gets only a short description.
func (h *ProxyHandler) write(w http.ResponseWriter, r *http.Request, resp *tmdb.Response, err error) {
	if err != nil {
		status := http.StatusInternalServerError
		message := "internal error"
		if errors.Is(err, apperror.ErrUpstream) {
			status = http.StatusBadGateway
			message = "metadata API unavailable"
		}
		h.logger.Error("proxy request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeJSON(w, status, ErrorResponse{Error: message})
		return
	}

	w.Header().Set("Content-Type", resp.ContentType)
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(resp.Body); err != nil {
		h.logger.Warn("writing proxied response failed", slog.String("error", err.Error()))
	}
}

// copyQuery copies the named query params that are present and non-empty.
func copyQuery(r *http.Request, keys ...string) url.Values {
	q := r.URL.Query()
	out := url.Values{}
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			out.Set(k, v)
		}
	}
	return out
}

// page returns the page query param, or "1".
func page(r *http.Request) string {
	if p := strings.TrimSpace(r.URL.Query().Get("page")); p != "" {
		return p
	}
	return "1"
}

// segment returns a path param escaped for reuse in the upstream path.
func segment(r *http.Request, name string) string {
	return url.PathEscape(r.PathValue(name))
}
