package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/prince-mali2/Filmpire-backend/internal/apperror"
	"github.com/prince-mali2/Filmpire-backend/internal/model"
	"github.com/prince-mali2/Filmpire-backend/internal/service"
)

// maxBodyBytes bounds POST bodies; a movie snapshot is well under 1KB.
const maxBodyBytes = 64 << 10

// listText holds the user-facing strings of one list. The web client
// matches on some of these, so they are part of the API.
type listText struct {
	entryKey     string // key of the created entry in the 201 body
	statusKey    string // key of the membership flag
	collection   string // key of the GET /{kind}/{userId} array
	added        string
	duplicate    string
	addFailed    string
	removed      string
	notFound     string
	removeFailed string
	statusFailed string
	listFailed   string
}

var listTexts = map[model.ListKind]listText{
	model.Favorites: {
		entryKey:     "favorite",
		statusKey:    "isFavorited",
		collection:   "favorites",
		added:        "Added to favorites",
		duplicate:    "Movie is already in favorites",
		addFailed:    "Error adding to favorites",
		removed:      "Removed from favorites",
		notFound:     "Movie not found in favorites",
		removeFailed: "Error removing from favorites",
		statusFailed: "Error fetching favorite status",
		listFailed:   "Error fetching favorites",
	},
	model.Watchlist: {
		entryKey:     "watchlist",
		statusKey:    "isWatchListed",
		collection:   "watchlist",
		added:        "Added to watchlist",
		duplicate:    "Movie is already in the watchlist",
		addFailed:    "Error adding to watchlist",
		removed:      "Removed from watchlist",
		notFound:     "Movie not found in watchlist",
		removeFailed: "Error removing from watchlist",
		statusFailed: "Error fetching watchlist status",
		listFailed:   "Error fetching watchlist",
	},
}

// addRequest is the POST /favorites and POST /watchlist body.
type addRequest struct {
	UserID string     `json:"userId"`
	Movie  movieInput `json:"movie"`
}

// movieInput decodes the snapshot with its id as a json.Number, since some
// clients send integral ids in fraction form (42.0). The outer ID shadows
// the embedded one for the "id" key.
type movieInput struct {
	model.MovieSnapshot
	ID json.Number `json:"id"`
}

// snapshot returns the movie with its id parsed. A missing id stays 0 and
// is rejected by the service; a fractional or out-of-range id is a
// validation error here.
func (m movieInput) snapshot() (model.MovieSnapshot, error) {
	movie := m.MovieSnapshot
	if m.ID == "" {
		return movie, nil
	}
	if id, err := m.ID.Int64(); err == nil {
		movie.ID = id
		return movie, nil
	}
	f, err := m.ID.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return movie, apperror.ValidationFailed("movie.id", "movie id must be an integer")
	}
	movie.ID = int64(f)
	return movie, nil
}

// ListHandler serves the favorites / watchlist / profile routes.
type ListHandler struct {
	lists  *service.ListService
	logger *slog.Logger
}

func NewListHandler(lists *service.ListService, logger *slog.Logger) *ListHandler {
	return &ListHandler{lists: lists, logger: logger}
}

// HandleAdd returns a handler for POST /{kind}.
//
// REQUEST BODY: {"userId": "u1", "movie": {"id": 42, "title": "X", ...}}
// 201 {"message": "Added to favorites", "favorite": {...entry}}
// 400 {"message": "Movie is already in favorites"}
func (h *ListHandler) HandleAdd(kind model.ListKind) http.HandlerFunc {
	text := listTexts[kind]
	return func(w http.ResponseWriter, r *http.Request) {
		var req addRequest
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Warn("invalid list request JSON", slog.String("error", err.Error()))
			writeMessage(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		movie, err := req.Movie.snapshot()
		if err != nil {
			writeMessage(w, http.StatusBadRequest, validationMessage(err))
			return
		}

		entry, err := h.lists.Add(r.Context(), kind, req.UserID, movie)
		switch {
		case err == nil:
			writeJSON(w, http.StatusCreated, map[string]any{
				"message":     text.added,
				text.entryKey: entry,
			})
		case errors.Is(err, apperror.ErrConflict):
			writeMessage(w, http.StatusBadRequest, text.duplicate)
		case errors.Is(err, apperror.ErrValidation):
			writeMessage(w, http.StatusBadRequest, validationMessage(err))
		default:
			writeFailure(w, text.addFailed, err)
		}
	}
}

// HandleRemove returns a handler for DELETE /{kind}/{userId}/{movieId}.
// The 200 body carries the deleted entry under "result".
func (h *ListHandler) HandleRemove(kind model.ListKind) http.HandlerFunc {
	text := listTexts[kind]
	return func(w http.ResponseWriter, r *http.Request) {
		movieID, err := parseMovieID(r.PathValue("movieId"))
		if err != nil {
			writeMessage(w, http.StatusBadRequest, validationMessage(err))
			return
		}

		entry, err := h.lists.Remove(r.Context(), kind, r.PathValue("userId"), movieID)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]any{
				"message": text.removed,
				"result":  entry,
			})
		case errors.Is(err, apperror.ErrNotFound):
			writeMessage(w, http.StatusNotFound, text.notFound)
		case errors.Is(err, apperror.ErrValidation):
			writeMessage(w, http.StatusBadRequest, validationMessage(err))
		default:
			writeFailure(w, text.removeFailed, err)
		}
	}
}

// HandleStatus returns a handler for GET /{kind}/{userId}/{movieId}:
// {"isFavorited": true} or {"isWatchListed": false}.
func (h *ListHandler) HandleStatus(kind model.ListKind) http.HandlerFunc {
	text := listTexts[kind]
	return func(w http.ResponseWriter, r *http.Request) {
		movieID, err := parseMovieID(r.PathValue("movieId"))
		if err != nil {
			writeMessage(w, http.StatusBadRequest, validationMessage(err))
			return
		}

		ok, err := h.lists.Status(r.Context(), kind, r.PathValue("userId"), movieID)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]bool{text.statusKey: ok})
		case errors.Is(err, apperror.ErrValidation):
			writeMessage(w, http.StatusBadRequest, validationMessage(err))
		default:
			writeFailure(w, text.statusFailed, err)
		}
	}
}

// HandleList returns a handler for GET /{kind}/{userId}.
func (h *ListHandler) HandleList(kind model.ListKind) http.HandlerFunc {
	text := listTexts[kind]
	return func(w http.ResponseWriter, r *http.Request) {
		movies, err := h.lists.List(r.Context(), kind, r.PathValue("userId"))
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]any{text.collection: movies})
		case errors.Is(err, apperror.ErrValidation):
			writeMessage(w, http.StatusBadRequest, validationMessage(err))
		default:
			writeFailure(w, text.listFailed, err)
		}
	}
}

// HandleProfile serves GET /profile/{userId}:
// {"favorites": [...], "watchlist": [...]}, empty arrays for a new user.
func (h *ListHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.lists.Profile(r.Context(), r.PathValue("userId"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, profile)
	case errors.Is(err, apperror.ErrValidation):
		writeMessage(w, http.StatusBadRequest, validationMessage(err))
	default:
		writeFailure(w, "Error fetching profile data", err)
	}
}

// parseMovieID parses a base-10 movie id from a path segment.
func parseMovieID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, apperror.ValidationFailed("movieId", "movieId must be an integer")
	}
	return id, nil
}
