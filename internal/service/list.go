// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the store
//
// ListService takes a repository.ListRepository (interface), not a concrete
// store, so tests pass an in-memory fake and main.go picks SQLite, Postgres
// or MongoDB from configuration.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prince-mali2/Filmpire-backend/internal/apperror"
	"github.com/prince-mali2/Filmpire-backend/internal/model"
	"github.com/prince-mali2/Filmpire-backend/internal/repository"
)

// Mutation outcomes reported to the MutationRecorder.
const (
	OutcomeOK       = "ok"
	OutcomeConflict = "conflict"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// MutationRecorder receives one call per Add / Remove. metrics.Collector
// implements it.
type MutationRecorder interface {
	RecordListMutation(kind, op, outcome string)
}

type noopRecorder struct{}

func (noopRecorder) RecordListMutation(string, string, string) {}

// ListService manages the favorites and watchlist of each user.
type ListService struct {
	repo     repository.ListRepository
	logger   *slog.Logger
	recorder MutationRecorder
}

// NewListService creates a ListService. recorder may be nil.
func NewListService(repo repository.ListRepository, logger *slog.Logger, recorder MutationRecorder) *ListService {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &ListService{
		repo:     repo,
		logger:   logger,
		recorder: recorder,
	}
}

// Add puts movie on the user's list.
//
// NO EXISTENCE CHECK:
// A read-then-insert lets two concurrent requests both see "absent" and both
// insert. Instead the store's unique constraint on (userId, movie.id) is the
// single source of truth, and its violation comes back as ErrConflict.
func (s *ListService) Add(ctx context.Context, kind model.ListKind, userID string, movie model.MovieSnapshot) (*model.ListEntry, error) {
	userID = strings.TrimSpace(userID)
	if err := validateKey(kind, userID, movie.ID); err != nil {
		s.recorder.RecordListMutation(string(kind), "add", OutcomeInvalid)
		return nil, err
	}

	entry := &model.ListEntry{UserID: userID, Movie: movie}
	if err := s.repo.Insert(ctx, kind, entry); err != nil {
		if isConflict(err) {
			s.recorder.RecordListMutation(string(kind), "add", OutcomeConflict)
			return nil, err
		}
		s.recorder.RecordListMutation(string(kind), "add", OutcomeError)
		s.logger.Error("failed to add list entry",
			slog.String("list", string(kind)),
			slog.String("user_id", userID),
			slog.Int64("movie_id", movie.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("adding to %s: %w", kind, err)
	}

	s.recorder.RecordListMutation(string(kind), "add", OutcomeOK)
	s.logger.Info("list entry added",
		slog.String("list", string(kind)),
		slog.String("id", entry.ID),
		slog.String("user_id", userID),
		slog.Int64("movie_id", movie.ID),
	)
	return entry, nil
}

// Remove deletes the user's entry for movieID and returns it.
// Returns apperror.ErrNotFound if the movie is not on the list.
func (s *ListService) Remove(ctx context.Context, kind model.ListKind, userID string, movieID int64) (*model.ListEntry, error) {
	userID = strings.TrimSpace(userID)
	if err := validateKey(kind, userID, movieID); err != nil {
		s.recorder.RecordListMutation(string(kind), "remove", OutcomeInvalid)
		return nil, err
	}

	entry, err := s.repo.Delete(ctx, kind, userID, movieID)
	if err != nil {
		if isNotFound(err) {
			s.recorder.RecordListMutation(string(kind), "remove", OutcomeNotFound)
			return nil, err
		}
		s.recorder.RecordListMutation(string(kind), "remove", OutcomeError)
		s.logger.Error("failed to remove list entry",
			slog.String("list", string(kind)),
			slog.String("user_id", userID),
			slog.Int64("movie_id", movieID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("removing from %s: %w", kind, err)
	}

	s.recorder.RecordListMutation(string(kind), "remove", OutcomeOK)
	s.logger.Info("list entry removed",
		slog.String("list", string(kind)),
		slog.String("id", entry.ID),
		slog.String("user_id", userID),
		slog.Int64("movie_id", movieID),
	)
	return entry, nil
}

// Status reports whether movieID is on the user's list. Absence is false,
// not an error.
func (s *ListService) Status(ctx context.Context, kind model.ListKind, userID string, movieID int64) (bool, error) {
	userID = strings.TrimSpace(userID)
	if err := validateKey(kind, userID, movieID); err != nil {
		return false, err
	}

	if _, err := s.repo.Find(ctx, kind, userID, movieID); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		s.logger.Error("failed to fetch list status",
			slog.String("list", string(kind)),
			slog.String("user_id", userID),
			slog.Int64("movie_id", movieID),
			slog.String("error", err.Error()),
		)
		return false, fmt.Errorf("fetching %s status: %w", kind, err)
	}
	return true, nil
}

// List returns the movies on one of the user's lists, oldest first.
func (s *ListService) List(ctx context.Context, kind model.ListKind, userID string) ([]model.MovieSnapshot, error) {
	userID = strings.TrimSpace(userID)
	if !kind.Valid() {
		return nil, apperror.ValidationFailed("list", fmt.Sprintf("unknown list %q", kind))
	}
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "userId is required")
	}

	entries, err := s.repo.ListByUser(ctx, kind, userID)
	if err != nil {
		s.logger.Error("failed to list entries",
			slog.String("list", string(kind)),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing %s: %w", kind, err)
	}
	return movies(entries), nil
}

// Profile returns both lists for userID. A user with no entries gets two
// empty (non-nil) slices, so the JSON is [] rather than null.
func (s *ListService) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	favorites, err := s.List(ctx, model.Favorites, userID)
	if err != nil {
		return nil, err
	}
	watchlist, err := s.List(ctx, model.Watchlist, userID)
	if err != nil {
		return nil, err
	}
	return &model.Profile{Favorites: favorites, Watchlist: watchlist}, nil
}

func validateKey(kind model.ListKind, userID string, movieID int64) error {
	if !kind.Valid() {
		return apperror.ValidationFailed("list", fmt.Sprintf("unknown list %q", kind))
	}
	if userID == "" {
		return apperror.ValidationFailed("userId", "userId is required")
	}
	if movieID <= 0 {
		return apperror.ValidationFailed("movie.id", "movie id must be a positive integer")
	}
	return nil
}

func movies(entries []model.ListEntry) []model.MovieSnapshot {
	out := make([]model.MovieSnapshot, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Movie)
	}
	return out
}
