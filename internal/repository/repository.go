// Package repository declares the storage contracts the service layer
// depends on. Concrete backends live in the sqlite, postgres and mongo
// subpackages.
package repository

import (
	"context"

	"github.com/prince-mali2/Filmpire-backend/internal/model"
)

// ListRepository persists favorites and watchlist entries.
//
// Every backend enforces "at most one entry per (kind, userId, movie.id)"
// with a unique constraint, so Insert reports a duplicate as
// apperror.ErrConflict instead of relying on a prior read.
type ListRepository interface {
	// Insert stores entry and fills in entry.ID.
	Insert(ctx context.Context, kind model.ListKind, entry *model.ListEntry) error
	// Find returns apperror.ErrNotFound when no entry matches.
	Find(ctx context.Context, kind model.ListKind, userID string, movieID int64) (*model.ListEntry, error)
	// Delete removes the matching entry and returns it, or apperror.ErrNotFound.
	Delete(ctx context.Context, kind model.ListKind, userID string, movieID int64) (*model.ListEntry, error)
	// ListByUser returns a user's entries in insertion order.
	ListByUser(ctx context.Context, kind model.ListKind, userID string) ([]model.ListEntry, error)
}

// Store is a ListRepository with a lifecycle.
type Store interface {
	ListRepository
	// Migrate creates tables / indexes. Safe to run repeatedly.
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
