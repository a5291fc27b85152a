// Package store picks a repository backend from a connection URL.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/prince-mali2/Filmpire-backend/internal/repository"
	"github.com/prince-mali2/Filmpire-backend/internal/repository/mongo"
	"github.com/prince-mali2/Filmpire-backend/internal/repository/postgres"
	"github.com/prince-mali2/Filmpire-backend/internal/repository/sqlite"
)

type Backend string

const (
	SQLite   Backend = "sqlite"
	Postgres Backend = "postgres"
	Mongo    Backend = "mongo"
)

// Config selects and addresses the store.
type Config struct {
	// URL chooses the backend by scheme:
	//   file:data/filmpire.db, sqlite:..., or a bare path → SQLite
	//   postgres://..., postgresql://...                 → PostgreSQL
	//   mongodb://..., mongodb+srv://...                 → MongoDB
	URL string
	// Database is the MongoDB database name. Ignored by SQL backends,
	// which take it from the URL.
	Database string
}

// Detect returns the backend for url and the DSN to hand to its driver.
func Detect(url string) (Backend, string) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return Postgres, url
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		return Mongo, url
	case strings.HasPrefix(url, "sqlite://"):
		return SQLite, strings.TrimPrefix(url, "sqlite://")
	case strings.HasPrefix(url, "sqlite:"):
		return SQLite, strings.TrimPrefix(url, "sqlite:")
	case strings.HasPrefix(url, "file:"):
		return SQLite, strings.TrimPrefix(url, "file:")
	default:
		return SQLite, url
	}
}

// Open connects to the configured backend. SQLite migrates itself on open;
// the other backends need Migrate, which callers run at startup.
func Open(ctx context.Context, cfg Config) (repository.Store, error) {
	backend, dsn := Detect(cfg.URL)
	switch backend {
	case Postgres:
		return postgres.New(ctx, dsn)
	case Mongo:
		return mongo.New(ctx, dsn, cfg.Database)
	case SQLite:
		if dsn == "" {
			return nil, fmt.Errorf("store: empty sqlite path")
		}
		return sqlite.New(dsn)
	default:
		return nil, fmt.Errorf("store: unsupported backend %q", backend)
	}
}
