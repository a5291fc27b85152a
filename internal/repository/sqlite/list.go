package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/xid"

	"github.com/prince-mali2/Filmpire-backend/internal/apperror"
	"github.com/prince-mali2/Filmpire-backend/internal/model"
)

const entryColumns = `id, user_id, movie_id, title, poster_path, vote_average, added_at`

// Insert adds entry to the kind's table.
//
// ID GENERATION WITH xid:
// xid IDs are 20 URL-safe chars and sort by creation time, e.g.
// "cv37rs3pp9olc6atsptg". The caller's entry gets the generated ID.
//
// There is no existence check before the INSERT. The UNIQUE(user_id,
// movie_id) constraint rejects duplicates and we translate that into
// apperror.ErrConflict.
func (db *DB) Insert(ctx context.Context, kind model.ListKind, entry *model.ListEntry) error {
	table := tableName(kind)
	id := xid.New().String()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO `+table+` (`+entryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		entry.UserID,
		entry.Movie.ID,
		entry.Movie.Title,
		entry.Movie.PosterPath,
		entry.Movie.VoteAverage,
		entry.Movie.AddedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(string(kind)+" entry", entryKey(entry.UserID, entry.Movie.ID))
		}
		return apperror.StoreFailure(fmt.Sprintf("sqlite: inserting %s entry", kind), err)
	}

	entry.ID = id
	return nil
}

// Find returns the entry for (userID, movieID), or apperror.ErrNotFound.
func (db *DB) Find(ctx context.Context, kind model.ListKind, userID string, movieID int64) (*model.ListEntry, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+entryColumns+`
		 FROM `+tableName(kind)+`
		 WHERE user_id = ? AND movie_id = ?`,
		userID, movieID,
	)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound(string(kind)+" entry", entryKey(userID, movieID))
		}
		return nil, apperror.StoreFailure(fmt.Sprintf("sqlite: finding %s entry", kind), err)
	}
	return entry, nil
}

// Delete removes the entry for (userID, movieID) and returns what was removed.
//
// DELETE ... RETURNING does the lookup and the removal in one statement, so
// two concurrent removes cannot both report success.
func (db *DB) Delete(ctx context.Context, kind model.ListKind, userID string, movieID int64) (*model.ListEntry, error) {
	row := db.conn.QueryRowContext(ctx,
		`DELETE FROM `+tableName(kind)+`
		 WHERE user_id = ? AND movie_id = ?
		 RETURNING `+entryColumns,
		userID, movieID,
	)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound(string(kind)+" entry", entryKey(userID, movieID))
		}
		return nil, apperror.StoreFailure(fmt.Sprintf("sqlite: deleting %s entry", kind), err)
	}
	return entry, nil
}

// ListByUser returns all of a user's entries in insertion order (rowid).
func (db *DB) ListByUser(ctx context.Context, kind model.ListKind, userID string) ([]model.ListEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+entryColumns+`
		 FROM `+tableName(kind)+`
		 WHERE user_id = ?
		 ORDER BY rowid`,
		userID,
	)
	if err != nil {
		return nil, apperror.StoreFailure(fmt.Sprintf("sqlite: listing %s", kind), err)
	}
	// CRITICAL: always close rows. An open *sql.Rows pins a pool connection.
	defer rows.Close()

	entries := make([]model.ListEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, apperror.StoreFailure(fmt.Sprintf("sqlite: scanning %s row", kind), err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.StoreFailure(fmt.Sprintf("sqlite: iterating %s", kind), err)
	}

	return entries, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*model.ListEntry, error) {
	var e model.ListEntry
	if err := s.Scan(
		&e.ID,
		&e.UserID,
		&e.Movie.ID,
		&e.Movie.Title,
		&e.Movie.PosterPath,
		&e.Movie.VoteAverage,
		&e.Movie.AddedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}

func entryKey(userID string, movieID int64) string {
	return userID + "/" + strconv.FormatInt(movieID, 10)
}
