// Package mongo implements the repository interfaces on MongoDB, keeping the
// document layout existing Filmpire databases already hold:
//
//	{_id, userId, movie: {id, title, poster_path, vote_average, addedAt}}
//
// in the "favorites" and "watchlists" collections.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/prince-mali2/Filmpire-backend/internal/apperror"
	"github.com/prince-mali2/Filmpire-backend/internal/model"
	"github.com/prince-mali2/Filmpire-backend/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// entryDoc is the stored shape of a model.ListEntry.
type entryDoc struct {
	ID     primitive.ObjectID  `bson:"_id,omitempty"`
	UserID string              `bson:"userId"`
	Movie  model.MovieSnapshot `bson:"movie"`
}

func (d entryDoc) toModel() *model.ListEntry {
	return &model.ListEntry{ID: d.ID.Hex(), UserID: d.UserID, Movie: d.Movie}
}

type DB struct {
	client   *mongo.Client
	database *mongo.Database
}

// New connects to uri and selects databaseName.
func New(ctx context.Context, uri, databaseName string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connecting: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: pinging: %w", err)
	}

	return &DB{client: client, database: client.Database(databaseName)}, nil
}

func (db *DB) Close() error {
	return db.client.Disconnect(context.Background())
}

func (db *DB) Ping(ctx context.Context) error {
	if err := db.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo: ping: %w", err)
	}
	return nil
}

// Migrate creates the unique {userId, movie.id} index on both collections,
// plus a {userId, _id} index for the per-user listing. CreateMany is a no-op
// for indexes that already exist with the same keys and options.
func (db *DB) Migrate(ctx context.Context) error {
	for _, kind := range model.Kinds {
		_, err := db.collection(kind).Indexes().CreateMany(ctx, []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "movie.id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("userId_movieId_unique"),
			},
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "_id", Value: 1}},
				Options: options.Index().SetName("userId_id"),
			},
		})
		if err != nil {
			return fmt.Errorf("mongo: creating %s indexes: %w", kind, err)
		}
	}
	return nil
}

func (db *DB) Insert(ctx context.Context, kind model.ListKind, entry *model.ListEntry) error {
	doc := entryDoc{
		ID:     primitive.NewObjectID(),
		UserID: entry.UserID,
		Movie:  entry.Movie,
	}

	if _, err := db.collection(kind).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict(string(kind)+" entry", entryKey(entry.UserID, entry.Movie.ID))
		}
		return apperror.StoreFailure(fmt.Sprintf("mongo: inserting %s entry", kind), err)
	}

	entry.ID = doc.ID.Hex()
	return nil
}

func (db *DB) Find(ctx context.Context, kind model.ListKind, userID string, movieID int64) (*model.ListEntry, error) {
	var doc entryDoc
	err := db.collection(kind).FindOne(ctx, entryFilter(userID, movieID)).Decode(&doc)
	if err != nil {
		return nil, notFoundOr(err, kind, "finding", userID, movieID)
	}
	return doc.toModel(), nil
}

// Delete uses FindOneAndDelete so the removed document comes back in the
// same round trip.
func (db *DB) Delete(ctx context.Context, kind model.ListKind, userID string, movieID int64) (*model.ListEntry, error) {
	var doc entryDoc
	err := db.collection(kind).FindOneAndDelete(ctx, entryFilter(userID, movieID)).Decode(&doc)
	if err != nil {
		return nil, notFoundOr(err, kind, "deleting", userID, movieID)
	}
	return doc.toModel(), nil
}

// ListByUser sorts by _id. ObjectIDs start with a timestamp, so this is
// insertion order.
func (db *DB) ListByUser(ctx context.Context, kind model.ListKind, userID string) ([]model.ListEntry, error) {
	cursor, err := db.collection(kind).Find(ctx,
		bson.D{{Key: "userId", Value: userID}},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, apperror.StoreFailure(fmt.Sprintf("mongo: listing %s", kind), err)
	}
	defer cursor.Close(ctx)

	entries := make([]model.ListEntry, 0)
	for cursor.Next(ctx) {
		var doc entryDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, apperror.StoreFailure(fmt.Sprintf("mongo: decoding %s document", kind), err)
		}
		entries = append(entries, *doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, apperror.StoreFailure(fmt.Sprintf("mongo: iterating %s", kind), err)
	}
	return entries, nil
}

// collection maps a kind to its collection name. "watchlists" is the
// pluralised name existing deployments already use.
func (db *DB) collection(kind model.ListKind) *mongo.Collection {
	if kind == model.Watchlist {
		return db.database.Collection("watchlists")
	}
	return db.database.Collection("favorites")
}

func entryFilter(userID string, movieID int64) bson.D {
	return bson.D{{Key: "userId", Value: userID}, {Key: "movie.id", Value: movieID}}
}

func notFoundOr(err error, kind model.ListKind, op, userID string, movieID int64) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperror.NotFound(string(kind)+" entry", entryKey(userID, movieID))
	}
	return apperror.StoreFailure(fmt.Sprintf("mongo: %s %s entry", op, kind), err)
}

func entryKey(userID string, movieID int64) string {
	return userID + "/" + strconv.FormatInt(movieID, 10)
}
