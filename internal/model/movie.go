// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data: plain values with tags that
// drive serialization, no inheritance.
package model

// ListKind names one of the two per-user movie lists.
// Each kind lives in its own table (SQL) or collection (Mongo).
type ListKind string

const (
	Favorites ListKind = "favorites"
	Watchlist ListKind = "watchlist"
)

// Kinds lists every valid ListKind, in the order the profile shows them.
var Kinds = []ListKind{Favorites, Watchlist}

// Valid reports whether k is a known list.
func (k ListKind) Valid() bool {
	return k == Favorites || k == Watchlist
}

// MovieSnapshot is the subset of movie metadata captured when a movie is
// added to a list. It is never refreshed afterwards.
//
// The JSON names match what the web client sends (snake_case from the
// metadata API, plus the client's own camelCase addedAt). The bson tags give
// the Mongo store the same document shape.
type MovieSnapshot struct {
	ID          int64   `json:"id" bson:"id"`
	Title       string  `json:"title" bson:"title"`
	PosterPath  string  `json:"poster_path" bson:"poster_path"`
	VoteAverage float64 `json:"vote_average" bson:"vote_average"`
	AddedAt     string  `json:"addedAt" bson:"addedAt"`
}

// ListEntry associates a user with one MovieSnapshot in a list.
// ID is assigned by the store on insert.
type ListEntry struct {
	ID     string        `json:"_id" bson:"-"`
	UserID string        `json:"userId" bson:"userId"`
	Movie  MovieSnapshot `json:"movie" bson:"movie"`
}

// Profile is the combined view of both lists for one user.
type Profile struct {
	Favorites []MovieSnapshot `json:"favorites"`
	Watchlist []MovieSnapshot `json:"watchlist"`
}
