// Package models defines the domain types shared between the storage
// backends, the service layer and the HTTP handlers: movies, ranked
// movies, catalog candidates and the sentinel errors of the persistence
// contract.
package models

import "errors"

// Movie is a catalog entry imported into a user's personal list.
// Rating and Review stay nil until the owner rates the movie.
type Movie struct {
	ID          int64
	Title       string
	Year        int
	Description string
	ImgURL      string
	Rating      *float64
	Review      *string
	UserID      string
}

// RankedMovie is a Movie with its derived display rank attached.
// Rank is never stored; it is recomputed on every listing.
type RankedMovie struct {
	Movie
	Rank int
}

// Candidate is a search result from the external catalog that has not
// been imported yet.
type Candidate struct {
	ExternalID  int64
	Title       string
	ReleaseDate string
	Overview    string
}

// Stats is the payload of the internal statistics endpoint.
type Stats struct {
	Users  int64 `json:"users"`
	Movies int64 `json:"movies"`
}

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)

// ErrEmailTaken is returned by CreateUser when the email already belongs
// to a registered user.
var ErrEmailTaken = errors.New("email is already registered")

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrMovieNotFound is returned when the movie does not exist or is not
// visible to the acting user.
var ErrMovieNotFound = errors.New("movie not found")
