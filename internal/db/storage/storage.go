// Package storage declares the persistence contract shared by every
// backend (PostgreSQL, JSON file, in-memory).
package storage

import (
	"context"

	"github.com/dkomarov/reelrank/internal/models"
	"github.com/dkomarov/reelrank/internal/user"
)

// Storage is the full persistence surface consumed by the service and
// auth layers. All implementations use parameterized access only and
// keep each mutating operation atomic.
type Storage interface {
	// CreateUser stores a new user and returns its generated ID.
	// Returns models.ErrEmailTaken when the email is already registered.
	CreateUser(ctx context.Context, email, passwordHash string) (string, error)

	// GetUserByEmail returns models.ErrUserNotFound when no user matches.
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)

	// GetUserByID returns models.ErrUserNotFound when no user matches.
	GetUserByID(ctx context.Context, userID string) (*user.User, error)

	// ListMoviesByUser returns the user's movies ordered by rating
	// descending with unrated movies last.
	ListMoviesByUser(ctx context.Context, userID string) ([]models.Movie, error)

	// GetMovie returns models.ErrMovieNotFound when the id is absent.
	GetMovie(ctx context.Context, movieID int64) (*models.Movie, error)

	// InsertMovie stores a newly imported movie and returns its ID.
	InsertMovie(ctx context.Context, movie *models.Movie) (int64, error)

	// UpdateRatingReview sets the rating and review of an existing movie.
	// Returns models.ErrMovieNotFound when the id is absent.
	UpdateRatingReview(ctx context.Context, movieID int64, rating float64, review string) error

	// DeleteMovie removes a movie. Deleting an absent id is a no-op.
	DeleteMovie(ctx context.Context, movieID int64) error

	// GetNumberOfUsers reports the total amount of registered users.
	GetNumberOfUsers(ctx context.Context) (int64, error)

	// GetNumberOfMovies reports the total amount of imported movies.
	GetNumberOfMovies(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error

	Close() error
}
