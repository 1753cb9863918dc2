// Package mockstorage provides a testify-based mock implementation of
// the storage contract, used to unit test handlers and the service
// layer by simulating storage behavior.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dkomarov/reelrank/internal/models"
	"github.com/dkomarov/reelrank/internal/user"
)

// StorageMock is a testify mock that implements the full storage
// contract.
type StorageMock struct {
	mock.Mock
}

// CreateUser mocks user creation and returns a generated ID.
func (m *StorageMock) CreateUser(ctx context.Context, email, passwordHash string) (string, error) {
	args := m.Called(ctx, email, passwordHash)
	return args.String(0), args.Error(1)
}

// GetUserByEmail mocks fetching a user by email.
func (m *StorageMock) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

// GetUserByID mocks fetching a user by their ID.
func (m *StorageMock) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	args := m.Called(ctx, userID)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

// ListMoviesByUser mocks the ordered listing of a user's movies.
func (m *StorageMock) ListMoviesByUser(ctx context.Context, userID string) ([]models.Movie, error) {
	args := m.Called(ctx, userID)
	movies, _ := args.Get(0).([]models.Movie)
	return movies, args.Error(1)
}

// GetMovie mocks fetching a single movie.
func (m *StorageMock) GetMovie(ctx context.Context, movieID int64) (*models.Movie, error) {
	args := m.Called(ctx, movieID)
	movie, _ := args.Get(0).(*models.Movie)
	return movie, args.Error(1)
}

// InsertMovie mocks storing an imported movie.
func (m *StorageMock) InsertMovie(ctx context.Context, movie *models.Movie) (int64, error) {
	args := m.Called(ctx, movie)
	return args.Get(0).(int64), args.Error(1)
}

// UpdateRatingReview mocks the rating mutation.
func (m *StorageMock) UpdateRatingReview(ctx context.Context, movieID int64, rating float64, review string) error {
	args := m.Called(ctx, movieID, rating, review)
	return args.Error(0)
}

// DeleteMovie mocks movie removal.
func (m *StorageMock) DeleteMovie(ctx context.Context, movieID int64) error {
	args := m.Called(ctx, movieID)
	return args.Error(0)
}

// GetNumberOfUsers mocks the user count used by the stats endpoint.
func (m *StorageMock) GetNumberOfUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// GetNumberOfMovies mocks the movie count used by the stats endpoint.
func (m *StorageMock) GetNumberOfMovies(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Ping mocks the health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the storage.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
