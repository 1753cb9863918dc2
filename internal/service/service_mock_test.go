package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dkomarov/reelrank/internal/mockstorage"
	"github.com/dkomarov/reelrank/internal/models"
	"github.com/dkomarov/reelrank/internal/tmdb"
)

var errStorageDown = errors.New("storage is down")

func TestRankedMoviesStorageFailure(t *testing.T) {
	db := new(mockstorage.StorageMock)
	db.On("ListMoviesByUser", mock.Anything, "user-a").Return(nil, errStorageDown)

	svc := New(db, &fakeCatalog{})

	_, err := svc.RankedMovies(context.Background(), "user-a")
	assert.ErrorIs(t, err, errStorageDown)
	db.AssertExpectations(t)
}

func TestImportDoesNotTouchStorageOnCatalogFailure(t *testing.T) {
	db := new(mockstorage.StorageMock)
	svc := New(db, &fakeCatalog{err: tmdb.ErrCatalogUnavailable})

	_, err := svc.ImportMovie(context.Background(), "user-a", 42)
	require.ErrorIs(t, err, tmdb.ErrCatalogUnavailable)

	db.AssertNotCalled(t, "InsertMovie", mock.Anything, mock.Anything)
}

func TestRateMovieStorageFailure(t *testing.T) {
	db := new(mockstorage.StorageMock)
	db.On("GetMovie", mock.Anything, int64(7)).
		Return(&models.Movie{ID: 7, UserID: "user-a"}, nil)
	db.On("UpdateRatingReview", mock.Anything, int64(7), 8.0, "fine").
		Return(errStorageDown)

	svc := New(db, &fakeCatalog{})

	err := svc.RateMovie(context.Background(), "user-a", 7, 8.0, "fine")
	assert.ErrorIs(t, err, errStorageDown)
	db.AssertExpectations(t)
}

func TestStatsStorageFailure(t *testing.T) {
	db := new(mockstorage.StorageMock)
	db.On("GetNumberOfUsers", mock.Anything).Return(int64(0), errStorageDown)

	svc := New(db, &fakeCatalog{})

	_, err := svc.Stats(context.Background())
	assert.ErrorIs(t, err, errStorageDown)
	db.AssertNotCalled(t, "GetNumberOfMovies", mock.Anything)
}
