package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkomarov/reelrank/internal/db/memorystorage"
	"github.com/dkomarov/reelrank/internal/models"
	"github.com/dkomarov/reelrank/internal/tmdb"
)

type fakeCatalog struct {
	searchResults []tmdb.SearchResult
	details       map[int64]*tmdb.MovieDetails
	err           error
}

func (c *fakeCatalog) Search(ctx context.Context, title string) ([]tmdb.SearchResult, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.searchResults, nil
}

func (c *fakeCatalog) Details(ctx context.Context, externalID int64) (*tmdb.MovieDetails, error) {
	if c.err != nil {
		return nil, c.err
	}
	details, ok := c.details[externalID]
	if !ok {
		return nil, tmdb.ErrCatalogUnavailable
	}
	return details, nil
}

func newTestService(t *testing.T, catalog *fakeCatalog) (*Service, *memorystorage.MemoryStorage) {
	t.Helper()

	db, err := memorystorage.New()
	require.NoError(t, err)

	return New(db, catalog), db
}

func addRatedMovie(t *testing.T, svc *Service, db *memorystorage.MemoryStorage, userID, title string, rating float64) int64 {
	t.Helper()

	movieID, err := db.InsertMovie(context.Background(), &models.Movie{
		Title:  title,
		Year:   2000,
		UserID: userID,
	})
	require.NoError(t, err)
	require.NoError(t, svc.RateMovie(context.Background(), userID, movieID, rating, "review of "+title))

	return movieID
}

func TestRankedMoviesContiguousDescending(t *testing.T) {
	svc, db := newTestService(t, &fakeCatalog{})
	ctx := context.Background()

	addRatedMovie(t, svc, db, "user-a", "Middling", 5.0)
	addRatedMovie(t, svc, db, "user-a", "Best", 9.5)
	addRatedMovie(t, svc, db, "user-a", "Worst", 2.5)

	ranked, err := svc.RankedMovies(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	assert.Equal(t, "Best", ranked[0].Title)
	assert.Equal(t, "Middling", ranked[1].Title)
	assert.Equal(t, "Worst", ranked[2].Title)

	// Ranks form the contiguous range [1, N], best rating first.
	assert.Equal(t, 3, ranked[0].Rank)
	assert.Equal(t, 2, ranked[1].Rank)
	assert.Equal(t, 1, ranked[2].Rank)
}

func TestRankedMoviesUnratedLast(t *testing.T) {
	svc, db := newTestService(t, &fakeCatalog{})
	ctx := context.Background()

	_, err := db.InsertMovie(ctx, &models.Movie{Title: "Unrated", UserID: "user-a"})
	require.NoError(t, err)
	addRatedMovie(t, svc, db, "user-a", "Rated", 7.0)

	ranked, err := svc.RankedMovies(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "Rated", ranked[0].Title)
	assert.Equal(t, "Unrated", ranked[1].Title)
}

func TestRatingRoundTrip(t *testing.T) {
	svc, db := newTestService(t, &fakeCatalog{})
	ctx := context.Background()

	movieID, err := db.InsertMovie(ctx, &models.Movie{Title: "Great Movie", UserID: "user-a"})
	require.NoError(t, err)

	require.NoError(t, svc.RateMovie(ctx, "user-a", movieID, 7.5, "Great"))

	movie, err := svc.MovieForUser(ctx, "user-a", movieID)
	require.NoError(t, err)
	require.NotNil(t, movie.Rating)
	require.NotNil(t, movie.Review)
	assert.Equal(t, 7.5, *movie.Rating)
	assert.Equal(t, "Great", *movie.Review)
}

func TestRateMissingMovie(t *testing.T) {
	svc, _ := newTestService(t, &fakeCatalog{})

	err := svc.RateMovie(context.Background(), "user-a", 12345, 7.5, "Great")
	assert.ErrorIs(t, err, models.ErrMovieNotFound)
}

func TestDeleteMissingMovieIsNoOp(t *testing.T) {
	svc, _ := newTestService(t, &fakeCatalog{})

	assert.NoError(t, svc.DeleteMovie(context.Background(), "user-a", 12345))
}

func TestImportMovie(t *testing.T) {
	catalog := &fakeCatalog{
		details: map[int64]*tmdb.MovieDetails{
			493922: {
				Title:       "Hereditary",
				Year:        2018,
				Description: "A grieving family is haunted.",
				PosterURL:   "https://image.tmdb.org/t/p/w500/p9fmuz2Oj3HtEJEqbIwkFGUhVXD.jpg",
			},
		},
	}
	svc, _ := newTestService(t, catalog)
	ctx := context.Background()

	movieID, err := svc.ImportMovie(ctx, "user-a", 493922)
	require.NoError(t, err)

	movie, err := svc.MovieForUser(ctx, "user-a", movieID)
	require.NoError(t, err)
	assert.Equal(t, "Hereditary", movie.Title)
	assert.Equal(t, 2018, movie.Year)
	assert.Equal(t, "user-a", movie.UserID)
	assert.Nil(t, movie.Rating)
}

func TestImportAbortsOnCatalogFailure(t *testing.T) {
	catalog := &fakeCatalog{err: tmdb.ErrCatalogUnavailable}
	svc, db := newTestService(t, catalog)
	ctx := context.Background()

	before, err := db.GetNumberOfMovies(ctx)
	require.NoError(t, err)

	_, err = svc.ImportMovie(ctx, "user-a", 493922)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tmdb.ErrCatalogUnavailable))

	after, err := db.GetNumberOfMovies(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after, "a failed import must not leave a partial row")
}

func TestOwnershipGuards(t *testing.T) {
	svc, db := newTestService(t, &fakeCatalog{})
	ctx := context.Background()

	movieID := addRatedMovie(t, svc, db, "user-a", "Owned by A", 8.0)

	// B cannot see A's movie.
	_, err := svc.MovieForUser(ctx, "user-b", movieID)
	assert.ErrorIs(t, err, models.ErrMovieNotFound)

	// B cannot rate A's movie.
	err = svc.RateMovie(ctx, "user-b", movieID, 1.0, "sabotage")
	assert.ErrorIs(t, err, models.ErrMovieNotFound)

	// B cannot delete A's movie, and it stays in place.
	err = svc.DeleteMovie(ctx, "user-b", movieID)
	assert.ErrorIs(t, err, models.ErrMovieNotFound)

	movie, err := svc.MovieForUser(ctx, "user-a", movieID)
	require.NoError(t, err)
	require.NotNil(t, movie.Rating)
	assert.Equal(t, 8.0, *movie.Rating)

	// B's listing does not include A's movie.
	ranked, err := svc.RankedMovies(ctx, "user-b")
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestSearchCandidates(t *testing.T) {
	catalog := &fakeCatalog{
		searchResults: []tmdb.SearchResult{
			{ID: 1, Title: "First", ReleaseDate: "2001-01-01", Overview: "one"},
			{ID: 2, Title: "Second", ReleaseDate: "2002-02-02", Overview: "two"},
		},
	}
	svc, _ := newTestService(t, catalog)

	candidates, err := svc.SearchCandidates(context.Background(), "whatever")
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, int64(1), candidates[0].ExternalID)
	assert.Equal(t, "Second", candidates[1].Title)
}

func TestStats(t *testing.T) {
	svc, db := newTestService(t, &fakeCatalog{})
	ctx := context.Background()

	_, err := db.CreateUser(ctx, "a@x.com", "hash")
	require.NoError(t, err)
	_, err = db.InsertMovie(ctx, &models.Movie{Title: "Only", UserID: "user-a"})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Users)
	assert.Equal(t, int64(1), stats.Movies)
}
