package jsondb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkomarov/reelrank/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func newTestDB(t *testing.T) *JSONDB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "reelrank_test_db.json"))
	require.NoError(t, err)

	return db
}

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userID, err := db.CreateUser(ctx, "a@x.com", "hash-1")
	require.NoError(t, err)
	require.NotEmpty(t, userID)

	t.Run("lookup by email", func(t *testing.T) {
		usr, err := db.GetUserByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, userID, usr.ID)
		assert.Equal(t, "hash-1", usr.PasswordHash)
	})

	t.Run("lookup by id", func(t *testing.T) {
		usr, err := db.GetUserByID(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", usr.Email)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		_, err := db.CreateUser(ctx, "a@x.com", "hash-2")
		assert.ErrorIs(t, err, models.ErrEmailTaken)
	})

	t.Run("unknown lookups", func(t *testing.T) {
		_, err := db.GetUserByEmail(ctx, "nobody@x.com")
		assert.ErrorIs(t, err, models.ErrUserNotFound)

		_, err = db.GetUserByID(ctx, "no-such-id")
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})
}

func TestListMoviesByUserOrdering(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	insert := func(title string, rating *float64) int64 {
		t.Helper()
		id, err := db.InsertMovie(ctx, &models.Movie{
			Title:  title,
			UserID: "user-a",
			Rating: rating,
		})
		require.NoError(t, err)
		return id
	}

	insert("middling", floatPtr(5))
	insert("unrated first", nil)
	insert("best", floatPtr(9.5))
	insert("unrated second", nil)

	movies, err := db.ListMoviesByUser(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, movies, 4)

	titles := make([]string, 0, len(movies))
	for _, movie := range movies {
		titles = append(titles, movie.Title)
	}

	// Rated movies come first in rating-descending order, the unrated
	// tail keeps insertion order.
	assert.Equal(t, []string{"best", "middling", "unrated first", "unrated second"}, titles)
}

func TestListMoviesByUserScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.InsertMovie(ctx, &models.Movie{Title: "mine", UserID: "user-a"})
	require.NoError(t, err)
	_, err = db.InsertMovie(ctx, &models.Movie{Title: "theirs", UserID: "user-b"})
	require.NoError(t, err)

	movies, err := db.ListMoviesByUser(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "mine", movies[0].Title)

	movies, err = db.ListMoviesByUser(ctx, "user-without-movies")
	require.NoError(t, err)
	assert.Empty(t, movies)
}

func TestUpdateRatingReview(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	movieID, err := db.InsertMovie(ctx, &models.Movie{Title: "some movie", UserID: "user-a"})
	require.NoError(t, err)

	require.NoError(t, db.UpdateRatingReview(ctx, movieID, 7.5, "Great"))

	movie, err := db.GetMovie(ctx, movieID)
	require.NoError(t, err)
	require.NotNil(t, movie.Rating)
	require.NotNil(t, movie.Review)
	assert.Equal(t, 7.5, *movie.Rating)
	assert.Equal(t, "Great", *movie.Review)

	t.Run("absent id", func(t *testing.T) {
		err := db.UpdateRatingReview(ctx, movieID+1000, 5, "whatever")
		assert.ErrorIs(t, err, models.ErrMovieNotFound)
	})
}

func TestDeleteMovie(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	movieID, err := db.InsertMovie(ctx, &models.Movie{Title: "doomed", UserID: "user-a"})
	require.NoError(t, err)

	require.NoError(t, db.DeleteMovie(ctx, movieID))

	_, err = db.GetMovie(ctx, movieID)
	assert.ErrorIs(t, err, models.ErrMovieNotFound)

	// Deleting again, or deleting an id that never existed, is a no-op.
	assert.NoError(t, db.DeleteMovie(ctx, movieID))
	assert.NoError(t, db.DeleteMovie(ctx, 424242))
}

func TestCounts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.CreateUser(ctx, "a@x.com", "hash")
	require.NoError(t, err)
	_, err = db.InsertMovie(ctx, &models.Movie{Title: "one", UserID: "user-a"})
	require.NoError(t, err)
	_, err = db.InsertMovie(ctx, &models.Movie{Title: "two", UserID: "user-a"})
	require.NoError(t, err)

	users, err := db.GetNumberOfUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), users)

	movies, err := db.GetNumberOfMovies(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), movies)
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	fileName := filepath.Join(t.TempDir(), "reelrank_test_db.json")

	db, err := New(fileName)
	require.NoError(t, err)

	userID, err := db.CreateUser(ctx, "a@x.com", "hash-1")
	require.NoError(t, err)

	movieID, err := db.InsertMovie(ctx, &models.Movie{
		Title:  "persisted",
		Year:   2018,
		UserID: userID,
		Rating: floatPtr(8),
	})
	require.NoError(t, err)

	require.NoError(t, db.Close())

	reopened, err := New(fileName)
	require.NoError(t, err)

	usr, err := reopened.GetUserByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", usr.Email)

	movie, err := reopened.GetMovie(ctx, movieID)
	require.NoError(t, err)
	assert.Equal(t, "persisted", movie.Title)
	require.NotNil(t, movie.Rating)
	assert.Equal(t, float64(8), *movie.Rating)

	// New inserts keep allocating past the persisted counter.
	nextID, err := reopened.InsertMovie(ctx, &models.Movie{Title: "next", UserID: userID})
	require.NoError(t, err)
	assert.Greater(t, nextID, movieID)
}
