// Package service contains the use-case logic between the HTTP handlers
// and the storage/catalog layers: ranked listings, catalog search,
// imports and the owner-guarded mutations.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/thoas/go-funk"

	"github.com/dkomarov/reelrank/internal/models"
	"github.com/dkomarov/reelrank/internal/tmdb"
)

type movieKeeper interface {
	ListMoviesByUser(ctx context.Context, userID string) ([]models.Movie, error)
	GetMovie(ctx context.Context, movieID int64) (*models.Movie, error)
	InsertMovie(ctx context.Context, movie *models.Movie) (int64, error)
	UpdateRatingReview(ctx context.Context, movieID int64, rating float64, review string) error
	DeleteMovie(ctx context.Context, movieID int64) error
}

type statsKeeper interface {
	GetNumberOfUsers(ctx context.Context) (int64, error)
	GetNumberOfMovies(ctx context.Context) (int64, error)
}

type storage interface {
	movieKeeper
	statsKeeper
}

type catalogClient interface {
	Search(ctx context.Context, title string) ([]tmdb.SearchResult, error)
	Details(ctx context.Context, externalID int64) (*tmdb.MovieDetails, error)
}

// Service orchestrates the movie use cases for one storage backend and
// one catalog client.
type Service struct {
	db      storage
	catalog catalogClient
}

func New(db storage, catalog catalogClient) *Service {
	return &Service{
		db:      db,
		catalog: catalog,
	}
}

// RankedMovies returns the user's movies in rating-descending order with
// the derived rank attached: for N movies the best-rated one gets rank N
// and the last one rank 1. The rank is recomputed on every call, never
// stored.
func (s *Service) RankedMovies(ctx context.Context, userID string) ([]models.RankedMovie, error) {
	movies, err := s.db.ListMoviesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	total := len(movies)
	ranked := make([]models.RankedMovie, 0, total)
	for i, movie := range movies {
		ranked = append(ranked, models.RankedMovie{
			Movie: movie,
			Rank:  total - i,
		})
	}

	return ranked, nil
}

// SearchCandidates queries the external catalog and maps the results to
// candidates that can be offered for import.
func (s *Service) SearchCandidates(ctx context.Context, title string) ([]models.Candidate, error) {
	results, err := s.catalog.Search(ctx, title)
	if err != nil {
		return nil, err
	}

	return funk.Map(results, func(result tmdb.SearchResult) models.Candidate {
		return models.Candidate{
			ExternalID:  result.ID,
			Title:       result.Title,
			ReleaseDate: result.ReleaseDate,
			Overview:    result.Overview,
		}
	}).([]models.Candidate), nil
}

// ImportMovie fetches the full catalog record of the candidate and
// persists it as a movie owned by the given user. The insert is the
// atomic boundary of the flow: on any catalog failure nothing is
// written.
func (s *Service) ImportMovie(ctx context.Context, userID string, externalID int64) (int64, error) {
	details, err := s.catalog.Details(ctx, externalID)
	if err != nil {
		return 0, fmt.Errorf("import aborted: %w", err)
	}

	return s.db.InsertMovie(ctx, &models.Movie{
		Title:       details.Title,
		Year:        details.Year,
		Description: details.Description,
		ImgURL:      details.PosterURL,
		UserID:      userID,
	})
}

// MovieForUser loads a movie and verifies it belongs to the given user.
// Foreign movies are indistinguishable from absent ones.
func (s *Service) MovieForUser(ctx context.Context, userID string, movieID int64) (*models.Movie, error) {
	movie, err := s.db.GetMovie(ctx, movieID)
	if err != nil {
		return nil, err
	}

	if movie.UserID != userID {
		return nil, models.ErrMovieNotFound
	}

	return movie, nil
}

// RateMovie sets the rating and review of a movie after verifying the
// acting user owns it.
func (s *Service) RateMovie(ctx context.Context, userID string, movieID int64, rating float64, review string) error {
	if _, err := s.MovieForUser(ctx, userID, movieID); err != nil {
		return err
	}

	return s.db.UpdateRatingReview(ctx, movieID, rating, review)
}

// DeleteMovie removes the user's movie. Deleting an id that does not
// exist is a no-op; deleting another user's movie is refused with
// models.ErrMovieNotFound.
func (s *Service) DeleteMovie(ctx context.Context, userID string, movieID int64) error {
	movie, err := s.db.GetMovie(ctx, movieID)
	if err != nil {
		if errors.Is(err, models.ErrMovieNotFound) {
			return nil
		}
		return err
	}

	if movie.UserID != userID {
		return models.ErrMovieNotFound
	}

	return s.db.DeleteMovie(ctx, movieID)
}

// Stats reports the totals served by the internal statistics endpoint.
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	users, err := s.db.GetNumberOfUsers(ctx)
	if err != nil {
		return nil, err
	}

	movies, err := s.db.GetNumberOfMovies(ctx)
	if err != nil {
		return nil, err
	}

	return &models.Stats{
		Users:  users,
		Movies: movies,
	}, nil
}
