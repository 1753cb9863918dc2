// Package jsondb implements the storage contract on top of a single
// JSON file. It keeps the whole data set in memory and persists it on
// Close. Intended for development setups without a PostgreSQL instance;
// the in-memory test backend reuses it without a file.
package jsondb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dkomarov/reelrank/internal/models"
	"github.com/dkomarov/reelrank/internal/user"
)

// CacheStruct is the serialized shape of the database file.
type CacheStruct struct {
	Users       map[string]*user.User
	Movies      map[int64]*models.Movie
	NextMovieID int64
}

// JSONDB is a JSON-file-backed implementation of the storage contract.
type JSONDB struct {
	fileName string
	mu       sync.RWMutex
	Cache    CacheStruct
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{
	"Users": {},
	"Movies": {},
	"NextMovieID": 1
}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	file, err := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(jsonData); err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}

	return nil
}

func parseJSONFile(fileName string, cache *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(cache)
}

// New opens (or creates) the database file and loads it into memory.
func New(fileName string) (*JSONDB, error) {
	db := JSONDB{
		fileName: fileName,
		Cache:    CacheStruct{},
	}

	err := parseJSONFile(db.fileName, &db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := initDBFile(fileName); err != nil {
			return nil, err
		}
		if err := parseJSONFile(db.fileName, &db.Cache); err != nil {
			return nil, err
		}
	}

	if db.Cache.NextMovieID == 0 {
		db.Cache.NextMovieID = 1
	}

	return &db, nil
}

// CreateUser stores a new user under a fresh UUID.
func (db *JSONDB) CreateUser(ctx context.Context, email, passwordHash string) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, usr := range db.Cache.Users {
		if usr.Email == email {
			return "", models.ErrEmailTaken
		}
	}

	usr := &user.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
	}
	db.Cache.Users[usr.ID] = usr

	return usr.ID, nil
}

// GetUserByEmail performs a linear scan over the user set.
func (db *JSONDB) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, usr := range db.Cache.Users {
		if usr.Email == email {
			found := *usr
			return &found, nil
		}
	}

	return nil, models.ErrUserNotFound
}

func (db *JSONDB) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	usr, ok := db.Cache.Users[userID]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	found := *usr

	return &found, nil
}

// ListMoviesByUser orders by rating descending, unrated movies last.
// Ties and the unrated tail are ordered by insertion (id) for stable
// output.
func (db *JSONDB) ListMoviesByUser(ctx context.Context, userID string) ([]models.Movie, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	result := []models.Movie{}
	for _, movie := range db.Cache.Movies {
		if movie.UserID == userID {
			result = append(result, *movie)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		left, right := result[i].Rating, result[j].Rating
		switch {
		case left == nil && right == nil:
			return result[i].ID < result[j].ID
		case left == nil:
			return false
		case right == nil:
			return true
		case *left != *right:
			return *left > *right
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

func (db *JSONDB) GetMovie(ctx context.Context, movieID int64) (*models.Movie, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	movie, ok := db.Cache.Movies[movieID]
	if !ok {
		return nil, models.ErrMovieNotFound
	}
	found := *movie

	return &found, nil
}

func (db *JSONDB) InsertMovie(ctx context.Context, movie *models.Movie) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored := *movie
	stored.ID = db.Cache.NextMovieID
	db.Cache.NextMovieID++
	db.Cache.Movies[stored.ID] = &stored

	return stored.ID, nil
}

func (db *JSONDB) UpdateRatingReview(ctx context.Context, movieID int64, rating float64, review string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	movie, ok := db.Cache.Movies[movieID]
	if !ok {
		return models.ErrMovieNotFound
	}
	movie.Rating = &rating
	movie.Review = &review

	return nil
}

func (db *JSONDB) DeleteMovie(ctx context.Context, movieID int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.Cache.Movies, movieID)

	return nil
}

func (db *JSONDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.Cache.Users)), nil
}

func (db *JSONDB) GetNumberOfMovies(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.Cache.Movies)), nil
}

func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

// Close persists the cache back to the database file.
func (db *JSONDB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return writeToJSONFile(db.fileName, db.Cache)
}
