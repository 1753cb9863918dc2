// Package memorystorage provides a purely in-memory storage backend by
// reusing the jsondb cache without a file. It backs unit tests and
// ephemeral development runs.
package memorystorage

import (
	"context"

	"github.com/dkomarov/reelrank/internal/db/jsondb"
	"github.com/dkomarov/reelrank/internal/models"
	"github.com/dkomarov/reelrank/internal/user"
)

type MemoryStorage struct {
	*jsondb.JSONDB
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: &jsondb.JSONDB{
			Cache: jsondb.CacheStruct{
				Users:       map[string]*user.User{},
				Movies:      map[int64]*models.Movie{},
				NextMovieID: 1,
			},
		},
	}, nil
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}

func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
