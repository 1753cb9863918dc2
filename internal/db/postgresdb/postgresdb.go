// Package postgresdb provides the PostgreSQL implementation of the
// storage contract. It runs goose schema migrations on startup and uses
// parameterized statements exclusively; the database/sql pool hands each
// request its own connection.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dkomarov/reelrank/internal/models"
	"github.com/dkomarov/reelrank/internal/user"
)

const (
	uniqueViolationCode = "23505"

	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxIdleTime = 2 * time.Minute
	connMaxLifetime = 30 * time.Minute
)

// PostgresDB is a PostgreSQL-backed implementation of the storage
// contract.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

// InitOption is a functional option for configuring database
// initialization.
type InitOption func(*initOptions)

// WithDBPreReset drops every table in the public schema before running
// migrations. Test setups use it to start from a clean slate.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New establishes a connection pool to the PostgreSQL database, verifies
// connectivity, runs schema migrations and returns a configured
// PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	database.SetMaxOpenConns(maxOpenConns)
	database.SetMaxIdleConns(maxIdleConns)
	database.SetConnMaxIdleTime(connMaxIdleTime)
	database.SetConnMaxLifetime(connMaxLifetime)

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if err := result.Ping(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("postgres is unreachable: %w", err)
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			return nil, fmt.Errorf("error while resetting the database: %w", err)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("error while `goose.SetDialect()` calling: %w", err)
	}

	if err := goose.Up(result.database, migrationsDir); err != nil {
		return nil, fmt.Errorf("error while `goose.Up()` calling: %w", err)
	}

	return result, nil
}

// CreateUser inserts a new user row and returns the generated UUID.
// A unique-constraint violation on the email column is reported as
// models.ErrEmailTaken.
func (db *PostgresDB) CreateUser(ctx context.Context, email, passwordHash string) (string, error) {
	row := db.database.QueryRowContext(
		ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id`,
		email,
		passwordHash,
	)

	var userID string
	if err := row.Scan(&userID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return "", models.ErrEmailTaken
		}
		return "", err
	}

	return userID, nil
}

func (db *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, email, password_hash FROM users WHERE email = $1`,
		email,
	)

	return scanUser(row)
}

func (db *PostgresDB) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, email, password_hash FROM users WHERE id = $1`,
		userID,
	)

	return scanUser(row)
}

func scanUser(row *sql.Row) (*user.User, error) {
	var usr user.User
	err := row.Scan(&usr.ID, &usr.Email, &usr.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}

	return &usr, nil
}

// ListMoviesByUser returns the user's movies ordered by rating
// descending with unrated rows last.
func (db *PostgresDB) ListMoviesByUser(ctx context.Context, userID string) ([]models.Movie, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`
			SELECT id, title, year, description, img_url, rating, review, user_id
				FROM movies
				WHERE user_id = $1
				ORDER BY rating DESC NULLS LAST, id
		`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.Movie{}
	for rows.Next() {
		var movie models.Movie
		err = rows.Scan(
			&movie.ID,
			&movie.Title,
			&movie.Year,
			&movie.Description,
			&movie.ImgURL,
			&movie.Rating,
			&movie.Review,
			&movie.UserID,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, movie)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (db *PostgresDB) GetMovie(ctx context.Context, movieID int64) (*models.Movie, error) {
	row := db.database.QueryRowContext(
		ctx,
		`
			SELECT id, title, year, description, img_url, rating, review, user_id
				FROM movies
				WHERE id = $1
		`,
		movieID,
	)

	var movie models.Movie
	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Year,
		&movie.Description,
		&movie.ImgURL,
		&movie.Rating,
		&movie.Review,
		&movie.UserID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrMovieNotFound
		}
		return nil, err
	}

	return &movie, nil
}

func (db *PostgresDB) InsertMovie(ctx context.Context, movie *models.Movie) (int64, error) {
	row := db.database.QueryRowContext(
		ctx,
		`
			INSERT INTO movies (title, year, description, img_url, rating, review, user_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id
		`,
		movie.Title,
		movie.Year,
		movie.Description,
		movie.ImgURL,
		movie.Rating,
		movie.Review,
		movie.UserID,
	)

	var movieID int64
	if err := row.Scan(&movieID); err != nil {
		return 0, err
	}

	return movieID, nil
}

// UpdateRatingReview reports models.ErrMovieNotFound when the UPDATE
// touches zero rows.
func (db *PostgresDB) UpdateRatingReview(ctx context.Context, movieID int64, rating float64, review string) error {
	result, err := db.database.ExecContext(
		ctx,
		`UPDATE movies SET rating = $1, review = $2 WHERE id = $3`,
		rating,
		review,
		movieID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrMovieNotFound
	}

	return nil
}

// DeleteMovie is idempotent: deleting an absent id is not an error.
func (db *PostgresDB) DeleteMovie(ctx context.Context, movieID int64) error {
	_, err := db.database.ExecContext(
		ctx,
		`DELETE FROM movies WHERE id = $1`,
		movieID,
	)

	return err
}

func (db *PostgresDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	return db.countRows(ctx, `SELECT COUNT(*) FROM users`)
}

func (db *PostgresDB) GetNumberOfMovies(ctx context.Context) (int64, error) {
	return db.countRows(ctx, `SELECT COUNT(*) FROM movies`)
}

func (db *PostgresDB) countRows(ctx context.Context, query string) (int64, error) {
	var count int64
	if err := db.database.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// Ping verifies connectivity with the PostgreSQL database within the
// configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the connection pool.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf("error while `db.database.ExecContext()` calling: %w", err)
	}

	return nil
}
