// Package app initializes and runs the application: configuration,
// logging, storage selection, the catalog client, authentication and
// routing, plus graceful shutdown.
package app

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkomarov/reelrank/internal/auth"
	"github.com/dkomarov/reelrank/internal/config"
	"github.com/dkomarov/reelrank/internal/db/jsondb"
	"github.com/dkomarov/reelrank/internal/db/memorystorage"
	"github.com/dkomarov/reelrank/internal/db/postgresdb"
	"github.com/dkomarov/reelrank/internal/db/storage"
	"github.com/dkomarov/reelrank/internal/ipchecker"
	"github.com/dkomarov/reelrank/internal/logger"
	"github.com/dkomarov/reelrank/internal/models"
	"github.com/dkomarov/reelrank/internal/router"
	"github.com/dkomarov/reelrank/internal/service"
	"github.com/dkomarov/reelrank/internal/tmdb"
	"github.com/dkomarov/reelrank/internal/view"
)

// App bundles the configuration, storage backend and HTTP handler of
// one application instance.
type App struct {
	cfg         *config.Config
	db          storage.Storage
	httpHandler http.Handler
}

// New wires the application together:
// - loading configuration
// - initializing the logger
// - selecting and setting up storage (fatal when postgres is down)
// - constructing the catalog client, session manager and router
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, fmt.Errorf("storage initialization failed: %w", err)
	}

	authCookieSigningSecretKey, err := base64.URLEncoding.DecodeString(app.cfg.AuthCookieSigningSecretKey)
	if err != nil {
		return nil, fmt.Errorf("SECRET_KEY must be base64: %w", err)
	}
	if len(authCookieSigningSecretKey) == 0 {
		return nil, errors.New("SECRET_KEY is required")
	}

	catalog, err := tmdb.New(
		app.cfg.CatalogBaseURL,
		app.cfg.CatalogImageBaseURL,
		app.cfg.CatalogAPIKey,
		app.cfg.CatalogTimeout,
	)
	if err != nil {
		return nil, err
	}

	theIPChecker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	theView, err := view.New()
	if err != nil {
		return nil, err
	}

	app.httpHandler = router.New(
		service.New(app.db, catalog),
		auth.New(
			app.db,
			app.cfg.AuthCookieName,
			authCookieSigningSecretKey,
			"/login",
		),
		theView,
		theIPChecker,
		app.db,
	)

	return app, nil
}

// Run starts the HTTP server with graceful shutdown support. It listens
// for system signals and cleans up resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Saving database and exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.DBFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage.Storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
			cfg.MigrationsDir,
		)

	case models.StorageTypeFile:
		return jsondb.New(cfg.DBFileName)
	}

	return memorystorage.New()
}
