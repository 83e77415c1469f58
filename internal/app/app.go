// Package app initializes and runs the main application service.
// It configures logging, storage, authentication, and routing,
// and handles graceful shutdown.
package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/esb/quicklist/internal/auth"
	"github.com/esb/quicklist/internal/catalog"
	"github.com/esb/quicklist/internal/config"
	"github.com/esb/quicklist/internal/directory"
	"github.com/esb/quicklist/internal/ipchecker"
	"github.com/esb/quicklist/internal/kv"
	"github.com/esb/quicklist/internal/kv/filekv"
	"github.com/esb/quicklist/internal/kv/memkv"
	"github.com/esb/quicklist/internal/logger"
	"github.com/esb/quicklist/internal/registry"
	"github.com/esb/quicklist/internal/router"
	"github.com/esb/quicklist/internal/store"
)

// App encapsulates the configuration, storage backend and HTTP handler
// needed to run the shopping list service.
type App struct {
	cfg         *config.Config
	db          *store.Store
	httpHandler http.Handler
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and setting up storage
// - assembling the core components, auth and the router
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

	backend, err := getStorageBackend(app.cfg)
	if err != nil {
		return nil, err
	}
	app.db = store.New(backend)

	authCookieSigningSecretKey, err := base64.URLEncoding.DecodeString(app.cfg.AuthCookieSigningSecretKey)
	if err != nil {
		return nil, err
	}

	userDirectory := directory.New(app.db)
	listRegistry := registry.New(app.db)
	productCatalog := catalog.New(app.db)

	clientIPChecker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	app.httpHandler = router.New(
		userDirectory,
		listRegistry,
		productCatalog,
		auth.New(
			userDirectory,
			app.cfg.AuthCookieName,
			authCookieSigningSecretKey,
			app.cfg.SessionTTL,
		),
		app.db,
		clientIPChecker,
	)

	return app, nil
}

// Run starts the HTTP server with graceful shutdown support.
// It listens for system signals and cleans up resources upon termination.
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

func getStorageBackend(cfg *config.Config) (kv.Store, error) {
	if cfg.DBFileName != "" {
		return filekv.New(cfg.DBFileName)
	}

	return memkv.New()
}
