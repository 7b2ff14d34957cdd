// Package server wires the mock account service: configuration, logging,
// the account store (PostgreSQL when a DSN is set, process memory otherwise)
// and the HTTP API, with graceful shutdown on SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/voxkeeper/internal/logging"
	"github.com/dmitrijs2005/voxkeeper/internal/server/config"
	"github.com/dmitrijs2005/voxkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/voxkeeper/internal/server/users"
	"github.com/jonboulle/clockwork"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	userService *users.Service
}

func NewApp(c *config.Config) (*App, error) {
	logger, err := logging.NewTextLogger(os.Stdout, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	app := &App{config: c, logger: logger}

	var repo users.Repository = users.NewMemoryRepository()
	if c.DatabaseDSN != "" {
		db, err := users.OpenPostgres(context.Background(), c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("database init error: %w", err)
		}
		app.db = db
		repo = users.NewPostgresRepository(db)
	}

	app.userService = users.NewService(repo, c, clockwork.NewRealClock())
	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddr, app.logger, app.userService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	if app.db != nil {
		defer func() {
			if err := app.db.Close(); err != nil {
				app.logger.Error(ctx, "database close error", "error", err)
			}
		}()
	}

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
}
