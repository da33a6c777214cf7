// Package server initializes and runs the IPO Tracker server: it opens the
// database, applies migrations, wires the services, and serves the HTTP API
// until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dberezin/ipotrack/internal/logging"
	"github.com/dberezin/ipotrack/internal/server/config"
	"github.com/dberezin/ipotrack/internal/server/httpapi"
	"github.com/dberezin/ipotrack/internal/server/repositories/repomanager"
	"github.com/dberezin/ipotrack/internal/server/services"
)

type App struct {
	config             *config.Config
	logger             logging.Logger
	db                 *sql.DB
	repomanager        repomanager.RepositoryManager
	userService        *services.UserService
	applicationService *services.ApplicationService
}

func NewApp(cfg *config.Config) (*App, error) {

	l := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(l)

	// Without a signing secret every issued token would be forgeable.
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key is not configured")
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()

	us := services.NewUserService(db, m, cfg)
	as := services.NewApplicationService(db, m, cfg)

	return &App{
		config:             cfg,
		logger:             logger,
		db:                 db,
		repomanager:        m,
		userService:        us,
		applicationService: as,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(app.config.EndpointAddr, app.logger,
		app.userService, app.applicationService, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		app.logger.Error(ctx, "migrations failed", "error", err)
		return
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing db", "error", err)
	}
}
