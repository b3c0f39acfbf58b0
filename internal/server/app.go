// Package server wires the application together: configuration, logging,
// storage, the cleaning engine client and the HTTP API, plus the background
// session sweeper.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/datacleaner/internal/cleanengine"
	"github.com/dmitrijs2005/datacleaner/internal/logging"
	"github.com/dmitrijs2005/datacleaner/internal/server/config"
	"github.com/dmitrijs2005/datacleaner/internal/server/httpapi"
	"github.com/dmitrijs2005/datacleaner/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/datacleaner/internal/server/services"
)

// sessionSweepInterval is how often expired sessions are purged from storage.
const sessionSweepInterval = 1 * time.Hour

type App struct {
	config          *config.Config
	logger          logging.Logger
	db              *sql.DB
	authService     *services.AuthService
	cleaningService *services.CleaningService
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewDefault()

	rm, db, err := repomanager.NewFromDSN(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	as, err := services.NewAuthService(db, rm, c)
	if err != nil {
		return nil, fmt.Errorf("auth service init error: %w", err)
	}

	engine := cleanengine.NewHTTPEngine(c.CleanEngineURL, c.CleanEngineTimeout)
	cs := services.NewCleaningService(db, rm, engine, c)

	return &App{config: c, logger: logger, db: db, authService: as, cleaningService: cs}, nil
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

	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger, app.authService, app.cleaningService, app.config.CORSAllowedOrigins)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// startSessionSweeper periodically deletes expired sessions so revoked and
// stale tokens do not accumulate in storage.
func (app *App) startSessionSweeper(ctx context.Context) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.authService.PurgeExpiredSessions(ctx)
			if err != nil {
				app.logger.Error(ctx, "session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "purged expired sessions", "count", n)
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startSessionSweeper(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing database", "error", err)
	}
}
