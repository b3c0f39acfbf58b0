// Package cli implements the admin maintenance tool: bootstrap of the first
// account plus a few rescue commands operating directly on the database the
// server uses.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/dmitrijs2005/datacleaner/internal/server/config"
	"github.com/dmitrijs2005/datacleaner/internal/server/models"
	"github.com/dmitrijs2005/datacleaner/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/datacleaner/internal/server/services"
)

// authService is the slice of the auth service the admin commands use.
type authService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	SetPassword(ctx context.Context, email, password string) error
	EnrollMFA(ctx context.Context, userID string) (*services.MFAEnrollment, error)
	VerifyMFAEnrollment(ctx context.Context, userID string, code string) error
	ResetMFA(ctx context.Context, email string) error
	UnlockAccount(ctx context.Context, email string) error
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

type App struct {
	config      *config.Config
	authService authService
	db          *sql.DB
	reader      *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {

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

	return &App{config: c, authService: as, db: db, reader: bufio.NewReader(os.Stdin)}, nil
}

// Run executes one admin command and closes the database afterwards.
func (a *App) Run(ctx context.Context, mode string, useDefaults bool, email string) error {
	defer a.db.Close()

	switch mode {
	case "createadmin":
		if useDefaults {
			return a.CreateDefaultAdmin(ctx)
		}
		return a.CreateAdmin(ctx)
	case "resetmfa":
		return a.ResetMFA(ctx, email)
	case "unlock":
		return a.UnlockAccount(ctx, email)
	case "purgesessions":
		return a.PurgeSessions(ctx)
	default:
		return fmt.Errorf("unknown mode: %s (expected createadmin, resetmfa, unlock or purgesessions)", mode)
	}
}
