// Package repomanager provides concrete RepositoryManager implementations for
// PostgreSQL and SQLite, wiring together repository constructors and database
// migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/datacleaner/internal/dbx"
	"github.com/dmitrijs2005/datacleaner/internal/server/migrations"
	"github.com/dmitrijs2005/datacleaner/internal/server/repositories/artifacts"
	"github.com/dmitrijs2005/datacleaner/internal/server/repositories/processing"
	"github.com/dmitrijs2005/datacleaner/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/datacleaner/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Sessions returns a sessions.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewPostgresRepository(db)
}

// Processing returns a processing.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Processing(db dbx.DBTX) processing.Repository {
	return processing.NewPostgresRepository(db)
}

// Artifacts returns an artifacts.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Artifacts(db dbx.DBTX) artifacts.Repository {
	return artifacts.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs the
// postgres set against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetDialect("pgx")
	if err := gooseUpContext(ctx, db, "postgres"); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager(db *sql.DB) (RepositoryManager, error) {
	return &PostgresRepositoryManager{}, nil
}
