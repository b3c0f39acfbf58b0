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
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLiteRepositoryManager vends SQLite-backed repository implementations.
// It is the default backend so the service runs without external infrastructure.
type SQLiteRepositoryManager struct{}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

// Sessions returns a sessions.Repository bound to the provided DBTX.
func (m *SQLiteRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewSQLiteRepository(db)
}

// Processing returns a processing.Repository bound to the provided DBTX.
func (m *SQLiteRepositoryManager) Processing(db dbx.DBTX) processing.Repository {
	return processing.NewSQLiteRepository(db)
}

// Artifacts returns an artifacts.Repository bound to the provided DBTX.
func (m *SQLiteRepositoryManager) Artifacts(db dbx.DBTX) artifacts.Repository {
	return artifacts.NewSQLiteRepository(db)
}

// RunMigrations sets up goose with the embedded migrations and runs the
// sqlite set against the provided database connection.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetDialect("sqlite3")
	if err := gooseUpContext(ctx, db, "sqlite"); err != nil {
		return err
	}
	return nil
}

// NewSQLiteRepositoryManager constructs a SQLite-backed RepositoryManager.
func NewSQLiteRepositoryManager(db *sql.DB) (RepositoryManager, error) {
	return &SQLiteRepositoryManager{}, nil
}
