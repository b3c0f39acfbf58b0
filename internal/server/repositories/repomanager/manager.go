package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/datacleaner/internal/dbx"
	"github.com/dmitrijs2005/datacleaner/internal/server/repositories/artifacts"
	"github.com/dmitrijs2005/datacleaner/internal/server/repositories/processing"
	"github.com/dmitrijs2005/datacleaner/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/datacleaner/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Processing(db dbx.DBTX) processing.Repository
	Artifacts(db dbx.DBTX) artifacts.Repository
}
