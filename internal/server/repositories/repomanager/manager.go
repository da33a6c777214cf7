// Package repomanager wires concrete repository implementations to the
// services that consume them. Repositories are handed a dbx.DBTX so the same
// code runs against *sql.DB and inside transactions.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dberezin/ipotrack/internal/dbx"
	"github.com/dberezin/ipotrack/internal/server/repositories/applications"
	"github.com/dberezin/ipotrack/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Applications(db dbx.DBTX) applications.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
