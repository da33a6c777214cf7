package repomanager

import (
	"context"
	"database/sql"

	"github.com/dberezin/ipotrack/internal/dbx"
	"github.com/dberezin/ipotrack/internal/server/repositories/applications"
	"github.com/dberezin/ipotrack/internal/server/repositories/users"
)

// InMemoryRepositoryManager serves the same repository instances regardless
// of the DBTX argument. Used by tests and storeless development runs.
type InMemoryRepositoryManager struct {
	users        users.Repository
	applications applications.Repository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		users:        users.NewInMemoryRepository(),
		applications: applications.NewInMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return m.users
}

func (m *InMemoryRepositoryManager) Applications(db dbx.DBTX) applications.Repository {
	return m.applications
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}
