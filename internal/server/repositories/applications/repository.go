package applications

import (
	"context"

	"github.com/dberezin/ipotrack/internal/server/models"
)

// Repository persists IPO applications. Lookups are always scoped to the
// owning user; GetByID returns common.ErrorNotFound for another user's
// application, so ownership never leaks.
type Repository interface {
	Create(ctx context.Context, app *models.Application) (*models.Application, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Application, error)
	GetByID(ctx context.Context, userID, id string) (*models.Application, error)
	SetDocumentKey(ctx context.Context, userID, id, key string) error
}
