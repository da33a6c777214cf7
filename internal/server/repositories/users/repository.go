package users

import (
	"context"

	"github.com/dberezin/ipotrack/internal/server/models"
)

// Repository is the credential store boundary. Create returns
// common.ErrorAlreadyExists when the email is taken; GetUserByEmail returns
// common.ErrorNotFound for absent accounts. No update or delete is exposed.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
