package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dberezin/ipotrack/internal/common"
	"github.com/dberezin/ipotrack/internal/server/models"
)

// InMemoryRepository is a map-backed credential store for tests and
// storeless development. The mutex serializes check-then-create, so a
// concurrent register race on the same email degrades to a clean
// ErrorAlreadyExists.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*models.User
	byID    map[string]*models.User
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byEmail: make(map[string]*models.User),
		byID:    make(map[string]*models.User),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}

	stored := *user
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now()

	r.byEmail[stored.Email] = &stored
	r.byID[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *InMemoryRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *user
	return &out, nil
}

func (r *InMemoryRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *user
	return &out, nil
}
