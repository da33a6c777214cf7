package applications

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dberezin/ipotrack/internal/common"
	"github.com/dberezin/ipotrack/internal/server/models"
)

// InMemoryRepository is a map-backed application store for tests and
// storeless development.
type InMemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]*models.Application
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byID: make(map[string]*models.Application)}
}

func (r *InMemoryRepository) Create(ctx context.Context, app *models.Application) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *app
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now()
	r.byID[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *InMemoryRepository) ListByUser(ctx context.Context, userID string) ([]*models.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Application
	for _, app := range r.byID {
		if app.UserID == userID {
			out := *app
			result = append(result, &out)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, userID, id string) (*models.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, ok := r.byID[id]
	if !ok || app.UserID != userID {
		return nil, common.ErrorNotFound
	}
	out := *app
	return &out, nil
}

func (r *InMemoryRepository) SetDocumentKey(ctx context.Context, userID, id, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	app, ok := r.byID[id]
	if !ok || app.UserID != userID {
		return common.ErrorNotFound
	}
	app.DocumentKey = &key
	return nil
}
