package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/models"
)

// MemoryRepository keeps identities in process memory. Used when no DSN is
// configured and by service tests.
type MemoryRepository struct {
	mu         sync.RWMutex
	byUserName map[string]*models.User
	byID       map[int64]*models.User
	maxID      int64
	now        func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byUserName: map[string]*models.User{},
		byID:       map[int64]*models.User{},
		now:        time.Now,
	}
}

func (r *MemoryRepository) CreateIfAbsent(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUserName[user.UserName]; exists {
		return nil, common.ErrUsernameTaken
	}

	r.maxID++
	stored := *user
	stored.ID = r.maxID
	stored.CreatedAt = r.now()

	r.byUserName[stored.UserName] = &stored
	r.byID[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *MemoryRepository) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byUserName[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

func (r *MemoryRepository) List(_ context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.User, 0, len(r.byID))
	for id := int64(1); id <= r.maxID; id++ {
		if u, ok := r.byID[id]; ok {
			out := *u
			result = append(result, &out)
		}
	}
	return result, nil
}
