package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bazaar/internal/models"

	"github.com/google/uuid"
)

// MockUserRepository is an in-memory implementation of UserRepository.
type MockUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]models.User)}
}

func (r *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return nil
}

func (r *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %s: %w", id, ErrNotFound)
	}
	return &user, nil
}

func (r *MockUserRepository) SetDeviceToken(ctx context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user with ID %s: %w", userID, ErrNotFound)
	}
	user.FCMToken = token
	user.UpdatedAt = time.Now()
	r.users[userID] = user
	return nil
}

func (r *MockUserRepository) DeviceToken(ctx context.Context, userID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.users[userID].FCMToken, nil
}

func (r *MockUserRepository) ForgetDeviceToken(ctx context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if ok && user.FCMToken == token {
		user.FCMToken = ""
		r.users[userID] = user
	}
	return nil
}

// MockShopRepository is an in-memory implementation of ShopRepository.
type MockShopRepository struct {
	shops map[string]models.Shop
	mu    sync.RWMutex
}

// NewMockShopRepository creates a new instance of MockShopRepository.
func NewMockShopRepository() *MockShopRepository {
	return &MockShopRepository{shops: make(map[string]models.Shop)}
}

func (r *MockShopRepository) Create(ctx context.Context, shop *models.Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if shop.ID == "" {
		shop.ID = uuid.New().String()
	}
	for _, s := range r.shops {
		if s.OwnerID == shop.OwnerID {
			return fmt.Errorf("owner %s already has a shop", shop.OwnerID)
		}
	}
	shop.CreatedAt = time.Now()
	shop.UpdatedAt = shop.CreatedAt
	r.shops[shop.ID] = *shop
	return nil
}

func (r *MockShopRepository) GetByID(ctx context.Context, id string) (*models.Shop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	shop, ok := r.shops[id]
	if !ok {
		return nil, fmt.Errorf("shop %s: %w", id, ErrNotFound)
	}
	return &shop, nil
}

func (r *MockShopRepository) GetByOwner(ctx context.Context, ownerID string) (*models.Shop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, shop := range r.shops {
		if shop.OwnerID == ownerID {
			return &shop, nil
		}
	}
	return nil, fmt.Errorf("shop %s: %w", ownerID, ErrNotFound)
}
