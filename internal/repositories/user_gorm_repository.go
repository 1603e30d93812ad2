package repositories

import (
	"context"
	"errors"
	"fmt"

	"bazaar/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}
	return &user, nil
}

// SetDeviceToken stores the user's push token.
func (r *GORMUserRepository) SetDeviceToken(ctx context.Context, userID, token string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("fcm_token", token)
	if res.Error != nil {
		return fmt.Errorf("failed to set device token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s: %w", userID, ErrNotFound)
	}
	return nil
}

// DeviceToken returns the user's push token, or "" for unknown users and
// users without a device.
func (r *GORMUserRepository) DeviceToken(ctx context.Context, userID string) (string, error) {
	var tokens []string
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Limit(1).Pluck("fcm_token", &tokens).Error
	if err != nil {
		return "", fmt.Errorf("failed to look up device token for user %s: %w", userID, err)
	}
	if len(tokens) == 0 {
		return "", nil
	}
	return tokens[0], nil
}

// ForgetDeviceToken clears a stale token. A token replaced in the meantime is
// left alone.
func (r *GORMUserRepository) ForgetDeviceToken(ctx context.Context, userID, token string) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND fcm_token = ?", userID, token).
		Update("fcm_token", "").Error
	if err != nil {
		return fmt.Errorf("failed to clear device token for user %s: %w", userID, err)
	}
	return nil
}

// GORMShopRepository is a GORM implementation of ShopRepository.
type GORMShopRepository struct {
	db *gorm.DB
}

// NewGORMShopRepository creates a new instance of GORMShopRepository.
func NewGORMShopRepository(db *gorm.DB) *GORMShopRepository {
	return &GORMShopRepository{db: db}
}

func (r *GORMShopRepository) Create(ctx context.Context, shop *models.Shop) error {
	if shop.ID == "" {
		shop.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(shop).Error; err != nil {
		return fmt.Errorf("failed to create shop: %w", err)
	}
	return nil
}

func (r *GORMShopRepository) GetByID(ctx context.Context, id string) (*models.Shop, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *GORMShopRepository) GetByOwner(ctx context.Context, ownerID string) (*models.Shop, error) {
	return r.first(ctx, "owner_id = ?", ownerID)
}

func (r *GORMShopRepository) first(ctx context.Context, query, arg string) (*models.Shop, error) {
	var shop models.Shop
	if err := r.db.WithContext(ctx).First(&shop, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("shop %s: %w", arg, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get shop %s: %w", arg, err)
	}
	return &shop, nil
}
