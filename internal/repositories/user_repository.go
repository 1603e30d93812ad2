package repositories

import (
	"context"

	"bazaar/internal/models"
)

// UserRepository defines the interface for user data access. It doubles as
// the device token registry used for push notifications.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetDeviceToken(ctx context.Context, userID, token string) error
	// DeviceToken returns "" when the user has no registered device.
	DeviceToken(ctx context.Context, userID string) (string, error)
	// ForgetDeviceToken clears the user's token if it still equals token.
	ForgetDeviceToken(ctx context.Context, userID, token string) error
}

// ShopRepository defines the interface for shop lookups.
type ShopRepository interface {
	Create(ctx context.Context, shop *models.Shop) error
	GetByID(ctx context.Context, id string) (*models.Shop, error)
	GetByOwner(ctx context.Context, ownerID string) (*models.Shop, error)
}
