package services

import (
	"context"
	"errors"
	"strings"

	"bazaar/internal/repositories"
)

// DeviceService registers the push tokens that notifications are sent to.
type DeviceService struct {
	tokens repositories.DeviceTokenStore
}

// NewDeviceService creates a new DeviceService.
func NewDeviceService(tokens repositories.DeviceTokenStore) *DeviceService {
	return &DeviceService{tokens: tokens}
}

// RegisterDevice stores token as the user's current device. An empty token
// unregisters the device.
func (s *DeviceService) RegisterDevice(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if len(token) > 255 {
		return ErrInvalidDeviceToken.Withf("device token must be at most 255 characters")
	}
	if err := s.tokens.SetDeviceToken(ctx, userID, token); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound.Withf("user %s not found", userID)
		}
		return ErrInternal.Wrap(err)
	}
	return nil
}
