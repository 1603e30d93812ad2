package services

import (
	"context"
	"errors"

	"bazaar/internal/models"
	"bazaar/internal/repositories"
)

// sellerShop resolves the shop a seller owns.
func sellerShop(ctx context.Context, shops repositories.ShopRepository, sellerID string) (*models.Shop, error) {
	shop, err := shops.GetByOwner(ctx, sellerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrShopNotFound.Withf("seller %s has no shop", sellerID)
		}
		return nil, ErrInternal.Wrap(err)
	}
	return shop, nil
}
