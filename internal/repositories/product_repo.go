package repositories

import (
	"context"

	"bazaar/internal/models"

	"github.com/shopspring/decimal"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByShop(ctx context.Context, shopID string) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	CountActiveByShop(ctx context.Context, shopID string) (int64, error)
	Create(ctx context.Context, product *models.Product) error
	// UpdatePricing writes only the pricing columns and the derived display
	// price, so concurrent stock and activity changes are kept.
	UpdatePricing(ctx context.Context, id string, basePrice, commissionRate decimal.Decimal) error
	// SetStock overwrites the stock count and nothing else.
	SetStock(ctx context.Context, id string, quantity int) error
	// Deactivate soft-deletes a product. Products are never removed because
	// order items keep referring to them.
	Deactivate(ctx context.Context, id string) error
}
