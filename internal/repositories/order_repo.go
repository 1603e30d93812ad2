package repositories

import (
	"context"
	"time"

	"bazaar/internal/models"
)

// OrderFilter narrows order listings. Zero values mean "no restriction".
type OrderFilter struct {
	Status models.OrderStatus
	Since  time.Time
	Limit  int
}

// OrderRepository defines the interface for order data access. Orders are
// never deleted.
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID string, filter OrderFilter) ([]models.Order, error)
	ListByShop(ctx context.Context, shopID string, filter OrderFilter) ([]models.Order, error)
	// CreateWithStock persists the order and applies the stock adjustments as
	// one all-or-nothing unit. It fails with ErrStockConflict when a decrement
	// cannot be covered and with ErrDuplicateOrderNumber when the order number
	// is taken; in both cases nothing is written.
	CreateWithStock(ctx context.Context, order *models.Order, adjustments []models.StockAdjustment) error
	// UpdateStatus applies change only if the order is still in change.From,
	// together with the stock adjustments. It fails with ErrStatusConflict when
	// the stored status differs.
	UpdateStatus(ctx context.Context, id string, change models.StatusChange, adjustments []models.StockAdjustment) error
}
