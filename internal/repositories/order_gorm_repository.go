package repositories

import (
	"context"
	"errors"
	"fmt"

	"bazaar/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("line_index ASC")
}

// GetByID retrieves an order with its items by internal ID.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByNumber retrieves an order with its items by order number.
func (r *GORMOrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return r.first(ctx, "order_number = ?", orderNumber)
}

func (r *GORMOrderRepository) first(ctx context.Context, query string, arg string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items", preloadItems).First(&order, query, arg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", arg, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order %s: %w", arg, err)
	}
	return &order, nil
}

// ListByCustomer returns a customer's orders, newest first.
func (r *GORMOrderRepository) ListByCustomer(ctx context.Context, customerID string, filter OrderFilter) ([]models.Order, error) {
	return r.list(ctx, "customer_id = ?", customerID, filter)
}

// ListByShop returns a shop's orders, newest first.
func (r *GORMOrderRepository) ListByShop(ctx context.Context, shopID string, filter OrderFilter) ([]models.Order, error) {
	return r.list(ctx, "shop_id = ?", shopID, filter)
}

func (r *GORMOrderRepository) list(ctx context.Context, query string, arg string, filter OrderFilter) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Preload("Items", preloadItems).Where(query, arg)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if !filter.Since.IsZero() {
		q = q.Where("created_at >= ?", filter.Since)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var orders []models.Order
	if err := q.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// CreateWithStock inserts the order and its items and applies the stock
// adjustments in a single transaction.
func (r *GORMOrderRepository) CreateWithStock(ctx context.Context, order *models.Order, adjustments []models.StockAdjustment) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := adjustStock(tx, adjustments); err != nil {
			return err
		}
		if err := tx.Create(order).Error; err != nil {
			if isDuplicateKey(err) {
				return fmt.Errorf("order %s: %w", order.OrderNumber, ErrDuplicateOrderNumber)
			}
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
	if err != nil {
		order.ID = ""
		return err
	}
	return nil
}

// UpdateStatus compares-and-sets the order status and applies the stock
// adjustments in a single transaction.
func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id string, change models.StatusChange, adjustments []models.StockAdjustment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, change.From).
			Updates(change.Columns())
		if res.Error != nil {
			return fmt.Errorf("failed to update status for order %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check order %s: %w", id, err)
			}
			if count == 0 {
				return fmt.Errorf("order %s: %w", id, ErrNotFound)
			}
			return fmt.Errorf("order %s is no longer %s: %w", id, change.From, ErrStatusConflict)
		}
		return adjustStock(tx, adjustments)
	})
}
