package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bazaar/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
// Stock lives in the product repository it is paired with; writes take the
// product lock first so the stock change and the order write are one unit.
type MockOrderRepository struct {
	products *MockProductRepository
	orders   map[string]models.Order
	byNumber map[string]string
	mu       sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository(products *MockProductRepository) *MockOrderRepository {
	return &MockOrderRepository{
		products: products,
		orders:   make(map[string]models.Order),
		byNumber: make(map[string]string),
	}
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	order = cloneOrder(order)
	return &order, nil
}

// GetByNumber returns an order by its order number.
func (r *MockOrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	r.mu.RLock()
	id, ok := r.byNumber[orderNumber]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderNumber, ErrNotFound)
	}
	return r.GetByID(ctx, id)
}

// ListByCustomer returns a customer's orders, newest first.
func (r *MockOrderRepository) ListByCustomer(ctx context.Context, customerID string, filter OrderFilter) ([]models.Order, error) {
	return r.list(func(o models.Order) bool { return o.CustomerID == customerID }, filter), nil
}

// ListByShop returns a shop's orders, newest first.
func (r *MockOrderRepository) ListByShop(ctx context.Context, shopID string, filter OrderFilter) ([]models.Order, error) {
	return r.list(func(o models.Order) bool { return o.ShopID == shopID }, filter), nil
}

func (r *MockOrderRepository) list(owned func(models.Order) bool, filter OrderFilter) []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0)
	for _, order := range r.orders {
		if !owned(order) {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		if !filter.Since.IsZero() && order.CreatedAt.Before(filter.Since) {
			continue
		}
		orderList = append(orderList, cloneOrder(order))
	}
	sort.Slice(orderList, func(i, j int) bool {
		return orderList[i].CreatedAt.After(orderList[j].CreatedAt)
	})
	if filter.Limit > 0 && len(orderList) > filter.Limit {
		orderList = orderList[:filter.Limit]
	}
	return orderList
}

// CreateWithStock adds a new order and applies the stock adjustments atomically.
func (r *MockOrderRepository) CreateWithStock(ctx context.Context, order *models.Order, adjustments []models.StockAdjustment) error {
	r.products.mu.Lock()
	defer r.products.mu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byNumber[order.OrderNumber]; taken {
		return fmt.Errorf("order %s: %w", order.OrderNumber, ErrDuplicateOrderNumber)
	}
	if err := r.products.adjustStockLocked(adjustments); err != nil {
		return err
	}

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	order.UpdatedAt = order.CreatedAt
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		order.Items[i].CreatedAt = order.CreatedAt
	}
	r.orders[order.ID] = cloneOrder(*order)
	r.byNumber[order.OrderNumber] = order.ID
	return nil
}

// UpdateStatus compares-and-sets the status of an order.
func (r *MockOrderRepository) UpdateStatus(ctx context.Context, id string, change models.StatusChange, adjustments []models.StockAdjustment) error {
	r.products.mu.Lock()
	defer r.products.mu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if order.Status != change.From {
		return fmt.Errorf("order %s is no longer %s: %w", id, change.From, ErrStatusConflict)
	}
	if err := r.products.adjustStockLocked(adjustments); err != nil {
		return err
	}
	change.Apply(&order)
	r.orders[id] = order
	return nil
}
