package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bazaar/internal/models"
	"bazaar/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
type MockProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
	}
}

func cloneProduct(p models.Product) models.Product {
	p.Sizes = append([]string(nil), p.Sizes...)
	p.Colors = append([]string(nil), p.Colors...)
	return p
}

func (r *MockProductRepository) sorted(keep func(models.Product) bool) []models.Product {
	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if keep(p) {
			productList = append(productList, cloneProduct(p))
		}
	}
	sort.Slice(productList, func(i, j int) bool {
		return productList[i].CreatedAt.After(productList[j].CreatedAt)
	})
	return productList
}

// GetAll returns all active products.
func (r *MockProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sorted(func(p models.Product) bool { return p.IsActive }), nil
}

// GetByShop returns all products of a shop.
func (r *MockProductRepository) GetByShop(ctx context.Context, shopID string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sorted(func(p models.Product) bool { return p.ShopID == shopID }), nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	product = cloneProduct(product)
	if err := product.RefreshDisplayPrice(); err != nil {
		return nil, err
	}
	return &product, nil
}

// CountActiveByShop counts the active products of a shop.
func (r *MockProductRepository) CountActiveByShop(ctx context.Context, shopID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, p := range r.products {
		if p.ShopID == shopID && p.IsActive {
			n++
		}
	}
	return n, nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := product.RefreshDisplayPrice(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.products[product.ID] = cloneProduct(*product)
	return nil
}

// UpdatePricing sets the pricing inputs and re-derives the display price.
func (r *MockProductRepository) UpdatePricing(ctx context.Context, id string, basePrice, commissionRate decimal.Decimal) error {
	display, err := pricing.ComputeDisplayPrice(basePrice, commissionRate)
	if err != nil {
		return err
	}
	return r.modify(id, func(p *models.Product) {
		p.BasePrice = basePrice
		p.CommissionRate = commissionRate
		p.DisplayPrice = display
	})
}

// SetStock overwrites the stock count.
func (r *MockProductRepository) SetStock(ctx context.Context, id string, quantity int) error {
	return r.modify(id, func(p *models.Product) {
		p.StockQuantity = quantity
	})
}

// modify applies change to the stored product under the lock.
func (r *MockProductRepository) modify(id string, change func(*models.Product)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	change(&product)
	product.UpdatedAt = time.Now()
	r.products[id] = product
	return nil
}

// Deactivate marks a product inactive.
func (r *MockProductRepository) Deactivate(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	product.IsActive = false
	product.UpdatedAt = time.Now()
	r.products[id] = product
	return nil
}

// adjustStockLocked applies all adjustments or none. The caller must hold r.mu.
func (r *MockProductRepository) adjustStockLocked(adjustments []models.StockAdjustment) error {
	next := make(map[string]int, len(adjustments))
	for _, adj := range adjustments {
		product, ok := r.products[adj.ProductID]
		if !ok {
			return fmt.Errorf("product with ID %s: %w", adj.ProductID, ErrNotFound)
		}
		stock, seen := next[adj.ProductID]
		if !seen {
			stock = product.StockQuantity
		}
		if adj.Delta < 0 && (!product.IsActive || stock < -adj.Delta) {
			return fmt.Errorf("product %s: %w", adj.ProductID, ErrStockConflict)
		}
		next[adj.ProductID] = stock + adj.Delta
	}
	for id, stock := range next {
		product := r.products[id]
		product.StockQuantity = stock
		r.products[id] = product
	}
	return nil
}
