package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bazaar/internal/models"
	"bazaar/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all active products.
func (r *GORMProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByShop retrieves every product of a shop, including inactive ones.
func (r *GORMProductRepository) GetByShop(ctx context.Context, shopID string) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Where("shop_id = ?", shopID).Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get products for shop %s: %w", shopID, err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID, active or not.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// CountActiveByShop counts the active products of a shop.
func (r *GORMProductRepository) CountActiveByShop(ctx context.Context, shopID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("shop_id = ? AND is_active = ?", shopID, true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count products for shop %s: %w", shopID, err)
	}
	return count, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// UpdatePricing sets the base price and commission rate and re-derives the
// display price in one statement. Hooks are skipped because the row is never
// loaded.
func (r *GORMProductRepository) UpdatePricing(ctx context.Context, id string, basePrice, commissionRate decimal.Decimal) error {
	display, err := pricing.ComputeDisplayPrice(basePrice, commissionRate)
	if err != nil {
		return err
	}
	return r.updateColumns(ctx, id, map[string]interface{}{
		"base_price":      basePrice,
		"commission_rate": commissionRate,
		"display_price":   display,
	})
}

// SetStock overwrites the stock count.
func (r *GORMProductRepository) SetStock(ctx context.Context, id string, quantity int) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"stock_quantity": quantity})
}

func (r *GORMProductRepository) updateColumns(ctx context.Context, id string, columns map[string]interface{}) error {
	columns["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).UpdateColumns(columns)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

// Deactivate marks a product inactive.
func (r *GORMProductRepository) Deactivate(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("failed to deactivate product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

// adjustStock applies signed stock changes inside tx. Decrements only succeed
// while the product is active and holds enough units; the condition and the
// write are one statement so concurrent decrements cannot both pass.
func adjustStock(tx *gorm.DB, adjustments []models.StockAdjustment) error {
	for _, adj := range adjustments {
		q := tx.Model(&models.Product{}).Where("id = ?", adj.ProductID)
		if adj.Delta < 0 {
			q = q.Where("is_active = ? AND stock_quantity >= ?", true, -adj.Delta)
		}
		res := q.UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", adj.Delta))
		if res.Error != nil {
			return fmt.Errorf("failed to adjust stock for product %s: %w", adj.ProductID, res.Error)
		}
		if res.RowsAffected == 0 {
			if adj.Delta < 0 {
				return fmt.Errorf("product %s: %w", adj.ProductID, ErrStockConflict)
			}
			return fmt.Errorf("product with ID %s: %w", adj.ProductID, ErrNotFound)
		}
	}
	return nil
}
