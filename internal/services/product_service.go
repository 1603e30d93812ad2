package services

import (
	"context"
	"errors"

	"bazaar/internal/models"
	"bazaar/internal/pricing"
	"bazaar/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// CreateProductRequest is the payload a seller submits to list a product.
// A missing CommissionRate takes the shop's rate, then the policy default.
type CreateProductRequest struct {
	Name           string           `json:"name" validate:"required,min=3,max=255"`
	Description    string           `json:"description" validate:"omitempty,max=2000"`
	BasePrice      decimal.Decimal  `json:"base_price"`
	CommissionRate *decimal.Decimal `json:"commission_rate"`
	StockQuantity  int              `json:"stock_quantity" validate:"gte=0"`
	Sizes          []string         `json:"sizes" validate:"omitempty,dive,required,max=50"`
	Colors         []string         `json:"colors" validate:"omitempty,dive,required,max=50"`
}

// UpdatePricingRequest changes a product's base price, commission rate or both.
type UpdatePricingRequest struct {
	BasePrice      *decimal.Decimal `json:"base_price"`
	CommissionRate *decimal.Decimal `json:"commission_rate"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo     repositories.ProductRepository
	shopRepo repositories.ShopRepository
	policy   pricing.Policy
	validate *validator.Validate
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, shopRepo repositories.ShopRepository, policy pricing.Policy) *ProductService {
	return &ProductService{
		repo:     repo,
		shopRepo: shopRepo,
		policy:   policy,
		validate: validator.New(),
	}
}

// GetAllProducts retrieves the active catalog.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, ErrInternal.Wrap(err)
	}
	return products, nil
}

// GetProductByID retrieves an active product.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, ErrProductNotFound.Withf("product %s not found", id)
	}
	return product, nil
}

// GetShopProducts lists every product of the seller's shop, inactive ones included.
func (s *ProductService) GetShopProducts(ctx context.Context, sellerID string) ([]models.Product, error) {
	shop, err := sellerShop(ctx, s.shopRepo, sellerID)
	if err != nil {
		return nil, err
	}
	products, err := s.repo.GetByShop(ctx, shop.ID)
	if err != nil {
		return nil, ErrInternal.Wrap(err)
	}
	return products, nil
}

// CreateProduct lists a new product in the seller's shop.
func (s *ProductService) CreateProduct(ctx context.Context, sellerID string, req CreateProductRequest) (*models.Product, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, ErrInvalidProductRequest.Wrap(err)
	}
	shop, err := sellerShop(ctx, s.shopRepo, sellerID)
	if err != nil {
		return nil, err
	}

	rate := s.policy.DefaultCommissionRate
	if shop.CommissionRate.Valid {
		rate = shop.CommissionRate.Decimal
	}
	if req.CommissionRate != nil {
		rate = *req.CommissionRate
	}
	if _, err := pricing.ComputeDisplayPrice(req.BasePrice, rate); err != nil {
		return nil, err
	}

	product := &models.Product{
		ShopID:         shop.ID,
		Name:           req.Name,
		Description:    req.Description,
		BasePrice:      req.BasePrice,
		CommissionRate: rate,
		StockQuantity:  req.StockQuantity,
		Sizes:          req.Sizes,
		Colors:         req.Colors,
		IsActive:       true,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, ErrInternal.Wrap(err)
	}
	return product, nil
}

// UpdatePricing changes the pricing inputs of a product. Only the pricing
// columns are written; existing orders keep their snapshot.
func (s *ProductService) UpdatePricing(ctx context.Context, sellerID, id string, req UpdatePricingRequest) (*models.Product, error) {
	if req.BasePrice == nil && req.CommissionRate == nil {
		return nil, ErrInvalidProductRequest.Withf("base_price or commission_rate is required")
	}
	product, err := s.owned(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}
	base, rate := product.BasePrice, product.CommissionRate
	if req.BasePrice != nil {
		base = *req.BasePrice
	}
	if req.CommissionRate != nil {
		rate = *req.CommissionRate
	}
	if _, err := pricing.ComputeDisplayPrice(base, rate); err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePricing(ctx, id, base, rate); err != nil {
		return nil, s.writeError(id, err)
	}
	return s.find(ctx, id)
}

// SetStock overwrites the stock count of a product.
func (s *ProductService) SetStock(ctx context.Context, sellerID, id string, quantity int) (*models.Product, error) {
	if quantity < 0 {
		return nil, ErrInvalidProductRequest.Withf("stock_quantity must not be negative, got %d", quantity)
	}
	if _, err := s.owned(ctx, sellerID, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetStock(ctx, id, quantity); err != nil {
		return nil, s.writeError(id, err)
	}
	return s.find(ctx, id)
}

func (s *ProductService) writeError(id string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrProductNotFound.Withf("product %s not found", id)
	}
	return ErrInternal.Wrap(err)
}

// DeactivateProduct takes a product off the catalog. Orders that reference it
// are unaffected.
func (s *ProductService) DeactivateProduct(ctx context.Context, sellerID, id string) error {
	if _, err := s.owned(ctx, sellerID, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return s.writeError(id, err)
	}
	return nil
}

func (s *ProductService) find(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound.Withf("product %s not found", id)
		}
		return nil, ErrInternal.Wrap(err)
	}
	return product, nil
}

func (s *ProductService) owned(ctx context.Context, sellerID, id string) (*models.Product, error) {
	shop, err := sellerShop(ctx, s.shopRepo, sellerID)
	if err != nil {
		return nil, err
	}
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.ShopID != shop.ID {
		return nil, ErrNotShopOwner
	}
	return product, nil
}
