package models

import (
	"time"

	"bazaar/internal/pricing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a product listed by a shop.
//
// DisplayPrice is a cache of pricing.ComputeDisplayPrice(BasePrice, CommissionRate).
// It is recomputed on save and on load, and pricing edits write it in the
// same statement as its inputs, so it never drifts from them.
type Product struct {
	ID             string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	ShopID         string          `json:"shop_id" gorm:"index:idx_products_shop_active,priority:1;type:varchar(36);not null" validate:"required"`
	Name           string          `json:"name" gorm:"type:varchar(255);not null" validate:"required,min=3,max=255"`
	Description    string          `json:"description" validate:"omitempty,max=2000"`
	BasePrice      decimal.Decimal `json:"base_price" gorm:"type:decimal(10,2);not null"`
	CommissionRate decimal.Decimal `json:"commission_rate" gorm:"type:decimal(5,4);not null"`
	DisplayPrice   decimal.Decimal `json:"display_price" gorm:"type:decimal(10,2);not null"`
	StockQuantity  int             `json:"stock_quantity" gorm:"not null" validate:"gte=0"`
	Sizes          []string        `json:"sizes" gorm:"serializer:json"`
	Colors         []string        `json:"colors" gorm:"serializer:json"`
	IsActive       bool            `json:"is_active" gorm:"index:idx_products_shop_active,priority:2;not null"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// RefreshDisplayPrice re-derives DisplayPrice from BasePrice and CommissionRate.
func (p *Product) RefreshDisplayPrice() error {
	display, err := pricing.ComputeDisplayPrice(p.BasePrice, p.CommissionRate)
	if err != nil {
		return err
	}
	p.DisplayPrice = display
	return nil
}

// BeforeSave keeps DisplayPrice derived from the pricing inputs on insert.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	return p.RefreshDisplayPrice()
}

// AfterFind re-derives DisplayPrice on every load.
func (p *Product) AfterFind(tx *gorm.DB) error {
	return p.RefreshDisplayPrice()
}

// OffersVariant reports whether size and color are part of the product's
// variant vocabulary. An empty vocabulary accepts any value.
func (p *Product) OffersVariant(size, color string) bool {
	return offers(p.Sizes, size) && offers(p.Colors, color)
}

func offers(options []string, value string) bool {
	if value == "" || len(options) == 0 {
		return true
	}
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
