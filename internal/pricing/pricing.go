// Package pricing derives customer-facing prices from seller base prices and
// evaluates the order-level fee rules.
package pricing

import (
	"fmt"

	"bazaar/internal/apperror"

	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the number of minor-unit digits prices are rounded to.
const CurrencyPlaces = 2

var ErrInvalidPricingInput = apperror.New(apperror.KindValidation, "invalid_pricing_input", "invalid pricing input")

var one = decimal.NewFromInt(1)

// ComputeDisplayPrice returns round(basePrice * (1 + commissionRate), 2),
// rounding half-up. basePrice must be positive and commissionRate must be a
// fraction in [0, 1).
func ComputeDisplayPrice(basePrice, commissionRate decimal.Decimal) (decimal.Decimal, error) {
	if !basePrice.IsPositive() {
		return decimal.Zero, ErrInvalidPricingInput.Withf("base price must be positive, got %s", basePrice)
	}
	if err := ValidateCommissionRate(commissionRate); err != nil {
		return decimal.Zero, err
	}
	return basePrice.Mul(one.Add(commissionRate)).Round(CurrencyPlaces), nil
}

// ValidateCommissionRate checks that rate lies in [0, 1).
func ValidateCommissionRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThanOrEqual(one) {
		return ErrInvalidPricingInput.Withf("commission rate must be in [0, 1), got %s", rate)
	}
	return nil
}

// Policy is the versioned pricing configuration read once per order build and
// snapshotted into the order.
type Policy struct {
	Version               string
	DefaultCommissionRate decimal.Decimal
	CODFlatFee            decimal.Decimal
	CODThreshold          decimal.Decimal
}

// DefaultPolicy is 15% commission and a 50 unit cash-on-delivery fee on
// subtotals below 500.
func DefaultPolicy() Policy {
	return Policy{
		Version:               "v1",
		DefaultCommissionRate: decimal.RequireFromString("0.15"),
		CODFlatFee:            decimal.NewFromInt(50),
		CODThreshold:          decimal.NewFromInt(500),
	}
}

// Validate checks the policy for values that would corrupt order totals.
func (p Policy) Validate() error {
	if p.Version == "" {
		return ErrInvalidPricingInput.Withf("pricing policy version is required")
	}
	if err := ValidateCommissionRate(p.DefaultCommissionRate); err != nil {
		return err
	}
	if p.CODFlatFee.IsNegative() {
		return ErrInvalidPricingInput.Withf("cod fee must not be negative, got %s", p.CODFlatFee)
	}
	if p.CODThreshold.IsNegative() {
		return ErrInvalidPricingInput.Withf("cod threshold must not be negative, got %s", p.CODThreshold)
	}
	return nil
}

// CODFee applies the flat fee when subtotal is strictly below the threshold.
// A subtotal equal to the threshold pays no fee.
func (p Policy) CODFee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.LessThan(p.CODThreshold) {
		return p.CODFlatFee.Round(CurrencyPlaces)
	}
	return decimal.Zero.Round(CurrencyPlaces)
}

// Line is one priced cart line.
type Line struct {
	UnitBasePrice    decimal.Decimal
	UnitDisplayPrice decimal.Decimal
	Quantity         int
}

// PriceLine snapshots the unit prices for quantity units of a product.
func PriceLine(basePrice, commissionRate decimal.Decimal, quantity int) (Line, error) {
	if quantity < 1 {
		return Line{}, ErrInvalidPricingInput.Withf("quantity must be at least 1, got %d", quantity)
	}
	display, err := ComputeDisplayPrice(basePrice, commissionRate)
	if err != nil {
		return Line{}, err
	}
	return Line{UnitBasePrice: basePrice, UnitDisplayPrice: display, Quantity: quantity}, nil
}

// LineTotal is what the customer pays for the line.
func (l Line) LineTotal() decimal.Decimal {
	return l.UnitDisplayPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(CurrencyPlaces)
}

// SellerAmount is the seller's share of the line.
func (l Line) SellerAmount() decimal.Decimal {
	return l.UnitBasePrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(CurrencyPlaces)
}

// CommissionAmount is the platform's share of the line.
func (l Line) CommissionAmount() decimal.Decimal {
	return l.LineTotal().Sub(l.SellerAmount())
}

// Totals is the monetary breakdown of an order.
type Totals struct {
	Subtotal         decimal.Decimal
	CODFee           decimal.Decimal
	Total            decimal.Decimal
	CommissionAmount decimal.Decimal
	SellerPayout     decimal.Decimal
}

// Totals sums the lines and applies the COD fee to the display-price subtotal.
func (p Policy) Totals(lines []Line) Totals {
	var t Totals
	for _, l := range lines {
		t.Subtotal = t.Subtotal.Add(l.LineTotal())
		t.CommissionAmount = t.CommissionAmount.Add(l.CommissionAmount())
		t.SellerPayout = t.SellerPayout.Add(l.SellerAmount())
	}
	t.CODFee = p.CODFee(t.Subtotal)
	t.Total = t.Subtotal.Add(t.CODFee)
	return t
}

func (p Policy) String() string {
	return fmt.Sprintf("pricing %s (commission %s, cod %s below %s)", p.Version, p.DefaultCommissionRate, p.CODFlatFee, p.CODThreshold)
}
