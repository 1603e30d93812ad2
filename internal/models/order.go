package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem is a priced snapshot of one cart line. Its monetary fields are
// fixed at order time and do not follow later product edits.
type OrderItem struct {
	OrderID          string          `json:"-" gorm:"primaryKey;type:varchar(36)"`
	LineIndex        int             `json:"line_index" gorm:"primaryKey;autoIncrement:false"`
	ProductID        string          `json:"product_id" gorm:"type:varchar(36);index;not null"`
	ProductName      string          `json:"product_name" gorm:"type:varchar(255)"`
	Quantity         int             `json:"quantity" gorm:"not null"`
	Size             string          `json:"size,omitempty" gorm:"type:varchar(50)"`
	Color            string          `json:"color,omitempty" gorm:"type:varchar(50)"`
	UnitBasePrice    decimal.Decimal `json:"unit_base_price" gorm:"type:decimal(10,2);not null"`
	UnitDisplayPrice decimal.Decimal `json:"unit_display_price" gorm:"type:decimal(10,2);not null"`
	CommissionRate   decimal.Decimal `json:"commission_rate" gorm:"type:decimal(5,4);not null"`
	LineTotal        decimal.Decimal `json:"line_total" gorm:"type:decimal(12,2);not null"`
	SellerAmount     decimal.Decimal `json:"seller_amount" gorm:"type:decimal(12,2);not null"`
	CommissionAmount decimal.Decimal `json:"commission_amount" gorm:"type:decimal(12,2);not null"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Order represents a customer order placed with a single shop.
// After creation only the status fields and their timestamps change.
type Order struct {
	ID          string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber string `json:"order_number" gorm:"uniqueIndex;type:varchar(20);not null"`
	CustomerID  string `json:"customer_id" gorm:"index:idx_orders_customer_status,priority:1;type:varchar(36);not null"`
	ShopID      string `json:"shop_id" gorm:"index:idx_orders_shop_status,priority:1;type:varchar(36);not null"`

	CustomerName    string `json:"customer_name" gorm:"type:varchar(255)"`
	CustomerPhone   string `json:"customer_phone" gorm:"type:varchar(15)"`
	DeliveryAddress string `json:"delivery_address"`
	City            string `json:"city" gorm:"type:varchar(100)"`
	Pincode         string `json:"pincode" gorm:"type:varchar(6)"`
	Landmark        string `json:"landmark,omitempty" gorm:"type:varchar(255)"`

	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID;references:ID"`

	Subtotal         decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null"`
	CODFee           decimal.Decimal `json:"cod_fee" gorm:"type:decimal(10,2);not null"`
	Total            decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	CommissionAmount decimal.Decimal `json:"commission_amount" gorm:"type:decimal(12,2);not null"`
	SellerPayout     decimal.Decimal `json:"seller_payout" gorm:"type:decimal(12,2);not null"`
	PricingVersion   string          `json:"pricing_version" gorm:"type:varchar(32)"`

	Status             OrderStatus   `json:"status" gorm:"type:varchar(15);not null;index:idx_orders_customer_status,priority:2;index:idx_orders_shop_status,priority:2"`
	PaymentStatus      PaymentStatus `json:"payment_status" gorm:"type:varchar(10);not null"`
	CancellationReason string        `json:"cancellation_reason,omitempty"`

	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// StatusChange is the set of columns written by one state machine step.
type StatusChange struct {
	From               OrderStatus
	To                 OrderStatus
	At                 time.Time
	PaymentStatus      PaymentStatus
	CancellationReason string
}

// Apply writes the change onto o, stamping the stage timestamp.
func (c StatusChange) Apply(o *Order) {
	at := c.At
	o.Status = c.To
	o.UpdatedAt = at
	switch c.To {
	case StatusConfirmed:
		o.ConfirmedAt = &at
	case StatusShipped:
		o.ShippedAt = &at
	case StatusDelivered:
		o.DeliveredAt = &at
	case StatusCancelled:
		o.CancelledAt = &at
		o.CancellationReason = c.CancellationReason
	}
	if c.PaymentStatus != "" {
		o.PaymentStatus = c.PaymentStatus
	}
}

// Columns returns the column updates for c, keyed by database column name.
func (c StatusChange) Columns() map[string]interface{} {
	cols := map[string]interface{}{
		"status":     c.To,
		"updated_at": c.At,
	}
	switch c.To {
	case StatusConfirmed:
		cols["confirmed_at"] = c.At
	case StatusShipped:
		cols["shipped_at"] = c.At
	case StatusDelivered:
		cols["delivered_at"] = c.At
	case StatusCancelled:
		cols["cancelled_at"] = c.At
		cols["cancellation_reason"] = c.CancellationReason
	}
	if c.PaymentStatus != "" {
		cols["payment_status"] = c.PaymentStatus
	}
	return cols
}

// StockAdjustment is a signed change to one product's stock.
type StockAdjustment struct {
	ProductID string
	Delta     int
}

// Restock returns the adjustments that give back every unit in the order.
func (o *Order) Restock() []StockAdjustment {
	adj := make([]StockAdjustment, 0, len(o.Items))
	for _, item := range o.Items {
		adj = append(adj, StockAdjustment{ProductID: item.ProductID, Delta: item.Quantity})
	}
	return adj
}
