package handlers

import (
	"errors"
	"fmt"
	"log"
	"time"

	"bazaar/internal/apperror"
	"bazaar/internal/models"
	"bazaar/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// respondError writes err as {"message", "error", "code"} with the status
// its kind maps to. Validation failures also list the offending fields.
func respondError(c *fiber.Ctx, message string, err error) error {
	status := apperror.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		log.Printf("%s: %v", message, err)
	}

	body := fiber.Map{
		"message": message,
		"error":   err.Error(),
		"code":    apperror.CodeOf(err),
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(map[string]string, len(validationErrors))
		for _, e := range validationErrors {
			fields[e.Namespace()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		body["errors"] = fields
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, message string, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
		"code":    apperror.KindValidation.String(),
	})
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ProductResponse is the public view of a product. Sellers also see their
// base price and commission rate.
type ProductResponse struct {
	ID             string    `json:"id"`
	ShopID         string    `json:"shop_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Price          string    `json:"price"`
	BasePrice      string    `json:"base_price,omitempty"`
	CommissionRate string    `json:"commission_rate,omitempty"`
	StockQuantity  int       `json:"stock_quantity"`
	Sizes          []string  `json:"sizes,omitempty"`
	Colors         []string  `json:"colors,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

func presentProduct(p models.Product, forSeller bool) ProductResponse {
	resp := ProductResponse{
		ID:            p.ID,
		ShopID:        p.ShopID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         money(p.DisplayPrice),
		StockQuantity: p.StockQuantity,
		Sizes:         p.Sizes,
		Colors:        p.Colors,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
	}
	if forSeller {
		resp.BasePrice = money(p.BasePrice)
		resp.CommissionRate = p.CommissionRate.String()
	}
	return resp
}

func presentProducts(products []models.Product, forSeller bool) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, presentProduct(p, forSeller))
	}
	return out
}

// OrderItemResponse is one priced order line.
type OrderItemResponse struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	Quantity     int    `json:"quantity"`
	Size         string `json:"size,omitempty"`
	Color        string `json:"color,omitempty"`
	UnitPrice    string `json:"unit_price"`
	LineTotal    string `json:"line_total"`
	SellerAmount string `json:"seller_amount,omitempty"`
}

// OrderResponse is the view of an order. Commission and payout figures are
// only shown to the seller.
type OrderResponse struct {
	OrderNumber        string               `json:"order_number"`
	Status             models.OrderStatus   `json:"status"`
	PaymentStatus      models.PaymentStatus `json:"payment_status"`
	ShopID             string               `json:"shop_id"`
	CustomerName       string               `json:"customer_name"`
	CustomerPhone      string               `json:"customer_phone"`
	DeliveryAddress    string               `json:"delivery_address"`
	City               string               `json:"city"`
	Pincode            string               `json:"pincode"`
	Landmark           string               `json:"landmark,omitempty"`
	Items              []OrderItemResponse  `json:"items"`
	Subtotal           string               `json:"subtotal"`
	CODFee             string               `json:"cod_fee"`
	Total              string               `json:"total"`
	CommissionAmount   string               `json:"commission_amount,omitempty"`
	SellerPayout       string               `json:"seller_payout,omitempty"`
	PricingVersion     string               `json:"pricing_version"`
	CancellationReason string               `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	ConfirmedAt        *time.Time           `json:"confirmed_at,omitempty"`
	ShippedAt          *time.Time           `json:"shipped_at,omitempty"`
	DeliveredAt        *time.Time           `json:"delivered_at,omitempty"`
	CancelledAt        *time.Time           `json:"cancelled_at,omitempty"`
}

func presentOrder(o models.Order, forSeller bool) OrderResponse {
	resp := OrderResponse{
		OrderNumber:        o.OrderNumber,
		Status:             o.Status,
		PaymentStatus:      o.PaymentStatus,
		ShopID:             o.ShopID,
		CustomerName:       o.CustomerName,
		CustomerPhone:      o.CustomerPhone,
		DeliveryAddress:    o.DeliveryAddress,
		City:               o.City,
		Pincode:            o.Pincode,
		Landmark:           o.Landmark,
		Items:              make([]OrderItemResponse, 0, len(o.Items)),
		Subtotal:           money(o.Subtotal),
		CODFee:             money(o.CODFee),
		Total:              money(o.Total),
		PricingVersion:     o.PricingVersion,
		CancellationReason: o.CancellationReason,
		CreatedAt:          o.CreatedAt,
		ConfirmedAt:        o.ConfirmedAt,
		ShippedAt:          o.ShippedAt,
		DeliveredAt:        o.DeliveredAt,
		CancelledAt:        o.CancelledAt,
	}
	for _, item := range o.Items {
		line := OrderItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Size:        item.Size,
			Color:       item.Color,
			UnitPrice:   money(item.UnitDisplayPrice),
			LineTotal:   money(item.LineTotal),
		}
		if forSeller {
			line.SellerAmount = money(item.SellerAmount)
		}
		resp.Items = append(resp.Items, line)
	}
	if forSeller {
		resp.CommissionAmount = money(o.CommissionAmount)
		resp.SellerPayout = money(o.SellerPayout)
	}
	return resp
}

func presentOrders(orders []models.Order, forSeller bool) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, presentOrder(o, forSeller))
	}
	return out
}

// DashboardResponse is the seller dashboard.
type DashboardResponse struct {
	TotalProducts   int64           `json:"total_products"`
	PendingOrders   int             `json:"pending_orders"`
	TodayOrders     int             `json:"today_orders"`
	TotalEarnings   string          `json:"total_earnings"`
	PendingEarnings string          `json:"pending_earnings"`
	RecentOrders    []OrderResponse `json:"recent_orders"`
}

func presentDashboard(d *services.Dashboard) DashboardResponse {
	return DashboardResponse{
		TotalProducts:   d.TotalProducts,
		PendingOrders:   d.PendingOrders,
		TodayOrders:     d.TodayOrders,
		TotalEarnings:   money(d.TotalEarnings),
		PendingEarnings: money(d.PendingEarnings),
		RecentOrders:    presentOrders(d.RecentOrders, true),
	}
}
