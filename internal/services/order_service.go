package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"bazaar/internal/models"
	"bazaar/internal/notifications"
	"bazaar/internal/pricing"
	"bazaar/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Notifier receives order events after they are committed. Implementations
// must not block and must not fail the caller.
type Notifier interface {
	Notify(kind notifications.EventKind, order models.Order)
}

// CartItem is one line of the customer's cart.
type CartItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Size      string `json:"size" validate:"omitempty,max=50"`
	Color     string `json:"color" validate:"omitempty,max=50"`
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	CartItems       []CartItem `json:"cart_items" validate:"required,min=1,dive"`
	CustomerName    string     `json:"customer_name" validate:"required,max=255"`
	CustomerPhone   string     `json:"customer_phone" validate:"required,min=10,max=15"`
	DeliveryAddress string     `json:"delivery_address" validate:"required"`
	City            string     `json:"city" validate:"omitempty,max=100"`
	Pincode         string     `json:"pincode" validate:"required,len=6,numeric"`
	Landmark        string     `json:"landmark" validate:"omitempty,max=255"`
}

// OrderServiceConfig holds the order settings read from configuration.
type OrderServiceConfig struct {
	Pricing                pricing.Policy
	DefaultCity            string
	OrderNumberMaxAttempts int
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	shopRepo    repositories.ShopRepository
	notifier    Notifier
	cfg         OrderServiceConfig
	validate    *validator.Validate
	now         func() time.Time
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, shopRepo repositories.ShopRepository, notifier Notifier, cfg OrderServiceConfig) *OrderService {
	if cfg.OrderNumberMaxAttempts < 1 {
		cfg.OrderNumberMaxAttempts = 5
	}
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		shopRepo:    shopRepo,
		notifier:    notifier,
		cfg:         cfg,
		validate:    validator.New(),
		now:         time.Now,
	}
}

// NewOrderNumber returns "ORD" followed by 8 uppercase hex characters.
func NewOrderNumber() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "ORD" + strings.ToUpper(hex[:8])
}

// CreateOrder builds an order from the cart, decrements stock and persists
// both in one unit, then announces the order to the seller.
func (s *OrderService) CreateOrder(ctx context.Context, customerID string, req CreateOrderRequest) (*models.Order, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, ErrInvalidOrderRequest.Wrap(err)
	}
	policy := s.cfg.Pricing

	var shopID string
	requested := make(map[string]int)
	items := make([]models.OrderItem, 0, len(req.CartItems))
	lines := make([]pricing.Line, 0, len(req.CartItems))

	for i, cartItem := range req.CartItems {
		product, err := s.productRepo.GetByID(ctx, cartItem.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrProductNotFound.Withf("product %s not found", cartItem.ProductID)
			}
			return nil, ErrInternal.Wrap(err)
		}
		if !product.IsActive {
			return nil, ErrProductInactive.Withf("product %s is no longer available", product.Name)
		}
		if shopID == "" {
			shopID = product.ShopID
		} else if product.ShopID != shopID {
			return nil, ErrMixedShopCart
		}
		if !product.OffersVariant(cartItem.Size, cartItem.Color) {
			return nil, ErrInvalidVariant.Withf("product %s is not offered in size %q color %q", product.Name, cartItem.Size, cartItem.Color)
		}

		requested[product.ID] += cartItem.Quantity
		if requested[product.ID] > product.StockQuantity {
			return nil, ErrInsufficientStock.Withf("insufficient stock for %s (requested: %d, available: %d)",
				product.Name, requested[product.ID], product.StockQuantity)
		}

		line, err := pricing.PriceLine(product.BasePrice, product.CommissionRate, cartItem.Quantity)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
		items = append(items, models.OrderItem{
			LineIndex:        i,
			ProductID:        product.ID,
			ProductName:      product.Name,
			Quantity:         cartItem.Quantity,
			Size:             cartItem.Size,
			Color:            cartItem.Color,
			UnitBasePrice:    line.UnitBasePrice,
			UnitDisplayPrice: line.UnitDisplayPrice,
			CommissionRate:   product.CommissionRate,
			LineTotal:        line.LineTotal(),
			SellerAmount:     line.SellerAmount(),
			CommissionAmount: line.CommissionAmount(),
		})
	}

	totals := policy.Totals(lines)
	city := req.City
	if city == "" {
		city = s.cfg.DefaultCity
	}
	order := &models.Order{
		CustomerID:       customerID,
		ShopID:           shopID,
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
		DeliveryAddress:  req.DeliveryAddress,
		City:             city,
		Pincode:          req.Pincode,
		Landmark:         req.Landmark,
		Items:            items,
		Subtotal:         totals.Subtotal,
		CODFee:           totals.CODFee,
		Total:            totals.Total,
		CommissionAmount: totals.CommissionAmount,
		SellerPayout:     totals.SellerPayout,
		PricingVersion:   policy.Version,
		Status:           models.StatusPlaced,
		PaymentStatus:    models.PaymentCOD,
		CreatedAt:        s.now(),
	}

	if err := s.persist(ctx, order, decrements(requested)); err != nil {
		return nil, err
	}

	log.Printf("Order %s placed by customer %s with shop %s (total %s)", order.OrderNumber, customerID, shopID, order.Total.StringFixed(2))
	s.notifier.Notify(notifications.OrderPlaced, *order)
	return order, nil
}

// decrements returns one negative adjustment per product, sorted by product
// ID so concurrent transactions lock rows in the same order.
func decrements(requested map[string]int) []models.StockAdjustment {
	adj := make([]models.StockAdjustment, 0, len(requested))
	for id, qty := range requested {
		adj = append(adj, models.StockAdjustment{ProductID: id, Delta: -qty})
	}
	sort.Slice(adj, func(i, j int) bool { return adj[i].ProductID < adj[j].ProductID })
	return adj
}

func (s *OrderService) persist(ctx context.Context, order *models.Order, adjustments []models.StockAdjustment) error {
	for attempt := 1; attempt <= s.cfg.OrderNumberMaxAttempts; attempt++ {
		order.OrderNumber = NewOrderNumber()
		err := s.orderRepo.CreateWithStock(ctx, order, adjustments)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, repositories.ErrDuplicateOrderNumber):
			log.Printf("Order number %s already taken (attempt %d/%d); regenerating", order.OrderNumber, attempt, s.cfg.OrderNumberMaxAttempts)
			continue
		case errors.Is(err, repositories.ErrStockConflict):
			return ErrInsufficientStock.Wrap(err)
		case errors.Is(err, repositories.ErrNotFound):
			return ErrProductNotFound.Wrap(err)
		default:
			return ErrInternal.Wrap(fmt.Errorf("failed to create order: %w", err))
		}
	}
	return ErrOrderPersistenceConflict.Withf("no unique order number after %d attempts", s.cfg.OrderNumberMaxAttempts)
}

// GetOrder returns an order visible to the caller: the customer who placed it
// or the seller who owns its shop.
func (s *OrderService) GetOrder(ctx context.Context, orderNumber, userID string, role models.Role) (*models.Order, error) {
	order, err := s.findByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if role == models.RoleSeller {
		if err := s.requireShopOwner(ctx, order.ShopID, userID); err != nil {
			return nil, err
		}
		return order, nil
	}
	if order.CustomerID != userID {
		return nil, ErrNotOrderOwner
	}
	return order, nil
}

// ListCustomerOrders returns the customer's orders, newest first, optionally
// filtered by status.
func (s *OrderService) ListCustomerOrders(ctx context.Context, customerID, status string) ([]models.Order, error) {
	filter, err := statusFilter(status)
	if err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.ListByCustomer(ctx, customerID, filter)
	if err != nil {
		return nil, ErrInternal.Wrap(err)
	}
	return orders, nil
}

// ListShopOrders returns the orders of the seller's shop, newest first,
// optionally filtered by status.
func (s *OrderService) ListShopOrders(ctx context.Context, sellerID, status string) ([]models.Order, error) {
	filter, err := statusFilter(status)
	if err != nil {
		return nil, err
	}
	shop, err := sellerShop(ctx, s.shopRepo, sellerID)
	if err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.ListByShop(ctx, shop.ID, filter)
	if err != nil {
		return nil, ErrInternal.Wrap(err)
	}
	return orders, nil
}

func statusFilter(status string) (repositories.OrderFilter, error) {
	if status == "" {
		return repositories.OrderFilter{}, nil
	}
	parsed, err := models.ParseOrderStatus(status)
	if err != nil {
		return repositories.OrderFilter{}, ErrInvalidStatus.Wrap(err)
	}
	return repositories.OrderFilter{Status: parsed}, nil
}

// TransitionOrder moves an order one step along the fulfillment chain on
// behalf of the seller who owns its shop, and tells the customer.
func (s *OrderService) TransitionOrder(ctx context.Context, orderNumber string, requested models.OrderStatus, sellerID, reason string) (*models.Order, error) {
	if !requested.Valid() {
		return nil, ErrInvalidStatus.Withf("unknown order status %q", requested)
	}
	order, err := s.findByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if err := s.requireShopOwner(ctx, order.ShopID, sellerID); err != nil {
		return nil, err
	}
	if err := s.advance(ctx, order, requested, reason); err != nil {
		return nil, err
	}

	log.Printf("Order %s moved to %s by seller %s", order.OrderNumber, order.Status, sellerID)
	s.notifier.Notify(notifications.StatusChanged, *order)
	return order, nil
}

// CancelOrder lets the customer withdraw an order the seller has not yet
// confirmed. Stock is given back and the seller is told.
func (s *OrderService) CancelOrder(ctx context.Context, orderNumber, customerID, reason string) (*models.Order, error) {
	order, err := s.findByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, ErrNotOrderOwner
	}
	if err := s.advance(ctx, order, models.StatusCancelled, reason); err != nil {
		return nil, err
	}

	log.Printf("Order %s cancelled by customer %s", order.OrderNumber, customerID)
	s.notifier.Notify(notifications.OrderCancelled, *order)
	return order, nil
}

// CanReview reports whether the customer may review the order's products.
func (s *OrderService) CanReview(ctx context.Context, orderNumber, customerID string) (bool, error) {
	order, err := s.findByNumber(ctx, orderNumber)
	if err != nil {
		return false, err
	}
	return order.CustomerID == customerID && order.Status == models.StatusDelivered, nil
}

// advance applies one state machine step to order, in storage and in memory.
// A concurrent writer that moved the order first makes this step illegal.
func (s *OrderService) advance(ctx context.Context, order *models.Order, to models.OrderStatus, reason string) error {
	if !order.Status.CanTransitionTo(to) {
		return ErrIllegalTransition.Withf("cannot move order %s from %s to %s", order.OrderNumber, order.Status, to)
	}

	change := models.StatusChange{From: order.Status, To: to, At: s.now()}
	var adjustments []models.StockAdjustment
	switch to {
	case models.StatusDelivered:
		change.PaymentStatus = models.PaymentPaid
	case models.StatusCancelled:
		change.CancellationReason = strings.TrimSpace(reason)
		adjustments = order.Restock()
	}

	err := s.orderRepo.UpdateStatus(ctx, order.ID, change, adjustments)
	switch {
	case err == nil:
		change.Apply(order)
		return nil
	case errors.Is(err, repositories.ErrStatusConflict):
		current := order.Status
		if latest, gerr := s.orderRepo.GetByID(ctx, order.ID); gerr == nil {
			current = latest.Status
		}
		return ErrIllegalTransition.Withf("cannot move order %s from %s to %s", order.OrderNumber, current, to)
	case errors.Is(err, repositories.ErrNotFound):
		return ErrOrderNotFound.Wrap(err)
	default:
		return ErrInternal.Wrap(fmt.Errorf("failed to update order %s: %w", order.OrderNumber, err))
	}
}

func (s *OrderService) findByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	order, err := s.orderRepo.GetByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound.Withf("order %s not found", orderNumber)
		}
		return nil, ErrInternal.Wrap(err)
	}
	return order, nil
}

func (s *OrderService) requireShopOwner(ctx context.Context, shopID, sellerID string) error {
	shop, err := s.shopRepo.GetByID(ctx, shopID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrShopNotFound.Withf("shop %s not found", shopID)
		}
		return ErrInternal.Wrap(err)
	}
	if shop.OwnerID != sellerID {
		return ErrNotShopOwner
	}
	return nil
}
