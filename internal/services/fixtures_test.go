package services_test

import (
	"context"
	"sync"
	"testing"

	"bazaar/internal/models"
	"bazaar/internal/notifications"
	"bazaar/internal/pricing"
	"bazaar/internal/repositories"
	"bazaar/internal/services"
	"bazaar/internal/testutil"

	"github.com/stretchr/testify/require"
)

const (
	sellerID   = "seller-1"
	customerID = "customer-1"
)

type sentEvent struct {
	Kind  notifications.EventKind
	Order models.Order
}

// recordingNotifier captures events synchronously.
type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *recordingNotifier) Notify(kind notifications.EventKind, order models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{Kind: kind, Order: order})
}

func (n *recordingNotifier) sent() []sentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentEvent(nil), n.events...)
}

type env struct {
	products  repositories.ProductRepository
	orders    repositories.OrderRepository
	shops     repositories.ShopRepository
	notifier  *recordingNotifier
	orderSvc  *services.OrderService
	productSv *services.ProductService
	dashboard *services.DashboardService
	shop      *models.Shop
}

type envFactory func(t *testing.T) *env

func backends() map[string]envFactory {
	return map[string]envFactory{
		"memory": func(t *testing.T) *env {
			products := repositories.NewMockProductRepository()
			return newEnv(t, products, repositories.NewMockOrderRepository(products), repositories.NewMockShopRepository())
		},
		"gorm": func(t *testing.T) *env {
			db := testutil.NewSQLiteDB(t)
			return newEnv(t, repositories.NewGORMProductRepository(db), repositories.NewGORMOrderRepository(db), repositories.NewGORMShopRepository(db))
		},
	}
}

func newMemoryEnv(t *testing.T) *env {
	return backends()["memory"](t)
}

func newEnv(t *testing.T, products repositories.ProductRepository, orders repositories.OrderRepository, shops repositories.ShopRepository) *env {
	t.Helper()
	e := &env{
		products: products,
		orders:   orders,
		shops:    shops,
		notifier: &recordingNotifier{},
	}
	e.orderSvc = services.NewOrderService(orders, products, shops, e.notifier, services.OrderServiceConfig{
		Pricing:                pricing.DefaultPolicy(),
		DefaultCity:            "Bhimavaram",
		OrderNumberMaxAttempts: 5,
	})
	e.productSv = services.NewProductService(products, shops, pricing.DefaultPolicy())
	e.dashboard = services.NewDashboardService(orders, products, shops, nil)

	e.shop = &models.Shop{OwnerID: sellerID, Name: "Lakshmi Textiles", IsActive: true}
	require.NoError(t, shops.Create(context.Background(), e.shop))
	return e
}

func (e *env) addProduct(t *testing.T, base string, stock int) *models.Product {
	t.Helper()
	return e.addShopProduct(t, e.shop.ID, base, stock)
}

func (e *env) addShopProduct(t *testing.T, shopID, base string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		ShopID:         shopID,
		Name:           "Handloom Saree",
		BasePrice:      testutil.Dec(base),
		CommissionRate: testutil.Dec("0.15"),
		StockQuantity:  stock,
		IsActive:       true,
	}
	require.NoError(t, e.products.Create(context.Background(), p))
	return p
}

func (e *env) stock(t *testing.T, productID string) int {
	t.Helper()
	p, err := e.products.GetByID(context.Background(), productID)
	require.NoError(t, err)
	return p.StockQuantity
}

func checkout(items ...services.CartItem) services.CreateOrderRequest {
	return services.CreateOrderRequest{
		CartItems:       items,
		CustomerName:    "Priya Sharma",
		CustomerPhone:   "9876543210",
		DeliveryAddress: "12-4 Temple Street",
		Pincode:         "534201",
	}
}

func line(productID string, qty int) services.CartItem {
	return services.CartItem{ProductID: productID, Quantity: qty}
}
