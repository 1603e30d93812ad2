package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"bazaar/internal/handlers"
	"bazaar/internal/middleware"
	"bazaar/internal/models"
	"bazaar/internal/notifications"
	"bazaar/internal/pricing"
	"bazaar/internal/repositories"
	"bazaar/internal/services"
	"bazaar/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sellerID      = "seller-1"
	otherSellerID = "seller-2"
	customerID    = "customer-1"
	strangerID    = "customer-2"
)

type discardNotifier struct{}

func (discardNotifier) Notify(notifications.EventKind, models.Order) {}

type testServer struct {
	app       *fiber.App
	auth      *services.AuthService
	product   *models.Product
	foreign   *models.Product
	lowStock  *models.Product
	customer  string
	stranger  string
	seller    string
	competing string
}

// setupApp builds the API on a private in-memory SQLite database with two
// shops and three products.
func setupApp(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)

	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	shopRepo := repositories.NewGORMShopRepository(db)

	policy := pricing.DefaultPolicy()
	authService := services.NewAuthService("test_jwt_secret")
	orderService := services.NewOrderService(orderRepo, productRepo, shopRepo, discardNotifier{}, services.OrderServiceConfig{
		Pricing:     policy,
		DefaultCity: "Bhimavaram",
	})
	productService := services.NewProductService(productRepo, shopRepo, policy)
	dashboardService := services.NewDashboardService(orderRepo, productRepo, shopRepo, []models.OrderStatus{models.StatusDelivered})
	deviceService := services.NewDeviceService(userRepo)

	app := fiber.New()
	protected := app.Group("/api/v1", middleware.AuthRequired(authService))
	handlers.NewProductHandler(productService).RegisterRoutes(protected)
	handlers.NewOrderHandler(orderService).RegisterRoutes(protected)
	handlers.NewDashboardHandler(dashboardService).RegisterRoutes(protected)
	handlers.NewDeviceHandler(deviceService).RegisterRoutes(protected)

	for _, u := range []models.User{
		{ID: sellerID, Role: models.RoleSeller},
		{ID: otherSellerID, Role: models.RoleSeller},
		{ID: customerID, Role: models.RoleCustomer},
		{ID: strangerID, Role: models.RoleCustomer},
	} {
		require.NoError(t, userRepo.Create(ctx, &u))
	}

	shop := &models.Shop{OwnerID: sellerID, Name: "Lakshmi Textiles", IsActive: true}
	require.NoError(t, shopRepo.Create(ctx, shop))
	otherShop := &models.Shop{OwnerID: otherSellerID, Name: "Godavari Crafts", IsActive: true}
	require.NoError(t, shopRepo.Create(ctx, otherShop))

	newProduct := func(shopID, name, base string, stock int) *models.Product {
		p := &models.Product{
			ShopID:         shopID,
			Name:           name,
			BasePrice:      testutil.Dec(base),
			CommissionRate: testutil.Dec("0.15"),
			StockQuantity:  stock,
			IsActive:       true,
		}
		require.NoError(t, productRepo.Create(ctx, p))
		return p
	}

	srv := &testServer{
		app:      app,
		auth:     authService,
		product:  newProduct(shop.ID, "Handloom Saree", "250", 10),
		lowStock: newProduct(shop.ID, "Silk Stole", "100", 1),
		foreign:  newProduct(otherShop.ID, "Bamboo Basket", "80", 5),
	}
	srv.seller = srv.token(t, sellerID, models.RoleSeller)
	srv.competing = srv.token(t, otherSellerID, models.RoleSeller)
	srv.customer = srv.token(t, customerID, models.RoleCustomer)
	srv.stranger = srv.token(t, strangerID, models.RoleCustomer)
	return srv
}

func (s *testServer) token(t *testing.T, userID string, role models.Role) string {
	t.Helper()
	token, err := s.auth.IssueToken(userID, role)
	require.NoError(t, err)
	return token
}

// do sends a JSON request and decodes the response body into out when out is
// non-nil.
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func orderBody(items ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"cart_items":       items,
		"customer_name":    "Priya Sharma",
		"customer_phone":   "9876543210",
		"delivery_address": "12-4 Temple Street",
		"pincode":          "534201",
	}
}

func item(productID string, quantity int) map[string]interface{} {
	return map[string]interface{}{"product_id": productID, "quantity": quantity}
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestProductEndpoints(t *testing.T) {
	srv := setupApp(t)

	var created handlers.ProductResponse
	status := srv.do(t, http.MethodPost, "/api/v1/products", srv.seller, map[string]interface{}{
		"name":           "Cotton Kurta",
		"base_price":     "200",
		"stock_quantity": 12,
		"sizes":          []string{"M", "L"},
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "230.00", created.Price)
	assert.Equal(t, "200.00", created.BasePrice)

	var catalog []map[string]interface{}
	status = srv.do(t, http.MethodGet, "/api/v1/products", srv.customer, nil, &catalog)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, catalog, 4)
	for _, p := range catalog {
		assert.NotContains(t, p, "base_price")
		assert.NotContains(t, p, "commission_rate")
	}

	status = srv.do(t, http.MethodPost, "/api/v1/products", srv.customer, map[string]interface{}{"name": "Nope", "base_price": "1"}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	var repriced handlers.ProductResponse
	status = srv.do(t, http.MethodPatch, "/api/v1/products/"+created.ID+"/price", srv.seller, map[string]interface{}{"base_price": "300"}, &repriced)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "345.00", repriced.Price)

	status = srv.do(t, http.MethodPatch, "/api/v1/products/"+created.ID+"/price", srv.competing, map[string]interface{}{"base_price": "1"}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status = srv.do(t, http.MethodPatch, "/api/v1/products/"+created.ID+"/stock", srv.seller, map[string]interface{}{}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var restocked handlers.ProductResponse
	status = srv.do(t, http.MethodPatch, "/api/v1/products/"+created.ID+"/stock", srv.seller, map[string]interface{}{"stock_quantity": 0}, &restocked)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, restocked.StockQuantity)

	status = srv.do(t, http.MethodDelete, "/api/v1/products/"+created.ID, srv.seller, nil, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status = srv.do(t, http.MethodGet, "/api/v1/products/"+created.ID, srv.customer, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)

	var own []handlers.ProductResponse
	status = srv.do(t, http.MethodGet, "/api/v1/seller/products", srv.seller, nil, &own)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, own, 3, "deactivated products stay visible to their seller")
}

func TestOrderLifecycle(t *testing.T) {
	srv := setupApp(t)

	var placed handlers.OrderResponse
	status := srv.do(t, http.MethodPost, "/api/v1/orders", srv.customer, orderBody(item(srv.product.ID, 2)), &placed)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, models.StatusPlaced, placed.Status)
	assert.Equal(t, "575.00", placed.Subtotal)
	assert.Equal(t, "0.00", placed.CODFee)
	assert.Equal(t, "575.00", placed.Total)
	assert.Equal(t, "Bhimavaram", placed.City)
	assert.Empty(t, placed.CommissionAmount, "customers never see the commission")
	require.Len(t, placed.Items, 1)
	assert.Equal(t, "287.50", placed.Items[0].UnitPrice)

	path := "/api/v1/orders/" + placed.OrderNumber

	var seen handlers.OrderResponse
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, path, srv.seller, nil, &seen))
	assert.Equal(t, "75.00", seen.CommissionAmount)
	assert.Equal(t, "500.00", seen.SellerPayout)

	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodGet, path, srv.stranger, nil, nil))
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodGet, path, srv.competing, nil, nil))

	var mine []handlers.OrderResponse
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/v1/orders?status=placed", srv.customer, nil, &mine))
	assert.Len(t, mine, 1)

	statusPath := "/api/v1/seller/orders/" + placed.OrderNumber + "/status"
	var body map[string]interface{}
	status = srv.do(t, http.MethodPatch, statusPath, srv.seller, map[string]string{"status": "shipped"}, &body)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, services.ErrIllegalTransition.Code, body["code"])

	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodPatch, statusPath, srv.seller, map[string]string{"status": "lost"}, nil))
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodPatch, statusPath, srv.competing, map[string]string{"status": "confirmed"}, nil))

	for _, next := range []models.OrderStatus{models.StatusConfirmed, models.StatusShipped, models.StatusDelivered} {
		var moved handlers.OrderResponse
		require.Equal(t, http.StatusOK, srv.do(t, http.MethodPatch, statusPath, srv.seller, map[string]string{"status": string(next)}, &moved))
		assert.Equal(t, next, moved.Status)
	}

	assert.Equal(t, http.StatusConflict, srv.do(t, http.MethodPatch, path+"/cancel", srv.customer, nil, nil))

	var dashboard handlers.DashboardResponse
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/v1/seller/dashboard", srv.seller, nil, &dashboard))
	assert.Equal(t, int64(2), dashboard.TotalProducts)
	assert.Equal(t, 0, dashboard.PendingOrders)
	assert.Equal(t, 1, dashboard.TodayOrders)
	assert.Equal(t, "500.00", dashboard.TotalEarnings)
	assert.Equal(t, "0.00", dashboard.PendingEarnings)
	assert.Len(t, dashboard.RecentOrders, 1)

	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodGet, "/api/v1/seller/dashboard", srv.customer, nil, nil))
}

func TestCustomerCancellation(t *testing.T) {
	srv := setupApp(t)

	var placed handlers.OrderResponse
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/api/v1/orders", srv.customer, orderBody(item(srv.lowStock.ID, 1)), &placed))
	assert.Equal(t, "115.00", placed.Subtotal)
	assert.Equal(t, "50.00", placed.CODFee)
	assert.Equal(t, "165.00", placed.Total)

	var body map[string]interface{}
	status := srv.do(t, http.MethodPost, "/api/v1/orders", srv.customer, orderBody(item(srv.lowStock.ID, 1)), &body)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, services.ErrInsufficientStock.Code, body["code"])

	cancelPath := "/api/v1/orders/" + placed.OrderNumber + "/cancel"
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodPatch, cancelPath, srv.stranger, nil, nil))

	var cancelled handlers.OrderResponse
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPatch, cancelPath, srv.customer, map[string]string{"reason": "ordered twice"}, &cancelled))
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, "ordered twice", cancelled.CancellationReason)

	status = srv.do(t, http.MethodPost, "/api/v1/orders", srv.customer, orderBody(item(srv.lowStock.ID, 1)), nil)
	assert.Equal(t, http.StatusCreated, status, "cancellation returns the unit to stock")
}

func TestCreateOrderRejectsBadCarts(t *testing.T) {
	srv := setupApp(t)

	tests := []struct {
		name   string
		body   interface{}
		status int
	}{
		{"empty cart", orderBody(), http.StatusBadRequest},
		{"mixed shops", orderBody(item(srv.product.ID, 1), item(srv.foreign.ID, 1)), http.StatusBadRequest},
		{"unknown product", orderBody(item("missing", 1)), http.StatusNotFound},
		{"zero quantity", orderBody(item(srv.product.ID, 0)), http.StatusBadRequest},
		{"too many units", orderBody(item(srv.product.ID, 11)), http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, srv.do(t, http.MethodPost, "/api/v1/orders", srv.customer, tt.body, nil))
		})
	}

	t.Run("field errors are listed", func(t *testing.T) {
		body := orderBody(item(srv.product.ID, 1))
		body["pincode"] = "53420"
		var resp map[string]interface{}
		require.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodPost, "/api/v1/orders", srv.customer, body, &resp))
		require.Contains(t, resp, "errors")
		assert.Contains(t, resp["errors"], "CreateOrderRequest.Pincode")
	})

	t.Run("sellers cannot order", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodPost, "/api/v1/orders", srv.seller, orderBody(item(srv.product.ID, 1)), nil))
	})
}

func TestDeviceTokenRegistration(t *testing.T) {
	srv := setupApp(t)

	assert.Equal(t, http.StatusNoContent, srv.do(t, http.MethodPut, "/api/v1/devices/token", srv.customer, map[string]string{"fcm_token": "device-abc"}, nil))
	assert.Equal(t, http.StatusNoContent, srv.do(t, http.MethodPut, "/api/v1/devices/token", srv.seller, map[string]string{"fcm_token": ""}, nil))
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodPut, "/api/v1/devices/token", srv.customer, map[string]string{"fcm_token": strings.Repeat("x", 256)}, nil))
}

func TestEndpointsWithoutAuth(t *testing.T) {
	srv := setupApp(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/products"},
		{http.MethodPost, "/api/v1/products"},
		{http.MethodPost, "/api/v1/orders"},
		{http.MethodGet, "/api/v1/seller/dashboard"},
		{http.MethodPut, "/api/v1/devices/token"},
	} {
		assert.Equal(t, http.StatusUnauthorized, srv.do(t, route.method, route.path, "", nil, nil), "%s %s", route.method, route.path)
	}

	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodGet, "/api/v1/products", "not-a-jwt", nil, nil))
}
