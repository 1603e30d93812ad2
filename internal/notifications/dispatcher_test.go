package notifications_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"bazaar/internal/models"
	"bazaar/internal/notifications"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTokenRegistry is a mock implementation of notifications.TokenRegistry
type MockTokenRegistry struct {
	mock.Mock
}

func (m *MockTokenRegistry) DeviceToken(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockTokenRegistry) ForgetDeviceToken(ctx context.Context, userID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

type staticShops map[string]string

func (s staticShops) GetByID(ctx context.Context, id string) (*models.Shop, error) {
	owner, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("shop %s not found", id)
	}
	return &models.Shop{ID: id, OwnerID: owner}, nil
}

type recordingGateway struct {
	mu   sync.Mutex
	sent []notifications.PushMessage
	err  error
}

func (g *recordingGateway) Send(ctx context.Context, msg notifications.PushMessage) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.sent = append(g.sent, msg)
	return nil
}

func (g *recordingGateway) messages() []notifications.PushMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]notifications.PushMessage(nil), g.sent...)
}

func testOrder(number string) models.Order {
	return models.Order{
		ID:           "id-" + number,
		OrderNumber:  number,
		CustomerID:   "customer-1",
		ShopID:       "shop-1",
		CustomerName: "Priya",
		Status:       models.StatusPlaced,
		Total:        decimal.RequireFromString("625.50"),
	}
}

func newTestDispatcher(tokens notifications.TokenRegistry, gw notifications.Gateway) *notifications.Dispatcher {
	return notifications.NewDispatcher(tokens, staticShops{"shop-1": "seller-1"}, gw, notifications.Config{
		Workers:        3,
		QueueSize:      16,
		EnqueueTimeout: 50 * time.Millisecond,
		SendTimeout:    time.Second,
		CurrencySymbol: "₹",
	})
}

func TestDispatcher_RoutesToSellerAndCustomer(t *testing.T) {
	tokens := new(MockTokenRegistry)
	tokens.On("DeviceToken", mock.Anything, "seller-1").Return("seller-token", nil)
	tokens.On("DeviceToken", mock.Anything, "customer-1").Return("customer-token", nil)
	gw := &recordingGateway{}
	d := newTestDispatcher(tokens, gw)

	order := testOrder("ORD0000A1")
	d.Notify(notifications.OrderPlaced, order)
	order.Status = models.StatusConfirmed
	d.Notify(notifications.StatusChanged, order)
	d.Close()

	sent := gw.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, "seller-token", sent[0].Token)
	assert.Equal(t, "seller-1", sent[0].UserID)
	assert.Equal(t, "New Order Received!", sent[0].Title)
	assert.Equal(t, "Order #ORD0000A1 - ₹625.50", sent[0].Body)
	assert.Equal(t, "customer-token", sent[1].Token)
	assert.Equal(t, "Order Confirmed", sent[1].Title)
	assert.Equal(t, "confirmed", sent[1].Data["status"])
	assert.Equal(t, int64(2), d.Stats().Delivered)
	tokens.AssertExpectations(t)
}

func TestDispatcher_PreservesPerOrderOrdering(t *testing.T) {
	tokens := new(MockTokenRegistry)
	tokens.On("DeviceToken", mock.Anything, mock.Anything).Return("token", nil)
	gw := &recordingGateway{}
	d := newTestDispatcher(tokens, gw)

	numbers := []string{"ORDAAAAAA", "ORDBBBBBB", "ORDCCCCCC", "ORDDDDDDD"}
	chain := []models.OrderStatus{models.StatusConfirmed, models.StatusShipped, models.StatusDelivered}
	for _, n := range numbers {
		d.Notify(notifications.OrderPlaced, testOrder(n))
	}
	for _, status := range chain {
		for _, n := range numbers {
			o := testOrder(n)
			o.Status = status
			d.Notify(notifications.StatusChanged, o)
		}
	}
	d.Close()

	perOrder := map[string][]string{}
	for _, msg := range gw.messages() {
		n := msg.Data["order_number"]
		step := msg.Data["type"]
		if s, ok := msg.Data["status"]; ok {
			step = s
		}
		perOrder[n] = append(perOrder[n], step)
	}
	for _, n := range numbers {
		assert.Equal(t, []string{"order_placed", "confirmed", "shipped", "delivered"}, perOrder[n], n)
	}
}

func TestDispatcher_GatewayFailureIsAbsorbed(t *testing.T) {
	tokens := new(MockTokenRegistry)
	tokens.On("DeviceToken", mock.Anything, "seller-1").Return("seller-token", nil)
	gw := &recordingGateway{err: errors.New("connection refused")}
	d := newTestDispatcher(tokens, gw)

	assert.NotPanics(t, func() {
		d.Notify(notifications.OrderPlaced, testOrder("ORD0000B1"))
	})
	d.Close()

	assert.Empty(t, gw.messages())
	assert.Equal(t, int64(1), d.Stats().Failed)
}

func TestDispatcher_MissingTokenIsNoOp(t *testing.T) {
	tokens := new(MockTokenRegistry)
	tokens.On("DeviceToken", mock.Anything, "seller-1").Return("", nil)
	gw := &recordingGateway{}
	d := newTestDispatcher(tokens, gw)

	d.Notify(notifications.OrderPlaced, testOrder("ORD0000C1"))
	d.Close()

	assert.Empty(t, gw.messages())
	assert.Equal(t, notifications.Stats{Skipped: 1}, d.Stats())
}

func TestDispatcher_TokenLookupFailureIsAbsorbed(t *testing.T) {
	tokens := new(MockTokenRegistry)
	tokens.On("DeviceToken", mock.Anything, "customer-1").Return("", errors.New("redis timeout"))
	gw := &recordingGateway{}
	d := newTestDispatcher(tokens, gw)

	d.Notify(notifications.StatusChanged, testOrder("ORD0000C2"))
	d.Close()

	assert.Empty(t, gw.messages())
	assert.Equal(t, int64(1), d.Stats().Failed)
}

func TestDispatcher_UnregisteredTokenIsForgotten(t *testing.T) {
	tokens := new(MockTokenRegistry)
	tokens.On("DeviceToken", mock.Anything, "seller-1").Return("dead-token", nil)
	tokens.On("ForgetDeviceToken", mock.Anything, "seller-1", "dead-token").Return(nil).Once()
	gw := &recordingGateway{err: notifications.ErrUnregisteredToken}
	d := newTestDispatcher(tokens, gw)

	d.Notify(notifications.OrderCancelled, testOrder("ORD0000D1"))
	d.Close()

	tokens.AssertExpectations(t)
	assert.Equal(t, int64(1), d.Stats().Skipped)
}

func TestDispatcher_UnknownShopIsAbsorbed(t *testing.T) {
	tokens := new(MockTokenRegistry)
	gw := &recordingGateway{}
	d := newTestDispatcher(tokens, gw)

	o := testOrder("ORD0000E1")
	o.ShopID = "shop-unknown"
	d.Notify(notifications.OrderPlaced, o)
	d.Close()

	assert.Equal(t, int64(1), d.Stats().Failed)
	tokens.AssertNotCalled(t, "DeviceToken", mock.Anything, mock.Anything)
}

func TestDispatcher_DropsAfterClose(t *testing.T) {
	tokens := new(MockTokenRegistry)
	d := newTestDispatcher(tokens, &recordingGateway{})
	d.Close()
	d.Close()

	d.Notify(notifications.OrderPlaced, testOrder("ORD0000F1"))
	assert.Equal(t, int64(1), d.Stats().Dropped)
}

type blockingGateway struct {
	release chan struct{}
}

func (g *blockingGateway) Send(ctx context.Context, msg notifications.PushMessage) error {
	<-g.release
	return nil
}

func TestDispatcher_FullQueueDoesNotBlockCaller(t *testing.T) {
	tokens := new(MockTokenRegistry)
	tokens.On("DeviceToken", mock.Anything, mock.Anything).Return("token", nil)
	gw := &blockingGateway{release: make(chan struct{})}
	d := notifications.NewDispatcher(tokens, staticShops{"shop-1": "seller-1"}, gw, notifications.Config{
		Workers:        1,
		QueueSize:      1,
		EnqueueTimeout: 10 * time.Millisecond,
		SendTimeout:    time.Second,
	})

	start := time.Now()
	for i := 0; i < 5; i++ {
		d.Notify(notifications.OrderPlaced, testOrder(fmt.Sprintf("ORDFULL%02d", i)))
	}
	assert.Less(t, time.Since(start), time.Second)

	close(gw.release)
	d.Close()
	assert.True(t, d.Stats().Dropped >= 1)
}

func TestBuildMessage_Cancelled(t *testing.T) {
	o := testOrder("ORD0000G1")
	msg := notifications.BuildMessage(notifications.Event{Kind: notifications.OrderCancelled, Order: o}, "seller-1", "tok", "₹")

	assert.Equal(t, "Order Cancelled", msg.Title)
	assert.Equal(t, "Order #ORD0000G1 was cancelled by customer", msg.Body)
	assert.Equal(t, "order_cancelled", msg.Data["type"])
	assert.Equal(t, "625.50", msg.Data["total_amount"])
}
