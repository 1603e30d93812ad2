package models_test

import (
	"testing"
	"time"

	"bazaar/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_Adjacency(t *testing.T) {
	legal := map[models.OrderStatus]map[models.OrderStatus]bool{
		models.StatusPlaced:    {models.StatusConfirmed: true, models.StatusCancelled: true},
		models.StatusConfirmed: {models.StatusShipped: true},
		models.StatusShipped:   {models.StatusDelivered: true},
		models.StatusDelivered: {},
		models.StatusCancelled: {},
	}

	for _, from := range models.AllOrderStatuses() {
		for _, to := range models.AllOrderStatuses() {
			assert.Equal(t, legal[from][to], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestOrderStatus_PlacedOnlyConfirms(t *testing.T) {
	assert.True(t, models.StatusPlaced.CanTransitionTo(models.StatusConfirmed))
	assert.False(t, models.StatusPlaced.CanTransitionTo(models.StatusShipped))
	assert.False(t, models.StatusPlaced.CanTransitionTo(models.StatusDelivered))
	assert.False(t, models.StatusPlaced.CanTransitionTo(models.StatusPlaced))
}

func TestOrderStatus_Terminal(t *testing.T) {
	assert.True(t, models.StatusDelivered.Terminal())
	assert.True(t, models.StatusCancelled.Terminal())
	assert.False(t, models.StatusShipped.Terminal())
	assert.False(t, models.OrderStatus("lost").Terminal())
	assert.Empty(t, models.StatusDelivered.Successors())
}

func TestParseOrderStatus(t *testing.T) {
	s, err := models.ParseOrderStatus(" Shipped ")
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, s)

	_, err = models.ParseOrderStatus("processing")
	assert.Error(t, err)
	_, err = models.ParseOrderStatus("")
	assert.Error(t, err)
}

func TestStatusChange_Apply(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	order := &models.Order{Status: models.StatusShipped, PaymentStatus: models.PaymentCOD}

	change := models.StatusChange{From: models.StatusShipped, To: models.StatusDelivered, At: at, PaymentStatus: models.PaymentPaid}
	change.Apply(order)

	assert.Equal(t, models.StatusDelivered, order.Status)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	require.NotNil(t, order.DeliveredAt)
	assert.Equal(t, at, *order.DeliveredAt)
	assert.Equal(t, at, order.UpdatedAt)

	cols := change.Columns()
	assert.Equal(t, models.StatusDelivered, cols["status"])
	assert.Equal(t, at, cols["delivered_at"])
	assert.Equal(t, models.PaymentPaid, cols["payment_status"])
}

func TestProduct_RefreshDisplayPrice(t *testing.T) {
	p := &models.Product{BasePrice: decimal.NewFromInt(500), CommissionRate: decimal.RequireFromString("0.15")}
	require.NoError(t, p.RefreshDisplayPrice())
	assert.Equal(t, "575.00", p.DisplayPrice.StringFixed(2))

	p.BasePrice = decimal.NewFromInt(1000)
	require.NoError(t, p.RefreshDisplayPrice())
	assert.Equal(t, "1150.00", p.DisplayPrice.StringFixed(2))

	p.BasePrice = decimal.Zero
	assert.Error(t, p.RefreshDisplayPrice())
}

func TestProduct_OffersVariant(t *testing.T) {
	p := &models.Product{Sizes: []string{"S", "M"}, Colors: []string{"Blue"}}

	assert.True(t, p.OffersVariant("M", "Blue"))
	assert.True(t, p.OffersVariant("", ""))
	assert.False(t, p.OffersVariant("XL", ""))
	assert.False(t, p.OffersVariant("S", "Red"))

	open := &models.Product{}
	assert.True(t, open.OffersVariant("XL", "Red"))
}
