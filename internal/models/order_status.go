package models

import (
	"fmt"
	"strings"
)

// OrderStatus is the fulfillment stage of an order.
type OrderStatus string

const (
	StatusPlaced    OrderStatus = "placed"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// orderTransitions is the complete adjacency table of the fulfillment state
// machine. A status missing from a successor list can never be reached from
// that state. Cancellation is only possible before the seller confirms.
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPlaced:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped},
	StatusShipped:   {StatusDelivered},
	StatusDelivered: nil,
	StatusCancelled: nil,
}

// AllOrderStatuses lists every status in fulfillment order.
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{StatusPlaced, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled}
}

// ParseOrderStatus converts a client-supplied string into an OrderStatus.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return status, nil
}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// Successors returns the statuses reachable from s in one step.
func (s OrderStatus) Successors() []OrderStatus {
	next := orderTransitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// CanTransitionTo reports whether next is an immediate successor of s.
// Self-transitions, skipped stages and reversals are all illegal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range orderTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool {
	return s.Valid() && len(orderTransitions[s]) == 0
}

// PaymentStatus tracks cash collection for cash-on-delivery orders.
type PaymentStatus string

const (
	PaymentCOD  PaymentStatus = "cod"
	PaymentPaid PaymentStatus = "paid"
)
