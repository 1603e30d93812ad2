package notifications

import (
	"fmt"

	"bazaar/internal/models"
)

// EventKind identifies why a notification is sent.
type EventKind string

const (
	// OrderPlaced goes to the seller when a customer places an order.
	OrderPlaced EventKind = "order_placed"
	// StatusChanged goes to the customer when the seller advances an order.
	StatusChanged EventKind = "status_changed"
	// OrderCancelled goes to the seller when the customer cancels.
	OrderCancelled EventKind = "order_cancelled"
)

// Event is one notification request. Order is a copy taken at emit time.
type Event struct {
	Kind  EventKind
	Order models.Order
}

func (e Event) recipientIsSeller() bool {
	return e.Kind == OrderPlaced || e.Kind == OrderCancelled
}

// PushMessage is the payload handed to a Gateway.
type PushMessage struct {
	UserID string            `json:"user_id"`
	Token  string            `json:"token"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data"`
}

var statusTitles = map[models.OrderStatus]string{
	models.StatusConfirmed: "Order Confirmed",
	models.StatusShipped:   "Order Shipped",
	models.StatusDelivered: "Order Delivered",
	models.StatusCancelled: "Order Cancelled",
}

// BuildMessage renders the push message for an event.
func BuildMessage(e Event, userID, token, currency string) PushMessage {
	o := e.Order
	msg := PushMessage{
		UserID: userID,
		Token:  token,
		Data: map[string]string{
			"type":         string(e.Kind),
			"order_number": o.OrderNumber,
			"order_id":     o.ID,
		},
	}

	switch e.Kind {
	case OrderPlaced:
		msg.Title = "New Order Received!"
		msg.Body = fmt.Sprintf("Order #%s - %s%s", o.OrderNumber, currency, o.Total.StringFixed(2))
		msg.Data["total_amount"] = o.Total.StringFixed(2)
		msg.Data["customer_name"] = o.CustomerName
	case OrderCancelled:
		msg.Title = "Order Cancelled"
		msg.Body = fmt.Sprintf("Order #%s was cancelled by customer", o.OrderNumber)
		msg.Data["total_amount"] = o.Total.StringFixed(2)
	default:
		title, ok := statusTitles[o.Status]
		if !ok {
			title = "Order Updated"
		}
		msg.Title = title
		msg.Body = fmt.Sprintf("Your order #%s is now %s", o.OrderNumber, o.Status)
		msg.Data["status"] = string(o.Status)
	}
	return msg
}
