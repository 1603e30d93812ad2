package handlers

import (
	"strings"

	"bazaar/internal/middleware"
	"bazaar/internal/models"
	"bazaar/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the customer and seller order routes. router must
// already require authentication.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	customer := middleware.RequireRole(models.RoleCustomer)
	seller := middleware.RequireRole(models.RoleSeller)

	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", customer, h.HandleCreateOrder)
	orderRoutes.Get("/", customer, h.HandleGetOrders)
	orderRoutes.Get("/:orderNumber", h.HandleGetOrder)
	orderRoutes.Patch("/:orderNumber/cancel", customer, h.HandleCancelOrder)

	router.Get("/seller/orders", seller, h.HandleGetShopOrders)
	router.Patch("/seller/orders/:orderNumber/status", seller, h.HandleUpdateOrderStatus)
}

// HandleCreateOrder places an order for the authenticated customer.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	order, err := h.service.CreateOrder(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return respondError(c, "Could not create order", err)
	}
	return c.Status(fiber.StatusCreated).JSON(presentOrder(*order, false))
}

// HandleGetOrders lists the authenticated customer's orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListCustomerOrders(c.UserContext(), middleware.UserID(c), c.Query("status"))
	if err != nil {
		return respondError(c, "Could not retrieve orders", err)
	}
	return c.JSON(presentOrders(orders, false))
}

// HandleGetOrder returns one order to its customer or to its shop's seller.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	role := middleware.Role(c)
	order, err := h.service.GetOrder(c.UserContext(), c.Params("orderNumber"), middleware.UserID(c), role)
	if err != nil {
		return respondError(c, "Could not retrieve order", err)
	}
	return c.JSON(presentOrder(*order, role == models.RoleSeller))
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// HandleCancelOrder lets a customer cancel an order that is still placed.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	var req cancelRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body", err)
		}
	}

	order, err := h.service.CancelOrder(c.UserContext(), c.Params("orderNumber"), middleware.UserID(c), req.Reason)
	if err != nil {
		return respondError(c, "Could not cancel order", err)
	}
	return c.JSON(presentOrder(*order, false))
}

// HandleGetShopOrders lists the orders of the seller's shop.
func (h *OrderHandler) HandleGetShopOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListShopOrders(c.UserContext(), middleware.UserID(c), c.Query("status"))
	if err != nil {
		return respondError(c, "Could not retrieve orders", err)
	}
	return c.JSON(presentOrders(orders, true))
}

type statusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// HandleUpdateOrderStatus moves an order to its next status.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body for status update", err)
	}
	status, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		return respondError(c, "Order update failed", services.ErrInvalidStatus.Wrap(err))
	}

	order, err := h.service.TransitionOrder(c.UserContext(), c.Params("orderNumber"), status, middleware.UserID(c), strings.TrimSpace(req.Reason))
	if err != nil {
		return respondError(c, "Order update failed", err)
	}
	return c.JSON(presentOrder(*order, true))
}
