package handlers

import (
	"bazaar/internal/middleware"
	"bazaar/internal/models"
	"bazaar/internal/services"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler serves the seller dashboard.
type DashboardHandler struct {
	service *services.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(service *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func (h *DashboardHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/seller/dashboard", middleware.RequireRole(models.RoleSeller), h.HandleGetDashboard)
}

func (h *DashboardHandler) HandleGetDashboard(c *fiber.Ctx) error {
	d, err := h.service.Dashboard(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, "Could not load dashboard", err)
	}
	return c.JSON(presentDashboard(d))
}

// DeviceHandler registers push notification devices.
type DeviceHandler struct {
	service *services.DeviceService
}

// NewDeviceHandler creates a new DeviceHandler.
func NewDeviceHandler(service *services.DeviceService) *DeviceHandler {
	return &DeviceHandler{service: service}
}

func (h *DeviceHandler) RegisterRoutes(router fiber.Router) {
	router.Put("/devices/token", h.HandleRegisterToken)
}

type deviceTokenRequest struct {
	Token string `json:"fcm_token"`
}

// HandleRegisterToken stores the caller's device token. An empty token
// unregisters the device.
func (h *DeviceHandler) HandleRegisterToken(c *fiber.Ctx) error {
	var req deviceTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := h.service.RegisterDevice(c.UserContext(), middleware.UserID(c), req.Token); err != nil {
		return respondError(c, "Could not register device", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
