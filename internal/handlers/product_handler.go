package handlers

import (
	"bazaar/internal/middleware"
	"bazaar/internal/models"
	"bazaar/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

// RegisterRoutes registers the product routes. Reads are open to any
// authenticated caller; writes need the seller role.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	seller := middleware.RequireRole(models.RoleSeller)

	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Post("/", seller, h.HandleCreateProduct)
	productRoutes.Patch("/:id/price", seller, h.HandleUpdatePrice)
	productRoutes.Patch("/:id/stock", seller, h.HandleUpdateStock)
	productRoutes.Delete("/:id", seller, h.HandleDeactivateProduct)

	router.Get("/seller/products", seller, h.HandleGetShopProducts)
}

// HandleGetProducts lists the active catalog.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return respondError(c, "Could not retrieve products", err)
	}
	return c.JSON(presentProducts(products, false))
}

// HandleGetProduct returns one active product.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, "Could not retrieve product", err)
	}
	return c.JSON(presentProduct(*product, false))
}

// HandleGetShopProducts lists the seller's own products, inactive ones included.
func (h *ProductHandler) HandleGetShopProducts(c *fiber.Ctx) error {
	products, err := h.service.GetShopProducts(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, "Could not retrieve products", err)
	}
	return c.JSON(presentProducts(products, true))
}

// HandleCreateProduct lists a new product in the seller's shop.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req services.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	product, err := h.service.CreateProduct(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return respondError(c, "Could not create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(presentProduct(*product, true))
}

// HandleUpdatePrice changes the base price or commission rate of a product.
func (h *ProductHandler) HandleUpdatePrice(c *fiber.Ctx) error {
	var req services.UpdatePricingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	product, err := h.service.UpdatePricing(c.UserContext(), middleware.UserID(c), c.Params("id"), req)
	if err != nil {
		return respondError(c, "Could not update price", err)
	}
	return c.JSON(presentProduct(*product, true))
}

type stockRequest struct {
	StockQuantity *int `json:"stock_quantity"`
}

// HandleUpdateStock overwrites the stock count of a product.
func (h *ProductHandler) HandleUpdateStock(c *fiber.Ctx) error {
	var req stockRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if req.StockQuantity == nil {
		return respondError(c, "Could not update stock", services.ErrInvalidProductRequest.Withf("stock_quantity is required"))
	}

	product, err := h.service.SetStock(c.UserContext(), middleware.UserID(c), c.Params("id"), *req.StockQuantity)
	if err != nil {
		return respondError(c, "Could not update stock", err)
	}
	return c.JSON(presentProduct(*product, true))
}

// HandleDeactivateProduct takes a product off the catalog.
func (h *ProductHandler) HandleDeactivateProduct(c *fiber.Ctx) error {
	if err := h.service.DeactivateProduct(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return respondError(c, "Could not delete product", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
