package middleware

import (
	"log"
	"strings"

	"bazaar/internal/apperror"
	"bazaar/internal/models"
	"bazaar/internal/services"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserID = "user_id"
	localRole   = "role"
)

// TokenValidator turns a bearer token into the caller's identity.
type TokenValidator interface {
	ValidateToken(tokenString string) (*services.Identity, error)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(auth TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
				"code":    apperror.KindUnauthorized.String(),
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
				"code":    apperror.KindUnauthorized.String(),
			})
		}

		identity, err := auth.ValidateToken(parts[1])
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
				"code":    apperror.CodeOf(err),
			})
		}

		c.Locals(localUserID, identity.UserID)
		c.Locals(localRole, identity.Role)
		return c.Next()
	}
}

// RequireRole rejects callers whose token carries a different role.
// It must run after AuthRequired.
func RequireRole(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if Role(c) != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "This action requires the " + string(role) + " role",
				"code":    apperror.KindForbidden.String(),
			})
		}
		return c.Next()
	}
}

// UserID returns the authenticated user's ID, or "".
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

// Role returns the authenticated user's role, or "".
func Role(c *fiber.Ctx) models.Role {
	role, _ := c.Locals(localRole).(models.Role)
	return role
}
