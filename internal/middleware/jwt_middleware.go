package middleware

import (
	"log"
	"strings"

	"kahawa/internal/models"
	"kahawa/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ActorKey is the Fiber locals key under which the resolved actor is stored.
const ActorKey = "actor"

// AuthRequired is a Fiber middleware that checks for a valid JWT token and
// resolves the caller into a models.Actor for the handlers.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		tokenString := parts[1]

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		userID, _ := claims["user_id"].(string)
		role, _ := claims["role"].(string)
		if userID == "" || role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Token is missing identity claims",
			})
		}

		// Store the resolved actor in the Fiber context for subsequent handlers
		c.Locals(ActorKey, models.Actor{ID: userID, Role: models.ActorRole(role)})
		c.Locals("username", claims["username"])

		// Continue to the next handler
		return c.Next()
	}
}
