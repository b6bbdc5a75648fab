package handlers

import (
	"errors"

	"kahawa/internal/middleware"
	"kahawa/internal/models"

	"github.com/gofiber/fiber/v2"
)

// respondError maps the engine's error taxonomy to HTTP responses. Unknown
// errors become a 500 without leaking internals beyond the message.
func respondError(c *fiber.Ctx, err error) error {
	var (
		validationErr *models.ValidationError
		stateErr      *models.InvalidStateError
		permissionErr *models.PermissionDeniedError
		stockErr      *models.InsufficientStockError
		notFoundErr   *models.NotFoundError
	)

	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"field":   validationErr.Field,
			"error":   validationErr.Error(),
		})
	case errors.As(err, &stateErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message":       "Operation not permitted in the order's current state",
			"order_id":      stateErr.OrderID,
			"current_state": stateErr.Current,
			"error":         stateErr.Error(),
		})
	case errors.As(err, &permissionErr):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Permission denied",
			"error":   permissionErr.Error(),
		})
	case errors.As(err, &stockErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message":   "Insufficient stock",
			"item_id":   stockErr.ItemID,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
			"error":     stockErr.Error(),
		})
	case errors.As(err, &notFoundErr):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Not found",
			"error":   notFoundErr.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error",
			"error":   err.Error(),
		})
	}
}

// actorFromCtx returns the actor resolved by the auth middleware.
func actorFromCtx(c *fiber.Ctx) (models.Actor, bool) {
	actor, ok := c.Locals(middleware.ActorKey).(models.Actor)
	return actor, ok
}
