package handlers

import (
	"fmt"
	"log"

	"kahawa/internal/models"
	"kahawa/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// InventoryHandler handles HTTP requests for inventory items.
type InventoryHandler struct {
	service  *services.InventoryService
	validate *validator.Validate
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(service *services.InventoryService) *InventoryHandler {
	return &InventoryHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the inventory routes with the Fiber app.
func (h *InventoryHandler) RegisterRoutes(router fiber.Router) {
	inventoryRoutes := router.Group("/inventory")
	inventoryRoutes.Get("/", h.HandleListItems)
	inventoryRoutes.Get("/:id", h.HandleGetItem)
	inventoryRoutes.Post("/", h.HandleCreateItem)
	inventoryRoutes.Put("/:id", h.HandleUpdateItem)
	inventoryRoutes.Patch("/:id/stock", h.HandleAdjustStock)
	inventoryRoutes.Delete("/:id", h.HandleDeleteItem)
}

// HandleListItems retrieves the inventory. Employees receive full records
// including stock quantities; customers receive the public view with the
// derived availability state only.
func (h *InventoryHandler) HandleListItems(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	}

	items, err := h.service.ListItems()
	if err != nil {
		log.Printf("Error listing inventory: %v", err)
		return respondError(c, err)
	}

	if actor.IsEmployee() {
		return c.JSON(items)
	}
	public := make([]models.PublicInventoryItem, 0, len(items))
	for i := range items {
		public = append(public, items[i].Public())
	}
	return c.JSON(public)
}

// HandleGetItem retrieves a single inventory item, filtered by role like
// HandleListItems.
func (h *InventoryHandler) HandleGetItem(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	}

	item, err := h.service.GetItem(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if actor.IsEmployee() {
		return c.JSON(item)
	}
	return c.JSON(item.Public())
}

// HandleCreateItem creates a new inventory item. Employee only.
func (h *InventoryHandler) HandleCreateItem(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	}

	var item models.InventoryItem
	if err := c.BodyParser(&item); err != nil {
		log.Printf("Error parsing inventory create body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(item); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	if err := h.service.CreateItem(actor, &item); err != nil {
		log.Printf("Error creating inventory item: %v", err)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// HandleUpdateItem updates an existing inventory item. Employee only.
func (h *InventoryHandler) HandleUpdateItem(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	}

	var item models.InventoryItem
	if err := c.BodyParser(&item); err != nil {
		log.Printf("Error parsing inventory update body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	item.ID = c.Params("id")

	if err := h.service.UpdateItem(actor, &item); err != nil {
		log.Printf("Error updating inventory item %s: %v", item.ID, err)
		return respondError(c, err)
	}
	return c.JSON(item)
}

// StockAdjustmentRequest represents the request body for a stock adjustment.
type StockAdjustmentRequest struct {
	Delta int `json:"delta"`
}

// HandleAdjustStock adjusts an item's on-hand quantity by a delta. Employee
// only; fails if the resulting quantity would be negative.
func (h *InventoryHandler) HandleAdjustStock(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	}

	var req StockAdjustmentRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing stock adjustment body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	item, err := h.service.AdjustStock(actor, c.Params("id"), req.Delta)
	if err != nil {
		log.Printf("Error adjusting stock for item %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return c.JSON(item)
}

// HandleDeleteItem deletes an inventory item. Employee only; rejected while
// an open order still references the item.
func (h *InventoryHandler) HandleDeleteItem(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	}

	id := c.Params("id")
	if err := h.service.DeleteItem(actor, id); err != nil {
		log.Printf("Error deleting inventory item %s: %v", id, err)
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Inventory item %s deleted successfully", id),
	})
}
