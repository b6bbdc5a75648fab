package handlers

import (
	"log"

	"kahawa/internal/models"
	"kahawa/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
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

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleListOrders)
	orderRoutes.Get("/:id", h.HandleGetOrder)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Post("/:id/items", h.HandleAddItem)
	orderRoutes.Patch("/:id/items/:itemID", h.HandleUpdateItem)
	orderRoutes.Delete("/:id/items/:itemID", h.HandleRemoveItem)
	orderRoutes.Patch("/:id/state", h.HandleTransition)
}

// HandleListOrders retrieves the orders visible to the caller: all orders
// for employees, only their own for customers.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	}

	orders, err := h.service.ListOrders(actor)
	if err != nil {
		log.Printf("Error listing orders: %v", err)
		return respondError(c, err)
	}
	return c.JSON(orders)
}

// HandleGetOrder retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	}

	order, err := h.service.GetOrder(actor, c.Params("id"))
	if err != nil {
		log.Printf("Error getting order %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return c.JSON(order)
}

// CreateOrderRequest represents the request body for order creation. The
// customer ID is optional and only honored for employees creating an order
// on a customer's behalf.
type CreateOrderRequest struct {
	CustomerID string `json:"customer_id"`
}

// HandleCreateOrder creates a new empty order in the CREATED state.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	}

	var req CreateOrderRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			log.Printf("Error parsing order create body: %v", err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid request body",
				"error":   err.Error(),
			})
		}
	}

	order, err := h.service.CreateOrder(actor, req.CustomerID)
	if err != nil {
		log.Printf("Error creating order: %v", err)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// OrderItemRequest represents the request body for adding or updating an
// order line. The unit price is only honored for employees; customers always
// get the current inventory price snapshotted.
type OrderItemRequest struct {
	InventoryItemID string           `json:"inventory_item_id"`
	Quantity        int              `json:"quantity"`
	UnitPrice       *decimal.Decimal `json:"unit_price,omitempty"`
}

// HandleAddItem adds an inventory item to an order.
func (h *OrderHandler) HandleAddItem(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	}

	var req OrderItemRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing order item body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if req.InventoryItemID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "inventory_item_id is required",
		})
	}

	order, err := h.service.AddItem(actor, c.Params("id"), req.InventoryItemID, req.Quantity, req.UnitPrice)
	if err != nil {
		log.Printf("Error adding item to order %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleUpdateItem updates the quantity (and, for employees, the unit price)
// of an existing order line.
func (h *OrderHandler) HandleUpdateItem(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	}

	var req OrderItemRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing order item body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	order, err := h.service.UpdateItem(actor, c.Params("id"), c.Params("itemID"), req.Quantity, req.UnitPrice)
	if err != nil {
		log.Printf("Error updating item on order %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return c.JSON(order)
}

// HandleRemoveItem removes a line from an order.
func (h *OrderHandler) HandleRemoveItem(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	}

	order, err := h.service.RemoveItem(actor, c.Params("id"), c.Params("itemID"))
	if err != nil {
		log.Printf("Error removing item from order %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return c.JSON(order)
}

// TransitionRequest represents the request body for an order state change.
type TransitionRequest struct {
	State    models.OrderState `json:"state"`
	Comments string            `json:"comments"`
}

// HandleTransition moves an order to a new lifecycle state.
func (h *OrderHandler) HandleTransition(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	}

	var req TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing transition body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if req.State == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "state is required for an order transition",
		})
	}

	order, err := h.service.Transition(actor, c.Params("id"), req.State, req.Comments)
	if err != nil {
		log.Printf("Error transitioning order %s to %s: %v", c.Params("id"), req.State, err)
		return respondError(c, err)
	}
	return c.JSON(order)
}
