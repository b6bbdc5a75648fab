package services

import (
	"fmt"
	"log"
	"time"

	"kahawa/internal/models"
	"kahawa/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderService is the order lifecycle engine. It validates and executes
// state transitions, enforces per-state editability of the item list, gates
// every mutation by actor role and ownership, and triggers exactly one
// customer notification per successful creation or transition.
//
// Concurrent operations on the same order are serialized with a per-order
// lock; operations on different orders proceed independently.
type OrderService struct {
	orderRepo  repositories.OrderRepository
	userRepo   repositories.UserRepository
	inventory  *InventoryService
	notifier   Notifier
	orderLocks *keyedMutex
}

// NewOrderService creates a new OrderService. The notifier may be nil, in
// which case notifications are skipped with a log line.
func NewOrderService(orderRepo repositories.OrderRepository, userRepo repositories.UserRepository, inventory *InventoryService, notifier Notifier) *OrderService {
	return &OrderService{
		orderRepo:  orderRepo,
		userRepo:   userRepo,
		inventory:  inventory,
		notifier:   notifier,
		orderLocks: newKeyedMutex(),
	}
}

// CreateOrder creates a new empty order in the CREATED state for the given
// customer. Customers may only create orders for themselves; employees may
// create an order on behalf of any customer. The customer is notified of
// the new order.
func (s *OrderService) CreateOrder(actor models.Actor, customerID string) (*models.Order, error) {
	if customerID == "" {
		customerID = actor.ID
	}
	if !actor.IsEmployee() && customerID != actor.ID {
		return nil, &models.PermissionDeniedError{ActorID: actor.ID, Action: "create an order for another customer"}
	}

	customer, err := s.userRepo.GetByID(customerID)
	if err != nil {
		return nil, err
	}
	if customer.Role != models.RoleCustomer {
		return nil, &models.ValidationError{Field: "customer_id", Reason: "orders must belong to a customer account"}
	}

	order := &models.Order{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		State:      models.OrderCreated,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	s.notify(customer, EventOrderCreated, order)
	return order, nil
}

// GetOrder retrieves a single order. Customers may only see their own orders.
func (s *OrderService) GetOrder(actor models.Actor, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOrderAccess(actor, order, "view the order"); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders retrieves the orders visible to the actor: all orders for
// employees, only the actor's own orders for customers.
func (s *OrderService) ListOrders(actor models.Actor) ([]models.Order, error) {
	if actor.IsEmployee() {
		return s.orderRepo.GetAll()
	}
	return s.orderRepo.GetAllByCustomer(actor.ID)
}

// AddItem adds a line for the given inventory item to the order, snapshotting
// the item's current unit price. Only employees may override the snapshot
// price; a price supplied by a customer is ignored. The item list may only
// be modified while the order is CREATED or PENDING, and an out-of-stock
// item cannot be added. Stock itself is untouched until approval.
func (s *OrderService) AddItem(actor models.Actor, orderID, inventoryItemID string, quantity int, unitPrice *decimal.Decimal) (*models.Order, error) {
	s.orderLocks.Lock(orderID)
	defer s.orderLocks.Unlock(orderID)

	order, err := s.loadEditableOrder(actor, orderID, "add items to the order")
	if err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, &models.ValidationError{Field: "quantity", Reason: "quantity must be a positive value"}
	}

	item, err := s.inventory.GetItem(inventoryItemID)
	if err != nil {
		return nil, err
	}
	if item.IsOutOfStock() {
		return nil, &models.InsufficientStockError{
			ItemID:    item.ID,
			ItemName:  item.Name,
			Requested: quantity,
			Available: 0,
		}
	}

	price := item.Price
	if unitPrice != nil && actor.IsEmployee() {
		price = *unitPrice
	}
	order.Items = append(order.Items, models.OrderItem{
		ID:              uuid.New().String(),
		OrderID:         order.ID,
		InventoryItemID: item.ID,
		Quantity:        quantity,
		UnitPrice:       price,
	})

	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateItem changes the quantity of an existing order line. Only employees
// may change the unit price snapshot; a price supplied by a customer is
// ignored.
func (s *OrderService) UpdateItem(actor models.Actor, orderID, inventoryItemID string, quantity int, unitPrice *decimal.Decimal) (*models.Order, error) {
	s.orderLocks.Lock(orderID)
	defer s.orderLocks.Unlock(orderID)

	order, err := s.loadEditableOrder(actor, orderID, "update items on the order")
	if err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, &models.ValidationError{Field: "quantity", Reason: "quantity must be a positive value"}
	}

	line := order.Item(inventoryItemID)
	if line == nil {
		return nil, &models.NotFoundError{Resource: "order item", ID: inventoryItemID}
	}
	line.Quantity = quantity
	if unitPrice != nil && actor.IsEmployee() {
		line.UnitPrice = *unitPrice
	}

	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}
	return order, nil
}

// RemoveItem removes the line referencing the given inventory item from the
// order.
func (s *OrderService) RemoveItem(actor models.Actor, orderID, inventoryItemID string) (*models.Order, error) {
	s.orderLocks.Lock(orderID)
	defer s.orderLocks.Unlock(orderID)

	order, err := s.loadEditableOrder(actor, orderID, "remove items from the order")
	if err != nil {
		return nil, err
	}

	found := false
	kept := order.Items[:0]
	for _, line := range order.Items {
		if line.InventoryItemID == inventoryItemID {
			found = true
			continue
		}
		kept = append(kept, line)
	}
	if !found {
		return nil, &models.NotFoundError{Resource: "order item", ID: inventoryItemID}
	}
	order.Items = kept

	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}
	return order, nil
}

// Transition moves an order to the target state. The permitted edges are:
//
//	CREATED -> PENDING, CANCELED
//	PENDING -> APPROVED, REJECTED, CANCELED
//
// APPROVED, REJECTED and CANCELED are terminal. Only employees may approve
// or reject; customers may submit and cancel their own orders. Moving to
// PENDING or APPROVED requires at least one order line. Approval deducts
// stock for every line as a single atomic unit; if any line exceeds the
// current on-hand quantity the approval fails with InsufficientStockError
// and neither the order nor any stock is changed. Every successful
// transition notifies the customer once.
func (s *OrderService) Transition(actor models.Actor, orderID string, target models.OrderState, comments string) (*models.Order, error) {
	if !models.ValidOrderState(target) {
		return nil, &models.ValidationError{Field: "state", Reason: fmt.Sprintf("unknown order state %q", target)}
	}
	if (target == models.OrderApproved || target == models.OrderRejected) && !actor.IsEmployee() {
		return nil, &models.PermissionDeniedError{ActorID: actor.ID, Action: "review orders"}
	}

	s.orderLocks.Lock(orderID)
	defer s.orderLocks.Unlock(orderID)

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOrderAccess(actor, order, "transition the order"); err != nil {
		return nil, err
	}
	if !models.CanTransition(order.State, target) {
		return nil, &models.InvalidStateError{
			OrderID:   order.ID,
			Current:   order.State,
			Attempted: fmt.Sprintf("transition to %s", target),
		}
	}
	if (target == models.OrderPending || target == models.OrderApproved) && len(order.Items) == 0 {
		return nil, &models.ValidationError{
			Field:  "items",
			Reason: fmt.Sprintf("an order needs at least one item before it can be marked %s", target),
		}
	}

	if target == models.OrderApproved {
		if err := s.inventory.deductForOrder(order); err != nil {
			return nil, err
		}
	}
	if target == models.OrderApproved || target == models.OrderRejected {
		now := time.Now()
		handlerID := actor.ID
		order.HandlerID = &handlerID
		order.ReviewDate = &now
	}
	order.State = target
	if comments != "" {
		order.Comments = comments
	}

	if err := s.orderRepo.Update(order); err != nil {
		// Put the stock back so a failed approval leaves nothing behind.
		if target == models.OrderApproved {
			s.inventory.restoreForOrder(order)
		}
		return nil, fmt.Errorf("failed to persist order %s transition: %w", orderID, err)
	}

	s.notifyByID(order.CustomerID, eventForState[target], order)
	return order, nil
}

// loadEditableOrder loads an order, checks that the actor may modify it and
// that its item list is still editable.
func (s *OrderService) loadEditableOrder(actor models.Actor, orderID, action string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOrderAccess(actor, order, action); err != nil {
		return nil, err
	}
	if !order.CanUpdateItems() {
		return nil, &models.InvalidStateError{
			OrderID:   order.ID,
			Current:   order.State,
			Attempted: "modifying the item list",
		}
	}
	return order, nil
}

// authorizeOrderAccess enforces ownership: customers may only act on their
// own orders, employees on any order.
func authorizeOrderAccess(actor models.Actor, order *models.Order, action string) error {
	if actor.IsEmployee() || order.CustomerID == actor.ID {
		return nil
	}
	return &models.PermissionDeniedError{ActorID: actor.ID, Action: action}
}

// notifyByID resolves the customer and dispatches a notification. Dispatch
// is best-effort and never fails the calling operation.
func (s *OrderService) notifyByID(customerID string, event OrderEvent, order *models.Order) {
	customer, err := s.userRepo.GetByID(customerID)
	if err != nil {
		log.Printf("Cannot notify customer %s about %s: %v", customerID, event, err)
		return
	}
	s.notify(customer, event, order)
}

func (s *OrderService) notify(customer *models.User, event OrderEvent, order *models.Order) {
	if s.notifier == nil {
		log.Printf("Notifier is not configured. Skipping %s notification for order %s.", event, order.ID)
		return
	}
	if err := s.notifier.NotifyOrderEvent(customer, event, order); err != nil {
		log.Printf("Warning: Failed to send %s notification for order %s: %v", event, order.ID, err)
	}
}
