package services

import (
	"fmt"
	"log"

	"kahawa/internal/models"
	"kahawa/internal/repositories"
)

// InventoryService handles business logic related to inventory items. All
// stock mutations, including the deductions performed during order approval,
// go through this service and are serialized per item.
type InventoryService struct {
	repo      repositories.InventoryRepository
	orderRepo repositories.OrderRepository
	itemLocks *keyedMutex
}

// NewInventoryService creates a new InventoryService.
func NewInventoryService(repo repositories.InventoryRepository, orderRepo repositories.OrderRepository) *InventoryService {
	return &InventoryService{
		repo:      repo,
		orderRepo: orderRepo,
		itemLocks: newKeyedMutex(),
	}
}

// ListItems retrieves all inventory items with their derived stock state.
func (s *InventoryService) ListItems() ([]models.InventoryItem, error) {
	return s.repo.GetAll()
}

// GetItem retrieves a single inventory item by its ID.
func (s *InventoryService) GetItem(id string) (*models.InventoryItem, error) {
	return s.repo.GetByID(id)
}

// CreateItem creates a new inventory item. Only employees may create items.
func (s *InventoryService) CreateItem(actor models.Actor, item *models.InventoryItem) error {
	if !actor.IsEmployee() {
		return &models.PermissionDeniedError{ActorID: actor.ID, Action: "create inventory items"}
	}
	if err := validateInventoryItem(item); err != nil {
		return err
	}
	if item.BeverageType == "" {
		item.BeverageType = models.BeverageCoffee
	}
	return s.repo.Create(item)
}

// UpdateItem updates an existing inventory item. Only employees may update
// items. Price changes do not affect already placed orders, which keep
// their unit price snapshots.
func (s *InventoryService) UpdateItem(actor models.Actor, item *models.InventoryItem) error {
	if !actor.IsEmployee() {
		return &models.PermissionDeniedError{ActorID: actor.ID, Action: "update inventory items"}
	}
	if err := validateInventoryItem(item); err != nil {
		return err
	}

	s.itemLocks.Lock(item.ID)
	defer s.itemLocks.Unlock(item.ID)
	return s.repo.Update(item)
}

// AdjustStock adjusts an item's on-hand quantity by delta, which may be
// negative. Fails with InsufficientStockError if the resulting quantity
// would be negative. Only employees may adjust stock.
func (s *InventoryService) AdjustStock(actor models.Actor, id string, delta int) (*models.InventoryItem, error) {
	if !actor.IsEmployee() {
		return nil, &models.PermissionDeniedError{ActorID: actor.ID, Action: "adjust inventory stock"}
	}

	s.itemLocks.Lock(id)
	defer s.itemLocks.Unlock(id)

	item, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	newStock := item.OnHand + delta
	if newStock < 0 {
		return nil, &models.InsufficientStockError{
			ItemID:    item.ID,
			ItemName:  item.Name,
			Requested: -delta,
			Available: item.OnHand,
		}
	}

	item.OnHand = newStock
	if err := s.repo.Update(item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem deletes an inventory item. Deletion is rejected while any
// CREATED or PENDING order still references the item; terminal orders keep
// their price snapshots and do not block deletion.
func (s *InventoryService) DeleteItem(actor models.Actor, id string) error {
	if !actor.IsEmployee() {
		return &models.PermissionDeniedError{ActorID: actor.ID, Action: "delete inventory items"}
	}

	s.itemLocks.Lock(id)
	defer s.itemLocks.Unlock(id)

	blocking, err := s.orderRepo.FirstActiveWithItem(id)
	if err != nil {
		return fmt.Errorf("failed to check open orders for item %s: %w", id, err)
	}
	if blocking != nil {
		return &models.InvalidStateError{
			OrderID:   blocking.ID,
			Current:   blocking.State,
			Attempted: fmt.Sprintf("deleting inventory item %s referenced by the order", id),
		}
	}
	return s.repo.Delete(id)
}

// deductForOrder atomically deducts stock for every line of an order being
// approved. All lines are checked against current stock before anything is
// written, and all referenced items are locked in sorted order for the
// duration, so two approvals can never both pass the check on a stale
// quantity. On failure no stock is mutated.
func (s *InventoryService) deductForOrder(order *models.Order) error {
	keys := make([]string, 0, len(order.Items))
	for _, line := range order.Items {
		keys = append(keys, line.InventoryItemID)
	}
	locked := s.itemLocks.LockAll(keys)
	defer s.itemLocks.UnlockAll(locked)

	// Load each referenced item once and total the quantities per item, in
	// case an order carries multiple lines for the same beverage.
	items := make(map[string]*models.InventoryItem, len(locked))
	needed := make(map[string]int, len(locked))
	for _, line := range order.Items {
		if _, ok := items[line.InventoryItemID]; !ok {
			item, err := s.repo.GetByID(line.InventoryItemID)
			if err != nil {
				return err
			}
			items[line.InventoryItemID] = item
		}
		needed[line.InventoryItemID] += line.Quantity
	}

	// Check every line before committing any deduction.
	for _, id := range locked {
		if item := items[id]; item.OnHand < needed[id] {
			return &models.InsufficientStockError{
				ItemID:    item.ID,
				ItemName:  item.Name,
				Requested: needed[id],
				Available: item.OnHand,
			}
		}
	}

	// Commit the deductions. A repository failure midway undoes the writes
	// already applied so no partial state survives.
	applied := make([]string, 0, len(locked))
	for _, id := range locked {
		item := items[id]
		item.OnHand -= needed[id]
		if err := s.repo.Update(item); err != nil {
			s.restoreQuantities(items, needed, applied)
			return fmt.Errorf("failed to deduct stock for item %s: %w", id, err)
		}
		applied = append(applied, id)
	}
	return nil
}

// restoreForOrder puts back the stock deducted for an order. Used to undo a
// deduction when persisting the approved order itself fails. Callers must
// not hold the item locks.
func (s *InventoryService) restoreForOrder(order *models.Order) {
	keys := make([]string, 0, len(order.Items))
	for _, line := range order.Items {
		keys = append(keys, line.InventoryItemID)
	}
	locked := s.itemLocks.LockAll(keys)
	defer s.itemLocks.UnlockAll(locked)

	needed := make(map[string]int, len(locked))
	for _, line := range order.Items {
		needed[line.InventoryItemID] += line.Quantity
	}
	items := make(map[string]*models.InventoryItem, len(locked))
	for _, id := range locked {
		item, err := s.repo.GetByID(id)
		if err != nil {
			log.Printf("Failed to load item %s while restoring stock for order %s: %v", id, order.ID, err)
			continue
		}
		items[id] = item
	}
	s.restoreQuantities(items, needed, locked)
}

// restoreQuantities adds the needed quantities back onto the given items.
// Failures are logged; there is nothing further to unwind.
func (s *InventoryService) restoreQuantities(items map[string]*models.InventoryItem, needed map[string]int, ids []string) {
	for _, id := range ids {
		item, ok := items[id]
		if !ok {
			continue
		}
		item.OnHand += needed[id]
		if err := s.repo.Update(item); err != nil {
			log.Printf("Failed to restore %d units of item %s: %v", needed[id], id, err)
		}
	}
}

// validateInventoryItem enforces the non-negativity rules on price, on-hand
// quantity and warn limit.
func validateInventoryItem(item *models.InventoryItem) error {
	if item.Price.IsNegative() {
		return &models.ValidationError{Field: "price", Reason: "the price of an item cannot be negative"}
	}
	if item.OnHand < 0 {
		return &models.ValidationError{Field: "on_hand", Reason: "the available quantity of an item cannot be negative"}
	}
	if item.WarnLimit < 0 {
		return &models.ValidationError{Field: "warn_limit", Reason: "the warn limit of an item cannot be negative"}
	}
	return nil
}
