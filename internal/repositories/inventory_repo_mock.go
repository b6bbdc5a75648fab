package repositories

import (
	"sync"

	"kahawa/internal/models"

	"github.com/google/uuid"
)

// MockInventoryRepository is an in-memory implementation of InventoryRepository.
type MockInventoryRepository struct {
	items map[string]models.InventoryItem
	mu    sync.RWMutex
}

// NewMockInventoryRepository creates a new instance of MockInventoryRepository.
func NewMockInventoryRepository() *MockInventoryRepository {
	return &MockInventoryRepository{
		items: make(map[string]models.InventoryItem),
	}
}

// GetAll returns all inventory items.
func (r *MockInventoryRepository) GetAll() ([]models.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	itemList := make([]models.InventoryItem, 0, len(r.items))
	for _, item := range r.items {
		item.Refresh()
		itemList = append(itemList, item)
	}
	return itemList, nil
}

// GetByID returns an inventory item by its ID.
func (r *MockInventoryRepository) GetByID(id string) (*models.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "inventory item", ID: id}
	}
	item.Refresh()
	return &item, nil
}

// Create adds a new inventory item.
func (r *MockInventoryRepository) Create(item *models.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.Refresh()
	r.items[item.ID] = *item
	return nil
}

// Update modifies an existing inventory item.
func (r *MockInventoryRepository) Update(item *models.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.items[item.ID]
	if !ok {
		return &models.NotFoundError{Resource: "inventory item", ID: item.ID}
	}
	item.Refresh()
	r.items[item.ID] = *item
	return nil
}

// Delete removes an inventory item by its ID.
func (r *MockInventoryRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.items[id]
	if !ok {
		return &models.NotFoundError{Resource: "inventory item", ID: id}
	}
	delete(r.items, id)
	return nil
}
