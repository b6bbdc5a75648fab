package repositories

import (
	"kahawa/internal/models"
)

// InventoryRepository defines the interface for inventory data access.
type InventoryRepository interface {
	GetAll() ([]models.InventoryItem, error)
	GetByID(id string) (*models.InventoryItem, error)
	Create(item *models.InventoryItem) error
	Update(item *models.InventoryItem) error
	Delete(id string) error
}
