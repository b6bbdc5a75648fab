package repositories

import (
	"kahawa/internal/models"
)

// OrderRepository defines the interface for order data access. Orders are
// never deleted, so the interface carries no Delete.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetAllByCustomer(customerID string) ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	Create(order *models.Order) error
	Update(order *models.Order) error
	// FirstActiveWithItem returns a CREATED or PENDING order that references
	// the given inventory item, or nil if no such order exists. Used to block
	// inventory deletion while an open order still needs the item.
	FirstActiveWithItem(inventoryItemID string) (*models.Order, error)
}
