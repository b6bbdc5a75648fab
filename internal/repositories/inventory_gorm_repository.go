package repositories

import (
	"errors"
	"fmt"

	"kahawa/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMInventoryRepository is a GORM implementation of InventoryRepository.
type GORMInventoryRepository struct {
	db *gorm.DB
}

// NewGORMInventoryRepository creates a new instance of GORMInventoryRepository.
func NewGORMInventoryRepository(db *gorm.DB) *GORMInventoryRepository {
	return &GORMInventoryRepository{
		db: db,
	}
}

// GetAll retrieves all inventory items from the database.
func (r *GORMInventoryRepository) GetAll() ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := r.db.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to get all inventory items: %w", err)
	}
	for i := range items {
		items[i].Refresh()
	}
	return items, nil
}

// GetByID retrieves a single inventory item by its ID from the database.
func (r *GORMInventoryRepository) GetByID(id string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.NotFoundError{Resource: "inventory item", ID: id}
		}
		return nil, fmt.Errorf("failed to get inventory item by ID %s: %w", id, err)
	}
	item.Refresh()
	return &item, nil
}

// Create creates a new inventory item in the database.
func (r *GORMInventoryRepository) Create(item *models.InventoryItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if err := r.db.Create(item).Error; err != nil {
		return fmt.Errorf("failed to create inventory item: %w", err)
	}
	item.Refresh()
	return nil
}

// Update updates an existing inventory item in the database.
func (r *GORMInventoryRepository) Update(item *models.InventoryItem) error {
	res := r.db.Save(item) // Save will update all fields, including zero values
	if res.Error != nil {
		return fmt.Errorf("failed to update inventory item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// GORM's Save doesn't return ErrRecordNotFound if no rows were
		// affected by an update, so we check RowsAffected.
		return &models.NotFoundError{Resource: "inventory item", ID: item.ID}
	}
	item.Refresh()
	return nil
}

// Delete deletes an inventory item by its ID from the database.
func (r *GORMInventoryRepository) Delete(id string) error {
	res := r.db.Delete(&models.InventoryItem{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete inventory item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &models.NotFoundError{Resource: "inventory item", ID: id}
	}
	return nil
}
