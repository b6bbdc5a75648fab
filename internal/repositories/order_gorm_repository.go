package repositories

import (
	"errors"
	"fmt"

	"kahawa/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// GetAll retrieves all orders with their items from the database.
func (r *GORMOrderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// GetAllByCustomer retrieves all orders belonging to the given customer.
func (r *GORMOrderRepository) GetAllByCustomer(customerID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Where("customer_id = ?", customerID).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders for customer %s: %w", customerID, err)
	}
	return orders, nil
}

// GetByID retrieves a single order with its items by ID from the database.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.NotFoundError{Resource: "order", ID: id}
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// Create creates a new order in the database.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Update persists the order and its full item list as a single transaction.
// The stored line items are replaced wholesale so removals take effect.
func (r *GORMOrderRepository) Update(order *models.Order) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(order).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if len(order.Items) > 0 {
			if err := tx.Create(&order.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", order.ID, err)
	}
	return nil
}

// FirstActiveWithItem returns a CREATED or PENDING order referencing the
// given inventory item, or nil if none exists.
func (r *GORMOrderRepository) FirstActiveWithItem(inventoryItemID string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Where("order_items.inventory_item_id = ? AND orders.state IN ?",
			inventoryItemID, []models.OrderState{models.OrderCreated, models.OrderPending}).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up active orders for item %s: %w", inventoryItemID, err)
	}
	return &order, nil
}
