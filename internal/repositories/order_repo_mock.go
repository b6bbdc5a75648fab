package repositories

import (
	"sync"
	"time"

	"kahawa/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// cloneOrder copies an order including its item slice so callers never share
// backing arrays with the stored value.
func cloneOrder(o models.Order) models.Order {
	c := o
	c.Items = append([]models.OrderItem(nil), o.Items...)
	return c
}

// GetAll returns all orders.
func (r *MockOrderRepository) GetAll() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orderList = append(orderList, cloneOrder(order))
	}
	return orderList, nil
}

// GetAllByCustomer returns all orders belonging to the given customer.
func (r *MockOrderRepository) GetAllByCustomer(customerID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orderList []models.Order
	for _, order := range r.orders {
		if order.CustomerID == customerID {
			orderList = append(orderList, cloneOrder(order))
		}
	}
	return orderList, nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "order", ID: id}
	}
	clone := cloneOrder(order)
	return &clone, nil
}

// Create adds a new order.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = cloneOrder(*order)
	return nil
}

// Update replaces a stored order and its item list.
func (r *MockOrderRepository) Update(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return &models.NotFoundError{Resource: "order", ID: order.ID}
	}
	order.CreatedAt = stored.CreatedAt
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = cloneOrder(*order)
	return nil
}

// FirstActiveWithItem returns a CREATED or PENDING order referencing the
// given inventory item, or nil if none exists.
func (r *MockOrderRepository) FirstActiveWithItem(inventoryItemID string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.orders {
		if order.State != models.OrderCreated && order.State != models.OrderPending {
			continue
		}
		for _, line := range order.Items {
			if line.InventoryItemID == inventoryItemID {
				clone := cloneOrder(order)
				return &clone, nil
			}
		}
	}
	return nil, nil
}
