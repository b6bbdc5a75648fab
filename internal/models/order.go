package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderState is the lifecycle state of an order.
type OrderState string

const (
	// OrderCreated is the initial state of every new order. The item list is
	// editable and the order can move to PENDING or CANCELED.
	OrderCreated OrderState = "CREATED"
	// OrderPending marks an order as complete and awaiting employee review.
	// The item list remains editable until the review happens.
	OrderPending OrderState = "PENDING"
	// OrderApproved means an employee reviewed the order and okayed it for
	// delivery; stock was deducted. Terminal.
	OrderApproved OrderState = "APPROVED"
	// OrderRejected means an employee reviewed the order and turned it down.
	// Terminal.
	OrderRejected OrderState = "REJECTED"
	// OrderCanceled means the order was withdrawn before review completed.
	// Terminal.
	OrderCanceled OrderState = "CANCELED"
)

// orderTransitions is the full set of permitted state machine edges.
// Terminal states have no outgoing edges.
var orderTransitions = map[OrderState][]OrderState{
	OrderCreated: {OrderPending, OrderCanceled},
	OrderPending: {OrderApproved, OrderRejected, OrderCanceled},
}

// ValidOrderState reports whether s is a known order state.
func ValidOrderState(s OrderState) bool {
	switch s {
	case OrderCreated, OrderPending, OrderApproved, OrderRejected, OrderCanceled:
		return true
	}
	return false
}

// CanTransition reports whether the state machine permits moving from one
// state to another.
func CanTransition(from, to OrderState) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted from s.
func (s OrderState) IsTerminal() bool {
	return ValidOrderState(s) && len(orderTransitions[s]) == 0
}

// OrderItem represents a beverage included in an order. The unit price is a
// snapshot taken when the line was added, so later inventory price changes
// never affect placed orders.
type OrderItem struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID         string          `json:"order_id" gorm:"index;type:varchar(36)"`
	InventoryItemID string          `json:"inventory_item_id" gorm:"index;type:varchar(36)"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price" gorm:"type:decimal(5,2)"`
}

// TotalPrice returns the line total: unit price times quantity.
func (oi OrderItem) TotalPrice() decimal.Decimal {
	return oi.UnitPrice.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}

// Order represents a customer order. Orders are never physically deleted;
// terminal states are final records.
type Order struct {
	ID         string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID string      `json:"customer_id" gorm:"index;type:varchar(36)"`
	State      OrderState  `json:"state" gorm:"type:varchar(10);default:CREATED"`
	HandlerID  *string     `json:"handler_id,omitempty" gorm:"type:varchar(36)"` // employee who reviewed the order
	ReviewDate *time.Time  `json:"review_date,omitempty"`
	Comments   string      `json:"comments,omitempty"`
	Items      []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// CanUpdateItems reports whether the order's item list may still be
// modified. Items may only be added, updated or removed while the order is
// in the CREATED or PENDING state.
func (o *Order) CanUpdateItems() bool {
	return o.State == OrderCreated || o.State == OrderPending
}

// Item returns the order line referencing the given inventory item, or nil
// if the item is not part of this order.
func (o *Order) Item(inventoryItemID string) *OrderItem {
	for i := range o.Items {
		if o.Items[i].InventoryItemID == inventoryItemID {
			return &o.Items[i]
		}
	}
	return nil
}

// TotalPrice returns the total price of the order across all lines.
func (o *Order) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.TotalPrice())
	}
	return total
}
