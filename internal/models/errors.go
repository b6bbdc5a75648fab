package models

import "fmt"

// ValidationError indicates malformed input, such as a non-positive quantity
// or a negative price.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %q: %s", e.Field, e.Reason)
}

// InvalidStateError indicates an operation that is not permitted from an
// order's current state, such as editing the item list of an approved order
// or transitioning out of a terminal state.
type InvalidStateError struct {
	OrderID   string
	Current   OrderState
	Attempted string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("order %s is in state %q: %s is not permitted", e.OrderID, e.Current, e.Attempted)
}

// PermissionDeniedError indicates a role or ownership violation, such as a
// customer acting on another customer's order or attempting an
// employee-only operation.
type PermissionDeniedError struct {
	ActorID string
	Action  string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("actor %s is not allowed to %s", e.ActorID, e.Action)
}

// InsufficientStockError indicates that an approval or stock adjustment
// would drive an inventory item's on-hand quantity negative.
type InsufficientStockError struct {
	ItemID    string
	ItemName  string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock of %q (item %s): requested %d, available %d",
		e.ItemName, e.ItemID, e.Requested, e.Available)
}

// NotFoundError indicates that a referenced order, order line, inventory
// item or user does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}
