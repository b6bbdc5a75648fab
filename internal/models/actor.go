package models

// ActorRole identifies the kind of user performing an operation.
type ActorRole string

const (
	// RoleCustomer is a regular shopper. Customers may only act on their own
	// orders and never see raw stock quantities.
	RoleCustomer ActorRole = "customer"
	// RoleEmployee is shop staff. Employees review orders and manage
	// inventory, and may act on any customer's order.
	RoleEmployee ActorRole = "employee"
)

// Actor is the resolved identity of a caller. The request layer builds it
// from the authenticated user; the services trust it as-is and perform no
// authentication of their own.
type Actor struct {
	ID   string
	Role ActorRole
}

// IsEmployee reports whether the actor is shop staff.
func (a Actor) IsEmployee() bool {
	return a.Role == RoleEmployee
}
