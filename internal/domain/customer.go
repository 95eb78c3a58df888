package domain

import "slices"

// Role is a capability granted to a customer.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Customer is a principal known to the brokerage.
type Customer struct {
	CustomerID int64
	Username   string
	Roles      []Role
}

// IsAdmin reports whether c holds the ADMIN role.
func (c *Customer) IsAdmin() bool {
	return slices.Contains(c.Roles, RoleAdmin)
}

// Actor is the identity a request acts under, derived once at the API
// boundary and passed explicitly to services.
type Actor struct {
	CustomerID int64
	Admin      bool
}

// ActorFor returns the Actor for c.
func ActorFor(c *Customer) Actor {
	return Actor{CustomerID: c.CustomerID, Admin: c.IsAdmin()}
}

// CanAccess reports whether the actor may act on resources owned by
// customerID.
func (a Actor) CanAccess(customerID int64) bool {
	return a.Admin || a.CustomerID == customerID
}
