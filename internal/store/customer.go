package store

import (
	"fmt"
	"sync"

	"github.com/efreitasn/brokerage/internal/domain"
)

// CustomerDirectory is a thread-safe in-memory registry of customers,
// keyed by customer ID with a secondary index by username.
type CustomerDirectory struct {
	mu         sync.RWMutex
	customers  map[int64]*domain.Customer
	byUsername map[string]*domain.Customer
}

// NewCustomerDirectory creates an empty CustomerDirectory.
func NewCustomerDirectory() *CustomerDirectory {
	return &CustomerDirectory{
		customers:  make(map[int64]*domain.Customer),
		byUsername: make(map[string]*domain.Customer),
	}
}

// Register adds a customer. It returns domain.ErrCustomerExists if the ID
// or username is already taken.
func (d *CustomerDirectory) Register(c *domain.Customer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.customers[c.CustomerID]; exists {
		return fmt.Errorf("%w: id %d", domain.ErrCustomerExists, c.CustomerID)
	}
	if _, exists := d.byUsername[c.Username]; exists {
		return fmt.Errorf("%w: username %q", domain.ErrCustomerExists, c.Username)
	}
	d.customers[c.CustomerID] = c
	d.byUsername[c.Username] = c
	return nil
}

// Get retrieves a customer by ID, or returns domain.ErrCustomerNotFound.
func (d *CustomerDirectory) Get(id int64) (*domain.Customer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	c, ok := d.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return c, nil
}

// GetByUsername retrieves a customer by username, or returns
// domain.ErrCustomerNotFound.
func (d *CustomerDirectory) GetByUsername(username string) (*domain.Customer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	c, ok := d.byUsername[username]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return c, nil
}

// Exists returns true if a customer with the given ID exists.
func (d *CustomerDirectory) Exists(id int64) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.customers[id]
	return ok
}
