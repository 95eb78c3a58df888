// Package store defines the durable storage contract for balances, orders
// and settlements, and provides an in-memory implementation of it.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/efreitasn/brokerage/internal/domain"
)

// Store-level errors. Domain errors (domain.ErrBalanceNotFound,
// domain.ErrOrderNotFound, domain.ErrInvalidState) are returned as-is.
var (
	ErrConflict           = errors.New("store: version conflict")
	ErrBalanceExists      = errors.New("store: balance already exists")
	ErrOrderExists        = errors.New("store: order already exists")
	ErrAlreadySettled     = errors.New("store: order already settled")
	ErrSettlementNotFound = errors.New("store: settlement not found")
)

// Store is a handle to durable storage. A Store passed to the fn of Tx is
// bound to that transaction; calling Tx on it opens a nested transaction
// that can be rolled back independently of its parent.
type Store interface {
	Balances() BalanceStore
	Orders() OrderStore
	Settlements() SettlementStore

	// Tx runs fn in a transaction. If fn returns an error, or panics, every
	// write made through the handle passed to fn is rolled back.
	Tx(ctx context.Context, fn func(tx Store) error) error
}

// BalanceStore persists balance records keyed by (customerID, asset).
// Asset names are normalized with domain.NormalizeAssetName.
type BalanceStore interface {
	// Get returns a copy of the record, or domain.ErrBalanceNotFound.
	Get(ctx context.Context, customerID int64, asset string) (*domain.Balance, error)

	// ListByCustomer returns the customer's records ordered by asset name.
	ListByCustomer(ctx context.Context, customerID int64) ([]*domain.Balance, error)

	// Create inserts b, or returns ErrBalanceExists. On success b.Version is
	// set to the stored version.
	Create(ctx context.Context, b *domain.Balance) error

	// Update writes b only if the stored version still equals b.Version,
	// returning ErrConflict otherwise. On success b.Version is advanced.
	Update(ctx context.Context, b *domain.Balance) error
}

// OrderFilter selects orders for OrderStore.List. Start and End bound
// CreatedAt inclusively; a nil field does not filter.
type OrderFilter struct {
	CustomerID *int64
	Start      *time.Time
	End        *time.Time
}

// OrderStore persists orders keyed by order ID.
type OrderStore interface {
	// Create inserts o, or returns ErrOrderExists.
	Create(ctx context.Context, o *domain.Order) error

	// Get returns a copy of the order, or domain.ErrOrderNotFound.
	Get(ctx context.Context, orderID string) (*domain.Order, error)

	// UpdateStatus moves the order from one status to another. It returns
	// domain.ErrInvalidState if the stored status is not from or the
	// transition is not allowed.
	UpdateStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, at time.Time) error

	// List returns the orders matching f in creation order.
	List(ctx context.Context, f OrderFilter) ([]*domain.Order, error)
}

// SettlementStore is an append-only journal of settlements, at most one
// per order.
type SettlementStore interface {
	// Append records s, or returns ErrAlreadySettled.
	Append(ctx context.Context, s *domain.Settlement) error

	// GetByOrder returns the settlement for an order, or ErrSettlementNotFound.
	GetByOrder(ctx context.Context, orderID string) (*domain.Settlement, error)
}
