package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrInvalidOrder        = errors.New("invalid_order")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInsufficientBalance = errors.New("insufficient_balance")
	ErrBalanceNotFound     = errors.New("balance_not_found")
	ErrOrderNotFound       = errors.New("order_not_found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidState        = errors.New("invalid_state")
	ErrLedgerInvariant     = errors.New("ledger_invariant_violated")
	ErrCustomerNotFound    = errors.New("customer_not_found")
	ErrCustomerExists      = errors.New("customer_already_exists")
	ErrUnauthorized        = errors.New("unauthorized")
)

// ValidationError represents a request validation failure. It matches
// ErrInvalidOrder under errors.Is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is reports whether target is ErrInvalidOrder.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidOrder
}
