package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Message: "size must be greater than 0"}
	if err.Error() != "size must be greater than 0" {
		t.Errorf("Error() = %q, want %q", err.Error(), "size must be greater than 0")
	}
}

func TestValidationError_IsInvalidOrder(t *testing.T) {
	var err error = &ValidationError{Message: "price must be greater than 0"}
	if !errors.Is(err, ErrInvalidOrder) {
		t.Error("ValidationError should match ErrInvalidOrder")
	}
	wrapped := fmt.Errorf("create order: %w", err)
	if !errors.Is(wrapped, ErrInvalidOrder) {
		t.Error("wrapped ValidationError should match ErrInvalidOrder")
	}
	if errors.Is(err, ErrInvalidState) {
		t.Error("ValidationError should not match ErrInvalidState")
	}

	var ve *ValidationError
	if !errors.As(wrapped, &ve) || ve.Message != "price must be greater than 0" {
		t.Errorf("errors.As did not recover the ValidationError: %v", ve)
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	errs := []error{
		ErrInvalidOrder,
		ErrInvalidAmount,
		ErrInsufficientBalance,
		ErrBalanceNotFound,
		ErrOrderNotFound,
		ErrForbidden,
		ErrInvalidState,
		ErrLedgerInvariant,
		ErrCustomerNotFound,
		ErrCustomerExists,
		ErrUnauthorized,
	}
	for i := 0; i < len(errs); i++ {
		for j := i + 1; j < len(errs); j++ {
			if errors.Is(errs[i], errs[j]) {
				t.Errorf("sentinel errors %d and %d should be distinct", i, j)
			}
		}
	}
}
