package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Balance is a customer's position in a single asset. The cash position
// is the balance whose AssetName is CashAsset.
//
// TotalSize is the quantity owned; UsableSize is the part of it not
// earmarked for pending orders. 0 <= UsableSize <= TotalSize always holds.
type Balance struct {
	CustomerID int64
	AssetName  string
	TotalSize  decimal.Decimal
	UsableSize decimal.Decimal
	Version    int64 // bumped by the store on every successful write
	UpdatedAt  time.Time
}

// NewBalance returns an unreserved balance of size units.
func NewBalance(customerID int64, assetName string, size decimal.Decimal, now time.Time) *Balance {
	return &Balance{
		CustomerID: customerID,
		AssetName:  NormalizeAssetName(assetName),
		TotalSize:  size,
		UsableSize: size,
		UpdatedAt:  now,
	}
}

// Reserved returns the quantity currently earmarked for pending orders.
func (b *Balance) Reserved() decimal.Decimal {
	return b.TotalSize.Sub(b.UsableSize)
}

// HasUsable reports whether at least amount is available to reserve.
func (b *Balance) HasUsable(amount decimal.Decimal) bool {
	return b.UsableSize.GreaterThanOrEqual(amount)
}

// Reserve earmarks amount of the usable quantity.
func (b *Balance) Reserve(amount decimal.Decimal) error {
	if !b.HasUsable(amount) {
		return fmt.Errorf("%w: %s usable %s, need %s",
			ErrInsufficientBalance, b.AssetName, b.UsableSize, amount)
	}
	b.UsableSize = b.UsableSize.Sub(amount)
	return nil
}

// Release returns amount of reserved quantity to the usable pool.
func (b *Balance) Release(amount decimal.Decimal) error {
	if amount.GreaterThan(b.Reserved()) {
		return fmt.Errorf("%w: %s release %s exceeds reserved %s",
			ErrLedgerInvariant, b.AssetName, amount, b.Reserved())
	}
	b.UsableSize = b.UsableSize.Add(amount)
	return nil
}

// Consume removes amount of already-reserved quantity from ownership.
// UsableSize is unchanged.
func (b *Balance) Consume(amount decimal.Decimal) error {
	if amount.GreaterThan(b.Reserved()) {
		return fmt.Errorf("%w: %s consume %s exceeds reserved %s",
			ErrLedgerInvariant, b.AssetName, amount, b.Reserved())
	}
	b.TotalSize = b.TotalSize.Sub(amount)
	return nil
}

// Credit adds amount to both owned and usable quantity.
func (b *Balance) Credit(amount decimal.Decimal) error {
	b.TotalSize = b.TotalSize.Add(amount)
	b.UsableSize = b.UsableSize.Add(amount)
	return nil
}

// Debit removes amount of usable quantity from ownership.
func (b *Balance) Debit(amount decimal.Decimal) error {
	if !b.HasUsable(amount) {
		return fmt.Errorf("%w: %s usable %s, need %s",
			ErrInsufficientBalance, b.AssetName, b.UsableSize, amount)
	}
	b.TotalSize = b.TotalSize.Sub(amount)
	b.UsableSize = b.UsableSize.Sub(amount)
	return nil
}

// CheckInvariant returns ErrLedgerInvariant unless 0 <= UsableSize <= TotalSize.
func (b *Balance) CheckInvariant() error {
	if b.UsableSize.IsNegative() {
		return fmt.Errorf("%w: %s usable %s is negative", ErrLedgerInvariant, b.AssetName, b.UsableSize)
	}
	if b.UsableSize.GreaterThan(b.TotalSize) {
		return fmt.Errorf("%w: %s usable %s exceeds total %s",
			ErrLedgerInvariant, b.AssetName, b.UsableSize, b.TotalSize)
	}
	return nil
}

// Clone returns a copy of b.
func (b *Balance) Clone() *Balance {
	c := *b
	return &c
}
