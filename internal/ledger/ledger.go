// Package ledger is the only writer of balance records. Every operation
// is one read and one version-checked write of a single (customer, asset)
// record, run against whatever store.Store handle the caller passes in, so
// it joins the caller's transaction.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/brokerage/internal/domain"
	"github.com/efreitasn/brokerage/internal/store"
)

// maxRetries bounds the read-modify-write attempts on a version conflict.
const maxRetries = 5

// Ledger applies reservation and settlement changes to balances.
type Ledger struct {
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Ledger that logs mutations to logger.
func New(logger *slog.Logger) *Ledger {
	return &Ledger{logger: logger, now: time.Now}
}

// Balance returns the record for (customerID, asset).
func (l *Ledger) Balance(ctx context.Context, st store.Store, customerID int64, asset string) (*domain.Balance, error) {
	return st.Balances().Get(ctx, customerID, asset)
}

// HasSufficient reports whether the usable size covers amount.
func (l *Ledger) HasSufficient(ctx context.Context, st store.Store, customerID int64, asset string, amount decimal.Decimal) (bool, error) {
	b, err := st.Balances().Get(ctx, customerID, asset)
	if err != nil {
		return false, err
	}
	return b.HasUsable(amount), nil
}

// Reserve moves amount from usable to reserved.
func (l *Ledger) Reserve(ctx context.Context, st store.Store, customerID int64, asset string, amount decimal.Decimal) error {
	return l.mutate(ctx, st, "reserve", customerID, asset, amount, (*domain.Balance).Reserve)
}

// Release moves amount from reserved back to usable.
func (l *Ledger) Release(ctx context.Context, st store.Store, customerID int64, asset string, amount decimal.Decimal) error {
	return l.mutate(ctx, st, "release", customerID, asset, amount, (*domain.Balance).Release)
}

// Consume spends amount of reserved quantity.
func (l *Ledger) Consume(ctx context.Context, st store.Store, customerID int64, asset string, amount decimal.Decimal) error {
	return l.mutate(ctx, st, "consume", customerID, asset, amount, (*domain.Balance).Consume)
}

// Credit adds amount to both total and usable size.
func (l *Ledger) Credit(ctx context.Context, st store.Store, customerID int64, asset string, amount decimal.Decimal) error {
	return l.mutate(ctx, st, "credit", customerID, asset, amount, (*domain.Balance).Credit)
}

// Debit removes amount of usable quantity.
func (l *Ledger) Debit(ctx context.Context, st store.Store, customerID int64, asset string, amount decimal.Decimal) error {
	return l.mutate(ctx, st, "debit", customerID, asset, amount, (*domain.Balance).Debit)
}

// Deposit credits amount, opening the record first if the customer has
// never held the asset.
func (l *Ledger) Deposit(ctx context.Context, st store.Store, customerID int64, asset string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: deposit amount must be positive, got %s", domain.ErrInvalidAmount, amount)
	}

	_, err := st.Balances().Get(ctx, customerID, asset)
	if errors.Is(err, domain.ErrBalanceNotFound) {
		err = st.Balances().Create(ctx, domain.NewBalance(customerID, asset, amount, l.now()))
		if err == nil {
			l.logger.Debug("balance opened",
				"customer_id", customerID,
				"asset", domain.NormalizeAssetName(asset),
				"amount", amount.String(),
			)
			return nil
		}
		if !errors.Is(err, store.ErrBalanceExists) {
			return err
		}
	} else if err != nil {
		return err
	}
	return l.Credit(ctx, st, customerID, asset, amount)
}

// Settle transfers ownership for a matched order whose reservation was
// taken at creation. A buy spends the reserved cash and receives the
// units; a sell spends the reserved units and receives the proceeds.
func (l *Ledger) Settle(ctx context.Context, st store.Store, o *domain.Order) error {
	reservedAsset, reserved := o.Reservation()
	if err := l.Consume(ctx, st, o.CustomerID, reservedAsset, reserved); err != nil {
		return err
	}
	if o.Side == domain.OrderSideBuy {
		return l.Deposit(ctx, st, o.CustomerID, o.AssetName, o.Size)
	}
	return l.Deposit(ctx, st, o.CustomerID, domain.CashAsset, o.Notional())
}

func (l *Ledger) mutate(
	ctx context.Context,
	st store.Store,
	op string,
	customerID int64,
	asset string,
	amount decimal.Decimal,
	apply func(*domain.Balance, decimal.Decimal) error,
) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s amount must be positive, got %s", domain.ErrInvalidAmount, op, amount)
	}

	for attempt := 1; ; attempt++ {
		b, err := st.Balances().Get(ctx, customerID, asset)
		if err != nil {
			return err
		}
		if err := apply(b, amount); err != nil {
			return err
		}
		b.UpdatedAt = l.now()

		err = st.Balances().Update(ctx, b)
		if err == nil {
			l.logger.Debug("balance "+op,
				"customer_id", customerID,
				"asset", b.AssetName,
				"amount", amount.String(),
				"total", b.TotalSize.String(),
				"usable", b.UsableSize.String(),
			)
			return nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return err
		}
		if attempt == maxRetries {
			return fmt.Errorf("%s %s for customer %d: %w", op, b.AssetName, customerID, err)
		}
	}
}
