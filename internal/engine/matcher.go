// Package engine settles batches of pending orders against the balances
// reserved for them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/efreitasn/brokerage/internal/domain"
	"github.com/efreitasn/brokerage/internal/ledger"
	"github.com/efreitasn/brokerage/internal/store"
)

// Outcome classifies what happened to one order of a batch.
type Outcome string

const (
	OutcomeMatched             Outcome = "matched"
	OutcomeNotFound            Outcome = "not_found"
	OutcomeNotPending          Outcome = "not_pending"
	OutcomeInsufficientBalance Outcome = "insufficient_balance"
	OutcomeFailed              Outcome = "failed"
)

// MatchResult is the per-order entry of a MatchReport. Err is set for
// every outcome except OutcomeMatched.
type MatchResult struct {
	OrderID string
	Outcome Outcome
	Err     error
}

// MatchReport lists one result per requested id, in request order.
type MatchReport struct {
	Results []MatchResult
}

// MatchedIDs returns the ids that were settled.
func (r *MatchReport) MatchedIDs() []string {
	ids := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Outcome == OutcomeMatched {
			ids = append(ids, res.OrderID)
		}
	}
	return ids
}

// UnmatchedIDs returns the ids that were not settled, for any reason.
func (r *MatchReport) UnmatchedIDs() []string {
	ids := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Outcome != OutcomeMatched {
			ids = append(ids, res.OrderID)
		}
	}
	return ids
}

// Matcher settles pending orders. Orders are not matched against each
// other: an order settles against the customer's own reserved balance at
// its limit price.
type Matcher struct {
	store  store.Store
	ledger *ledger.Ledger
	logger *slog.Logger
	now    func() time.Time
}

// NewMatcher creates a new Matcher with the given dependencies.
func NewMatcher(st store.Store, l *ledger.Ledger, logger *slog.Logger) *Matcher {
	return &Matcher{
		store:  st,
		ledger: l,
		logger: logger,
		now:    time.Now,
	}
}

// MatchOrders tries to settle each order in ids, in order. A problem with
// one order never fails the batch; it is reported in that order's result.
// Each order settles in its own savepoint, so an order that fails midway
// leaves no balance changes behind.
//
// The returned error is non-nil only when the batch transaction itself
// could not be opened or committed, in which case nothing was settled.
func (m *Matcher) MatchOrders(ctx context.Context, ids []string) (*MatchReport, error) {
	report := &MatchReport{Results: make([]MatchResult, 0, len(ids))}

	err := m.store.Tx(ctx, func(tx store.Store) error {
		report.Results = report.Results[:0]
		for _, id := range ids {
			report.Results = append(report.Results, m.matchOne(ctx, tx, id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("match batch: %w", err)
	}

	matched := report.MatchedIDs()
	m.logger.Info("match batch settled",
		"requested", len(ids),
		"matched", len(matched),
		"unmatched", len(ids)-len(matched),
	)
	return report, nil
}

func (m *Matcher) matchOne(ctx context.Context, tx store.Store, orderID string) MatchResult {
	err := tx.Tx(ctx, func(sp store.Store) error {
		return m.settle(ctx, sp, orderID)
	})

	res := MatchResult{OrderID: orderID, Outcome: outcomeOf(err), Err: err}
	switch res.Outcome {
	case OutcomeMatched:
		m.logger.Debug("order matched", "order_id", orderID)
	case OutcomeFailed:
		m.logger.Error("order settlement failed", "order_id", orderID, "error", err)
	default:
		m.logger.Debug("order not matched", "order_id", orderID, "outcome", string(res.Outcome), "reason", err)
	}
	return res
}

func (m *Matcher) settle(ctx context.Context, st store.Store, orderID string) error {
	o, err := st.Orders().Get(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status != domain.OrderStatusPending {
		return fmt.Errorf("%w: order %s is %s", domain.ErrInvalidState, orderID, o.Status)
	}

	// The reservation taken at creation is checked again here: a buy needs
	// the notional still available as usable cash, a sell the units.
	asset, amount := o.Reservation()
	ok, err := m.ledger.HasSufficient(ctx, st, o.CustomerID, asset, amount)
	if err != nil && !errors.Is(err, domain.ErrBalanceNotFound) {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: customer %d needs %s %s", domain.ErrInsufficientBalance, o.CustomerID, amount, asset)
	}

	now := m.now()
	if err := st.Orders().UpdateStatus(ctx, orderID, domain.OrderStatusPending, domain.OrderStatusMatched, now); err != nil {
		return err
	}
	if err := m.ledger.Settle(ctx, st, o); err != nil {
		return fmt.Errorf("settle order %s: %w", orderID, err)
	}
	return st.Settlements().Append(ctx, &domain.Settlement{
		SettlementID: uuid.New().String(),
		OrderID:      o.OrderID,
		CustomerID:   o.CustomerID,
		AssetName:    o.AssetName,
		Side:         o.Side,
		Size:         o.Size,
		Price:        o.Price,
		Notional:     o.Notional(),
		SettledAt:    now,
	})
}

func outcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeMatched
	case errors.Is(err, domain.ErrOrderNotFound):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrInvalidState):
		return OutcomeNotPending
	case errors.Is(err, domain.ErrInsufficientBalance):
		return OutcomeInsufficientBalance
	default:
		return OutcomeFailed
	}
}
