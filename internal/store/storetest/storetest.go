// Package storetest is a conformance suite run against every store.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/brokerage/internal/domain"
	"github.com/efreitasn/brokerage/internal/store"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Run runs the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("BalanceCreateAndGet", func(t *testing.T) { testBalanceCreateAndGet(t, newStore(t)) })
	t.Run("BalanceListByCustomer", func(t *testing.T) { testBalanceListByCustomer(t, newStore(t)) })
	t.Run("BalanceUpdateVersion", func(t *testing.T) { testBalanceUpdateVersion(t, newStore(t)) })
	t.Run("BalanceRejectsInvariantViolation", func(t *testing.T) { testBalanceRejectsInvariantViolation(t, newStore(t)) })
	t.Run("OrderCreateAndGet", func(t *testing.T) { testOrderCreateAndGet(t, newStore(t)) })
	t.Run("OrderUpdateStatus", func(t *testing.T) { testOrderUpdateStatus(t, newStore(t)) })
	t.Run("OrderList", func(t *testing.T) { testOrderList(t, newStore(t)) })
	t.Run("Settlements", func(t *testing.T) { testSettlements(t, newStore(t)) })
	t.Run("TxCommit", func(t *testing.T) { testTxCommit(t, newStore(t)) })
	t.Run("TxRollback", func(t *testing.T) { testTxRollback(t, newStore(t)) })
	t.Run("NestedTxRollback", func(t *testing.T) { testNestedTxRollback(t, newStore(t)) })
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Order returns a pending order created at the given time.
func Order(id string, customerID int64, createdAt time.Time) *domain.Order {
	return &domain.Order{
		OrderID:    id,
		CustomerID: customerID,
		AssetName:  "AAPL",
		Side:       domain.OrderSideBuy,
		Size:       dec("10"),
		Price:      dec("150"),
		Status:     domain.OrderStatusPending,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

func testBalanceCreateAndGet(t *testing.T, st store.Store) {
	ctx := context.Background()
	b := domain.NewBalance(1, "try", dec("2000"), time.Now())
	if err := st.Balances().Create(ctx, b); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.Version == 0 {
		t.Error("Create did not set Version")
	}

	// Lookup is case-insensitive.
	got, err := st.Balances().Get(ctx, 1, "Try")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AssetName != domain.CashAsset {
		t.Errorf("AssetName = %q, want %q", got.AssetName, domain.CashAsset)
	}
	if !got.TotalSize.Equal(dec("2000")) || !got.UsableSize.Equal(dec("2000")) {
		t.Errorf("sizes = %s/%s, want 2000/2000", got.TotalSize, got.UsableSize)
	}

	if err := st.Balances().Create(ctx, domain.NewBalance(1, "TRY", dec("1"), time.Now())); !errors.Is(err, store.ErrBalanceExists) {
		t.Fatalf("duplicate Create = %v, want ErrBalanceExists", err)
	}
	if _, err := st.Balances().Get(ctx, 1, "AAPL"); !errors.Is(err, domain.ErrBalanceNotFound) {
		t.Fatalf("Get missing = %v, want ErrBalanceNotFound", err)
	}
	if _, err := st.Balances().Get(ctx, 2, "TRY"); !errors.Is(err, domain.ErrBalanceNotFound) {
		t.Fatalf("Get other customer = %v, want ErrBalanceNotFound", err)
	}
}

func testBalanceListByCustomer(t *testing.T, st store.Store) {
	ctx := context.Background()
	for _, b := range []*domain.Balance{
		domain.NewBalance(1, "TRY", dec("100"), time.Now()),
		domain.NewBalance(1, "AAPL", dec("5"), time.Now()),
		domain.NewBalance(2, "TRY", dec("7"), time.Now()),
	} {
		if err := st.Balances().Create(ctx, b); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	list, err := st.Balances().ListByCustomer(ctx, 1)
	if err != nil {
		t.Fatalf("ListByCustomer: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 balances, got %d", len(list))
	}
	if list[0].AssetName != "AAPL" || list[1].AssetName != "TRY" {
		t.Errorf("balances not ordered by asset: %s, %s", list[0].AssetName, list[1].AssetName)
	}

	list, err = st.Balances().ListByCustomer(ctx, 3)
	if err != nil {
		t.Fatalf("ListByCustomer: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected no balances for unknown customer, got %d", len(list))
	}
}

func testBalanceUpdateVersion(t *testing.T, st store.Store) {
	ctx := context.Background()
	if err := st.Balances().Create(ctx, domain.NewBalance(1, "TRY", dec("100"), time.Now())); err != nil {
		t.Fatalf("Create: %v", err)
	}

	first, _ := st.Balances().Get(ctx, 1, "TRY")
	stale, _ := st.Balances().Get(ctx, 1, "TRY")

	first.UsableSize = dec("60")
	if err := st.Balances().Update(ctx, first); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if first.Version != stale.Version+1 {
		t.Errorf("Version = %d, want %d", first.Version, stale.Version+1)
	}

	// A write based on the older snapshot must not overwrite the newer one.
	stale.UsableSize = dec("90")
	if err := st.Balances().Update(ctx, stale); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("stale Update = %v, want ErrConflict", err)
	}

	got, _ := st.Balances().Get(ctx, 1, "TRY")
	if !got.UsableSize.Equal(dec("60")) {
		t.Errorf("UsableSize = %s, want 60", got.UsableSize)
	}

	missing := domain.NewBalance(9, "TRY", dec("1"), time.Now())
	if err := st.Balances().Update(ctx, missing); !errors.Is(err, domain.ErrBalanceNotFound) {
		t.Fatalf("Update missing = %v, want ErrBalanceNotFound", err)
	}
}

func testBalanceRejectsInvariantViolation(t *testing.T, st store.Store) {
	ctx := context.Background()
	if err := st.Balances().Create(ctx, domain.NewBalance(1, "TRY", dec("100"), time.Now())); err != nil {
		t.Fatalf("Create: %v", err)
	}
	b, _ := st.Balances().Get(ctx, 1, "TRY")
	b.UsableSize = dec("-1")
	if err := st.Balances().Update(ctx, b); !errors.Is(err, domain.ErrLedgerInvariant) {
		t.Fatalf("negative Update = %v, want ErrLedgerInvariant", err)
	}
	b.UsableSize = dec("101")
	if err := st.Balances().Update(ctx, b); !errors.Is(err, domain.ErrLedgerInvariant) {
		t.Fatalf("usable above total Update = %v, want ErrLedgerInvariant", err)
	}
}

func testOrderCreateAndGet(t *testing.T, st store.Store) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	o := Order("order-1", 1, now)
	if err := st.Orders().Create(ctx, o); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := st.Orders().Get(ctx, "order-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CustomerID != 1 || got.AssetName != "AAPL" || got.Side != domain.OrderSideBuy {
		t.Errorf("unexpected order: %+v", got)
	}
	if !got.Size.Equal(dec("10")) || !got.Price.Equal(dec("150")) {
		t.Errorf("size/price = %s/%s, want 10/150", got.Size, got.Price)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, now)
	}
	if got.Status != domain.OrderStatusPending {
		t.Errorf("Status = %s, want PENDING", got.Status)
	}

	if err := st.Orders().Create(ctx, Order("order-1", 1, now)); !errors.Is(err, store.ErrOrderExists) {
		t.Fatalf("duplicate Create = %v, want ErrOrderExists", err)
	}
	if _, err := st.Orders().Get(ctx, "no-such-order"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("Get missing = %v, want ErrOrderNotFound", err)
	}
}

func testOrderUpdateStatus(t *testing.T, st store.Store) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	_ = st.Orders().Create(ctx, Order("order-1", 1, now))

	later := now.Add(time.Minute)
	if err := st.Orders().UpdateStatus(ctx, "order-1", domain.OrderStatusPending, domain.OrderStatusMatched, later); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	got, _ := st.Orders().Get(ctx, "order-1")
	if got.Status != domain.OrderStatusMatched {
		t.Errorf("Status = %s, want MATCHED", got.Status)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, later)
	}

	// Terminal states are final.
	err := st.Orders().UpdateStatus(ctx, "order-1", domain.OrderStatusPending, domain.OrderStatusCanceled, later)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("UpdateStatus from stale status = %v, want ErrInvalidState", err)
	}
	err = st.Orders().UpdateStatus(ctx, "order-1", domain.OrderStatusMatched, domain.OrderStatusCanceled, later)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("UpdateStatus MATCHED→CANCELED = %v, want ErrInvalidState", err)
	}
	err = st.Orders().UpdateStatus(ctx, "no-such-order", domain.OrderStatusPending, domain.OrderStatusCanceled, later)
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("UpdateStatus missing = %v, want ErrOrderNotFound", err)
	}
}

func testOrderList(t *testing.T, st store.Store) {
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	// order-i is created at base + i hours; even orders belong to customer 1.
	for i := 0; i < 6; i++ {
		customer := int64(1)
		if i%2 == 1 {
			customer = 2
		}
		o := Order(fmt.Sprintf("order-%d", i), customer, base.Add(time.Duration(i)*time.Hour))
		if err := st.Orders().Create(ctx, o); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	customer := int64(1)
	start := base.Add(1 * time.Hour)
	end := base.Add(4 * time.Hour)

	tests := []struct {
		name   string
		filter store.OrderFilter
		want   []string
	}{
		{"unfiltered", store.OrderFilter{}, []string{"order-0", "order-1", "order-2", "order-3", "order-4", "order-5"}},
		{"customer only", store.OrderFilter{CustomerID: &customer}, []string{"order-0", "order-2", "order-4"}},
		{"range only, inclusive bounds", store.OrderFilter{Start: &start, End: &end}, []string{"order-1", "order-2", "order-3", "order-4"}},
		{"customer and range", store.OrderFilter{CustomerID: &customer, Start: &start, End: &end}, []string{"order-2", "order-4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := st.Orders().List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d orders, want %d", len(got), len(tt.want))
			}
			for i, o := range got {
				if o.OrderID != tt.want[i] {
					t.Errorf("order[%d] = %s, want %s", i, o.OrderID, tt.want[i])
				}
			}
		})
	}

	other := int64(99)
	got, err := st.Orders().List(ctx, store.OrderFilter{CustomerID: &other})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no orders for unknown customer, got %d", len(got))
	}
}

func testSettlements(t *testing.T, st store.Store) {
	ctx := context.Background()
	s := &domain.Settlement{
		SettlementID: "s-1",
		OrderID:      "order-1",
		CustomerID:   1,
		AssetName:    "AAPL",
		Side:         domain.OrderSideBuy,
		Size:         dec("10"),
		Price:        dec("150"),
		Notional:     dec("1500"),
		SettledAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := st.Settlements().Append(ctx, s); err != nil {
		t.Fatalf("Append: %v", err)
	}
	dup := *s
	dup.SettlementID = "s-2"
	if err := st.Settlements().Append(ctx, &dup); !errors.Is(err, store.ErrAlreadySettled) {
		t.Fatalf("second Append = %v, want ErrAlreadySettled", err)
	}

	got, err := st.Settlements().GetByOrder(ctx, "order-1")
	if err != nil {
		t.Fatalf("GetByOrder: %v", err)
	}
	if got.SettlementID != "s-1" || !got.Notional.Equal(dec("1500")) {
		t.Errorf("unexpected settlement: %+v", got)
	}
	if _, err := st.Settlements().GetByOrder(ctx, "order-2"); !errors.Is(err, store.ErrSettlementNotFound) {
		t.Fatalf("GetByOrder missing = %v, want ErrSettlementNotFound", err)
	}
}

func testTxCommit(t *testing.T, st store.Store) {
	ctx := context.Background()
	err := st.Tx(ctx, func(tx store.Store) error {
		if err := tx.Balances().Create(ctx, domain.NewBalance(1, "TRY", dec("100"), time.Now())); err != nil {
			return err
		}
		return tx.Orders().Create(ctx, Order("order-1", 1, time.Now()))
	})
	if err != nil {
		t.Fatalf("Tx: %v", err)
	}
	if _, err := st.Balances().Get(ctx, 1, "TRY"); err != nil {
		t.Errorf("committed balance missing: %v", err)
	}
	if _, err := st.Orders().Get(ctx, "order-1"); err != nil {
		t.Errorf("committed order missing: %v", err)
	}
}

func testTxRollback(t *testing.T, st store.Store) {
	ctx := context.Background()
	if err := st.Balances().Create(ctx, domain.NewBalance(1, "TRY", dec("100"), time.Now())); err != nil {
		t.Fatalf("Create: %v", err)
	}

	boom := errors.New("boom")
	err := st.Tx(ctx, func(tx store.Store) error {
		b, err := tx.Balances().Get(ctx, 1, "TRY")
		if err != nil {
			return err
		}
		b.UsableSize = dec("10")
		if err := tx.Balances().Update(ctx, b); err != nil {
			return err
		}
		if err := tx.Orders().Create(ctx, Order("order-1", 1, time.Now())); err != nil {
			return err
		}
		if err := tx.Settlements().Append(ctx, &domain.Settlement{SettlementID: "s-1", OrderID: "order-1"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Tx = %v, want boom", err)
	}

	b, _ := st.Balances().Get(ctx, 1, "TRY")
	if !b.UsableSize.Equal(dec("100")) {
		t.Errorf("UsableSize = %s after rollback, want 100", b.UsableSize)
	}
	if _, err := st.Orders().Get(ctx, "order-1"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("order survived rollback: %v", err)
	}
	orders, _ := st.Orders().List(ctx, store.OrderFilter{})
	if len(orders) != 0 {
		t.Errorf("List returned %d orders after rollback", len(orders))
	}
	if _, err := st.Settlements().GetByOrder(ctx, "order-1"); !errors.Is(err, store.ErrSettlementNotFound) {
		t.Errorf("settlement survived rollback: %v", err)
	}

	// The record is writable again with the version it had before the Tx.
	b.UsableSize = dec("50")
	if err := st.Balances().Update(ctx, b); err != nil {
		t.Errorf("Update after rollback: %v", err)
	}
}

func testNestedTxRollback(t *testing.T, st store.Store) {
	ctx := context.Background()
	boom := errors.New("boom")
	err := st.Tx(ctx, func(tx store.Store) error {
		if err := tx.Orders().Create(ctx, Order("outer", 1, time.Now())); err != nil {
			return err
		}
		innerErr := tx.Tx(ctx, func(inner store.Store) error {
			if err := inner.Orders().Create(ctx, Order("inner", 1, time.Now())); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(innerErr, boom) {
			return fmt.Errorf("inner Tx = %v, want boom", innerErr)
		}
		// The outer transaction still sees its own write but not the inner one.
		if _, err := tx.Orders().Get(ctx, "inner"); !errors.Is(err, domain.ErrOrderNotFound) {
			return fmt.Errorf("inner write visible after savepoint rollback: %v", err)
		}
		return tx.Tx(ctx, func(inner store.Store) error {
			return inner.Orders().Create(ctx, Order("inner-2", 1, time.Now()))
		})
	})
	if err != nil {
		t.Fatalf("Tx: %v", err)
	}
	for id, want := range map[string]bool{"outer": true, "inner": false, "inner-2": true} {
		_, err := st.Orders().Get(ctx, id)
		if got := err == nil; got != want {
			t.Errorf("order %s present = %v, want %v (err %v)", id, got, want, err)
		}
	}
}
