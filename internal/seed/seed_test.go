package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/brokerage/internal/domain"
	"github.com/efreitasn/brokerage/internal/store"
)

const fixture = `
customers:
  - id: 1
    username: alice
    roles: [USER]
  - id: 99
    username: admin
    roles: [USER, ADMIN]
balances:
  - customer_id: 1
    asset: try
    size: "10000.50"
  - customer_id: 1
    asset: AAPL
    size: "25"
`

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	f, err := Load(writeFixture(t, fixture))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(f.Customers) != 2 || len(f.Balances) != 2 {
		t.Fatalf("got %d customers, %d balances", len(f.Customers), len(f.Balances))
	}
	if f.Customers[1].Username != "admin" || len(f.Customers[1].Roles) != 2 {
		t.Fatalf("customer = %+v", f.Customers[1])
	}
	if f.Balances[0].Size != "10000.50" {
		t.Fatalf("size = %q, want 10000.50", f.Balances[0].Size)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed yaml", "customers: [", "parse seed file"},
		{"zero id", "customers:\n  - id: 0\n    username: x\n    roles: [USER]\n", "id must be positive"},
		{"no username", "customers:\n  - id: 1\n    roles: [USER]\n", "username is required"},
		{"no roles", "customers:\n  - id: 1\n    username: x\n", "at least one role"},
		{"unknown role", "customers:\n  - id: 1\n    username: x\n    roles: [ROOT]\n", "unknown role"},
		{"undeclared customer", "balances:\n  - customer_id: 7\n    asset: TRY\n    size: \"1\"\n", "not declared"},
		{"bad asset", "customers:\n  - id: 1\n    username: x\n    roles: [USER]\nbalances:\n  - customer_id: 1\n    asset: \"\"\n    size: \"1\"\n", "invalid asset"},
		{"bad size", "customers:\n  - id: 1\n    username: x\n    roles: [USER]\nbalances:\n  - customer_id: 1\n    asset: TRY\n    size: lots\n", "invalid size"},
		{"negative size", "customers:\n  - id: 1\n    username: x\n    roles: [USER]\nbalances:\n  - customer_id: 1\n    asset: TRY\n    size: \"-5\"\n", "non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	f, err := Parse([]byte(fixture))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	st := store.NewMemory()
	dir := store.NewCustomerDirectory()

	if err := Apply(ctx, st, dir, f); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	admin, err := dir.GetByUsername("admin")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if !admin.IsAdmin() {
		t.Fatal("admin should hold the ADMIN role")
	}

	cash, err := st.Balances().Get(ctx, 1, domain.CashAsset)
	if err != nil {
		t.Fatalf("Get cash: %v", err)
	}
	want := decimal.RequireFromString("10000.5")
	if !cash.TotalSize.Equal(want) || !cash.UsableSize.Equal(want) {
		t.Fatalf("cash = %s/%s, want %s/%s", cash.TotalSize, cash.UsableSize, want, want)
	}
}

func TestApply_DuplicateBalanceRollsBack(t *testing.T) {
	ctx := context.Background()
	f, err := Parse([]byte(fixture))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	st := store.NewMemory()
	existing := domain.NewBalance(1, "AAPL", decimal.NewFromInt(3), time.Now())
	if err := st.Balances().Create(ctx, existing); err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = Apply(ctx, st, store.NewCustomerDirectory(), f)
	if !errors.Is(err, store.ErrBalanceExists) {
		t.Fatalf("err = %v, want ErrBalanceExists", err)
	}
	if _, err := st.Balances().Get(ctx, 1, domain.CashAsset); !errors.Is(err, domain.ErrBalanceNotFound) {
		t.Fatalf("cash balance should be rolled back, got err = %v", err)
	}
}

func TestApply_DuplicateCustomer(t *testing.T) {
	f, err := Parse([]byte(fixture))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	dir := store.NewCustomerDirectory()
	if err := dir.Register(&domain.Customer{CustomerID: 1, Username: "alice", Roles: []domain.Role{domain.RoleUser}}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	err = Apply(context.Background(), store.NewMemory(), dir, f)
	if !errors.Is(err, domain.ErrCustomerExists) {
		t.Fatalf("err = %v, want ErrCustomerExists", err)
	}
}
