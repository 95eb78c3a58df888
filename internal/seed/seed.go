// Package seed loads customer and balance fixtures from a YAML file.
package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/efreitasn/brokerage/internal/domain"
	"github.com/efreitasn/brokerage/internal/store"
)

// File is the parsed seed document.
type File struct {
	Customers []Customer `yaml:"customers"`
	Balances  []Balance  `yaml:"balances"`
}

type Customer struct {
	ID       int64    `yaml:"id"`
	Username string   `yaml:"username"`
	Roles    []string `yaml:"roles"`
}

// Balance seeds an unreserved position. Size is a decimal string so YAML
// floats never round it.
type Balance struct {
	CustomerID int64  `yaml:"customer_id"`
	Asset      string `yaml:"asset"`
	Size       string `yaml:"size"`
}

// Load reads and validates the seed file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a seed document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	ids := make(map[int64]bool, len(f.Customers))
	for i, c := range f.Customers {
		if c.ID <= 0 {
			return fmt.Errorf("customers[%d]: id must be positive", i)
		}
		if c.Username == "" {
			return fmt.Errorf("customers[%d]: username is required", i)
		}
		if len(c.Roles) == 0 {
			return fmt.Errorf("customers[%d]: at least one role is required", i)
		}
		for _, r := range c.Roles {
			switch domain.Role(r) {
			case domain.RoleUser, domain.RoleAdmin:
			default:
				return fmt.Errorf("customers[%d]: unknown role %q", i, r)
			}
		}
		ids[c.ID] = true
	}
	for i, b := range f.Balances {
		if !ids[b.CustomerID] {
			return fmt.Errorf("balances[%d]: customer %d is not declared", i, b.CustomerID)
		}
		if !domain.ValidAssetName(b.Asset) {
			return fmt.Errorf("balances[%d]: invalid asset name %q", i, b.Asset)
		}
		size, err := decimal.NewFromString(b.Size)
		if err != nil {
			return fmt.Errorf("balances[%d]: invalid size %q: %w", i, b.Size, err)
		}
		if size.IsNegative() || !domain.WithinScale(size) {
			return fmt.Errorf("balances[%d]: size %s must be non-negative with at most %d decimals", i, b.Size, domain.MaxScale)
		}
	}
	return nil
}

// Apply registers f's customers in dir and creates its balances in st.
// Balances are created in one transaction; an existing record fails the
// whole batch with store.ErrBalanceExists.
func Apply(ctx context.Context, st store.Store, dir *store.CustomerDirectory, f *File) error {
	for _, c := range f.Customers {
		roles := make([]domain.Role, len(c.Roles))
		for i, r := range c.Roles {
			roles[i] = domain.Role(r)
		}
		if err := dir.Register(&domain.Customer{CustomerID: c.ID, Username: c.Username, Roles: roles}); err != nil {
			return fmt.Errorf("seed customer %d: %w", c.ID, err)
		}
	}

	now := time.Now().UTC()
	return st.Tx(ctx, func(tx store.Store) error {
		for _, b := range f.Balances {
			size, _ := decimal.NewFromString(b.Size)
			bal := domain.NewBalance(b.CustomerID, b.Asset, size, now)
			if err := tx.Balances().Create(ctx, bal); err != nil {
				return fmt.Errorf("seed balance %d/%s: %w", b.CustomerID, bal.AssetName, err)
			}
		}
		return nil
	})
}
