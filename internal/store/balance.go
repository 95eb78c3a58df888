package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/efreitasn/brokerage/internal/domain"
)

type memBalances struct {
	s *memSession
}

func (b memBalances) Get(ctx context.Context, customerID int64, asset string) (*domain.Balance, error) {
	m := b.s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	bal, ok := m.balances[balanceKey{customerID, domain.NormalizeAssetName(asset)}]
	if !ok {
		return nil, fmt.Errorf("%w: customer %d asset %s", domain.ErrBalanceNotFound, customerID, domain.NormalizeAssetName(asset))
	}
	return bal.Clone(), nil
}

func (b memBalances) ListByCustomer(ctx context.Context, customerID int64) ([]*domain.Balance, error) {
	m := b.s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*domain.Balance, 0)
	for k, bal := range m.balances {
		if k.customerID == customerID {
			result = append(result, bal.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].AssetName < result[j].AssetName
	})
	return result, nil
}

func (b memBalances) Create(ctx context.Context, bal *domain.Balance) error {
	bal.AssetName = domain.NormalizeAssetName(bal.AssetName)
	if err := bal.CheckInvariant(); err != nil {
		return err
	}
	k := balanceKey{bal.CustomerID, bal.AssetName}

	m := b.s.m
	return b.s.write(func() error {
		if _, exists := m.balances[k]; exists {
			return fmt.Errorf("%w: customer %d asset %s", ErrBalanceExists, k.customerID, k.asset)
		}
		stored := bal.Clone()
		stored.Version = 1
		m.balances[k] = stored
		bal.Version = stored.Version

		b.s.onRollback(func() { delete(m.balances, k) })
		return nil
	})
}

func (b memBalances) Update(ctx context.Context, bal *domain.Balance) error {
	bal.AssetName = domain.NormalizeAssetName(bal.AssetName)
	if err := bal.CheckInvariant(); err != nil {
		return err
	}
	k := balanceKey{bal.CustomerID, bal.AssetName}

	m := b.s.m
	return b.s.write(func() error {
		cur, ok := m.balances[k]
		if !ok {
			return fmt.Errorf("%w: customer %d asset %s", domain.ErrBalanceNotFound, k.customerID, k.asset)
		}
		if cur.Version != bal.Version {
			return ErrConflict
		}
		next := bal.Clone()
		next.Version = cur.Version + 1
		m.balances[k] = next
		bal.Version = next.Version

		b.s.onRollback(func() { m.balances[k] = cur })
		return nil
	})
}
