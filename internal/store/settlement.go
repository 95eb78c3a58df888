package store

import (
	"context"
	"fmt"

	"github.com/efreitasn/brokerage/internal/domain"
)

type memSettlements struct {
	s *memSession
}

func (st memSettlements) Append(ctx context.Context, s *domain.Settlement) error {
	m := st.s.m
	return st.s.write(func() error {
		if _, exists := m.settlements[s.OrderID]; exists {
			return fmt.Errorf("%w: %s", ErrAlreadySettled, s.OrderID)
		}
		stored := *s
		m.settlements[s.OrderID] = &stored

		st.s.onRollback(func() { delete(m.settlements, s.OrderID) })
		return nil
	})
}

func (st memSettlements) GetByOrder(ctx context.Context, orderID string) (*domain.Settlement, error) {
	m := st.s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.settlements[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSettlementNotFound, orderID)
	}
	c := *s
	return &c, nil
}
