package store

import (
	"context"
	"fmt"
	"time"

	"github.com/efreitasn/brokerage/internal/domain"
)

type memOrders struct {
	s *memSession
}

func (o memOrders) Create(ctx context.Context, order *domain.Order) error {
	m := o.s.m
	return o.s.write(func() error {
		if _, exists := m.orders[order.OrderID]; exists {
			return fmt.Errorf("%w: %s", ErrOrderExists, order.OrderID)
		}
		stored := order.Clone()
		key := createdKey{stored.CreatedAt, stored.OrderID}

		m.orders[stored.OrderID] = stored
		m.customerOrders[stored.CustomerID] = append(m.customerOrders[stored.CustomerID], stored.OrderID)
		m.sequence = append(m.sequence, stored.OrderID)
		m.created.ReplaceOrInsert(key)

		o.s.onRollback(func() {
			delete(m.orders, stored.OrderID)
			m.customerOrders[stored.CustomerID] = removeID(m.customerOrders[stored.CustomerID], stored.OrderID)
			m.sequence = removeID(m.sequence, stored.OrderID)
			m.created.Delete(key)
		})
		return nil
	})
}

func (o memOrders) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	m := o.s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, ok := m.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
	}
	return order.Clone(), nil
}

func (o memOrders) UpdateStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, at time.Time) error {
	m := o.s.m
	return o.s.write(func() error {
		cur, ok := m.orders[orderID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
		}
		if cur.Status != from || !domain.CanTransition(from, to) {
			return fmt.Errorf("%w: order %s is %s, cannot move to %s", domain.ErrInvalidState, orderID, cur.Status, to)
		}
		next := cur.Clone()
		next.Status = to
		next.UpdatedAt = at
		m.orders[orderID] = next

		o.s.onRollback(func() { m.orders[orderID] = cur })
		return nil
	})
}

// List picks the narrowest index for f: the customer's own list when a
// customer is given, the created-at tree for a pure time range, otherwise
// the global sequence.
func (o memOrders) List(ctx context.Context, f OrderFilter) ([]*domain.Order, error) {
	m := o.s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	inRange := func(t time.Time) bool {
		if f.Start != nil && t.Before(*f.Start) {
			return false
		}
		if f.End != nil && t.After(*f.End) {
			return false
		}
		return true
	}

	result := make([]*domain.Order, 0)
	switch {
	case f.CustomerID != nil:
		for _, id := range m.customerOrders[*f.CustomerID] {
			order := m.orders[id]
			if inRange(order.CreatedAt) {
				result = append(result, order.Clone())
			}
		}
	case f.Start != nil || f.End != nil:
		visit := func(k createdKey) bool {
			if f.End != nil && k.at.After(*f.End) {
				return false
			}
			result = append(result, m.orders[k.orderID].Clone())
			return true
		}
		if f.Start != nil {
			m.created.AscendGreaterOrEqual(createdKey{at: *f.Start}, visit)
		} else {
			m.created.Ascend(visit)
		}
	default:
		for _, id := range m.sequence {
			result = append(result, m.orders[id].Clone())
		}
	}
	return result, nil
}

func removeID(ids []string, id string) []string {
	for i := len(ids) - 1; i >= 0; i-- {
		if ids[i] == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
