package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/efreitasn/brokerage/internal/domain"
	"github.com/efreitasn/brokerage/internal/store"
)

type orders struct {
	db *gorm.DB
}

func (o orders) Create(ctx context.Context, order *domain.Order) error {
	var n int64
	if err := o.db.WithContext(ctx).Model(&orderRow{}).Where("order_id = ?", order.OrderID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %s", store.ErrOrderExists, order.OrderID)
	}
	if err := o.db.WithContext(ctx).Create(toOrderRow(order)).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%w: %s", store.ErrOrderExists, order.OrderID)
		}
		return err
	}
	return nil
}

func (o orders) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	var row orderRow
	err := o.db.WithContext(ctx).First(&row, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (o orders) UpdateStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, at time.Time) error {
	if !domain.CanTransition(from, to) {
		return fmt.Errorf("%w: cannot move order %s from %s to %s", domain.ErrInvalidState, orderID, from, to)
	}
	res := o.db.WithContext(ctx).
		Model(&orderRow{}).
		Where("order_id = ? AND status = ?", orderID, string(from)).
		Updates(map[string]any{
			"status":        string(to),
			"updated_at_ns": at.UnixNano(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		cur, err := o.Get(ctx, orderID)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: order %s is %s, cannot move to %s", domain.ErrInvalidState, orderID, cur.Status, to)
	}
	return nil
}

func (o orders) List(ctx context.Context, f store.OrderFilter) ([]*domain.Order, error) {
	q := o.db.WithContext(ctx).Model(&orderRow{})
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.Start != nil {
		q = q.Where("created_at_ns >= ?", f.Start.UnixNano())
	}
	if f.End != nil {
		q = q.Where("created_at_ns <= ?", f.End.UnixNano())
	}

	var rows []orderRow
	if err := q.Order("created_at_ns, order_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]*domain.Order, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].toDomain())
	}
	return result, nil
}
