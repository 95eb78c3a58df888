package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/efreitasn/brokerage/internal/domain"
	"github.com/efreitasn/brokerage/internal/store"
)

type settlements struct {
	db *gorm.DB
}

func (s settlements) Append(ctx context.Context, st *domain.Settlement) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&settlementRow{}).Where("order_id = ?", st.OrderID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %s", store.ErrAlreadySettled, st.OrderID)
	}
	if err := s.db.WithContext(ctx).Create(toSettlementRow(st)).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%w: %s", store.ErrAlreadySettled, st.OrderID)
		}
		return err
	}
	return nil
}

func (s settlements) GetByOrder(ctx context.Context, orderID string) (*domain.Settlement, error) {
	var row settlementRow
	err := s.db.WithContext(ctx).First(&row, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", store.ErrSettlementNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}
