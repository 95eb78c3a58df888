package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/efreitasn/brokerage/internal/domain"
	"github.com/efreitasn/brokerage/internal/store"
)

type balances struct {
	db *gorm.DB
}

func (b balances) Get(ctx context.Context, customerID int64, asset string) (*domain.Balance, error) {
	asset = domain.NormalizeAssetName(asset)
	var row balanceRow
	err := b.db.WithContext(ctx).First(&row, "customer_id = ? AND asset_name = ?", customerID, asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: customer %d asset %s", domain.ErrBalanceNotFound, customerID, asset)
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (b balances) ListByCustomer(ctx context.Context, customerID int64) ([]*domain.Balance, error) {
	var rows []balanceRow
	err := b.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("asset_name").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]*domain.Balance, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].toDomain())
	}
	return result, nil
}

func (b balances) Create(ctx context.Context, bal *domain.Balance) error {
	bal.AssetName = domain.NormalizeAssetName(bal.AssetName)
	if err := bal.CheckInvariant(); err != nil {
		return err
	}

	exists, err := b.exists(ctx, bal.CustomerID, bal.AssetName)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: customer %d asset %s", store.ErrBalanceExists, bal.CustomerID, bal.AssetName)
	}

	row := toBalanceRow(bal)
	row.Version = 1
	if err := b.db.WithContext(ctx).Create(row).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%w: customer %d asset %s", store.ErrBalanceExists, bal.CustomerID, bal.AssetName)
		}
		return err
	}
	bal.Version = row.Version
	return nil
}

func (b balances) Update(ctx context.Context, bal *domain.Balance) error {
	bal.AssetName = domain.NormalizeAssetName(bal.AssetName)
	if err := bal.CheckInvariant(); err != nil {
		return err
	}

	res := b.db.WithContext(ctx).
		Model(&balanceRow{}).
		Where("customer_id = ? AND asset_name = ? AND version = ?", bal.CustomerID, bal.AssetName, bal.Version).
		Updates(map[string]any{
			"total_size":    bal.TotalSize,
			"usable_size":   bal.UsableSize,
			"version":       bal.Version + 1,
			"updated_at_ns": bal.UpdatedAt.UnixNano(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		exists, err := b.exists(ctx, bal.CustomerID, bal.AssetName)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: customer %d asset %s", domain.ErrBalanceNotFound, bal.CustomerID, bal.AssetName)
		}
		return store.ErrConflict
	}
	bal.Version++
	return nil
}

func (b balances) exists(ctx context.Context, customerID int64, asset string) (bool, error) {
	var n int64
	err := b.db.WithContext(ctx).
		Model(&balanceRow{}).
		Where("customer_id = ? AND asset_name = ?", customerID, asset).
		Count(&n).Error
	return n > 0, err
}
