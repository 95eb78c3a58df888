package sqlstore

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/brokerage/internal/domain"
)

// Timestamps are stored as unix nanoseconds so range scans compare
// integers instead of driver-specific time encodings. Decimals are stored
// as text to keep their exact value.

type balanceRow struct {
	CustomerID   int64           `gorm:"primaryKey;autoIncrement:false"`
	AssetName    string          `gorm:"primaryKey"`
	TotalSize    decimal.Decimal `gorm:"type:text;not null"`
	UsableSize   decimal.Decimal `gorm:"type:text;not null"`
	Version      int64           `gorm:"not null"`
	UpdatedNanos int64           `gorm:"column:updated_at_ns"`
}

func (balanceRow) TableName() string { return "balances" }

func toBalanceRow(b *domain.Balance) *balanceRow {
	return &balanceRow{
		CustomerID:   b.CustomerID,
		AssetName:    b.AssetName,
		TotalSize:    b.TotalSize,
		UsableSize:   b.UsableSize,
		Version:      b.Version,
		UpdatedNanos: b.UpdatedAt.UnixNano(),
	}
}

func (r *balanceRow) toDomain() *domain.Balance {
	return &domain.Balance{
		CustomerID: r.CustomerID,
		AssetName:  r.AssetName,
		TotalSize:  r.TotalSize,
		UsableSize: r.UsableSize,
		Version:    r.Version,
		UpdatedAt:  fromNanos(r.UpdatedNanos),
	}
}

type orderRow struct {
	OrderID      string          `gorm:"primaryKey"`
	CustomerID   int64           `gorm:"not null;index:idx_orders_customer_created,priority:1"`
	AssetName    string          `gorm:"not null"`
	Side         string          `gorm:"not null"`
	Size         decimal.Decimal `gorm:"type:text;not null"`
	Price        decimal.Decimal `gorm:"type:text;not null"`
	Status       string          `gorm:"not null;index"`
	CreatedNanos int64           `gorm:"column:created_at_ns;not null;index:idx_orders_customer_created,priority:2;index:idx_orders_created"`
	UpdatedNanos int64           `gorm:"column:updated_at_ns"`
}

func (orderRow) TableName() string { return "orders" }

func toOrderRow(o *domain.Order) *orderRow {
	return &orderRow{
		OrderID:      o.OrderID,
		CustomerID:   o.CustomerID,
		AssetName:    o.AssetName,
		Side:         string(o.Side),
		Size:         o.Size,
		Price:        o.Price,
		Status:       string(o.Status),
		CreatedNanos: o.CreatedAt.UnixNano(),
		UpdatedNanos: o.UpdatedAt.UnixNano(),
	}
}

func (r *orderRow) toDomain() *domain.Order {
	return &domain.Order{
		OrderID:    r.OrderID,
		CustomerID: r.CustomerID,
		AssetName:  r.AssetName,
		Side:       domain.OrderSide(r.Side),
		Size:       r.Size,
		Price:      r.Price,
		Status:     domain.OrderStatus(r.Status),
		CreatedAt:  fromNanos(r.CreatedNanos),
		UpdatedAt:  fromNanos(r.UpdatedNanos),
	}
}

type settlementRow struct {
	SettlementID string          `gorm:"primaryKey"`
	OrderID      string          `gorm:"not null;uniqueIndex"`
	CustomerID   int64           `gorm:"not null;index"`
	AssetName    string          `gorm:"not null"`
	Side         string          `gorm:"not null"`
	Size         decimal.Decimal `gorm:"type:text;not null"`
	Price        decimal.Decimal `gorm:"type:text;not null"`
	Notional     decimal.Decimal `gorm:"type:text;not null"`
	SettledNanos int64           `gorm:"column:settled_at_ns;not null"`
}

func (settlementRow) TableName() string { return "settlements" }

func toSettlementRow(s *domain.Settlement) *settlementRow {
	return &settlementRow{
		SettlementID: s.SettlementID,
		OrderID:      s.OrderID,
		CustomerID:   s.CustomerID,
		AssetName:    s.AssetName,
		Side:         string(s.Side),
		Size:         s.Size,
		Price:        s.Price,
		Notional:     s.Notional,
		SettledNanos: s.SettledAt.UnixNano(),
	}
}

func (r *settlementRow) toDomain() *domain.Settlement {
	return &domain.Settlement{
		SettlementID: r.SettlementID,
		OrderID:      r.OrderID,
		CustomerID:   r.CustomerID,
		AssetName:    r.AssetName,
		Side:         domain.OrderSide(r.Side),
		Size:         r.Size,
		Price:        r.Price,
		Notional:     r.Notional,
		SettledAt:    fromNanos(r.SettledNanos),
	}
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
