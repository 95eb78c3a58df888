package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settlement records the balance movement made when an order was matched.
// There is at most one settlement per order.
type Settlement struct {
	SettlementID string
	OrderID      string
	CustomerID   int64
	AssetName    string
	Side         OrderSide
	Size         decimal.Decimal
	Price        decimal.Decimal
	Notional     decimal.Decimal
	SettledAt    time.Time
}
