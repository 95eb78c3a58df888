package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide indicates whether an order buys or sells the asset.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Valid reports whether s is BUY or SELL.
func (s OrderSide) Valid() bool {
	return s == OrderSideBuy || s == OrderSideSell
}

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusMatched  OrderStatus = "MATCHED"
	OrderStatusCanceled OrderStatus = "CANCELED"
)

// Terminal reports whether no further transition is possible from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusMatched || s == OrderStatusCanceled
}

// CanTransition reports whether an order may move from one status to
// another. Only PENDING → MATCHED and PENDING → CANCELED are allowed.
func CanTransition(from, to OrderStatus) bool {
	return from == OrderStatusPending && to.Terminal()
}

// Order is a customer's instruction to buy or sell Size units of an asset
// at Price. Orders are never deleted; only Status and UpdatedAt change.
type Order struct {
	OrderID    string
	CustomerID int64
	AssetName  string
	Side       OrderSide
	Size       decimal.Decimal
	Price      decimal.Decimal
	Status     OrderStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Notional returns Size × Price.
func (o *Order) Notional() decimal.Decimal {
	return Notional(o.Size, o.Price)
}

// Reservation returns the asset and amount held for the order while it is
// pending: cash for the notional on a buy, the units themselves on a sell.
func (o *Order) Reservation() (asset string, amount decimal.Decimal) {
	if o.Side == OrderSideBuy {
		return CashAsset, o.Notional()
	}
	return o.AssetName, o.Size
}

// Clone returns a copy of o.
func (o *Order) Clone() *Order {
	c := *o
	return &c
}
