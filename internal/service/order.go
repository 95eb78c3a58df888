package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/efreitasn/brokerage/internal/domain"
	"github.com/efreitasn/brokerage/internal/ledger"
	"github.com/efreitasn/brokerage/internal/store"
)

// CreateOrderRequest represents the input for order creation. CustomerID
// names the owner and is only honoured for admins.
type CreateOrderRequest struct {
	CustomerID *int64
	AssetName  string
	Side       domain.OrderSide
	Size       decimal.Decimal
	Price      decimal.Decimal
}

// AdminOrderFilter selects orders for ListOrdersForAdmin. Start and End
// must be given together and bound CreatedAt inclusively.
type AdminOrderFilter struct {
	CustomerID *int64
	Start      *time.Time
	End        *time.Time
}

// OrderService handles order creation, cancellation, and listing. Every
// write runs in one store transaction together with its balance change.
type OrderService struct {
	store  store.Store
	ledger *ledger.Ledger
	logger *slog.Logger
	now    func() time.Time
}

// NewOrderService creates a new OrderService with the given dependencies.
func NewOrderService(st store.Store, l *ledger.Ledger, logger *slog.Logger) *OrderService {
	return &OrderService{
		store:  st,
		ledger: l,
		logger: logger,
		now:    time.Now,
	}
}

// CreateOrder validates the request, reserves the balance the order needs
// and stores it as PENDING. Nothing is persisted if the reservation fails.
func (s *OrderService) CreateOrder(ctx context.Context, actor domain.Actor, req CreateOrderRequest) (*domain.Order, error) {
	asset := domain.NormalizeAssetName(req.AssetName)
	if !domain.ValidAssetName(asset) {
		return nil, &domain.ValidationError{
			Message: "asset_name must be 1-12 letters or digits",
		}
	}
	if domain.IsCash(asset) {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("%s is the cash asset and cannot be traded", domain.CashAsset),
		}
	}
	side := domain.OrderSide(strings.ToUpper(string(req.Side)))
	if !side.Valid() {
		return nil, &domain.ValidationError{
			Message: "side must be 'BUY' or 'SELL'",
		}
	}
	if err := validateQuantity("size", req.Size); err != nil {
		return nil, err
	}
	if err := validateQuantity("price", req.Price); err != nil {
		return nil, err
	}

	customerID := actor.CustomerID
	if actor.Admin {
		if req.CustomerID == nil {
			return nil, &domain.ValidationError{
				Message: "customer_id is required when an admin creates an order",
			}
		}
		customerID = *req.CustomerID
	}

	now := s.now()
	order := &domain.Order{
		OrderID:    uuid.New().String(),
		CustomerID: customerID,
		AssetName:  asset,
		Side:       side,
		Size:       req.Size,
		Price:      req.Price,
		Status:     domain.OrderStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.store.Tx(ctx, func(tx store.Store) error {
		// The instrument must already be on the customer's books, even
		// for a buy.
		if _, err := tx.Balances().Get(ctx, customerID, asset); err != nil {
			return err
		}

		reserveAsset, amount := order.Reservation()
		ok, err := s.ledger.HasSufficient(ctx, tx, customerID, reserveAsset, amount)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s %s required", domain.ErrInsufficientBalance, amount, reserveAsset)
		}
		if err := s.ledger.Reserve(ctx, tx, customerID, reserveAsset, amount); err != nil {
			return err
		}
		return tx.Orders().Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		"order_id", order.OrderID,
		"customer_id", order.CustomerID,
		"asset", order.AssetName,
		"side", string(order.Side),
		"size", order.Size.String(),
		"price", order.Price.String(),
	)
	return order, nil
}

// CancelOrder moves a pending order to CANCELED and releases its
// reservation. Only the owner or an admin may cancel.
func (s *OrderService) CancelOrder(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	var canceled *domain.Order
	err := s.store.Tx(ctx, func(tx store.Store) error {
		order, err := tx.Orders().Get(ctx, orderID)
		if err != nil {
			return err
		}
		if !actor.CanAccess(order.CustomerID) {
			return domain.ErrForbidden
		}
		if order.Status != domain.OrderStatusPending {
			return fmt.Errorf("%w: order %s is %s", domain.ErrInvalidState, orderID, order.Status)
		}

		now := s.now()
		if err := tx.Orders().UpdateStatus(ctx, orderID, domain.OrderStatusPending, domain.OrderStatusCanceled, now); err != nil {
			return err
		}
		asset, amount := order.Reservation()
		if err := s.ledger.Release(ctx, tx, order.CustomerID, asset, amount); err != nil {
			return err
		}

		order.Status = domain.OrderStatusCanceled
		order.UpdatedAt = now
		canceled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order canceled", "order_id", orderID, "customer_id", canceled.CustomerID)
	return canceled, nil
}

// GetOrder retrieves an order visible to the actor.
func (s *OrderService) GetOrder(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	order, err := s.store.Orders().Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(order.CustomerID) {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

// ListOrdersForCustomer returns every order of the customer, in any
// status, in creation order.
func (s *OrderService) ListOrdersForCustomer(ctx context.Context, customerID int64) ([]*domain.Order, error) {
	return s.store.Orders().List(ctx, store.OrderFilter{CustomerID: &customerID})
}

// ListOrdersForAdmin lists orders by customer, by creation-time range,
// by both, or unfiltered.
func (s *OrderService) ListOrdersForAdmin(ctx context.Context, actor domain.Actor, f AdminOrderFilter) ([]*domain.Order, error) {
	if !actor.Admin {
		return nil, domain.ErrForbidden
	}
	if (f.Start == nil) != (f.End == nil) {
		return nil, &domain.ValidationError{
			Message: "start_date and end_date must be given together",
		}
	}
	if f.Start != nil && f.Start.After(*f.End) {
		return nil, &domain.ValidationError{
			Message: "start_date must not be after end_date",
		}
	}
	return s.store.Orders().List(ctx, store.OrderFilter{
		CustomerID: f.CustomerID,
		Start:      f.Start,
		End:        f.End,
	})
}

func validateQuantity(field string, d decimal.Decimal) error {
	if !d.IsPositive() {
		return &domain.ValidationError{
			Message: fmt.Sprintf("%s must be greater than 0", field),
		}
	}
	if !domain.WithinScale(d) {
		return &domain.ValidationError{
			Message: fmt.Sprintf("%s must have at most %d decimal places", field, domain.MaxScale),
		}
	}
	return nil
}
