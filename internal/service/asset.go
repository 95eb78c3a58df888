package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/brokerage/internal/domain"
	"github.com/efreitasn/brokerage/internal/ledger"
	"github.com/efreitasn/brokerage/internal/store"
)

// TransferRequest represents the input for a deposit or withdrawal.
type TransferRequest struct {
	CustomerID int64
	AssetName  string
	Amount     decimal.Decimal
}

// AssetService handles balance queries and admin cash movements.
type AssetService struct {
	store     store.Store
	ledger    *ledger.Ledger
	customers *store.CustomerDirectory
	logger    *slog.Logger
}

// NewAssetService creates a new AssetService.
func NewAssetService(st store.Store, l *ledger.Ledger, customers *store.CustomerDirectory, logger *slog.Logger) *AssetService {
	return &AssetService{
		store:     st,
		ledger:    l,
		customers: customers,
		logger:    logger,
	}
}

// ListBalances returns the customer's balances ordered by asset name.
func (s *AssetService) ListBalances(ctx context.Context, actor domain.Actor, customerID int64) ([]*domain.Balance, error) {
	if !actor.CanAccess(customerID) {
		return nil, domain.ErrForbidden
	}
	return s.store.Balances().ListByCustomer(ctx, customerID)
}

// Deposit credits a balance, opening it if needed. Admin only.
func (s *AssetService) Deposit(ctx context.Context, actor domain.Actor, req TransferRequest) (*domain.Balance, error) {
	return s.transfer(ctx, actor, "deposit", req, s.ledger.Deposit)
}

// Withdraw debits usable funds from an existing balance. Admin only.
func (s *AssetService) Withdraw(ctx context.Context, actor domain.Actor, req TransferRequest) (*domain.Balance, error) {
	return s.transfer(ctx, actor, "withdraw", req, s.ledger.Debit)
}

type ledgerOp func(ctx context.Context, st store.Store, customerID int64, asset string, amount decimal.Decimal) error

func (s *AssetService) transfer(ctx context.Context, actor domain.Actor, op string, req TransferRequest, apply ledgerOp) (*domain.Balance, error) {
	if !actor.Admin {
		return nil, domain.ErrForbidden
	}
	asset := domain.NormalizeAssetName(req.AssetName)
	if !domain.ValidAssetName(asset) {
		return nil, &domain.ValidationError{
			Message: "asset_name must be 1-12 letters or digits",
		}
	}
	if err := validateQuantity("amount", req.Amount); err != nil {
		return nil, err
	}
	if !s.customers.Exists(req.CustomerID) {
		return nil, domain.ErrCustomerNotFound
	}

	var balance *domain.Balance
	err := s.store.Tx(ctx, func(tx store.Store) error {
		if err := apply(ctx, tx, req.CustomerID, asset, req.Amount); err != nil {
			return err
		}
		b, err := tx.Balances().Get(ctx, req.CustomerID, asset)
		balance = b
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("balance "+op,
		"customer_id", req.CustomerID,
		"asset", asset,
		"amount", req.Amount.String(),
		"by", actor.CustomerID,
	)
	return balance, nil
}
