package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/brokerage/internal/domain"
	"github.com/efreitasn/brokerage/internal/service"
)

// AssetHandler handles HTTP requests for balance endpoints.
type AssetHandler struct {
	assetSvc *service.AssetService
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(assetSvc *service.AssetService) *AssetHandler {
	return &AssetHandler{assetSvc: assetSvc}
}

// transferRequest is the JSON request body for deposit and withdraw.
type transferRequest struct {
	CustomerID int64           `json:"customer_id"`
	AssetName  string          `json:"asset_name"`
	Amount     decimal.Decimal `json:"amount"`
}

type balanceResponse struct {
	CustomerID   int64           `json:"customer_id"`
	AssetName    string          `json:"asset_name"`
	TotalSize    decimal.Decimal `json:"total_size"`
	UsableSize   decimal.Decimal `json:"usable_size"`
	ReservedSize decimal.Decimal `json:"reserved_size"`
	UpdatedAt    string          `json:"updated_at"`
}

type balanceListResponse struct {
	Balances []balanceResponse `json:"balances"`
}

// ListMyBalances handles GET /api/assets/me.
func (h *AssetHandler) ListMyBalances(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	h.listBalances(w, r, actor, actor.CustomerID)
}

// ListBalances handles GET /api/assets?customer_id= for admins.
func (h *AssetHandler) ListBalances(w http.ResponseWriter, r *http.Request) {
	s := r.URL.Query().Get("customer_id")
	if s == "" {
		WriteError(w, http.StatusBadRequest, "validation_error", "customer_id is required")
		return
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "customer_id must be a valid integer")
		return
	}
	h.listBalances(w, r, actorFrom(r), id)
}

func (h *AssetHandler) listBalances(w http.ResponseWriter, r *http.Request, actor domain.Actor, customerID int64) {
	balances, err := h.assetSvc.ListBalances(r.Context(), actor, customerID)
	if err != nil {
		mapError(w, err)
		return
	}

	resp := balanceListResponse{Balances: make([]balanceResponse, len(balances))}
	for i, b := range balances {
		resp.Balances[i] = buildBalanceResponse(b)
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Deposit handles POST /api/assets/deposit.
func (h *AssetHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.transfer(w, r, h.assetSvc.Deposit)
}

// Withdraw handles POST /api/assets/withdraw.
func (h *AssetHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.transfer(w, r, h.assetSvc.Withdraw)
}

type transferFunc = func(ctx context.Context, actor domain.Actor, req service.TransferRequest) (*domain.Balance, error)

func (h *AssetHandler) transfer(w http.ResponseWriter, r *http.Request, apply transferFunc) {
	var req transferRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	b, err := apply(r.Context(), actorFrom(r), service.TransferRequest{
		CustomerID: req.CustomerID,
		AssetName:  req.AssetName,
		Amount:     req.Amount,
	})
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildBalanceResponse(b))
}

func buildBalanceResponse(b *domain.Balance) balanceResponse {
	return balanceResponse{
		CustomerID:   b.CustomerID,
		AssetName:    b.AssetName,
		TotalSize:    b.TotalSize,
		UsableSize:   b.UsableSize,
		ReservedSize: b.Reserved(),
		UpdatedAt:    b.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
