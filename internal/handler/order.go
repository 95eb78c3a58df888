package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/efreitasn/brokerage/internal/domain"
	"github.com/efreitasn/brokerage/internal/service"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	orderSvc *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// createOrderRequest is the JSON request body for POST /api/orders.
// Decimals are accepted as JSON strings or numbers.
type createOrderRequest struct {
	CustomerID *int64          `json:"customer_id"`
	AssetName  string          `json:"asset_name"`
	Side       string          `json:"side"`
	Size       decimal.Decimal `json:"size"`
	Price      decimal.Decimal `json:"price"`
}

// orderResponse is the JSON representation of an order. Decimals are
// encoded as strings.
type orderResponse struct {
	OrderID    string          `json:"order_id"`
	CustomerID int64           `json:"customer_id"`
	AssetName  string          `json:"asset_name"`
	Side       string          `json:"side"`
	Size       decimal.Decimal `json:"size"`
	Price      decimal.Decimal `json:"price"`
	Status     string          `json:"status"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
}

// CreateOrder handles POST /api/orders.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	order, err := h.orderSvc.CreateOrder(r.Context(), actorFrom(r), service.CreateOrderRequest{
		CustomerID: req.CustomerID,
		AssetName:  req.AssetName,
		Side:       domain.OrderSide(req.Side),
		Size:       req.Size,
		Price:      req.Price,
	})
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildOrderResponse(order))
}

// GetOrder handles GET /api/orders/{order_id}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	order, err := h.orderSvc.GetOrder(r.Context(), actorFrom(r), orderID)
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildOrderResponse(order))
}

// CancelOrder handles DELETE /api/orders/{order_id}.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	order, err := h.orderSvc.CancelOrder(r.Context(), actorFrom(r), orderID)
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildOrderResponse(order))
}

// ListMyOrders handles GET /api/orders/me.
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderSvc.ListOrdersForCustomer(r.Context(), actorFrom(r).CustomerID)
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildOrderListResponse(orders))
}

// ListOrders handles GET /api/orders for admins. customer_id, start_date
// and end_date are optional; the dates are RFC 3339 and come as a pair.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter service.AdminOrderFilter

	if s := q.Get("customer_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "customer_id must be a valid integer")
			return
		}
		filter.CustomerID = &id
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"start_date", &filter.Start},
		{"end_date", &filter.End},
	} {
		s := q.Get(p.name)
		if s == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", p.name+" must be a valid RFC 3339 timestamp")
			return
		}
		*p.dst = &t
	}

	orders, err := h.orderSvc.ListOrdersForAdmin(r.Context(), actorFrom(r), filter)
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildOrderListResponse(orders))
}

func buildOrderResponse(o *domain.Order) orderResponse {
	return orderResponse{
		OrderID:    o.OrderID,
		CustomerID: o.CustomerID,
		AssetName:  o.AssetName,
		Side:       string(o.Side),
		Size:       o.Size,
		Price:      o.Price,
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:  o.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func buildOrderListResponse(orders []*domain.Order) orderListResponse {
	resp := orderListResponse{Orders: make([]orderResponse, len(orders))}
	for i, o := range orders {
		resp.Orders[i] = buildOrderResponse(o)
	}
	return resp
}
