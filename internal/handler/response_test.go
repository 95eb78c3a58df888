package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/brokerage/internal/domain"
)

func TestWriteJSON(t *testing.T) {
	t.Run("sets content type and status code", func(t *testing.T) {
		w := httptest.NewRecorder()

		WriteJSON(w, http.StatusCreated, map[string]string{"status": "ok"})

		if got := w.Header().Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want %q", got, "application/json")
		}
		if w.Code != http.StatusCreated {
			t.Errorf("status code = %d, want %d", w.Code, http.StatusCreated)
		}

		var result map[string]string
		if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if result["status"] != "ok" {
			t.Errorf("body status = %q, want %q", result["status"], "ok")
		}
	})

	t.Run("encodes decimals as strings", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteJSON(w, http.StatusOK, balanceResponse{
			AssetName:  "TRY",
			TotalSize:  decimal.RequireFromString("1500.25"),
			UsableSize: decimal.RequireFromString("0.1"),
		})

		var raw map[string]any
		if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if raw["total_size"] != "1500.25" {
			t.Errorf("total_size = %v, want %q", raw["total_size"], "1500.25")
		}
		if raw["usable_size"] != "0.1" {
			t.Errorf("usable_size = %v, want %q", raw["usable_size"], "0.1")
		}
	})
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	WriteError(w, http.StatusBadRequest, "invalid_request", "missing required field")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusBadRequest)
	}
	var resp errorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Error != "invalid_request" {
		t.Errorf("error = %q, want %q", resp.Error, "invalid_request")
	}
	if resp.Message != "missing required field" {
		t.Errorf("message = %q, want %q", resp.Message, "missing required field")
	}
}

func TestParseJSON(t *testing.T) {
	t.Run("decodes decimals from strings and numbers", func(t *testing.T) {
		body := `{"asset_name":"AAPL","side":"BUY","size":"10","price":150.5}`
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")

		var req createOrderRequest
		if err := ParseJSON(r, &req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !req.Size.Equal(decimal.NewFromInt(10)) {
			t.Errorf("size = %s, want 10", req.Size)
		}
		if !req.Price.Equal(decimal.RequireFromString("150.5")) {
			t.Errorf("price = %s, want 150.5", req.Price)
		}
		if req.CustomerID != nil {
			t.Errorf("customer_id = %v, want nil", *req.CustomerID)
		}
	})

	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"missing content type", "", `{"asset_name":"AAPL"}`},
		{"wrong content type", "text/plain", `{"asset_name":"AAPL"}`},
		{"malformed JSON", "application/json", `{invalid json}`},
		{"unknown fields", "application/json", `{"asset_name":"AAPL","quantity":1}`},
		{"bad decimal", "application/json", `{"size":"ten"}`},
		{"empty body", "application/json", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			var req createOrderRequest
			err := ParseJSON(r, &req)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "Content-Type") {
				t.Errorf("error = %q, should mention Content-Type", err.Error())
			}
		})
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err      error
		wantCode int
		wantErr  string
	}{
		{&domain.ValidationError{Message: "size must be greater than 0"}, http.StatusBadRequest, "validation_error"},
		{fmt.Errorf("wrapped: %w", domain.ErrInvalidAmount), http.StatusBadRequest, "validation_error"},
		{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{fmt.Errorf("%w: x", domain.ErrOrderNotFound), http.StatusNotFound, "order_not_found"},
		{fmt.Errorf("%w: x", domain.ErrBalanceNotFound), http.StatusNotFound, "balance_not_found"},
		{domain.ErrCustomerNotFound, http.StatusNotFound, "customer_not_found"},
		{fmt.Errorf("%w: x", domain.ErrInvalidState), http.StatusConflict, "invalid_state"},
		{fmt.Errorf("%w: x", domain.ErrInsufficientBalance), http.StatusConflict, "insufficient_balance"},
		{domain.ErrLedgerInvariant, http.StatusInternalServerError, "internal_error"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.wantErr+"/"+tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			mapError(w, tt.err)

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
			var resp errorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if resp.Error != tt.wantErr {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantErr)
			}
		})
	}

	t.Run("internal errors are not leaked", func(t *testing.T) {
		w := httptest.NewRecorder()
		mapError(w, errors.New("disk on fire"))
		if strings.Contains(w.Body.String(), "disk") {
			t.Errorf("internal error leaked: %s", w.Body.String())
		}
	})
}
