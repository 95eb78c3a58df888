package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/brokerage/internal/engine"
	"github.com/efreitasn/brokerage/internal/service"
	"github.com/efreitasn/brokerage/internal/store"
)

// NewRouter creates a chi router with all routes registered, request logging,
// Content-Type validation, and identity middleware on the /api routes.
func NewRouter(
	orderSvc *service.OrderService,
	assetSvc *service.AssetService,
	matcher *engine.Matcher,
	customers *store.CustomerDirectory,
	logger *slog.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	r.Use(contentTypeJSON)

	orderH := NewOrderHandler(orderSvc)
	assetH := NewAssetHandler(assetSvc)
	matchH := NewMatchHandler(matcher)

	// Health check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(identify(customers))

		// Order routes.
		r.Post("/orders", orderH.CreateOrder)
		r.Get("/orders/me", orderH.ListMyOrders)
		r.Get("/orders/{order_id}", orderH.GetOrder)
		r.Delete("/orders/{order_id}", orderH.CancelOrder)

		// Asset routes.
		r.Get("/assets/me", assetH.ListMyBalances)

		// Admin routes.
		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/orders", orderH.ListOrders)
			r.Post("/match", matchH.MatchOrders)
			r.Get("/assets", assetH.ListBalances)
			r.Post("/assets/deposit", assetH.Deposit)
			r.Post("/assets/withdraw", assetH.Withdraw)
		})
	})

	return r
}

// requestLogging returns middleware that logs each request's method, path,
// status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// contentTypeJSON is middleware that validates Content-Type for POST, PUT, and
// PATCH requests. If the Content-Type header doesn't start with
// "application/json", it returns 400 Bad Request before the handler runs.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !strings.HasPrefix(ct, "application/json") {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
