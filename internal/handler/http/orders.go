package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kumaruseru/owls/internal/orders"
	"github.com/kumaruseru/owls/pkg/httputil"
	"github.com/kumaruseru/owls/pkg/pagination"
	"github.com/kumaruseru/owls/pkg/validator"
)

// OrdersHandler handles order history, checkout, and the staff-only order
// management endpoints. Authorization lives on the backend; these handlers
// only forward the session's tokens.
type OrdersHandler struct {
	orders *orders.Store
	logger *slog.Logger
}

// NewOrdersHandler creates a new orders HTTP handler.
func NewOrdersHandler(store *orders.Store, logger *slog.Logger) *OrdersHandler {
	return &OrdersHandler{
		orders: store,
		logger: logger,
	}
}

// List handles GET /api/v1/orders
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.orders.List(r.Context(), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}

// Detail handles GET /api/v1/orders/{number}
func (h *OrdersHandler) Detail(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Detail(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// Checkout handles POST /api/v1/orders/checkout
func (h *OrdersHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req orders.CheckoutInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.orders.Checkout(r.Context(), sessionID(r), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: result})
}

// Cancel handles POST /api/v1/orders/{number}/cancel
func (h *OrdersHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	result, err := h.orders.Cancel(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// AdminList handles GET /api/v1/admin/orders
func (h *OrdersHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	page, err := h.orders.AdminList(r.Context(), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}

// AdminStats handles GET /api/v1/admin/orders/stats
func (h *OrdersHandler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orders.AdminStats(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}

// AdminDetail handles GET /api/v1/admin/orders/{number}
func (h *OrdersHandler) AdminDetail(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.AdminDetail(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// AdminUpdate handles PATCH /api/v1/admin/orders/{number}
func (h *OrdersHandler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	var req orders.StatusUpdateInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order, err := h.orders.AdminUpdate(r.Context(), chi.URLParam(r, "number"), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}
