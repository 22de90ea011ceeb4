package http

import (
	"log/slog"
	"net/http"

	"github.com/kumaruseru/owls/internal/cart"
	"github.com/kumaruseru/owls/pkg/httputil"
	"github.com/kumaruseru/owls/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	carts  *cart.Store
	logger *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(carts *cart.Store, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		carts:  carts,
		logger: logger,
	}
}

// RemoveItemRequest is the JSON request body for removing a cart line.
type RemoveItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

// Get handles GET /api/v1/cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.carts.Fetch(r.Context(), sessionID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Snapshot handles GET /api/v1/cart/snapshot
//
// The header badge polls this; it reads the persisted snapshot and never
// touches the backend.
func (h *CartHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Snapshot(r.Context(), sessionID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: c})
}

// Add handles POST /api/v1/cart/add
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req cart.AddInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.carts.Add(r.Context(), sessionID(r), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Update handles POST /api/v1/cart/update
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req cart.UpdateInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.carts.UpdateQuantity(r.Context(), sessionID(r), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Remove handles POST /api/v1/cart/remove
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req RemoveItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.carts.Remove(r.Context(), sessionID(r), req.ProductID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Clear handles POST /api/v1/cart/clear
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	result, err := h.carts.Clear(r.Context(), sessionID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// BulkUpdate handles POST /api/v1/cart/bulk-update
func (h *CartHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req cart.BulkUpdateInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.carts.BulkUpdate(r.Context(), sessionID(r), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}
