package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kumaruseru/owls/internal/reviews"
	apperrors "github.com/kumaruseru/owls/pkg/errors"
	"github.com/kumaruseru/owls/pkg/httputil"
	"github.com/kumaruseru/owls/pkg/pagination"
	"github.com/kumaruseru/owls/pkg/validator"
)

// ReviewsHandler handles product review endpoints. Listings are public;
// writes require a signed-in session, which the backend enforces along with
// ownership.
type ReviewsHandler struct {
	reviews *reviews.Store
	logger  *slog.Logger
}

// NewReviewsHandler creates a new reviews HTTP handler.
func NewReviewsHandler(store *reviews.Store, logger *slog.Logger) *ReviewsHandler {
	return &ReviewsHandler{
		reviews: store,
		logger:  logger,
	}
}

// ForProduct handles GET /api/v1/reviews/product/{id}
func (h *ReviewsHandler) ForProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	out, err := h.reviews.ForProduct(r.Context(), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: out})
}

// List handles GET /api/v1/reviews
func (h *ReviewsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.reviews.List(r.Context(), pagination.FromRequest(r), r.URL.Query().Get("product"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}

// Mine handles GET /api/v1/reviews/my
func (h *ReviewsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	page, err := h.reviews.Mine(r.Context(), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}

// Create handles POST /api/v1/reviews
func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req reviews.CreateInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.reviews.Create(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: result})
}

// Get handles GET /api/v1/reviews/{id}
func (h *ReviewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	review, err := h.reviews.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// Update handles PATCH /api/v1/reviews/{id}
func (h *ReviewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var req reviews.UpdateInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.reviews.Update(r.Context(), id, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Delete handles DELETE /api/v1/reviews/{id}
func (h *ReviewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.reviews.Delete(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// pathID parses a numeric chi URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidInput(name + " must be a positive integer")
	}
	return id, nil
}
