package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kumaruseru/owls/internal/catalog"
	"github.com/kumaruseru/owls/pkg/httputil"
	"github.com/kumaruseru/owls/pkg/pagination"
)

// CatalogHandler handles the read-only product browsing endpoints.
type CatalogHandler struct {
	catalog *catalog.Store
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(store *catalog.Store, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: store,
		logger:  logger,
	}
}

// Products handles GET /api/v1/products
func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	q := catalog.Query{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
		Ordering: r.URL.Query().Get("ordering"),
	}

	page, err := h.catalog.Products(r.Context(), pagination.FromRequest(r), q)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}

// Featured handles GET /api/v1/products/featured
func (h *CatalogHandler) Featured(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.Featured(r.Context(), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}

// Product handles GET /api/v1/products/{slug}
func (h *CatalogHandler) Product(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.Product(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// Categories handles GET /api/v1/categories
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.Categories(r.Context(), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}

// Category handles GET /api/v1/categories/{slug}
func (h *CatalogHandler) Category(w http.ResponseWriter, r *http.Request) {
	category, err := h.catalog.Category(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: category})
}

// CategoryProducts handles GET /api/v1/categories/{slug}/products
func (h *CatalogHandler) CategoryProducts(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.CategoryProducts(r.Context(), chi.URLParam(r, "slug"), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}
