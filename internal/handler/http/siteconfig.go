package http

import (
	"log/slog"
	"net/http"

	"github.com/kumaruseru/owls/internal/siteconfig"
	"github.com/kumaruseru/owls/pkg/httputil"
	"github.com/kumaruseru/owls/pkg/validator"
)

// SiteConfigHandler serves the public site configuration and the staff-only
// update endpoint.
type SiteConfigHandler struct {
	config *siteconfig.Store
	logger *slog.Logger
}

// NewSiteConfigHandler creates a new site configuration HTTP handler.
func NewSiteConfigHandler(store *siteconfig.Store, logger *slog.Logger) *SiteConfigHandler {
	return &SiteConfigHandler{
		config: store,
		logger: logger,
	}
}

// Get handles GET /api/v1/config
func (h *SiteConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.config.Get(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cfg})
}

// Update handles PATCH /api/v1/admin/config
func (h *SiteConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req siteconfig.UpdateInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cfg, err := h.config.Update(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cfg})
}
