package siteconfig

import (
	"context"
	"log/slog"

	"github.com/kumaruseru/owls/internal/backend"
	"github.com/kumaruseru/owls/internal/domain"
)

// UpdateInput carries a partial site configuration change; nil fields are
// left out of the PATCH body.
type UpdateInput struct {
	SiteName        *string `json:"site_name,omitempty" validate:"omitempty,max=255"`
	SiteDescription *string `json:"site_description,omitempty"`
	MaintenanceMode *bool   `json:"maintenance_mode,omitempty"`
	SupportEmail    *string `json:"support_email,omitempty" validate:"omitempty,email"`
	SupportPhone    *string `json:"support_phone,omitempty" validate:"omitempty,max=20"`
}

// Store is the passthrough for the backend's singleton site configuration.
// Reads are public on this surface; writes require a staff session, which the
// backend enforces.
type Store struct {
	api    *backend.Client
	logger *slog.Logger
}

// NewStore creates the site configuration store.
func NewStore(api *backend.Client, logger *slog.Logger) *Store {
	return &Store{api: api, logger: logger}
}

// Get fetches the site configuration.
func (s *Store) Get(ctx context.Context) (*domain.SiteConfig, error) {
	var cfg domain.SiteConfig
	if err := s.api.Get(ctx, "/core/config/", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Update patches the site configuration and returns the updated record.
func (s *Store) Update(ctx context.Context, input UpdateInput) (*domain.SiteConfig, error) {
	var cfg domain.SiteConfig
	if err := s.api.Patch(ctx, "/core/config/", input, &cfg); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "site configuration updated")
	return &cfg, nil
}
