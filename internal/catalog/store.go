package catalog

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/kumaruseru/owls/internal/backend"
	"github.com/kumaruseru/owls/internal/domain"
	"github.com/kumaruseru/owls/pkg/pagination"
)

// Query holds the optional product list filters the UI exposes.
type Query struct {
	Search   string
	Category string
	Ordering string
}

// Store is the read-only catalog passthrough. Responses are surfaced exactly
// as the backend shapes them, paginated envelopes included; the storefront
// caches nothing here beyond HTTP-level Cache-Control.
type Store struct {
	api    *backend.Client
	logger *slog.Logger
}

// NewStore creates the catalog store.
func NewStore(api *backend.Client, logger *slog.Logger) *Store {
	return &Store{api: api, logger: logger}
}

// Products lists products with optional search, category, and ordering
// filters.
func (s *Store) Products(ctx context.Context, params pagination.Params, q Query) (*pagination.Page[domain.ProductSummary], error) {
	values := params.Query()
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.Category != "" {
		values.Set("category", q.Category)
	}
	if q.Ordering != "" {
		values.Set("ordering", q.Ordering)
	}

	var page pagination.Page[domain.ProductSummary]
	if err := s.api.Get(ctx, "/products/?"+values.Encode(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Featured lists featured products.
func (s *Store) Featured(ctx context.Context, params pagination.Params) (*pagination.Page[domain.ProductSummary], error) {
	var page pagination.Page[domain.ProductSummary]
	if err := s.api.Get(ctx, "/products/featured/?"+params.Query().Encode(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Product fetches one product by slug.
func (s *Store) Product(ctx context.Context, slug string) (*domain.Product, error) {
	var product domain.Product
	if err := s.api.Get(ctx, "/products/"+url.PathEscape(slug)+"/", &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Categories lists product categories.
func (s *Store) Categories(ctx context.Context, params pagination.Params) (*pagination.Page[domain.Category], error) {
	var page pagination.Page[domain.Category]
	if err := s.api.Get(ctx, "/products/categories/?"+params.Query().Encode(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Category fetches one category by slug.
func (s *Store) Category(ctx context.Context, slug string) (*domain.Category, error) {
	var category domain.Category
	if err := s.api.Get(ctx, "/products/categories/"+url.PathEscape(slug)+"/", &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// CategoryProducts lists the products of one category.
func (s *Store) CategoryProducts(ctx context.Context, slug string, params pagination.Params) (*pagination.Page[domain.ProductSummary], error) {
	var page pagination.Page[domain.ProductSummary]
	path := "/products/categories/" + url.PathEscape(slug) + "/products/?" + params.Query().Encode()
	if err := s.api.Get(ctx, path, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
