package reviews

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/kumaruseru/owls/internal/backend"
	"github.com/kumaruseru/owls/internal/domain"
	"github.com/kumaruseru/owls/pkg/pagination"
)

// CreateInput carries a new review. The backend rejects a second review for
// the same product by the same user.
type CreateInput struct {
	Product int64  `json:"product" validate:"required,gt=0"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Title   string `json:"title,omitempty" validate:"omitempty,max=200"`
	Comment string `json:"comment" validate:"required"`
}

// UpdateInput carries a partial review edit; nil fields stay out of the PATCH
// body.
type UpdateInput struct {
	Rating  *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Title   *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Comment *string `json:"comment,omitempty"`
}

// ProductReviews is the per-product listing: aggregate stats plus every
// approved review.
type ProductReviews struct {
	Statistics domain.RatingStats `json:"statistics"`
	Reviews    []domain.Review    `json:"reviews"`
}

// Result is the backend's mutation payload for reviews.
type Result struct {
	Message string         `json:"message"`
	Review  *domain.Review `json:"review,omitempty"`
}

// Store is the review passthrough. Reviews are owned by the backend; writes
// require a signed-in session and ownership is enforced there.
type Store struct {
	api    *backend.Client
	logger *slog.Logger
}

// NewStore creates the reviews store.
func NewStore(api *backend.Client, logger *slog.Logger) *Store {
	return &Store{api: api, logger: logger}
}

// ForProduct lists a product's approved reviews with rating statistics.
func (s *Store) ForProduct(ctx context.Context, productID int64) (*ProductReviews, error) {
	var out ProductReviews
	path := "/reviews/product/" + strconv.FormatInt(productID, 10) + "/"
	if err := s.api.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List lists approved reviews, optionally filtered by product slug or ID.
func (s *Store) List(ctx context.Context, params pagination.Params, product string) (*pagination.Page[domain.Review], error) {
	values := params.Query()
	if product != "" {
		values.Set("product", product)
	}

	var page pagination.Page[domain.Review]
	if err := s.api.Get(ctx, "/reviews/?"+values.Encode(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Mine lists the signed-in user's reviews.
func (s *Store) Mine(ctx context.Context, params pagination.Params) (*pagination.Page[domain.Review], error) {
	var page pagination.Page[domain.Review]
	if err := s.api.Get(ctx, "/reviews/my/?"+params.Query().Encode(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Create posts a new review.
func (s *Store) Create(ctx context.Context, input CreateInput) (*Result, error) {
	var result Result
	if err := s.api.Post(ctx, "/reviews/", input, &result); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "review created",
		slog.Int64("product_id", input.Product),
		slog.Int("rating", input.Rating),
	)
	return &result, nil
}

// Get fetches one of the signed-in user's reviews.
func (s *Store) Get(ctx context.Context, id int64) (*domain.Review, error) {
	var review domain.Review
	if err := s.api.Get(ctx, s.detailPath(id), &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// Update patches one of the signed-in user's reviews.
func (s *Store) Update(ctx context.Context, id int64, input UpdateInput) (*Result, error) {
	var result Result
	if err := s.api.Patch(ctx, s.detailPath(id), input, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Delete removes one of the signed-in user's reviews.
func (s *Store) Delete(ctx context.Context, id int64) (*Result, error) {
	var result Result
	if err := s.api.Delete(ctx, s.detailPath(id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Store) detailPath(id int64) string {
	return "/reviews/" + strconv.FormatInt(id, 10) + "/"
}
