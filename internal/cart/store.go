package cart

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kumaruseru/owls/internal/backend"
	"github.com/kumaruseru/owls/internal/domain"
	"github.com/kumaruseru/owls/internal/event"
	"github.com/kumaruseru/owls/internal/state"
	apperrors "github.com/kumaruseru/owls/pkg/errors"
)

// AddInput carries an add-to-cart request.
type AddInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"min=1"`
}

// UpdateInput carries a quantity change for one cart line. Quantity 0 removes
// the line on the backend.
type UpdateInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"min=0"`
}

// BulkUpdateInput carries the "update all" form from the cart page.
type BulkUpdateInput struct {
	Items []UpdateInput `json:"items" validate:"required,min=1,dive"`
}

// Warning is a per-product advisory the backend attaches when stock forced a
// quantity adjustment.
type Warning struct {
	ProductID int64  `json:"product_id"`
	Message   string `json:"message"`
}

// Result is the outcome of a cart mutation: the full replacement snapshot the
// server returned plus its human-readable message and any stock warnings.
type Result struct {
	Cart     *domain.Cart `json:"cart"`
	Message  string       `json:"message"`
	Warning  string       `json:"warning,omitempty"`
	Warnings []Warning    `json:"warnings,omitempty"`
}

// mutationResponse is the backend's cart mutation envelope.
type mutationResponse struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message"`
	Cart     *domain.Cart `json:"cart"`
	Warning  string       `json:"warning"`
	Warnings []Warning    `json:"warnings"`
}

// fetchResponse is the backend's GET /cart/ payload: the cart fields inline
// plus optional stock warnings.
type fetchResponse struct {
	domain.Cart
	Warnings []Warning `json:"warnings"`
}

// Store mirrors the server-side cart for each session. Every mutation sends
// only the delta and adopts the server's returned cart wholesale; totals and
// quantities are never computed locally. When a mutation fails the last
// known-good snapshot stays in place.
//
// Concurrent mutations on one session are last-response-wins: the snapshot
// reflects whichever server response was stored last, which is always a
// complete, self-consistent cart.
type Store struct {
	api       *backend.Client
	snapshots *state.Store
	events    *event.Producer
	logger    *slog.Logger
}

// NewStore creates the cart store.
func NewStore(api *backend.Client, snapshots *state.Store, events *event.Producer, logger *slog.Logger) *Store {
	return &Store{
		api:       api,
		snapshots: snapshots,
		events:    events,
		logger:    logger,
	}
}

// Fetch loads the cart from the backend and replaces the snapshot.
func (s *Store) Fetch(ctx context.Context, sid string) (*Result, error) {
	var resp fetchResponse
	if err := s.api.Get(ctx, "/cart/", &resp); err != nil {
		return nil, err
	}

	cart := resp.Cart
	s.store(ctx, sid, "fetch", &cart)
	return &Result{Cart: &cart, Warnings: resp.Warnings}, nil
}

// Add sends an add-to-cart delta. The server decides the resulting quantity
// (merging with an existing line, capping at stock) and returns the full cart.
func (s *Store) Add(ctx context.Context, sid string, input AddInput) (*Result, error) {
	return s.mutate(ctx, sid, "add", "/cart/add/", input)
}

// UpdateQuantity sets the absolute quantity for a cart line.
func (s *Store) UpdateQuantity(ctx context.Context, sid string, input UpdateInput) (*Result, error) {
	return s.mutate(ctx, sid, "update", "/cart/update/", input)
}

// Remove deletes a cart line.
func (s *Store) Remove(ctx context.Context, sid string, productID int64) (*Result, error) {
	body := map[string]int64{"product_id": productID}
	return s.mutate(ctx, sid, "remove", "/cart/remove/", body)
}

// Clear empties the cart. Clearing an already-empty cart succeeds; the
// backend answers with the same empty cart either way.
func (s *Store) Clear(ctx context.Context, sid string) (*Result, error) {
	return s.mutate(ctx, sid, "clear", "/cart/clear/", struct{}{})
}

// BulkUpdate applies several quantity changes in one call.
func (s *Store) BulkUpdate(ctx context.Context, sid string, input BulkUpdateInput) (*Result, error) {
	return s.mutate(ctx, sid, "bulk_update", "/cart/bulk-update/", input)
}

// Snapshot returns the persisted cart snapshot without touching the backend,
// or an empty cart when none is stored.
func (s *Store) Snapshot(ctx context.Context, sid string) (*domain.Cart, error) {
	cart, err := s.snapshots.Cart(ctx, sid)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &domain.Cart{Items: []domain.CartItem{}}, nil
		}
		return nil, err
	}
	return cart, nil
}

func (s *Store) mutate(ctx context.Context, sid, operation, path string, body any) (*Result, error) {
	var resp mutationResponse
	if err := s.api.Post(ctx, path, body, &resp); err != nil {
		return nil, err
	}

	if resp.Cart != nil {
		s.store(ctx, sid, operation, resp.Cart)
	}

	return &Result{
		Cart:     resp.Cart,
		Message:  resp.Message,
		Warning:  resp.Warning,
		Warnings: resp.Warnings,
	}, nil
}

// store replaces the snapshot and emits the best-effort sync event.
func (s *Store) store(ctx context.Context, sid, operation string, cart *domain.Cart) {
	if err := s.snapshots.SaveCart(ctx, sid, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist cart snapshot",
			slog.String("session_id", sid),
			slog.String("error", err.Error()),
		)
	}

	if err := s.events.PublishCartSynced(ctx, sid, operation, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.synced event",
			slog.String("session_id", sid),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart snapshot replaced",
		slog.String("session_id", sid),
		slog.String("operation", operation),
		slog.Int("total_items", cart.TotalItems),
	)
}
