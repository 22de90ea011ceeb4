package orders

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/kumaruseru/owls/internal/backend"
	"github.com/kumaruseru/owls/internal/domain"
	"github.com/kumaruseru/owls/internal/event"
	"github.com/kumaruseru/owls/internal/state"
	"github.com/kumaruseru/owls/pkg/pagination"
)

// CheckoutInput carries the checkout form: recipient, shipping address, and
// payment method.
type CheckoutInput struct {
	RecipientName string `json:"recipient_name" validate:"required,max=100"`
	Phone         string `json:"phone" validate:"required,max=15"`
	Email         string `json:"email,omitempty" validate:"omitempty,email"`
	Address       string `json:"address" validate:"required"`
	City          string `json:"city" validate:"required,max=100"`
	District      string `json:"district" validate:"required,max=100"`
	Ward          string `json:"ward,omitempty" validate:"omitempty,max=100"`
	Note          string `json:"note,omitempty"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cod bank_transfer momo vnpay"`
}

// CheckoutResult is the backend's checkout payload. PaymentURL is set for
// gateway payment methods; the UI redirects there.
type CheckoutResult struct {
	Message    string        `json:"message"`
	Order      *domain.Order `json:"order"`
	PaymentURL string        `json:"payment_url,omitempty"`
}

// CancelResult is the backend's cancel payload.
type CancelResult struct {
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
}

// StatusUpdateInput carries an admin status change; nil fields are left out
// of the PATCH body.
type StatusUpdateInput struct {
	Status        *string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed processing shipping delivered cancelled"`
	PaymentStatus *string `json:"payment_status,omitempty" validate:"omitempty,oneof=unpaid paid refunded"`
}

// DashboardStats is the admin dashboard aggregate.
type DashboardStats struct {
	TotalRevenue   domain.Amount         `json:"total_revenue"`
	OrdersCount    int                   `json:"orders_count"`
	CustomersCount int                   `json:"customers_count"`
	PendingCount   int                   `json:"pending_count"`
	RecentOrders   []domain.OrderSummary `json:"recent_orders"`
}

// Store is the order tracking and checkout aggregate. Orders are owned by the
// backend; this layer only reads them and forwards the two mutations the
// customer may make (place, cancel).
type Store struct {
	api       *backend.Client
	snapshots *state.Store
	events    *event.Producer
	logger    *slog.Logger
}

// NewStore creates the orders store.
func NewStore(api *backend.Client, snapshots *state.Store, events *event.Producer, logger *slog.Logger) *Store {
	return &Store{
		api:       api,
		snapshots: snapshots,
		events:    events,
		logger:    logger,
	}
}

// List returns the signed-in user's orders, newest first.
func (s *Store) List(ctx context.Context, params pagination.Params) (*pagination.Page[domain.OrderSummary], error) {
	var page pagination.Page[domain.OrderSummary]
	if err := s.api.Get(ctx, "/orders/?"+params.Query().Encode(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Detail fetches one of the user's orders by order number.
func (s *Store) Detail(ctx context.Context, orderNumber string) (*domain.Order, error) {
	var order domain.Order
	if err := s.api.Get(ctx, "/orders/"+url.PathEscape(orderNumber)+"/", &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Checkout places an order from the current cart. The backend clears the
// cart as part of the order, so the local cart snapshot is dropped too.
func (s *Store) Checkout(ctx context.Context, sid string, input CheckoutInput) (*CheckoutResult, error) {
	var result CheckoutResult
	if err := s.api.Post(ctx, "/orders/checkout/", input, &result); err != nil {
		return nil, err
	}

	if err := s.snapshots.DeleteCart(ctx, sid); err != nil {
		s.logger.ErrorContext(ctx, "failed to drop cart snapshot after checkout",
			slog.String("session_id", sid),
			slog.String("error", err.Error()),
		)
	}

	if result.Order != nil {
		if err := s.events.PublishOrderPlaced(ctx, sid, result.Order); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish order.placed event",
				slog.String("session_id", sid),
				slog.String("order_number", result.Order.OrderNumber),
				slog.String("error", err.Error()),
			)
		}

		s.logger.InfoContext(ctx, "order placed",
			slog.String("session_id", sid),
			slog.String("order_number", result.Order.OrderNumber),
			slog.Int64("total", int64(result.Order.Total)),
		)
	}

	return &result, nil
}

// Cancel cancels an order that is still pending or confirmed. The backend
// enforces the state rule and restores stock.
func (s *Store) Cancel(ctx context.Context, orderNumber string) (*CancelResult, error) {
	var result CancelResult
	if err := s.api.Post(ctx, "/orders/"+url.PathEscape(orderNumber)+"/cancel/", struct{}{}, &result); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "order cancelled",
		slog.String("order_number", orderNumber),
	)
	return &result, nil
}

// AdminList returns all orders across users (staff only on the backend).
func (s *Store) AdminList(ctx context.Context, params pagination.Params) (*pagination.Page[domain.OrderSummary], error) {
	var page pagination.Page[domain.OrderSummary]
	if err := s.api.Get(ctx, "/orders/admin/all/?"+params.Query().Encode(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// AdminDetail fetches any order by number (staff only on the backend).
func (s *Store) AdminDetail(ctx context.Context, orderNumber string) (*domain.Order, error) {
	var order domain.Order
	if err := s.api.Get(ctx, "/orders/admin/"+url.PathEscape(orderNumber)+"/", &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// AdminUpdate patches an order's status fields (staff only on the backend).
func (s *Store) AdminUpdate(ctx context.Context, orderNumber string, input StatusUpdateInput) (*domain.Order, error) {
	var order domain.Order
	if err := s.api.Patch(ctx, "/orders/admin/"+url.PathEscape(orderNumber)+"/", input, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// AdminStats returns the admin dashboard aggregates.
func (s *Store) AdminStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	if err := s.api.Get(ctx, "/orders/admin/stats/", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
