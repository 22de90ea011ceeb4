package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kumaruseru/owls/internal/domain"
	pkgkafka "github.com/kumaruseru/owls/pkg/kafka"
)

// Kafka topics for storefront analytics events. These are best-effort
// signals; publish failures are logged by callers and never fail the user
// operation that produced them.
const (
	TopicSessionSignedIn    = "storefront.session.signed_in"
	TopicSessionInvalidated = "storefront.session.invalidated"
	TopicOrderPlaced        = "storefront.order.placed"
	TopicCartSynced         = "storefront.cart.synced"
)

// Subject type for all storefront events; the session is the unit of identity
// at this layer.
const SubjectTypeSession = "session"

// Source identifier for events originating from this service.
const SourceStorefront = "storefront-bff"

// SessionSignedInData is the payload for a session.signed_in event.
type SessionSignedInData struct {
	SessionID string `json:"session_id"`
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
}

// SessionInvalidatedData is the payload for a session.invalidated event.
type SessionInvalidatedData struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

// OrderPlacedData is the payload for an order.placed event.
type OrderPlacedData struct {
	SessionID   string `json:"session_id"`
	OrderNumber string `json:"order_number"`
	Total       int64  `json:"total"`
	ItemCount   int    `json:"item_count"`
}

// CartSyncedData is the payload for a cart.synced event, emitted after every
// cart mutation that produced a fresh server snapshot.
type CartSyncedData struct {
	SessionID  string `json:"session_id"`
	Operation  string `json:"operation"`
	TotalItems int    `json:"total_items"`
	Total      int64  `json:"total"`
}

// Producer publishes storefront analytics events to Kafka. A nil Producer is
// valid and drops every event, for deployments without brokers.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// enabled reports whether events can actually be published.
func (p *Producer) enabled() bool {
	return p != nil && p.kafka != nil
}

// PublishSessionSignedIn publishes a session.signed_in event.
func (p *Producer) PublishSessionSignedIn(ctx context.Context, sid string, user *domain.User) error {
	if !p.enabled() {
		return nil
	}
	data := SessionSignedInData{
		SessionID: sid,
		UserID:    user.ID,
		Email:     user.Email,
	}

	event, err := pkgkafka.NewEvent(TopicSessionSignedIn, sid, SubjectTypeSession, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create session.signed_in event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicSessionSignedIn, event); err != nil {
		return fmt.Errorf("publish session.signed_in event: %w", err)
	}

	p.logger.DebugContext(ctx, "published session.signed_in event",
		slog.String("session_id", sid),
	)
	return nil
}

// PublishSessionInvalidated publishes a session.invalidated event.
func (p *Producer) PublishSessionInvalidated(ctx context.Context, sid, reason string) error {
	if !p.enabled() {
		return nil
	}

	data := SessionInvalidatedData{SessionID: sid, Reason: reason}

	event, err := pkgkafka.NewEvent(TopicSessionInvalidated, sid, SubjectTypeSession, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create session.invalidated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicSessionInvalidated, event); err != nil {
		return fmt.Errorf("publish session.invalidated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published session.invalidated event",
		slog.String("session_id", sid),
		slog.String("reason", reason),
	)
	return nil
}

// PublishOrderPlaced publishes an order.placed event.
func (p *Producer) PublishOrderPlaced(ctx context.Context, sid string, order *domain.Order) error {
	if !p.enabled() {
		return nil
	}

	data := OrderPlacedData{
		SessionID:   sid,
		OrderNumber: order.OrderNumber,
		Total:       int64(order.Total),
		ItemCount:   order.ItemCount,
	}

	event, err := pkgkafka.NewEvent(TopicOrderPlaced, sid, SubjectTypeSession, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create order.placed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderPlaced, event); err != nil {
		return fmt.Errorf("publish order.placed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.placed event",
		slog.String("session_id", sid),
		slog.String("order_number", order.OrderNumber),
	)
	return nil
}

// PublishCartSynced publishes a cart.synced event.
func (p *Producer) PublishCartSynced(ctx context.Context, sid, operation string, cart *domain.Cart) error {
	if !p.enabled() {
		return nil
	}

	data := CartSyncedData{
		SessionID:  sid,
		Operation:  operation,
		TotalItems: cart.TotalItems,
		Total:      int64(cart.Total),
	}

	event, err := pkgkafka.NewEvent(TopicCartSynced, sid, SubjectTypeSession, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.synced event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartSynced, event); err != nil {
		return fmt.Errorf("publish cart.synced event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.synced event",
		slog.String("session_id", sid),
		slog.String("operation", operation),
	)
	return nil
}
