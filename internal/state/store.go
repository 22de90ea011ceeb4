package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kumaruseru/owls/internal/domain"
	apperrors "github.com/kumaruseru/owls/pkg/errors"
)

const (
	authKeyPrefix = "auth:"
	cartKeyPrefix = "cart:"
)

// AuthSnapshot is the persisted auth state for one session: the last user
// record the backend returned plus a UI hint flag. The token cookies, not
// this snapshot, decide whether requests are actually authenticated.
type AuthSnapshot struct {
	User          *domain.User `json:"user"`
	Authenticated bool         `json:"is_authenticated"`
}

// Store persists per-session snapshots in Redis under two keys per session,
// auth:<sid> and cart:<sid>. Snapshots are caches of backend responses and
// carry TTLs; losing one only costs a backend round trip.
type Store struct {
	client  *redis.Client
	authTTL time.Duration
	cartTTL time.Duration
}

// New creates a snapshot store with separate TTLs for the auth and cart keys.
func New(client *redis.Client, authTTL, cartTTL time.Duration) *Store {
	return &Store{
		client:  client,
		authTTL: authTTL,
		cartTTL: cartTTL,
	}
}

// Auth retrieves the auth snapshot for a session.
func (s *Store) Auth(ctx context.Context, sid string) (*AuthSnapshot, error) {
	data, err := s.client.Get(ctx, authKeyPrefix+sid).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("auth snapshot")
		}
		return nil, fmt.Errorf("redis get auth snapshot: %w", err)
	}

	var snap AuthSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal auth snapshot: %w", err)
	}
	return &snap, nil
}

// SaveAuth replaces the auth snapshot for a session.
func (s *Store) SaveAuth(ctx context.Context, sid string, snap *AuthSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal auth snapshot: %w", err)
	}

	if err := s.client.Set(ctx, authKeyPrefix+sid, data, s.authTTL).Err(); err != nil {
		return fmt.Errorf("redis set auth snapshot: %w", err)
	}
	return nil
}

// Cart retrieves the cart snapshot for a session.
func (s *Store) Cart(ctx context.Context, sid string) (*domain.Cart, error) {
	data, err := s.client.Get(ctx, cartKeyPrefix+sid).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart snapshot")
		}
		return nil, fmt.Errorf("redis get cart snapshot: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}
	return &cart, nil
}

// SaveCart replaces the cart snapshot for a session.
func (s *Store) SaveCart(ctx context.Context, sid string, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}

	if err := s.client.Set(ctx, cartKeyPrefix+sid, data, s.cartTTL).Err(); err != nil {
		return fmt.Errorf("redis set cart snapshot: %w", err)
	}
	return nil
}

// DeleteCart removes only the cart snapshot.
func (s *Store) DeleteCart(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, cartKeyPrefix+sid).Err(); err != nil {
		return fmt.Errorf("redis del cart snapshot: %w", err)
	}
	return nil
}

// Purge removes both snapshots for a session in one round trip. Used when a
// session is signed out or invalidated; nothing of the session may survive.
func (s *Store) Purge(ctx context.Context, sid string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, authKeyPrefix+sid)
	pipe.Del(ctx, cartKeyPrefix+sid)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis purge session %s: %w", sid, err)
	}
	return nil
}

// Ping checks Redis connectivity for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
