package backend

import (
	"context"
	"sync"
)

// TokenPair holds the bearer tokens issued by the backend. Both are opaque
// strings to this layer.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// HasAccess reports whether an access token is present.
func (p TokenPair) HasAccess() bool { return p.Access != "" }

// HasRefresh reports whether a refresh token is present.
func (p TokenPair) HasRefresh() bool { return p.Refresh != "" }

// TokenStore is the request-scoped holder for the session's token pair. The
// HTTP layer creates one per request from the token cookies and flushes it
// back to cookies afterwards; everything in between mutates the store, never
// the cookies directly.
type TokenStore struct {
	mu      sync.Mutex
	pair    TokenPair
	dirty   bool
	cleared bool
}

// NewTokenStore creates a store seeded with the given pair.
func NewTokenStore(pair TokenPair) *TokenStore {
	return &TokenStore{pair: pair}
}

// Pair returns the current token pair.
func (s *TokenStore) Pair() TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pair
}

// Set replaces the token pair and marks the store dirty so the new tokens get
// written back out.
func (s *TokenStore) Set(pair TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	s.dirty = true
	s.cleared = false
}

// Clear purges both tokens and marks the store for cookie deletion.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = TokenPair{}
	s.dirty = true
	s.cleared = true
}

// Dirty reports whether the tokens changed during the request.
func (s *TokenStore) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Cleared reports whether the tokens were purged during the request.
func (s *TokenStore) Cleared() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleared
}

type tokenStoreKey struct{}

// WithTokenStore returns a context carrying the request's token store.
func WithTokenStore(ctx context.Context, s *TokenStore) context.Context {
	return context.WithValue(ctx, tokenStoreKey{}, s)
}

// TokenStoreFromContext returns the request's token store, or nil when the
// request carries no session tokens.
func TokenStoreFromContext(ctx context.Context) *TokenStore {
	s, _ := ctx.Value(tokenStoreKey{}).(*TokenStore)
	return s
}
