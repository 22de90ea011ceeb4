package backend

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kumaruseru/owls/pkg/errors"
	"github.com/kumaruseru/owls/pkg/httpclient"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	return New(baseURL, httpclient.New(cfg), newTestLogger(), opts...)
}

func ctxWithTokens(pair TokenPair) (context.Context, *TokenStore) {
	store := NewTokenStore(pair)
	return WithTokenStore(context.Background(), store), store
}

func TestClient_AttachesBearerWhenTokenPresent(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	}))
	defer srv.Close()

	ctx, _ := ctxWithTokens(TokenPair{Access: "acc-1", Refresh: "ref-1"})

	var out map[string]string
	require.NoError(t, newClient(t, srv.URL).Get(ctx, "/users/profile/", &out))
	assert.Equal(t, "Bearer acc-1", gotAuth)
}

func TestClient_NoAuthorizationHeaderWithoutTokens(t *testing.T) {
	var gotAuth string
	var hasHeader bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, hasHeader = r.Header["Authorization"]
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	var out map[string]string
	require.NoError(t, newClient(t, srv.URL).Get(context.Background(), "/products/", &out))
	assert.Empty(t, gotAuth)
	assert.False(t, hasHeader)
}

func TestClient_RefreshesOnceAndReplays(t *testing.T) {
	var refreshCalls, resourceCalls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/token/refresh/":
			refreshCalls.Add(1)
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "ref-old", body["refresh"])
			assert.Empty(t, r.Header.Get("Authorization"), "refresh must bypass the authenticated path")
			_ = json.NewEncoder(w).Encode(map[string]string{"access": "acc-new", "refresh": "ref-new"})
		default:
			resourceCalls.Add(1)
			if r.Header.Get("Authorization") != "Bearer acc-new" {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"detail": "token expired"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"email": "u@example.com"})
		}
	}))
	defer srv.Close()

	ctx, store := ctxWithTokens(TokenPair{Access: "acc-stale", Refresh: "ref-old"})

	var out map[string]string
	require.NoError(t, newClient(t, srv.URL).Get(ctx, "/users/profile/", &out))

	assert.Equal(t, "u@example.com", out["email"])
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Equal(t, int32(2), resourceCalls.Load(), "original request replayed exactly once")

	pair := store.Pair()
	assert.Equal(t, "acc-new", pair.Access)
	assert.Equal(t, "ref-new", pair.Refresh, "rotated refresh token stored")
	assert.True(t, store.Dirty())
}

func TestClient_SecondUnauthorizedPropagatesWithoutSecondRefresh(t *testing.T) {
	var refreshCalls, resourceCalls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/token/refresh/" {
			refreshCalls.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]string{"access": "acc-new", "refresh": "ref-new"})
			return
		}
		resourceCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "still unauthorized"})
	}))
	defer srv.Close()

	ctx, _ := ctxWithTokens(TokenPair{Access: "acc", Refresh: "ref"})

	err := newClient(t, srv.URL).Get(ctx, "/users/profile/", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.NotErrorIs(t, err, apperrors.ErrSessionExpired)
	assert.Equal(t, int32(1), refreshCalls.Load(), "at most one refresh per original request")
	assert.Equal(t, int32(2), resourceCalls.Load())
}

func TestClient_RefreshFailurePurgesSessionAndFiresHooks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/token/refresh/" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "token is blacklisted"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "token expired"})
	}))
	defer srv.Close()

	var hookCalls atomic.Int32
	client := newClient(t, srv.URL, WithSessionInvalidatedHook(func(ctx context.Context) {
		hookCalls.Add(1)
	}))

	ctx, store := ctxWithTokens(TokenPair{Access: "acc", Refresh: "ref-dead"})

	err := client.Get(ctx, "/users/profile/", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrSessionExpired)

	assert.Equal(t, TokenPair{}, store.Pair(), "both tokens purged")
	assert.True(t, store.Cleared())
	assert.Equal(t, int32(1), hookCalls.Load())
}

func TestClient_AnonymousUnauthorizedPropagatesUntouched(t *testing.T) {
	var refreshCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/token/refresh/" {
			refreshCalls.Add(1)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "authentication required"})
	}))
	defer srv.Close()

	ctx, store := ctxWithTokens(TokenPair{})

	err := newClient(t, srv.URL).Get(ctx, "/users/profile/", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.NotErrorIs(t, err, apperrors.ErrSessionExpired)
	assert.Equal(t, int32(0), refreshCalls.Load())
	assert.False(t, store.Cleared(), "no tokens to purge, nothing cleared")
}

func TestClient_UnauthorizedWithoutRefreshTokenExpiresSession(t *testing.T) {
	var refreshCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/token/refresh/" {
			refreshCalls.Add(1)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "token expired"})
	}))
	defer srv.Close()

	var hookCalls atomic.Int32
	client := newClient(t, srv.URL, WithSessionInvalidatedHook(func(ctx context.Context) {
		hookCalls.Add(1)
	}))

	// An access token with no refresh token cannot recover from a 401.
	ctx, store := ctxWithTokens(TokenPair{Access: "acc-stale"})

	err := client.Get(ctx, "/users/profile/", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrSessionExpired)

	assert.Equal(t, int32(0), refreshCalls.Load(), "nothing to refresh with")
	assert.Equal(t, TokenPair{}, store.Pair(), "missing refresh token must purge tokens")
	assert.True(t, store.Cleared())
	assert.Equal(t, int32(1), hookCalls.Load(), "session-invalidated hook must fire")
}

func TestClient_ConcurrentUnauthorizedCoalesceToOneRefresh(t *testing.T) {
	const concurrency = 8

	var refreshCalls atomic.Int32
	arrived := make(chan struct{}, concurrency)
	var barrierOnce sync.Once
	barrier := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/token/refresh/" {
			refreshCalls.Add(1)
			// Hold the in-flight refresh open long enough for every caller
			// that saw a 401 to join the shared call.
			time.Sleep(200 * time.Millisecond)
			_ = json.NewEncoder(w).Encode(map[string]string{"access": "acc-new", "refresh": "ref-new"})
			return
		}

		if r.Header.Get("Authorization") != "Bearer acc-new" {
			// Release all stale-token requests at once so their refresh
			// attempts overlap.
			arrived <- struct{}{}
			barrierOnce.Do(func() {
				go func() {
					for i := 0; i < concurrency; i++ {
						<-arrived
					}
					close(barrier)
				}()
			})
			<-barrier
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "token expired"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	}))
	defer srv.Close()

	client := newClient(t, srv.URL)

	var wg sync.WaitGroup
	errs := make([]error, concurrency)
	stores := make([]*TokenStore, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx, store := ctxWithTokens(TokenPair{Access: "acc-stale", Refresh: "ref-shared"})
			stores[i] = store
			var out map[string]string
			errs[i] = client.Get(ctx, "/cart/", &out)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "request %d", i)
		assert.Equal(t, "acc-new", stores[i].Pair().Access, "request %d stored the shared refreshed token", i)
	}
	assert.Equal(t, int32(1), refreshCalls.Load(), "all concurrent 401s share one refresh call")
}

func TestClient_BackendErrorPayloadSurvives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"quantity": []string{"Chỉ còn 3 sản phẩm trong kho."},
		})
	}))
	defer srv.Close()

	err := newClient(t, srv.URL).Post(context.Background(), "/cart/add/", map[string]int{"product_id": 7, "quantity": 99}, nil)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, []string{"Chỉ còn 3 sản phẩm trong kho."}, appErr.Fields["quantity"])
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
}

func TestClient_NetworkErrorIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	err := newClient(t, srv.URL).Get(context.Background(), "/products/", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}
