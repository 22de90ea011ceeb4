package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/kumaruseru/owls/pkg/errors"
	"github.com/kumaruseru/owls/pkg/httpclient"
	"github.com/kumaruseru/owls/pkg/logger"
)

const refreshPath = "/users/token/refresh/"

var (
	tokenRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_token_refresh_total",
			Help: "Token refresh attempts against the backend, by result",
		},
		[]string{"result"},
	)

	authRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backend_auth_retries_total",
			Help: "Requests replayed after a successful token refresh",
		},
	)
)

// Doer executes a single HTTP request. Satisfied by httpclient.Client and
// httpclient.BreakerClient.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// InvalidatedHook is called when a session's refresh token is rejected and
// its tokens have been purged. Hooks run synchronously before the session
// expired error is returned to the caller.
type InvalidatedHook func(ctx context.Context)

// Client is the authenticated JSON client for the backend REST API.
//
// Requests pick up the access token from the request-scoped TokenStore (see
// WithTokenStore). A 401 response triggers at most one token refresh followed
// by a single replay of the original request; concurrent 401s holding the
// same refresh token share one in-flight refresh call. When the refresh
// itself fails the tokens are purged, the invalidated hooks fire, and the
// caller gets a session expired error.
type Client struct {
	baseURL string
	doer    Doer
	logger  *slog.Logger
	refresh singleflight.Group
	hooks   []InvalidatedHook
}

// Option configures the client.
type Option func(*Client)

// WithSessionInvalidatedHook registers a hook to run when a session is
// invalidated.
func WithSessionInvalidatedHook(h InvalidatedHook) Option {
	return func(c *Client) {
		c.hooks = append(c.hooks, h)
	}
}

// New creates a backend API client rooted at baseURL.
func New(baseURL string, doer Doer, l *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    doer,
		logger:  l,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs an authenticated GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post performs an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put performs an authenticated PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Patch performs an authenticated PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

// Delete performs an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	store := TokenStoreFromContext(ctx)

	var access string
	if store != nil {
		access = store.Pair().Access
	}

	resp, err := c.send(ctx, method, path, payload, access)
	if err != nil {
		return apperrors.Upstream(fmt.Sprintf("backend unreachable: %v", err))
	}

	if resp.StatusCode == http.StatusUnauthorized && store != nil {
		switch held := store.Pair(); {
		case held.HasRefresh():
			drain(resp)

			pair, rerr := c.refreshTokens(ctx, held.Refresh)
			if rerr != nil {
				c.invalidateSession(ctx, store, rerr)
				return apperrors.SessionExpired()
			}
			store.Set(pair)
			authRetriesTotal.Inc()

			// Single replay; a second 401 propagates as-is.
			resp, err = c.send(ctx, method, path, payload, pair.Access)
			if err != nil {
				return apperrors.Upstream(fmt.Sprintf("backend unreachable: %v", err))
			}

		case held.HasAccess():
			// The access token was rejected and there is nothing to refresh
			// it with: a hard session failure. Anonymous requests (no tokens
			// at all) fall through and surface the backend's 401 unchanged.
			drain(resp)
			c.invalidateSession(ctx, store, fmt.Errorf("access token rejected with no refresh token"))
			return apperrors.SessionExpired()
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp)
	}

	defer func() { _ = resp.Body.Close() }()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Upstream(fmt.Sprintf("decode backend response: %v", err))
	}
	return nil
}

// send builds and executes one HTTP attempt.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, access string) (*http.Response, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create %s %s: %w", method, path, err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		req.Header.Set("X-Correlation-ID", cid)
	}

	return c.doer.Do(ctx, req)
}

// refreshTokens exchanges the refresh token for a new pair. Concurrent calls
// holding the same refresh token coalesce onto one backend call; every caller
// gets the same resulting pair. The refresh request goes straight to the
// transport, outside the 401 handling above.
func (c *Client) refreshTokens(ctx context.Context, refresh string) (TokenPair, error) {
	v, err, _ := c.refresh.Do(refresh, func() (any, error) {
		payload, err := json.Marshal(map[string]string{"refresh": refresh})
		if err != nil {
			return TokenPair{}, fmt.Errorf("marshal refresh payload: %w", err)
		}

		resp, err := c.send(ctx, http.MethodPost, refreshPath, payload, "")
		if err != nil {
			tokenRefreshTotal.WithLabelValues("failure").Inc()
			return TokenPair{}, fmt.Errorf("refresh request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			tokenRefreshTotal.WithLabelValues("failure").Inc()
			return TokenPair{}, httpclient.ParseResponseError(resp)
		}

		var pair TokenPair
		if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
			tokenRefreshTotal.WithLabelValues("failure").Inc()
			return TokenPair{}, fmt.Errorf("decode refresh response: %w", err)
		}
		// The backend rotates refresh tokens; keep the old one if this
		// deployment has rotation off.
		if !pair.HasRefresh() {
			pair.Refresh = refresh
		}
		tokenRefreshTotal.WithLabelValues("success").Inc()
		return pair, nil
	})

	if err != nil {
		return TokenPair{}, err
	}
	return v.(TokenPair), nil
}

// invalidateSession purges the tokens and notifies the registered hooks.
func (c *Client) invalidateSession(ctx context.Context, store *TokenStore, cause error) {
	store.Clear()

	c.logger.WarnContext(ctx, "session invalidated",
		slog.String("reason", cause.Error()),
	)

	for _, h := range c.hooks {
		h(ctx)
	}
}

// drain consumes and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()
}
