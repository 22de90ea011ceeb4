package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kumaruseru/owls/internal/backend"
	"github.com/kumaruseru/owls/pkg/httputil"
	"github.com/kumaruseru/owls/pkg/logger"
)

// Cookie names on the storefront origin. The session cookie identifies the
// browser; the token cookies carry the backend's JWT pair so the browser never
// sees it in a script-readable place.
const (
	SessionCookieName = "sf_session"
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
)

// CookieConfig controls how the storefront cookies are issued.
type CookieConfig struct {
	// Secure marks cookies as HTTPS-only. Off only in local development.
	Secure bool

	// Domain is the cookie domain; empty means host-only.
	Domain string

	// SessionTTL is the lifetime of the sf_session cookie.
	SessionTTL time.Duration

	// AccessTTL is the lifetime of the access token cookie. It should not be
	// shorter than the backend's access token lifetime or the cookie expires
	// while the token is still good.
	AccessTTL time.Duration

	// RefreshTTL is the lifetime of the refresh token cookie.
	RefreshTTL time.Duration
}

// DefaultCookieConfig returns cookie settings matching the backend's token
// lifetimes (60 minute access, 7 day refresh).
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		Secure:     true,
		SessionTTL: 7 * 24 * time.Hour,
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	}
}

// Session ensures every request carries a session ID. A missing or empty
// sf_session cookie gets a fresh UUID, issued on the response; the ID travels
// in the request context for handlers and the request-scoped logger.
func Session(cfg CookieConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sid string
			if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
				sid = c.Value
			} else {
				sid = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    sid,
					Path:     "/",
					Domain:   cfg.Domain,
					MaxAge:   int(cfg.SessionTTL.Seconds()),
					Secure:   cfg.Secure,
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := logger.WithSessionID(r.Context(), sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Tokens loads the token cookies into a request-scoped token store and, after
// the handler runs, flushes any change back out: rotated tokens become fresh
// cookies, a cleared store deletes them. Cookies are written just before the
// response headers go out, so a refresh that happens mid-request still lands
// in the browser.
func Tokens(cfg CookieConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var pair backend.TokenPair
			if c, err := r.Cookie(AccessCookieName); err == nil {
				pair.Access = c.Value
			}
			if c, err := r.Cookie(RefreshCookieName); err == nil {
				pair.Refresh = c.Value
			}

			store := backend.NewTokenStore(pair)
			ctx := backend.WithTokenStore(r.Context(), store)

			tw := &tokenWriter{ResponseWriter: w, store: store, cfg: cfg}
			next.ServeHTTP(tw, r.WithContext(ctx))
			// Handlers that never write a body still need the cookies out.
			tw.flush()
		})
	}
}

// tokenWriter intercepts the first header write to set or delete the token
// cookies based on the request's token store.
type tokenWriter struct {
	http.ResponseWriter
	store   *backend.TokenStore
	cfg     CookieConfig
	flushed bool
}

func (w *tokenWriter) WriteHeader(code int) {
	w.flush()
	w.ResponseWriter.WriteHeader(code)
}

func (w *tokenWriter) Write(b []byte) (int, error) {
	w.flush()
	return w.ResponseWriter.Write(b)
}

func (w *tokenWriter) flush() {
	if w.flushed {
		return
	}
	w.flushed = true

	if !w.store.Dirty() {
		return
	}

	if w.store.Cleared() {
		w.expire(AccessCookieName)
		w.expire(RefreshCookieName)
		return
	}

	pair := w.store.Pair()
	w.set(AccessCookieName, pair.Access, w.cfg.AccessTTL)
	w.set(RefreshCookieName, pair.Refresh, w.cfg.RefreshTTL)
}

func (w *tokenWriter) set(name, value string, ttl time.Duration) {
	if value == "" {
		w.expire(name)
		return
	}
	http.SetCookie(w.ResponseWriter, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   w.cfg.Domain,
		MaxAge:   int(ttl.Seconds()),
		Secure:   w.cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (w *tokenWriter) expire(name string) {
	http.SetCookie(w.ResponseWriter, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   w.cfg.Domain,
		MaxAge:   -1,
		Secure:   w.cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ContentTypeJSON rejects bodied requests that do not declare a JSON content
// type.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			ct := r.Header.Get("Content-Type")
			if r.ContentLength > 0 && ct != "" && !hasJSONContentType(ct) {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "UNSUPPORTED_MEDIA_TYPE",
						Message: "Content-Type must be application/json",
					},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func hasJSONContentType(ct string) bool {
	// Accept parameters like "; charset=utf-8".
	return strings.HasPrefix(ct, "application/json")
}

// sessionID pulls the session ID the Session middleware stored for this
// request.
func sessionID(r *http.Request) string {
	return logger.SessionIDFromContext(r.Context())
}
