package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/kumaruseru/owls/internal/backend"
	"github.com/kumaruseru/owls/internal/domain"
	"github.com/kumaruseru/owls/internal/event"
	"github.com/kumaruseru/owls/internal/state"
	apperrors "github.com/kumaruseru/owls/pkg/errors"
)

// LoginInput carries the credentials for signing in.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3,max=150"`
	Password  string `json:"password" validate:"required,min=8"`
	Password2 string `json:"password2" validate:"required,eqfield=Password"`
	FirstName string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName  string `json:"last_name,omitempty" validate:"omitempty,max=150"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,max=15"`
}

// UpdateProfileInput carries a partial profile update. Nil fields are left
// out of the PATCH body entirely.
type UpdateProfileInput struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
	Address   *string `json:"address,omitempty"`
	City      *string `json:"city,omitempty"`
	District  *string `json:"district,omitempty"`
	Ward      *string `json:"ward,omitempty"`
}

// ChangePasswordInput carries the change-password form.
type ChangePasswordInput struct {
	OldPassword  string `json:"old_password" validate:"required"`
	NewPassword  string `json:"new_password" validate:"required,min=8"`
	NewPassword2 string `json:"new_password2" validate:"required,eqfield=NewPassword"`
}

// ResetPasswordInput carries the new password for a reset link. The uid and
// token from the emailed link travel in the URL, not the body.
type ResetPasswordInput struct {
	NewPassword  string `json:"new_password" validate:"required,min=8"`
	NewPassword2 string `json:"new_password2" validate:"required,eqfield=NewPassword"`
}

// registerResponse is the backend's registration payload.
type registerResponse struct {
	Message string            `json:"message"`
	User    *domain.User      `json:"user"`
	Tokens  backend.TokenPair `json:"tokens"`
}

// profileUpdateResponse is the backend's profile update payload.
type profileUpdateResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Store owns per-session auth state. The backend is the source of truth; the
// Redis snapshot is replaced wholesale from server responses and never
// assembled locally.
type Store struct {
	api       *backend.Client
	snapshots *state.Store
	events    *event.Producer
	logger    *slog.Logger
}

// NewStore creates the auth store.
func NewStore(api *backend.Client, snapshots *state.Store, events *event.Producer, logger *slog.Logger) *Store {
	return &Store{
		api:       api,
		snapshots: snapshots,
		events:    events,
		logger:    logger,
	}
}

// Login exchanges credentials for tokens, then loads the profile. The session
// becomes authenticated only once the profile fetch succeeds; on any failure
// the previous auth state is left untouched.
func (s *Store) Login(ctx context.Context, sid string, input LoginInput) (*domain.User, error) {
	store := backend.TokenStoreFromContext(ctx)
	if store == nil {
		return nil, apperrors.Internal(fmt.Errorf("no token store in request context"))
	}
	prev := store.Pair()

	var pair backend.TokenPair
	if err := s.api.Post(ctx, "/users/login/", input, &pair); err != nil {
		return nil, err
	}
	store.Set(pair)

	var user domain.User
	if err := s.api.Get(ctx, "/users/profile/", &user); err != nil {
		// Tokens were issued but the profile is unreachable; roll the
		// request's tokens back so the half-open session never persists.
		store.Set(prev)
		return nil, err
	}

	if err := s.snapshots.SaveAuth(ctx, sid, &state.AuthSnapshot{User: &user, Authenticated: true}); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist auth snapshot",
			slog.String("session_id", sid),
			slog.String("error", err.Error()),
		)
	}

	if err := s.events.PublishSessionSignedIn(ctx, sid, &user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish session.signed_in event",
			slog.String("session_id", sid),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user signed in",
		slog.String("session_id", sid),
		slog.Int64("user_id", user.ID),
	)
	return &user, nil
}

// Register creates an account. The backend returns the user and a token pair
// directly, so the session is authenticated immediately.
func (s *Store) Register(ctx context.Context, sid string, input RegisterInput) (*domain.User, error) {
	store := backend.TokenStoreFromContext(ctx)
	if store == nil {
		return nil, apperrors.Internal(fmt.Errorf("no token store in request context"))
	}

	var resp registerResponse
	if err := s.api.Post(ctx, "/users/register/", input, &resp); err != nil {
		return nil, err
	}
	store.Set(resp.Tokens)

	if err := s.snapshots.SaveAuth(ctx, sid, &state.AuthSnapshot{User: resp.User, Authenticated: true}); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist auth snapshot",
			slog.String("session_id", sid),
			slog.String("error", err.Error()),
		)
	}

	if err := s.events.PublishSessionSignedIn(ctx, sid, resp.User); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish session.signed_in event",
			slog.String("session_id", sid),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("session_id", sid),
		slog.Int64("user_id", resp.User.ID),
	)
	return resp.User, nil
}

// Logout invalidates the refresh token on the backend (best effort) and
// unconditionally purges all local session state: tokens and both snapshots.
func (s *Store) Logout(ctx context.Context, sid string) error {
	store := backend.TokenStoreFromContext(ctx)

	if store != nil && store.Pair().HasRefresh() {
		body := map[string]string{"refresh": store.Pair().Refresh}
		if err := s.api.Post(ctx, "/users/logout/", body, nil); err != nil {
			// The backend rejecting an already-dead token changes nothing
			// about the local purge below.
			s.logger.WarnContext(ctx, "backend logout failed",
				slog.String("session_id", sid),
				slog.String("error", err.Error()),
			)
		}
	}

	if store != nil {
		store.Clear()
	}

	if err := s.snapshots.Purge(ctx, sid); err != nil {
		return fmt.Errorf("purge session state: %w", err)
	}

	s.logger.InfoContext(ctx, "user signed out", slog.String("session_id", sid))
	return nil
}

// Profile fetches the current profile from the backend and refreshes the
// snapshot. Any failure invalidates the session locally: a session that
// cannot prove itself is signed out rather than left half-alive.
func (s *Store) Profile(ctx context.Context, sid string) (*domain.User, error) {
	var user domain.User
	if err := s.api.Get(ctx, "/users/profile/", &user); err != nil {
		s.invalidate(ctx, sid, err)
		return nil, err
	}

	if err := s.snapshots.SaveAuth(ctx, sid, &state.AuthSnapshot{User: &user, Authenticated: true}); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist auth snapshot",
			slog.String("session_id", sid),
			slog.String("error", err.Error()),
		)
	}
	return &user, nil
}

// UpdateProfile sends a partial update and replaces the snapshot with the
// server's echoed user record. The echo is authoritative; it is never merged
// with the local copy.
func (s *Store) UpdateProfile(ctx context.Context, sid string, input UpdateProfileInput) (*domain.User, error) {
	var resp profileUpdateResponse
	if err := s.api.Patch(ctx, "/users/profile/", input, &resp); err != nil {
		return nil, err
	}

	if err := s.snapshots.SaveAuth(ctx, sid, &state.AuthSnapshot{User: resp.User, Authenticated: true}); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist auth snapshot",
			slog.String("session_id", sid),
			slog.String("error", err.Error()),
		)
	}
	return resp.User, nil
}

// ChangePassword updates the password for the signed-in user.
func (s *Store) ChangePassword(ctx context.Context, input ChangePasswordInput) (string, error) {
	var resp messageResponse
	if err := s.api.Put(ctx, "/users/change-password/", input, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ForgotPassword requests a password reset email. The backend never reveals
// whether the address exists.
func (s *Store) ForgotPassword(ctx context.Context, email string) (string, error) {
	var resp messageResponse
	if err := s.api.Post(ctx, "/users/forgot-password/", map[string]string{"email": email}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ResetPassword completes a password reset begun by ForgotPassword, using the
// uid and token from the emailed link. The backend validates the token.
func (s *Store) ResetPassword(ctx context.Context, uid, token string, input ResetPasswordInput) (string, error) {
	path := "/users/reset-password/" + url.PathEscape(uid) + "/" + url.PathEscape(token) + "/"

	var resp messageResponse
	if err := s.api.Post(ctx, path, input, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ResendVerification asks the backend to resend the signed-in user's email
// verification link.
func (s *Store) ResendVerification(ctx context.Context) (string, error) {
	var resp messageResponse
	if err := s.api.Post(ctx, "/users/resend-verification/", struct{}{}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Snapshot returns the persisted auth snapshot for the session, or an
// unauthenticated snapshot when none exists.
func (s *Store) Snapshot(ctx context.Context, sid string) (*state.AuthSnapshot, error) {
	snap, err := s.snapshots.Auth(ctx, sid)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &state.AuthSnapshot{}, nil
		}
		return nil, err
	}
	return snap, nil
}

// Invalidate purges all local state for the session and announces the
// invalidation. Wired as the backend client's session-invalidated hook.
func (s *Store) Invalidate(ctx context.Context, sid, reason string) {
	if err := s.snapshots.Purge(ctx, sid); err != nil {
		s.logger.ErrorContext(ctx, "failed to purge invalidated session",
			slog.String("session_id", sid),
			slog.String("error", err.Error()),
		)
	}

	if err := s.events.PublishSessionInvalidated(ctx, sid, reason); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish session.invalidated event",
			slog.String("session_id", sid),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Store) invalidate(ctx context.Context, sid string, cause error) {
	if store := backend.TokenStoreFromContext(ctx); store != nil {
		store.Clear()
	}
	s.Invalidate(ctx, sid, cause.Error())
}
