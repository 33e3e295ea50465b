// ABOUTME: Session manager for login, registration, current-user validation and logout
// ABOUTME: Single writer of the process-wide bearer token read by every API call

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/2389/registrar/internal/api"
	"github.com/2389/registrar/internal/apierr"
	"github.com/2389/registrar/internal/validate"
)

// ErrNoToken is returned when there is no token to validate.
var ErrNoToken = errors.New("no session token")

// AuthAPI is the subset of the API client the manager needs.
type AuthAPI interface {
	Login(ctx context.Context, creds api.Credentials) (*api.LoginResponse, error)
	Register(ctx context.Context, reg api.Registration) (*api.User, error)
	Me(ctx context.Context) (*api.User, error)
	ChangePassword(ctx context.Context, change api.PasswordChange) error
}

// Manager holds the session. User is non-nil only while a validated token
// is held.
type Manager struct {
	mu    sync.RWMutex
	token string
	user  *api.User

	api    AuthAPI
	store  TokenStore
	now    func() time.Time
	logger *slog.Logger
}

// NewManager creates a manager. store may be nil for an in-memory session.
// Pass nil logger for default.
func NewManager(client AuthAPI, store TokenStore, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		api:    client,
		store:  store,
		now:    time.Now,
		logger: logger.With("component", "session"),
	}
}

// Token returns the current bearer token, or "" without a session.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User returns a copy of the validated user, or nil.
func (m *Manager) User() *api.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Authenticated reports whether a validated session exists.
func (m *Manager) Authenticated() bool {
	return m.User() != nil
}

// Adopt installs a token from outside the login flow (an environment
// override). It is not persisted and must still pass ResolveCurrentUser.
func (m *Manager) Adopt(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = strings.TrimSpace(token)
	m.user = nil
}

// Login exchanges credentials for a token, resolves the user and persists
// the token. Nothing is persisted when any step fails.
func (m *Manager) Login(ctx context.Context, username, password string) (*api.User, error) {
	creds := api.Credentials{Username: strings.TrimSpace(username), Password: password}
	if err := validate.Struct(creds); err != nil {
		return nil, err
	}

	resp, err := m.api.Login(ctx, creds)
	if err != nil {
		var apiErr *apierr.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return nil, &apierr.AuthError{Message: apiErr.Message, Err: err}
		}
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, &apierr.AuthError{Message: "Login response did not include an access token"}
	}

	m.mu.Lock()
	m.token = resp.AccessToken
	m.user = nil
	m.mu.Unlock()

	user := resp.User
	if user == nil {
		user, err = m.api.Me(ctx)
		if err != nil {
			m.clear()
			return nil, &apierr.AuthError{Message: "Could not resolve the logged-in user", Err: err}
		}
	}

	m.mu.Lock()
	m.user = user
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.Save(ctx, resp.AccessToken); err != nil {
			m.logger.Warn("failed to persist token", "error", err)
		}
	}

	m.logger.Info("logged in", "username", user.Username, "role", user.Role)
	return m.User(), nil
}

// Register creates an account. It does not log the new user in. Input
// the server rejects comes back as a ValidationError carrying its message.
func (m *Manager) Register(ctx context.Context, reg api.Registration) (*api.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	reg.FullName = strings.TrimSpace(reg.FullName)
	if err := validate.Struct(reg); err != nil {
		return nil, err
	}

	user, err := m.api.Register(ctx, reg)
	if err != nil {
		switch apierr.StatusOf(err) {
		case http.StatusBadRequest, http.StatusConflict:
			var apiErr *apierr.APIError
			errors.As(err, &apiErr)
			return nil, apierr.NewValidationError(map[string]string{"form": apiErr.Message})
		}
		return nil, err
	}
	return user, nil
}

// ResolveCurrentUser validates the held token, loading the persisted one
// if none is held. A token the server rejects with any error response, or
// one that has visibly expired, ends the session. Transport failures leave
// it untouched.
func (m *Manager) ResolveCurrentUser(ctx context.Context) (*api.User, error) {
	token := m.Token()
	if token == "" && m.store != nil {
		stored, err := m.store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading token: %w", err)
		}
		if stored != "" {
			m.mu.Lock()
			m.token = stored
			m.mu.Unlock()
			token = stored
		}
	}
	if token == "" {
		return nil, ErrNoToken
	}

	if expired(token, m.now()) {
		m.logger.Warn("session token expired")
		_ = m.Logout(ctx)
		return nil, &apierr.AuthError{Message: "Session expired, please log in again"}
	}

	user, err := m.api.Me(ctx)
	if err != nil {
		// Any answer from the server other than a user ends the session,
		// including 404 for an account deleted since login.
		var apiErr *apierr.APIError
		if errors.As(err, &apiErr) {
			m.logger.Warn("session token rejected", "status", apiErr.Status, "error", err)
			_ = m.Logout(ctx)
			return nil, &apierr.AuthError{Message: "Session is no longer valid, please log in again", Err: err}
		}
		return nil, err
	}

	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
	return m.User(), nil
}

// Logout clears the session and the persisted token. Calling it without a
// session is a no-op apart from clearing the store.
func (m *Manager) Logout(ctx context.Context) error {
	m.clear()
	if m.store == nil {
		return nil
	}
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	return nil
}

// ForceLogout ends the session after the server rejected the token on a
// resource call. Persistence failures are only logged.
func (m *Manager) ForceLogout(ctx context.Context) {
	m.logger.Warn("forced logout")
	if err := m.Logout(ctx); err != nil {
		m.logger.Warn("failed to clear persisted token", "error", err)
	}
}

// ChangePassword replaces the current user's password. A wrong current
// password is an AuthError but does not end the session.
func (m *Manager) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	change := api.PasswordChange{OldPassword: oldPassword, NewPassword: newPassword}
	if err := validate.Struct(change); err != nil {
		return err
	}

	err := m.api.ChangePassword(ctx, change)
	var apiErr *apierr.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return &apierr.AuthError{Message: apiErr.Message, Err: err}
	}
	return err
}

func (m *Manager) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.user = nil
}

// expired reads the exp claim without verifying the signature. Tokens
// that are not JWTs, or carry no exp, are left to the server to judge.
func expired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}
