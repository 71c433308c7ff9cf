// Package session tracks the signed in user of the storefront across the OTP
// login flow. Tokens are kept in an auth.TokenStore so a restart can restore
// the session.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/piyush31508/Flavor-Express/internal/domain/auth"
	"github.com/piyush31508/Flavor-Express/internal/notify"
)

var (
	ErrNoVerifyToken = errors.New("no verification token found")
	ErrEmailRequired = errors.New("email is required")
	ErrOTPRequired   = errors.New("otp is required")
)

// State is a copy of the session state.
type State struct {
	Authenticated bool
	User          *auth.User
}

// IsAdmin reports whether the signed in user may edit the catalog.
func (s State) IsAdmin() bool {
	return s.Authenticated && s.User != nil && s.User.IsAdmin
}

// Manager runs the login, verification and logout flow.
type Manager struct {
	backend auth.Backend
	tokens  auth.TokenStore
	notify  notify.Notifier
	lg      *zap.Logger

	mu    sync.Mutex
	state State
}

// New creates a signed out Manager.
func New(backend auth.Backend, tokens auth.TokenStore, n notify.Notifier, lg *zap.Logger) *Manager {
	return &Manager{
		backend: backend,
		tokens:  tokens,
		notify:  n,
		lg:      lg,
	}
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *Manager) stateLocked() State {
	st := m.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

func (m *Manager) set(authenticated bool, user *auth.User) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = State{Authenticated: authenticated, User: user}
	return m.stateLocked()
}

// Login asks the backend to send an OTP to email and keeps the verification
// token for Verify.
func (m *Manager) Login(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}

	verifyToken, err := m.backend.Login(ctx, email)
	if err == nil {
		err = m.tokens.Set(ctx, auth.KeyVerifyToken, verifyToken)
	}
	if err != nil {
		m.lg.Warn("Login failed", zap.Error(err))
		m.notify.Error("Failed to send OTP. Please try again later.")
		return errors.Wrap(err, "login")
	}

	m.notify.Success("OTP Sent Successfully!")
	return nil
}

// Verify exchanges the pending verification token and otp for a session.
func (m *Manager) Verify(ctx context.Context, otp string) (State, error) {
	otp = strings.TrimSpace(otp)
	if otp == "" {
		return m.State(), ErrOTPRequired
	}

	verifyToken, err := m.tokens.Get(ctx, auth.KeyVerifyToken)
	switch {
	case errors.Is(err, auth.ErrTokenNotFound) || (err == nil && verifyToken == ""):
		m.notify.Error("No verification token found")
		return m.State(), ErrNoVerifyToken
	case err != nil:
		return m.State(), errors.Wrap(err, "get verify token")
	}

	sess, err := m.backend.Verify(ctx, verifyToken, otp)
	if err == nil {
		err = m.storeSession(ctx, sess.Token)
	}
	if err != nil {
		m.lg.Warn("Verify failed", zap.Error(err))
		m.notify.Error("Failed to Login. Please try again later.")
		m.set(false, nil)
		return m.State(), errors.Wrap(err, "verify")
	}

	user := sess.User
	m.set(true, &user)
	m.notify.Success("Login Successful!")
	m.lg.Info("User signed in", zap.String("user_id", user.ID), zap.Bool("admin", user.IsAdmin))

	return m.Restore(ctx), nil
}

func (m *Manager) storeSession(ctx context.Context, token string) error {
	if err := m.tokens.Delete(ctx, auth.KeyVerifyToken); err != nil {
		return errors.Wrap(err, "delete verify token")
	}
	if err := m.tokens.Set(ctx, auth.KeySession, token); err != nil {
		return errors.Wrap(err, "store session token")
	}
	return nil
}

// Restore refreshes the user from the stored session token. Without a token
// the session is signed out. A token rejected by the backend is discarded.
func (m *Manager) Restore(ctx context.Context) State {
	token, err := m.tokens.Get(ctx, auth.KeySession)
	if err != nil || token == "" {
		if err != nil && !errors.Is(err, auth.ErrTokenNotFound) {
			m.lg.Warn("Read session token", zap.Error(err))
		}
		return m.set(false, nil)
	}

	user, err := m.backend.Me(ctx, token)
	if err != nil {
		m.lg.Warn("Fetch user details failed", zap.Error(err))
		m.notify.Error("Failed to fetch user details.")
		if errors.Is(err, auth.ErrUnauthorized) {
			if err := m.tokens.Delete(ctx, auth.KeySession); err != nil {
				m.lg.Warn("Delete session token", zap.Error(err))
			}
			return m.set(false, nil)
		}
		return m.State()
	}

	return m.set(true, user)
}

// Token returns the stored session token, or "" when signed out.
func (m *Manager) Token(ctx context.Context) string {
	if !m.State().Authenticated {
		return ""
	}
	token, err := m.tokens.Get(ctx, auth.KeySession)
	if err != nil {
		return ""
	}
	return token
}

// Logout drops the session token and the user.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.tokens.Delete(ctx, auth.KeySession); err != nil {
		return errors.Wrap(err, "delete session token")
	}
	m.set(false, nil)
	m.notify.Success("Logged Out Successfully!")
	return nil
}
