package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// Token store keys.
const (
	KeyVerifyToken = "verifyToken"
	KeySession     = "token"
)

var (
	// ErrUnauthorized is returned by the backend when the session token is
	// missing, expired or revoked.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTokenNotFound is returned by a TokenStore for an absent key.
	ErrTokenNotFound = errors.New("token not found")
)

// User holds the identity of a signed in customer.
type User struct {
	ID      string
	Name    string
	Email   string
	IsAdmin bool
}

// Session is the result of a successful OTP verification.
type Session struct {
	Token string
	User  User
}

// Backend is the authentication side of the remote backend.
type Backend interface {
	// Login sends an OTP to email and returns the token that must accompany
	// the OTP on verification.
	Login(ctx context.Context, email string) (verifyToken string, err error)
	Verify(ctx context.Context, verifyToken, otp string) (*Session, error)
	Me(ctx context.Context, token string) (*User, error)
}

// TokenStore persists opaque tokens by key.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
