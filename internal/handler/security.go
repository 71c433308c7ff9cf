package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/errors"
)

// APIKeyHeader carries the client API key.
const APIKeyHeader = "api_key"

// SecurityHandler authenticates API requests via an HMAC-SHA256 hashed API
// key shared with the storefront UI.
type SecurityHandler struct {
	hash   []byte
	pepper []byte
}

// NewSecurityHandler creates a SecurityHandler accepting the key whose
// hex-encoded HMAC-SHA256 under pepper is keyHash.
func NewSecurityHandler(keyHash string, pepper []byte) (*SecurityHandler, error) {
	hash, err := hex.DecodeString(keyHash)
	if err != nil {
		return nil, errors.Wrap(err, "decode api key hash")
	}
	if len(hash) != sha256.Size {
		return nil, errors.Errorf("api key hash must be %d bytes, got %d", sha256.Size, len(hash))
	}
	return &SecurityHandler{hash: hash, pepper: pepper}, nil
}

// HashAPIKey returns the hex-encoded HMAC-SHA256 of key under pepper.
func HashAPIKey(key string, pepper []byte) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// Check reports whether key matches the configured hash in constant time.
func (s *SecurityHandler) Check(key string) bool {
	if key == "" {
		return false
	}
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(key))
	return subtle.ConstantTimeCompare(mac.Sum(nil), s.hash) == 1
}

// Middleware rejects requests without a valid API key.
func (s *SecurityHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.Check(r.Header.Get(APIKeyHeader)) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
