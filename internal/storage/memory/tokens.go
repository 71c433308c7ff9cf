package memory

import (
	"context"
	"sync"

	"github.com/piyush31508/Flavor-Express/internal/domain/auth"
)

var _ auth.TokenStore = (*TokenStore)(nil)

// TokenStore keeps tokens in process memory. Tokens are lost on restart.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewTokenStore returns an empty TokenStore.
func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]string)}
}

func (s *TokenStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.tokens[key]
	if !ok {
		return "", auth.ErrTokenNotFound
	}
	return v, nil
}

func (s *TokenStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[key] = value
	return nil
}

func (s *TokenStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, key)
	return nil
}
