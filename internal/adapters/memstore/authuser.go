package memstore

import (
	"context"
	"sync"

	"github.com/pagemarket/marketplace/internal/domain"
)

type AuthUserStore struct {
	mu    sync.RWMutex
	users map[string]domain.AuthUser
}

func NewAuthUserStore() *AuthUserStore {
	return &AuthUserStore{users: make(map[string]domain.AuthUser)}
}

func (s *AuthUserStore) GetByUsername(_ context.Context, username string) (domain.AuthUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return domain.AuthUser{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *AuthUserStore) Create(_ context.Context, user domain.AuthUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Username]; ok {
		return domain.ErrConflict
	}
	s.users[user.Username] = user
	return nil
}
