package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"labvault.app/internal/ids"
)

// InMemoryUsers is a map-backed UserStore for tests and local development.
type InMemoryUsers struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string
}

func NewInMemoryUsers() *InMemoryUsers {
	return &InMemoryUsers{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

func (s *InMemoryUsers) Create(ctx context.Context, u *User) error {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if email == "" || u.PasswordHash == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return ErrAlreadyExists
	}

	now := time.Now().UTC()
	u.ID = ids.New()
	u.Email = email
	u.CreatedAt = now
	u.UpdatedAt = now

	clone := *u
	s.byID[u.ID] = &clone
	s.byEmail[email] = u.ID
	return nil
}

func (s *InMemoryUsers) Find(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *InMemoryUsers) FindByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *s.byID[id]
	return &clone, nil
}

// Delete removes an account. Used by tests exercising deleted-account
// behavior against live tokens.
func (s *InMemoryUsers) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byEmail, u.Email)
	delete(s.byID, id)
	return nil
}
