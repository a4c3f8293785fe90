package memdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/grant-portal/internal/db"
)

// CreateUser inserts a user and returns its ID. Emails are unique, case-insensitively.
func (s *Store) CreateUser(_ context.Context, name, email, passwordHash string, role db.Role) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email {
			return uuid.Nil, fmt.Errorf("failed to create user: duplicate email %s", email)
		}
	}

	now := s.timestamp()
	u := db.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[u.ID] = u
	return u.ID, nil
}

// GetUser retrieves a user by ID. Returns nil if not found.
func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*db.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// GetUserByEmail retrieves a user by email. Returns nil if not found.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.findByEmail(email); ok {
		return &u, nil
	}
	return nil, nil
}

// CheckEmailExists reports whether an account already uses email.
func (s *Store) CheckEmailExists(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.findByEmail(email)
	return ok, nil
}

// SetUserRole changes the role of the account with the given email.
func (s *Store) SetUserRole(_ context.Context, email string, role db.Role) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.findByEmail(email)
	if !ok {
		return false, nil
	}
	u.Role = role
	u.UpdatedAt = s.timestamp()
	s.users[u.ID] = u
	return true, nil
}

// UpdatePassword replaces the password hash of a user.
func (s *Store) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return false, nil
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = s.timestamp()
	s.users[u.ID] = u
	return true, nil
}

func (s *Store) findByEmail(email string) (db.User, bool) {
	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email {
			return u, true
		}
	}
	return db.User{}, false
}
