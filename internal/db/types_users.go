package db

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authorization role of a user account.
type Role string

// Known roles
const (
	RoleUser     Role = "user"
	RoleAdmin    Role = "admin"
	RoleReviewer Role = "reviewer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleReviewer:
		return true
	}
	return false
}

// User represents an account holder
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never serialize to JSON
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
