package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// User Methods
// -----------------------------------------------------------------------------

const userColumns = `id, name, email, role, password_hash, created_at, updated_at`

// CreateUser inserts a user and returns its ID. Email is stored lower-cased.
func (db *DB) CreateUser(ctx context.Context, name, email, passwordHash string, role Role) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, role, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		name, strings.ToLower(email), role, passwordHash,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// GetUser retrieves a user by ID. Returns nil if not found.
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	var u User
	err := db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetUserByEmail retrieves a user by email (case-insensitive). Returns nil if not found.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email),
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

// CheckEmailExists reports whether an account already uses email.
func (db *DB) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, strings.ToLower(email),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// SetUserRole changes the role of the account with the given email.
// Returns false if no such account exists.
func (db *DB) SetUserRole(ctx context.Context, email string, role Role) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET role = $1, updated_at = NOW() WHERE email = $2`,
		role, strings.ToLower(email),
	)
	if err != nil {
		return false, fmt.Errorf("failed to set user role: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdatePassword replaces the password hash of a user.
// Returns false if the user does not exist.
func (db *DB) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update password: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
