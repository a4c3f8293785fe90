package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/grant-portal/internal/config"
	"github.com/jonathan/grant-portal/internal/db"
	"github.com/jonathan/grant-portal/internal/types"
)

// UserStore is the account persistence the user service needs.
type UserStore interface {
	CreateUser(ctx context.Context, name, email, passwordHash string, role db.Role) (uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) (bool, error)
}

// UserService implements registration, login and password changes.
type UserService struct {
	store          UserStore
	passwordConfig *config.PasswordConfig
	logger         *slog.Logger
}

// NewUserService creates a new UserService with the given dependencies
func NewUserService(store UserStore, passwordConfig *config.PasswordConfig, logger *slog.Logger) *UserService {
	return &UserService{store: store, passwordConfig: passwordConfig, logger: logger}
}

func toUser(u *db.User) *types.User {
	if u == nil {
		return nil
	}
	return &types.User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Register creates an account with the user role.
func (s *UserService) Register(ctx context.Context, req *types.CreateUserRequest) (*types.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.store.CheckEmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, &types.ErrEmailAlreadyExists{Email: email}
	}

	hash, err := s.passwordConfig.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	id, err := s.store.CreateUser(ctx, strings.TrimSpace(req.Name), email, hash, db.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve created user: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("created user not found: %s", id)
	}
	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", id.String()))
	return toUser(u), nil
}

// Login checks credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, req *types.LoginRequest) (*types.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	if u == nil || !s.passwordConfig.VerifyPassword(req.Password, u.PasswordHash) {
		return nil, &types.ErrInvalidCredentials{}
	}
	return toUser(u), nil
}

// Get returns the account of userID.
func (s *UserService) Get(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil {
		return nil, &types.ErrNotFound{Resource: "user"}
	}
	return toUser(u), nil
}

// Role returns the stored role of userID; ok is false for unknown users.
func (s *UserService) Role(ctx context.Context, userID uuid.UUID) (string, bool, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return "", false, fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil {
		return "", false, nil
	}
	return string(u.Role), true, nil
}

// UpdatePassword replaces the password after checking the current one.
func (s *UserService) UpdatePassword(ctx context.Context, userID uuid.UUID, req *types.UpdatePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil {
		return &types.ErrNotFound{Resource: "user"}
	}
	if !s.passwordConfig.VerifyPassword(req.CurrentPassword, u.PasswordHash) {
		return types.NewValidation("current_password", "Current password is incorrect")
	}

	hash, err := s.passwordConfig.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	ok, err := s.store.UpdatePassword(ctx, userID, hash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if !ok {
		return &types.ErrNotFound{Resource: "user"}
	}
	return nil
}
