package server

import (
	"fmt"
	"net/http"

	"github.com/jonathan/grant-portal/internal/types"
)

type errorResponder func(w http.ResponseWriter, r *http.Request, err error)

// AuthHandler handles account HTTP requests.
type AuthHandler struct {
	userService *UserService
	jwtService  *JWTService
	fail        errorResponder
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(userService *UserService, jwtService *JWTService, fail errorResponder) *AuthHandler {
	return &AuthHandler{userService: userService, jwtService: jwtService, fail: fail}
}

// Register creates an account and logs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req types.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondWithToken(w, r, http.StatusCreated, user)
}

// Login exchanges credentials for a token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondWithToken(w, r, http.StatusOK, user)
}

// Me returns the caller's account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.Get(r.Context(), principal(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, user)
}

// UpdatePassword changes the caller's password.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req types.UpdatePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.userService.UpdatePassword(r.Context(), principal(r).ID, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Password updated successfully", nil)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user *types.User) {
	token, err := h.jwtService.GenerateToken(user.ID, user.Role)
	if err != nil {
		h.fail(w, r, fmt.Errorf("failed to generate token: %w", err))
		return
	}
	respondData(w, status, types.LoginResponse{User: user, Token: token})
}
