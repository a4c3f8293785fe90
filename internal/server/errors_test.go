package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jonathan/grant-portal/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", types.NewValidation("duration", "Duration must be between 1 and 36 months"), http.StatusBadRequest, "Duration must be between 1 and 36 months"},
		{"state conflict", &types.ErrStateConflict{Message: "Cannot delete application that has been submitted"}, http.StatusBadRequest, "Cannot delete application that has been submitted"},
		{"transition", &types.ErrInvalidTransition{From: "draft", To: "approved"}, http.StatusBadRequest, "cannot move application from draft to approved"},
		{"not found", &types.ErrNotFound{Resource: "application"}, http.StatusNotFound, "Application not found"},
		{"wrapped not found", fmt.Errorf("loading: %w", &types.ErrNotFound{Resource: "educational record"}), http.StatusNotFound, "Educational record not found"},
		{"unauthorized", &types.ErrUnauthorized{}, http.StatusUnauthorized, "not authorized to access this route"},
		{"bad login", &types.ErrInvalidCredentials{}, http.StatusUnauthorized, "invalid email or password"},
		{"forbidden", &types.ErrForbidden{Role: "user"}, http.StatusForbidden, ""},
		{"email taken", &types.ErrEmailAlreadyExists{Email: "a@example.com"}, http.StatusConflict, ""},
		{"unknown", errors.New("connection reset by peer"), http.StatusInternalServerError, "Server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := HTTPStatus(tt.err)
			assert.Equal(t, tt.status, status)
			if tt.message != "" {
				assert.Equal(t, tt.message, publicMessage(tt.err, status))
			}
		})
	}
}
