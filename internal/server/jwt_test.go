package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonathan/grant-portal/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(secret string, at time.Time) *JWTService {
	s := NewJWTService(&config.JWTConfig{Secret: secret, Issuer: "grant-portal", ExpirationHours: 24})
	s.now = func() time.Time { return at }
	return s
}

func TestJWTService_RoundTrip(t *testing.T) {
	now := time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)
	s := newTestJWTService("test-secret", now)
	userID := uuid.New()

	token, err := s.GenerateToken(userID, "reviewer")
	require.NoError(t, err)

	claims, err := s.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "reviewer", claims.Role)
	assert.Equal(t, "grant-portal", claims.Issuer)
	assert.True(t, now.Add(24*time.Hour).Equal(claims.ExpiresAt.Time), claims.ExpiresAt.Time.String())

	p, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, p.ID)
	assert.Equal(t, "reviewer", p.Role)
}

func TestJWTService_Rejects(t *testing.T) {
	now := time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)
	s := newTestJWTService("test-secret", now)
	token, err := s.GenerateToken(uuid.New(), "user")
	require.NoError(t, err)

	otherIssuer := NewJWTService(&config.JWTConfig{Secret: "test-secret", Issuer: "someone-else", ExpirationHours: 24})
	otherIssuer.now = s.now
	foreign, err := otherIssuer.GenerateToken(uuid.New(), "admin")
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: uuid.New(), Role: "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		service *JWTService
		token   string
		errMsg  string
	}{
		{"empty", s, "", "token string is empty"},
		{"garbage", s, "not.a.token", "malformed token"},
		{"wrong secret", newTestJWTService("other-secret", now), token, "invalid token signature"},
		{"expired", newTestJWTService("test-secret", now.Add(25*time.Hour)), token, "token expired"},
		{"wrong issuer", s, foreign, ""},
		{"unsigned", s, noneToken, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.service.ParseToken(tt.token)
			require.Error(t, err)
			if tt.errMsg != "" {
				assert.True(t, strings.HasPrefix(err.Error(), tt.errMsg), err.Error())
			}
		})
	}
}
