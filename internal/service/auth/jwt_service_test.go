package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-testing"

func newTestService(t *testing.T, secret string, now time.Time) JWTService {
	t.Helper()
	svc, err := NewJWTService(
		config.AuthConfig{JWTSecret: secret, TokenLifetimeMinutes: 60},
		WithTimeFunc(func() time.Time { return now }),
	)
	require.NoError(t, err)
	return svc
}

func TestNewJWTService_ShortSecret(t *testing.T) {
	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 60})
	assert.ErrorIs(t, err, ErrShortSecret)
}

func TestGenerateAndValidate(t *testing.T) {
	t.Parallel()
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()
	svc := newTestService(t, testSecret, fixed)

	token, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, fixed.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixed.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken_Failures(t *testing.T) {
	t.Parallel()
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	issued, err := newTestService(t, testSecret, fixed).GenerateToken(context.Background(), userID)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, tokenClaims{
		UserID:    userID,
		TokenType: accessTokenType,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		svc     JWTService
		wantErr error
	}{
		{"missing", "", newTestService(t, testSecret, fixed), ErrMissingToken},
		{"malformed", "not.a.jwt", newTestService(t, testSecret, fixed), ErrInvalidToken},
		{"wrong secret", issued, newTestService(t, "wrong-secret-that-is-long-enough-for-testing", fixed), ErrInvalidToken},
		{"expired", issued, newTestService(t, testSecret, fixed.Add(2*time.Hour)), ErrExpiredToken},
		{"within clock skew", issued, newTestService(t, testSecret, fixed.Add(61*time.Minute)), nil},
		{"issued in the future", issued, newTestService(t, testSecret, fixed.Add(-10*time.Minute)), ErrTokenNotYetValid},
		{"unsigned", noneToken, newTestService(t, testSecret, fixed), ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.ValidateToken(context.Background(), tt.token)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		})
	}
}
