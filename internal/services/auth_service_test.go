package services

import (
	"context"
	"testing"
	"time"

	"nearbuy-chat/internal/config"
	nearbuy_errors "nearbuy-chat/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlockedChecker struct {
	blocked map[string]bool
	err     error
}

func (f *fakeBlockedChecker) IsBlocked(ctx context.Context, userID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.blocked[userID], nil
}

func signToken(t *testing.T, secret string, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		UserID: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthenticateValidToken(t *testing.T) {
	svc := NewAuthService(config.AuthConfig{JWTSecret: "secret"}, &fakeBlockedChecker{})
	userID := uuid.New()

	got, err := svc.Authenticate(context.Background(), signToken(t, "secret", userID.String()))
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestAuthenticateRejections(t *testing.T) {
	svc := NewAuthService(config.AuthConfig{JWTSecret: "secret"}, &fakeBlockedChecker{})

	_, err := svc.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, nearbuy_errors.ErrUnauthorized)

	_, err = svc.Authenticate(context.Background(), signToken(t, "wrong-secret", uuid.New().String()))
	assert.ErrorIs(t, err, nearbuy_errors.ErrUnauthorized)

	_, err = svc.Authenticate(context.Background(), signToken(t, "secret", "not-a-uuid"))
	assert.ErrorIs(t, err, nearbuy_errors.ErrUnauthorized)
}

func TestAuthenticateExpiredToken(t *testing.T) {
	svc := NewAuthService(config.AuthConfig{JWTSecret: "secret"}, nil)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		UserID: uuid.New().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), signed)
	assert.ErrorIs(t, err, nearbuy_errors.ErrUnauthorized)
}

func TestAuthenticateBlockedAccount(t *testing.T) {
	userID := uuid.New()
	checker := &fakeBlockedChecker{blocked: map[string]bool{userID.String(): true}}
	svc := NewAuthService(config.AuthConfig{JWTSecret: "secret"}, checker)

	_, err := svc.Authenticate(context.Background(), signToken(t, "secret", userID.String()))
	assert.ErrorIs(t, err, nearbuy_errors.ErrUnauthorized)
}

func TestAuthenticateBlockedCheckerFailureClosesHandshake(t *testing.T) {
	checker := &fakeBlockedChecker{err: context.DeadlineExceeded}
	svc := NewAuthService(config.AuthConfig{JWTSecret: "secret", ValidateTimeout: time.Millisecond}, checker)

	_, err := svc.Authenticate(context.Background(), signToken(t, "secret", uuid.New().String()))
	assert.ErrorIs(t, err, nearbuy_errors.ErrUnauthorized)
}
