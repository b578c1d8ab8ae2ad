package services

import (
	"context"
	"errors"
	"time"

	"nearbuy-chat/internal/config"
	nearbuy_errors "nearbuy-chat/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// BlockedChecker answers whether moderation has blocked an account. Backed
// by the Redis set the admin surface maintains.
type BlockedChecker interface {
	IsBlocked(ctx context.Context, userID string) (bool, error)
}

// AuthService verifies bearer tokens issued by the external auth service.
// Issuance is not this service's concern; only the validation side of the
// contract lives here.
type AuthService struct {
	jwtSecret       []byte
	blocked         BlockedChecker
	validateTimeout time.Duration
}

func NewAuthService(cfg config.AuthConfig, blocked BlockedChecker) *AuthService {
	timeout := cfg.ValidateTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AuthService{
		jwtSecret:       []byte(cfg.JWTSecret),
		blocked:         blocked,
		validateTimeout: timeout,
	}
}

type AccessClaims struct {
	UserID string `json:"sub"`
	jwt.RegisteredClaims
}

func (s *AuthService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	if tokenString == "" {
		return AccessClaims{}, nearbuy_errors.ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, nearbuy_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return AccessClaims{}, nearbuy_errors.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok {
		return AccessClaims{}, nearbuy_errors.ErrUnauthorized
	}
	return *claims, nil
}

// Authenticate resolves a bearer token to an identity. The blocked-account
// lookup runs under a bounded timeout; a validator that does not answer in
// time rejects the handshake instead of hanging it.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (uuid.UUID, error) {
	claims, err := s.ParseAccessToken(tokenString)
	if err != nil {
		return uuid.Nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, nearbuy_errors.ErrUnauthorized
	}

	if s.blocked != nil {
		checkCtx, cancel := context.WithTimeout(ctx, s.validateTimeout)
		defer cancel()

		blocked, err := s.blocked.IsBlocked(checkCtx, userID.String())
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return uuid.Nil, nearbuy_errors.ErrUnauthorized
			}
			return uuid.Nil, nearbuy_errors.ErrUnauthorized
		}
		if blocked {
			return uuid.Nil, nearbuy_errors.ErrUnauthorized
		}
	}

	return userID, nil
}
