package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/serhq/estimator/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// JWTManager handles JWT token generation and validation for API sessions.
// Tokens come in two lifetimes mirroring the client's login choice: a short
// session token, and a 7-day remember-me token matching the persistent
// login marker's expiry window.
type JWTManager struct {
	secretKey        []byte
	sessionDuration  time.Duration
	rememberDuration time.Duration
}

// Claims represents the custom JWT claims for a user session.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// NewJWTManager creates a JWT manager. secretKey should be a strong random
// string (e.g. 32 bytes); sessionDuration is the short-lived token lifetime,
// rememberDuration the remember-me lifetime.
func NewJWTManager(secretKey string, sessionDuration, rememberDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:        []byte(secretKey),
		sessionDuration:  sessionDuration,
		rememberDuration: rememberDuration,
	}
}

// Generate creates a new JWT token for the given user. With remember set the
// token gets the long lifetime.
func (m *JWTManager) Generate(user *models.User, remember bool) (string, error) {
	duration := m.sessionDuration
	if remember {
		duration = m.rememberDuration
	}

	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Validate parses and validates a JWT token, returning the claims if valid.
func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			// Verify the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
	)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
