package services

import (
	"errors"
	"fmt"
	"time"

	"direct-messenger-backend/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs and validates bearer tokens. With an empty secret it is
// disabled: Issue returns "" and the HTTP layer trusts user ids from requests.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a token issuer
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Enabled reports whether tokens are issued and required
func (t *TokenIssuer) Enabled() bool {
	return t != nil && len(t.secret) > 0
}

// Issue generates a JWT for a user
func (t *TokenIssuer) Issue(userID string) (string, error) {
	if !t.Enabled() {
		return "", nil
	}

	now := t.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(t.ttl).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Validate validates a JWT and returns the user ID it was issued for
func (t *TokenIssuer) Validate(tokenString string) (string, error) {
	if !t.Enabled() {
		return "", errors.New("tokens are disabled")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w: %w", apperr.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims: %w", apperr.ErrUnauthorized)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user_id not found in token: %w", apperr.ErrUnauthorized)
	}

	return userID, nil
}
