package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/cafe-storefront/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// NewScope returns a fresh random handoff scope.
func NewScope() string {
	return uuid.NewString()
}

// MintScopeToken signs scope into a cookie value valid for cfg.ScopeTTL.
func MintScopeToken(cfg config.HandoffConfig, now time.Time, scope string) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("handoff secret is required")
	}
	if cfg.ScopeTTL <= 0 {
		return "", fmt.Errorf("handoff scope ttl must be positive")
	}
	scope = strings.TrimSpace(scope)
	if _, err := uuid.Parse(scope); err != nil {
		return "", fmt.Errorf("invalid handoff scope %q: %w", scope, err)
	}

	claims := ScopeClaims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.ScopeTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing handoff scope: %w", err)
	}
	return signed, nil
}

// ParseScopeToken validates the cookie value and returns its claims.
func ParseScopeToken(cfg config.HandoffConfig, tokenString string) (*ScopeClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("handoff secret is required")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwtSigningMethod.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := &ScopeClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		opts...,
	)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(claims.Scope); err != nil {
		return nil, fmt.Errorf("handoff scope claim is not a uuid: %w", err)
	}
	return claims, nil
}
