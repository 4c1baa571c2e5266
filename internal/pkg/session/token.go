package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/env"
)

// Token validation failures. All of them map to HTTP 401 at the edge.
var (
	ErrNoToken      = errors.New("session token missing")
	ErrInvalidToken = errors.New("session token invalid")
	ErrTokenExpired = errors.New("session token expired")
	ErrNoSessionID  = errors.New("session token has no session id")
)

// Claims carries the signed session state. SSID is the secret session
// identifier used as the bearer credential against the origin service and
// must never be serialized into browser-facing responses; only the
// PublicSnapshot shape leaves the server.
type Claims struct {
	SSID     string `json:"ssid,omitempty"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Provider string `json:"provider,omitempty"`
	jwt.RegisteredClaims
}

// PublicSnapshot is the public-safe projection of session claims.
type PublicSnapshot struct {
	HasAuth  bool   `json:"hasAuth"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// Public strips the secret session identifier from the claims.
func (c *Claims) Public() PublicSnapshot {
	return PublicSnapshot{
		HasAuth:  true,
		Email:    c.Email,
		Name:     c.Name,
		Provider: c.Provider,
	}
}

func secret() ([]byte, error) {
	s := env.GetEnv("SESSION_SECRET", "")
	if s == "" {
		return nil, errors.New("SESSION_SECRET is not configured")
	}
	return []byte(s), nil
}

// TTL returns the configured session token lifetime.
func TTL() time.Duration {
	minutes := 60
	if v := env.GetEnv("SESSION_TTL_MINUTES", ""); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			minutes = parsed
		}
	}
	return time.Duration(minutes) * time.Minute
}

// Issue signs a new session token for the given identity.
func Issue(ssid, email, name, provider string, ttl time.Duration) (string, error) {
	if ssid == "" {
		return "", ErrNoSessionID
	}
	key, err := secret()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := Claims{
		SSID:     ssid,
		Email:    email,
		Name:     name,
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature and expiry and returns the embedded claims.
func Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}
	key, err := secret()
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Refresh re-issues a token with the same identity claims and a fresh
// iat/exp window.
func Refresh(claims *Claims, ttl time.Duration) (string, error) {
	if claims == nil || claims.SSID == "" {
		return "", ErrNoSessionID
	}
	return Issue(claims.SSID, claims.Email, claims.Name, claims.Provider, ttl)
}
