package session

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/env"
)

// CookieName is the cookie carrying the signed session token.
const CookieName = "ml_session"

// Result is handed to server-side request handlers after successful
// validation. The SSID stays inside the process; request id and timestamp
// feed logging and response envelopes.
type Result struct {
	SSID      string
	Claims    *Claims
	RequestID string
	Timestamp time.Time
}

// Validate extracts the session token from the request (cookie first, then
// Authorization header), verifies it and returns the session identifier with
// a fresh correlation id. It performs no network call and mutates nothing.
func Validate(c *fiber.Ctx) (*Result, error) {
	token := TokenFromRequest(c)
	if token == "" {
		return nil, ErrNoToken
	}

	claims, err := Parse(token)
	if err != nil {
		return nil, err
	}
	if claims.SSID == "" {
		return nil, ErrNoSessionID
	}

	return &Result{
		SSID:      claims.SSID,
		Claims:    claims,
		RequestID: uuid.NewString(),
		Timestamp: time.Now(),
	}, nil
}

// TokenFromRequest returns the raw session token or "".
func TokenFromRequest(c *fiber.Ctx) string {
	if v := c.Cookies(CookieName); v != "" {
		return v
	}
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// SetCookie writes the session token cookie on the response.
func SetCookie(c *fiber.Ctx, token string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   !env.IsDev(),
		SameSite: "Lax",
		Path:     "/",
	})
}

// ClearCookie expires the session cookie on sign-out.
func ClearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   !env.IsDev(),
		SameSite: "Lax",
		Path:     "/",
	})
}
