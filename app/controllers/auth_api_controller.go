package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/authcache"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/middleware"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/proxy"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/session"
)

// AuthAPIController serves the session endpoints. The status cache and the
// upstream proxy are injected so tests can substitute isolated instances.
type AuthAPIController struct {
	Cache   *authcache.Cache
	Backend *proxy.Client
}

func NewAuthAPIController(cache *authcache.Cache, backend *proxy.Client) *AuthAPIController {
	return &AuthAPIController{Cache: cache, Backend: backend}
}

// HandleStatus returns the public-safe auth snapshot. Anonymous requests get
// the logged-out snapshot without touching the cache or the upstream; for
// authenticated sessions the upstream liveness check runs at most once per
// cache TTL. The response never carries the session identifier.
func (ac *AuthAPIController) HandleStatus(c *fiber.Ctx) error {
	result, err := session.Validate(c)
	if err != nil {
		return c.JSON(authcache.LoggedOut())
	}

	claims := result.Claims
	snap := ac.Cache.GetStatus(c.Context(), result.SSID, func(ctx context.Context) (authcache.Snapshot, error) {
		if _, err := ac.Backend.VerifySession(ctx, result.SSID); err != nil {
			return authcache.Snapshot{}, err
		}
		return authcache.Snapshot{
			HasAuth:  true,
			Email:    claims.Email,
			Name:     claims.Name,
			Provider: claims.Provider,
		}, nil
	})

	return c.JSON(snap)
}

// HandleTokenInfo exposes token expiry introspection for the refresh loop.
func (ac *AuthAPIController) HandleTokenInfo(c *fiber.Ctx) error {
	result, err := session.Validate(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "No valid session token",
		})
	}

	claims := result.Claims
	exp := claims.ExpiresAt.Unix()
	iat := claims.IssuedAt.Unix()
	return c.JSON(fiber.Map{
		"success":         true,
		"exp":             exp,
		"iat":             iat,
		"timeUntilExpiry": exp - time.Now().Unix(),
	})
}

// HandleRefresh re-issues the session token with a fresh expiry window and
// rewrites the cookie.
func (ac *AuthAPIController) HandleRefresh(c *fiber.Ctx) error {
	result, err := session.Validate(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "No valid session token",
		})
	}

	ttl := session.TTL()
	token, err := session.Refresh(result.Claims, ttl)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to refresh session token",
		})
	}

	session.SetCookie(c, token, ttl)
	return c.JSON(fiber.Map{
		"success": true,
		"exp":     time.Now().Add(ttl).Unix(),
	})
}

// HandleSessionVerify proxies the upstream isLogged check and normalizes the
// answer into the application envelope.
func (ac *AuthAPIController) HandleSessionVerify(c *fiber.Ctx) error {
	result := middleware.SessionFromLocals(c)
	if result == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Authentication required",
		})
	}

	isNewbie, err := ac.Backend.VerifySession(c.Context(), result.SSID)
	if err != nil {
		classified := proxy.Classify(err)
		return c.Status(classified.Status).JSON(fiber.Map{
			"success":   false,
			"message":   classified.Message,
			"requestId": result.RequestID,
		})
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"data":      fiber.Map{"isNewbie": isNewbie},
		"requestId": result.RequestID,
		"timestamp": result.Timestamp.UTC().Format(time.RFC3339),
	})
}

// HandleLogout clears the session cookie and evicts the cached snapshot.
func (ac *AuthAPIController) HandleLogout(c *fiber.Ctx) error {
	if result, err := session.Validate(c); err == nil {
		ac.Cache.Clear(c.Context(), result.SSID)
	}
	session.ClearCookie(c)
	return c.JSON(fiber.Map{"success": true})
}
