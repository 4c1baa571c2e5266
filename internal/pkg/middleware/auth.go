package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/session"
)

// SessionKey is the Locals key holding the validated *session.Result.
const SessionKey = "SESSION_RESULT"

// RequireSession validates the signed session token and returns JSON 401 on
// failure. Protected handlers downstream read the result from Locals; no
// upstream call happens before this check passes.
func RequireSession(c *fiber.Ctx) error {
	result, err := session.Validate(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Authentication required",
		})
	}
	c.Locals(SessionKey, result)
	return c.Next()
}

// SessionFromLocals returns the validated session result set by
// RequireSession, or nil when the middleware did not run.
func SessionFromLocals(c *fiber.Ctx) *session.Result {
	if v, ok := c.Locals(SessionKey).(*session.Result); ok {
		return v
	}
	return nil
}
