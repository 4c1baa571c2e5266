package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateReadsCookie(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")

	token, err := Issue("ssid-abc", "user@example.com", "", "google", time.Hour)
	require.NoError(t, err)

	var got *Result
	var gotErr error
	app := fiber.New()
	app.Get("/probe", func(c *fiber.Ctx) error {
		got, gotErr = Validate(c)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	_, err = app.Test(req)
	require.NoError(t, err)

	require.NoError(t, gotErr)
	require.NotNil(t, got)
	assert.Equal(t, "ssid-abc", got.SSID)
	assert.NotEmpty(t, got.RequestID)
	assert.False(t, got.Timestamp.IsZero())
}

func TestValidateReadsBearerHeader(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")

	token, err := Issue("ssid-abc", "", "", "", time.Hour)
	require.NoError(t, err)

	var got *Result
	var gotErr error
	app := fiber.New()
	app.Get("/probe", func(c *fiber.Ctx) error {
		got, gotErr = Validate(c)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	_, err = app.Test(req)
	require.NoError(t, err)

	require.NoError(t, gotErr)
	assert.Equal(t, "ssid-abc", got.SSID)
}

func TestValidateMissingToken(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")

	var gotErr error
	app := fiber.New()
	app.Get("/probe", func(c *fiber.Ctx) error {
		_, gotErr = Validate(c)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	_, err := app.Test(req)
	require.NoError(t, err)

	assert.ErrorIs(t, gotErr, ErrNoToken)
}

func TestValidateRejectsGarbageToken(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")

	var gotErr error
	app := fiber.New()
	app.Get("/probe", func(c *fiber.Ctx) error {
		_, gotErr = Validate(c)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-jwt"})
	_, err := app.Test(req)
	require.NoError(t, err)

	assert.ErrorIs(t, gotErr, ErrInvalidToken)
}
