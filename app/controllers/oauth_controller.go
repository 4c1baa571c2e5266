package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	gothfiber "github.com/shareed2k/goth_fiber"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"

	"github.com/whirik-dev/Music-Library-sub002/app/models"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/database"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/proxy"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/session"
)

// OAuthController completes the provider flow and exchanges the OAuth
// profile for an upstream session. Sign-in is the only place a session token
// is first issued.
type OAuthController struct {
	Backend *proxy.Client
}

func NewOAuthController(backend *proxy.Client) *OAuthController {
	return &OAuthController{Backend: backend}
}

// HandleLogin starts the provider redirect.
func (oc *OAuthController) HandleLogin(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleCallback completes the provider flow, establishes the upstream
// session and sets the signed session cookie.
func (oc *OAuthController) HandleCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "OAuth sign-in failed"}).Redirect("/")
	}

	db := database.GetDB()

	// Find or create the local account for this provider identity.
	var appUser models.User
	res := db.Where("provider = ? AND email = ?", u.Provider, u.Email).First(&appUser)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		placeholder := fmt.Sprintf("oauth_%d", time.Now().UnixNano())
		hash, _ := models.HashPassword(placeholder)
		email := u.Email
		if email == "" {
			email = fmt.Sprintf("%s_%s@%s.oauth.local", u.Provider, u.UserID, u.Provider)
		}
		appUser = models.User{
			Name:        firstNonEmpty(u.Name, u.NickName, u.Email, "User"),
			Email:       email,
			Password:    hash,
			Provider:    u.Provider,
			Status:      models.STATUS_ACTIVE,
			CustomerKey: fmt.Sprintf("%s:%s", u.Provider, u.UserID),
		}
		if err := db.Create(&appUser).Error; err != nil {
			log.Errorf("[OAuth] Failed to create user: %v", err)
			return flash.WithError(c, fiber.Map{"type": "error", "message": "Sign-in failed"}).Redirect("/")
		}
	} else if res.Error != nil {
		log.Errorf("[OAuth] User lookup failed: %v", res.Error)
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Sign-in failed"}).Redirect("/")
	}

	// Exchange the profile for an upstream session identifier.
	ssid, _, err := oc.Backend.EstablishSession(c.Context(), proxy.Profile{
		Provider:   u.Provider,
		ProviderID: u.UserID,
		Email:      appUser.Email,
		Name:       appUser.Name,
	})
	if err != nil {
		log.Errorf("[OAuth] Upstream session exchange failed: %v", err)
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Sign-in failed"}).Redirect("/")
	}

	ttl := session.TTL()
	token, err := session.Issue(ssid, appUser.Email, appUser.Name, u.Provider, ttl)
	if err != nil {
		log.Errorf("[OAuth] Failed to issue session token: %v", err)
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Sign-in failed"}).Redirect("/")
	}
	session.SetCookie(c, token, ttl)

	_ = db.Model(&appUser).UpdateColumn("last_login_at", time.Now()).Error

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Welcome back!"}).Redirect("/")
}

// HandleOAuthLogout clears the provider session and the app cookie.
func (oc *OAuthController) HandleOAuthLogout(c *fiber.Ctx) error {
	_ = gothfiber.Logout(c)
	session.ClearCookie(c)
	return c.Redirect("/", fiber.StatusSeeOther)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
