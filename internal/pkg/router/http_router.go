package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/whirik-dev/Music-Library-sub002/app/controllers"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/authcache"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/billing"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/cache"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/database"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/oauth"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/proxy"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/storage"
)

// Shared controller instances wired once at router install time.
var (
	authController     *controllers.AuthAPIController
	oauthController    *controllers.OAuthController
	paymentController  *controllers.PaymentController
	downloadController *controllers.DownloadController
	uploadController   *controllers.StorageUploadController
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init oauth providers + state store
	oauth.Setup()

	backend := proxy.NewClientFromEnv()
	statusCache := authcache.New(authcache.NewRedisStore(cache.GetClient()), authcache.DefaultTTL)

	authController = controllers.NewAuthAPIController(statusCache, backend)
	oauthController = controllers.NewOAuthController(backend)
	paymentController = controllers.NewPaymentController(billing.NewServiceFromDB(database.GetDB()))
	downloadController = controllers.NewDownloadController(backend)

	if cfg, err := storage.LoadConfig(); err == nil {
		if client, cerr := storage.NewClient(cfg); cerr == nil {
			uploadController = controllers.NewStorageUploadController(client, cfg)
		} else {
			log.Warnf("[Router] R2 storage unavailable: %v", cerr)
		}
	} else {
		log.Warnf("[Router] R2 storage not configured: %v", err)
	}

	h.registerPublicRoutes(app)
}

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// OAuth sign-in
	app.Get("/auth/:provider", oauthController.HandleLogin)
	app.Get("/auth/:provider/callback", oauthController.HandleCallback)
	app.Get("/logout", oauthController.HandleOAuthLogout)

	// Billing redirect landing pages (rendered client-side; the server only
	// acknowledges the route so redirects resolve in dev setups)
	app.Get("/payment/success", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})
	app.Get("/payment/fail", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": false, "code": c.Query("code")})
	})
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
