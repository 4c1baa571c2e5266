package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// Session endpoints. Status, token-info and refresh validate the token
	// themselves so they can answer with their own envelopes.
	auth := api.Group("/auth")
	auth.Get("/status", authController.HandleStatus)
	auth.Get("/token-info", authController.HandleTokenInfo)
	auth.Post("/refresh", authController.HandleRefresh)
	auth.Get("/session-verify", middleware.RequireSession, authController.HandleSessionVerify)
	auth.Post("/logout", authController.HandleLogout)

	// Billing. The gateway callback carries its own query credentials; the
	// charge and credential routes are internal server-side APIs.
	payment := api.Group("/payment")
	payment.Get("/billing", paymentController.HandleBillingCallback)
	payment.Post("/billing/:billingKey", paymentController.HandleBillingCharge)
	payment.Post("/billing-keys", paymentController.HandleBillingKeySave)
	payment.Get("/billing-keys", paymentController.HandleBillingKeyGet)
	payment.Post("/webhook", paymentController.HandleWebhook)

	// Authenticated proxy + storage routes
	api.Get("/download/:trackID", middleware.RequireSession, downloadController.HandleTrackDownload)
	if uploadController != nil {
		api.Post("/upload", middleware.RequireSession, uploadController.HandleUpload)
		api.Get("/upload/url", middleware.RequireSession, uploadController.HandleDownloadURL)
	}
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
