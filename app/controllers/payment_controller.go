package controllers

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/whirik-dev/Music-Library-sub002/app/models"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/billing"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/constants"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/tosspay"
)

var chargeValidator = validator.New()

// PaymentController serves the billing-key checkout flow and the charge API.
type PaymentController struct {
	Service *billing.Service
}

func NewPaymentController(service *billing.Service) *PaymentController {
	return &PaymentController{Service: service}
}

// HandleBillingCallback is the redirect target the gateway sends the browser
// to after checkout, carrying customerKey and the one-time authKey. Missing
// parameters short-circuit to the failure page without any gateway call.
// A failed local persist still redirects to success: the billing key is
// already valid at the gateway.
func (pc *PaymentController) HandleBillingCallback(c *fiber.Ctx) error {
	customerKey := strings.TrimSpace(c.Query("customerKey"))
	authKey := strings.TrimSpace(c.Query("authKey"))

	_, err := pc.Service.CompleteCheckout(c.Context(), customerKey, authKey)
	if err != nil {
		if errors.Is(err, billing.ErrMissingParams) {
			return c.Redirect(constants.BillingFailRoute+"?code=missing_params", fiber.StatusFound)
		}
		// The gateway's error payload stays server-side; the client only
		// sees the failure page.
		log.Errorf("[Payment] Billing key issuance failed for customer %s: %v", customerKey, err)
		return c.Redirect(constants.BillingFailRoute+"?code=issue_failed", fiber.StatusFound)
	}

	return c.Redirect(constants.BillingSuccessRoute, fiber.StatusFound)
}

// HandleBillingCharge charges a stored billing key. Gateway errors are
// forwarded verbatim with their original status so callers can interpret
// gateway-specific codes (e.g. REJECT_CARD_COMPANY).
func (pc *PaymentController) HandleBillingCharge(c *fiber.Ctx) error {
	billingKey := strings.TrimSpace(c.Params("billingKey"))
	if billingKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "billingKey is required",
			"status": fiber.StatusBadRequest,
		})
	}

	var req tosspay.ChargeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "invalid request body",
			"status": fiber.StatusBadRequest,
		})
	}
	if err := chargeValidator.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "customerKey, orderId, orderName and amount are required",
			"status": fiber.StatusBadRequest,
		})
	}

	payment, err := pc.Service.Charge(c.Context(), billingKey, req)
	if err != nil {
		var gerr *tosspay.GatewayError
		if errors.As(err, &gerr) {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(gerr.Status).Send(gerr.Body)
		}
		if errors.Is(err, tosspay.ErrSecretKeyMissing) {
			log.Error("[Payment] TOSS_SECRET_KEY is not configured")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":  "payment gateway is not configured",
				"status": fiber.StatusInternalServerError,
			})
		}
		log.Errorf("[Payment] Charge failed for order %s: %v", req.OrderID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":  "charge failed",
			"status": fiber.StatusInternalServerError,
		})
	}

	return c.JSON(payment)
}

// HandleBillingKeySave persists a billing credential record directly.
func (pc *PaymentController) HandleBillingKeySave(c *fiber.Ctx) error {
	var req struct {
		CustomerKey string        `json:"customerKey"`
		BillingKey  string        `json:"billingKey"`
		CardInfo    *tosspay.Card `json:"cardInfo"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "invalid request body",
			"status": fiber.StatusBadRequest,
		})
	}
	if strings.TrimSpace(req.CustomerKey) == "" || strings.TrimSpace(req.BillingKey) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "customerKey and billingKey are required",
			"status": fiber.StatusBadRequest,
		})
	}

	cred := &models.BillingCredential{
		CustomerKey: strings.TrimSpace(req.CustomerKey),
		BillingKey:  strings.TrimSpace(req.BillingKey),
		CreatedAt:   time.Now(),
	}
	if req.CardInfo != nil {
		cred.CardIssuerCode = req.CardInfo.IssuerCode
		cred.CardNumberMasked = req.CardInfo.Number
		cred.CardType = req.CardInfo.CardType
		cred.CardOwnerType = req.CardInfo.OwnerType
	}

	if err := pc.Service.SaveCredential(c.Context(), cred); err != nil {
		log.Errorf("[Payment] Failed to save billing credential: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":  "failed to save billing credential",
			"status": fiber.StatusInternalServerError,
		})
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleBillingKeyGet retrieves the stored billing credential for a customer.
func (pc *PaymentController) HandleBillingKeyGet(c *fiber.Ctx) error {
	customerKey := strings.TrimSpace(c.Query("customerKey"))
	if customerKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "customerKey is required",
			"status": fiber.StatusBadRequest,
		})
	}

	cred, err := pc.Service.GetCredential(c.Context(), customerKey)
	if err != nil {
		if errors.Is(err, billing.ErrCredentialNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":  "billing credential not found",
				"status": fiber.StatusNotFound,
			})
		}
		log.Errorf("[Payment] Failed to load billing credential: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":  "failed to load billing credential",
			"status": fiber.StatusInternalServerError,
		})
	}
	return c.JSON(cred)
}

// HandleWebhook accepts gateway status notifications. Events are recorded
// idempotently; duplicates are acknowledged without reprocessing.
func (pc *PaymentController) HandleWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	var event tosspay.WebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	eventID := strings.TrimSpace(c.Get("Toss-Webhook-Transmission-Id"))
	created, stored, err := pc.Service.RecordWebhookEvent(c.Context(), billing.WebhookEventInput{
		Provider:        models.PaymentProviderToss,
		ProviderEventID: eventID,
		EventType:       event.EventType,
		PayloadJSON:     string(rawBody),
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	if !created {
		return c.JSON(fiber.Map{"ok": true, "duplicate": true})
	}

	var processErr error
	if event.Data.PaymentKey != "" && event.Data.Status != "" {
		processErr = pc.Service.UpdatePaymentStatus(c.Context(), event.Data.PaymentKey, event.Data.Status)
	}
	_ = pc.Service.MarkWebhookProcessed(c.Context(), stored.ID, processErr)
	if processErr != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "payment_update_failed"})
	}

	return c.JSON(fiber.Map{"ok": true})
}
