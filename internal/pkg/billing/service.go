package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/whirik-dev/Music-Library-sub002/app/models"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/tosspay"
)

// ErrMissingParams is returned before any gateway call when the checkout
// callback lacks its required query parameters.
var ErrMissingParams = errors.New("customerKey and authKey are required")

// Gateway is the slice of the payment gateway client the service needs.
type Gateway interface {
	IssueBillingKey(ctx context.Context, authKey, customerKey string) (*tosspay.BillingAuth, error)
	Charge(ctx context.Context, billingKey string, req tosspay.ChargeRequest) (*tosspay.Payment, error)
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
}

// Service orchestrates billing-key issuance, charging and webhook
// bookkeeping against the gateway and the credential store.
type Service struct {
	repo    Repository
	gateway Gateway
}

// NewService creates a billing service from injected dependencies.
func NewService(repo Repository, gateway Gateway) *Service {
	return &Service{repo: repo, gateway: gateway}
}

// NewServiceFromDB creates a billing service from a GORM DB handle and the
// environment-configured gateway client.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db), tosspay.NewClientFromEnv())
}

// CompleteCheckout finishes the billing-key redirect flow: it exchanges the
// one-time authKey for a billing key and persists the credential.
//
// Persistence failure is deliberately non-fatal. Once the gateway has issued
// the billing key the customer can be charged regardless of local
// bookkeeping, so the flow logs the failure and still reports success.
func (s *Service) CompleteCheckout(ctx context.Context, customerKey, authKey string) (*models.BillingCredential, error) {
	customerKey = strings.TrimSpace(customerKey)
	authKey = strings.TrimSpace(authKey)
	if customerKey == "" || authKey == "" {
		return nil, ErrMissingParams
	}

	auth, err := s.gateway.IssueBillingKey(ctx, authKey, customerKey)
	if err != nil {
		return nil, err
	}

	cred := &models.BillingCredential{
		CustomerKey: auth.CustomerKey,
		BillingKey:  auth.BillingKey,
		CreatedAt:   time.Now(),
	}
	if cred.CustomerKey == "" {
		cred.CustomerKey = customerKey
	}
	if auth.Card != nil {
		cred.CardIssuerCode = auth.Card.IssuerCode
		cred.CardNumberMasked = auth.Card.Number
		cred.CardType = auth.Card.CardType
		cred.CardOwnerType = auth.Card.OwnerType
	}

	if err := s.repo.Save(ctx, cred); err != nil {
		// Best-effort side effect: the billing key is already valid at the
		// gateway, so a failed local save must not fail the checkout.
		log.Errorf("[Billing] Failed to persist billing credential for customer %s: %v", customerKey, err)
	}
	return cred, nil
}

// SaveCredential persists a caller-supplied credential record.
func (s *Service) SaveCredential(ctx context.Context, cred *models.BillingCredential) error {
	if strings.TrimSpace(cred.CustomerKey) == "" || strings.TrimSpace(cred.BillingKey) == "" {
		return errors.New("customerKey and billingKey are required")
	}
	return s.repo.Save(ctx, cred)
}

// GetCredential returns the stored credential for a customer key.
func (s *Service) GetCredential(ctx context.Context, customerKey string) (*models.BillingCredential, error) {
	if strings.TrimSpace(customerKey) == "" {
		return nil, errors.New("customerKey is required")
	}
	return s.repo.GetByCustomerKey(ctx, customerKey)
}

// Charge performs a one-shot authorization against a billing key and records
// the resulting payment best-effort. Gateway failures propagate unchanged so
// the caller can forward status and body verbatim.
func (s *Service) Charge(ctx context.Context, billingKey string, req tosspay.ChargeRequest) (*tosspay.Payment, error) {
	payment, err := s.gateway.Charge(ctx, billingKey, req)
	if err != nil {
		return nil, err
	}

	record := &models.Payment{
		PaymentKey:  payment.PaymentKey,
		OrderID:     payment.OrderID,
		OrderName:   payment.OrderName,
		CustomerKey: req.CustomerKey,
		Amount:      payment.TotalAmount,
		Currency:    payment.Currency,
		Method:      payment.Method,
		Status:      payment.Status,
	}
	if err := s.repo.SavePayment(record); err != nil {
		log.Errorf("[Billing] Failed to record payment %s: %v", payment.OrderID, err)
	}
	return payment, nil
}

// RecordWebhookEvent persists webhook payloads idempotently. The returned
// bool reports whether the event was newly created.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.PaymentWebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.PaymentWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

// UpdatePaymentStatus reflects a gateway status transition onto the local
// payment record.
func (s *Service) UpdatePaymentStatus(ctx context.Context, paymentKey, status string) error {
	_ = ctx
	if strings.TrimSpace(paymentKey) == "" || strings.TrimSpace(status) == "" {
		return errors.New("paymentKey and status are required")
	}
	return s.repo.UpdatePaymentStatus(paymentKey, status)
}
