package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whirik-dev/Music-Library-sub002/app/models"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/tosspay"
)

type fakeGateway struct {
	issueCalls  int
	chargeCalls int

	issueResult *tosspay.BillingAuth
	issueErr    error

	chargeResult *tosspay.Payment
	chargeErr    error
}

func (g *fakeGateway) IssueBillingKey(_ context.Context, authKey, customerKey string) (*tosspay.BillingAuth, error) {
	g.issueCalls++
	if g.issueErr != nil {
		return nil, g.issueErr
	}
	return g.issueResult, nil
}

func (g *fakeGateway) Charge(_ context.Context, billingKey string, req tosspay.ChargeRequest) (*tosspay.Payment, error) {
	g.chargeCalls++
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	return g.chargeResult, nil
}

type failingSaveRepository struct {
	*MemoryRepository
}

func (r *failingSaveRepository) Save(_ context.Context, _ *models.BillingCredential) error {
	return errors.New("database down")
}

func TestCompleteCheckoutIssuesAndPersists(t *testing.T) {
	repo := NewMemoryRepository()
	gateway := &fakeGateway{
		issueResult: &tosspay.BillingAuth{
			CustomerKey: "cust-1",
			BillingKey:  "bk-xyz",
			Card: &tosspay.Card{
				IssuerCode: "61",
				Number:     "433012******1234",
				CardType:   "신용",
				OwnerType:  "개인",
			},
		},
	}
	svc := NewService(repo, gateway)

	cred, err := svc.CompleteCheckout(context.Background(), "cust-1", "auth-key-1")
	require.NoError(t, err)
	assert.Equal(t, 1, gateway.issueCalls)
	assert.Equal(t, "bk-xyz", cred.BillingKey)
	assert.Equal(t, "433012******1234", cred.CardNumberMasked)

	stored, err := repo.GetByCustomerKey(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.Equal(t, "bk-xyz", stored.BillingKey)
}

func TestCompleteCheckoutMissingParamsSkipsGateway(t *testing.T) {
	gateway := &fakeGateway{}
	svc := NewService(NewMemoryRepository(), gateway)

	_, err := svc.CompleteCheckout(context.Background(), "", "auth-key")
	assert.ErrorIs(t, err, ErrMissingParams)

	_, err = svc.CompleteCheckout(context.Background(), "cust-1", "  ")
	assert.ErrorIs(t, err, ErrMissingParams)

	assert.Equal(t, 0, gateway.issueCalls)
}

func TestCompleteCheckoutGatewayFailure(t *testing.T) {
	repo := NewMemoryRepository()
	gateway := &fakeGateway{
		issueErr: &tosspay.GatewayError{Status: 400, Code: "NOT_FOUND_AUTH"},
	}
	svc := NewService(repo, gateway)

	_, err := svc.CompleteCheckout(context.Background(), "cust-1", "bad-auth-key")
	require.Error(t, err)

	var gerr *tosspay.GatewayError
	assert.ErrorAs(t, err, &gerr)
	_, err = repo.GetByCustomerKey(context.Background(), "cust-1")
	assert.ErrorIs(t, err, ErrCredentialNotFound)
}

func TestCompleteCheckoutPersistFailureIsNonFatal(t *testing.T) {
	gateway := &fakeGateway{
		issueResult: &tosspay.BillingAuth{CustomerKey: "cust-1", BillingKey: "bk-xyz"},
	}
	svc := NewService(&failingSaveRepository{NewMemoryRepository()}, gateway)

	cred, err := svc.CompleteCheckout(context.Background(), "cust-1", "auth-key-1")
	require.NoError(t, err)
	assert.Equal(t, "bk-xyz", cred.BillingKey)
}

func TestSaveCredentialLastWriteWins(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &fakeGateway{})
	ctx := context.Background()

	require.NoError(t, svc.SaveCredential(ctx, &models.BillingCredential{CustomerKey: "cust-1", BillingKey: "bk-old"}))
	require.NoError(t, svc.SaveCredential(ctx, &models.BillingCredential{CustomerKey: "cust-1", BillingKey: "bk-new"}))

	stored, err := svc.GetCredential(ctx, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, "bk-new", stored.BillingKey)
}

func TestSaveCredentialRequiresKeys(t *testing.T) {
	svc := NewService(NewMemoryRepository(), &fakeGateway{})

	err := svc.SaveCredential(context.Background(), &models.BillingCredential{CustomerKey: "cust-1"})
	assert.Error(t, err)
	err = svc.SaveCredential(context.Background(), &models.BillingCredential{BillingKey: "bk-1"})
	assert.Error(t, err)
}

func TestChargeRecordsPayment(t *testing.T) {
	repo := NewMemoryRepository()
	gateway := &fakeGateway{
		chargeResult: &tosspay.Payment{
			PaymentKey:  "pay-1",
			OrderID:     "order-1",
			OrderName:   "Monthly subscription",
			Status:      "DONE",
			Currency:    "KRW",
			TotalAmount: 9900,
		},
	}
	svc := NewService(repo, gateway)

	payment, err := svc.Charge(context.Background(), "bk-xyz", tosspay.ChargeRequest{
		CustomerKey: "cust-1",
		OrderID:     "order-1",
		OrderName:   "Monthly subscription",
		Amount:      9900,
	})
	require.NoError(t, err)
	assert.Equal(t, "DONE", payment.Status)

	repo.mu.Lock()
	record, ok := repo.payments["order-1"]
	repo.mu.Unlock()
	require.True(t, ok)
	assert.Equal(t, "pay-1", record.PaymentKey)
	assert.Equal(t, int64(9900), record.Amount)
	assert.Equal(t, "cust-1", record.CustomerKey)
}

func TestChargeGatewayFailurePropagatesUnchanged(t *testing.T) {
	gerr := &tosspay.GatewayError{Status: 403, Code: "REJECT_CARD_COMPANY", Body: []byte(`{"code":"REJECT_CARD_COMPANY"}`)}
	gateway := &fakeGateway{chargeErr: gerr}
	repo := NewMemoryRepository()
	svc := NewService(repo, gateway)

	_, err := svc.Charge(context.Background(), "bk-xyz", tosspay.ChargeRequest{OrderID: "order-1"})
	require.Error(t, err)

	var got *tosspay.GatewayError
	require.ErrorAs(t, err, &got)
	assert.Same(t, gerr, got)

	repo.mu.Lock()
	_, ok := repo.payments["order-1"]
	repo.mu.Unlock()
	assert.False(t, ok)
}

func TestRecordWebhookEventIsIdempotent(t *testing.T) {
	svc := NewService(NewMemoryRepository(), &fakeGateway{})
	ctx := context.Background()

	in := WebhookEventInput{
		Provider:        models.PaymentProviderToss,
		ProviderEventID: "evt-1",
		EventType:       "PAYMENT_STATUS_CHANGED",
		PayloadJSON:     `{"eventType":"PAYMENT_STATUS_CHANGED"}`,
	}

	created, first, err := svc.RecordWebhookEvent(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, first)

	created, second, err := svc.RecordWebhookEvent(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestRecordWebhookEventHashesMissingEventID(t *testing.T) {
	svc := NewService(NewMemoryRepository(), &fakeGateway{})
	ctx := context.Background()

	in := WebhookEventInput{
		Provider:    models.PaymentProviderToss,
		EventType:   "PAYMENT_STATUS_CHANGED",
		PayloadJSON: `{"data":{"paymentKey":"pay-1"}}`,
	}

	created, event, err := svc.RecordWebhookEvent(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Contains(t, event.ProviderEventID, "hash:")

	// Same payload, same derived id, so a retry is deduplicated.
	created, _, err = svc.RecordWebhookEvent(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestMarkWebhookProcessed(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &fakeGateway{})
	ctx := context.Background()

	_, event, err := svc.RecordWebhookEvent(ctx, WebhookEventInput{
		Provider:        models.PaymentProviderToss,
		ProviderEventID: "evt-1",
	})
	require.NoError(t, err)

	require.NoError(t, svc.MarkWebhookProcessed(ctx, event.ID, errors.New("status unknown")))

	repo.mu.Lock()
	stored := repo.events[models.PaymentProviderToss+":evt-1"]
	repo.mu.Unlock()
	require.NotNil(t, stored.ProcessedAt)
	assert.Equal(t, "status unknown", stored.ProcessingError)

	assert.Error(t, svc.MarkWebhookProcessed(ctx, 0, nil))
}

func TestUpdatePaymentStatus(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &fakeGateway{})
	ctx := context.Background()

	require.NoError(t, repo.SavePayment(&models.Payment{PaymentKey: "pay-1", OrderID: "order-1", Status: models.PaymentStatusReady}))
	require.NoError(t, svc.UpdatePaymentStatus(ctx, "pay-1", models.PaymentStatusDone))

	repo.mu.Lock()
	stored := repo.payments["order-1"]
	repo.mu.Unlock()
	assert.Equal(t, models.PaymentStatusDone, stored.Status)

	assert.Error(t, svc.UpdatePaymentStatus(ctx, "", models.PaymentStatusDone))
}
