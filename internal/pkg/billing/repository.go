package billing

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/whirik-dev/Music-Library-sub002/app/models"
)

// ErrCredentialNotFound is returned when no credential is stored for the
// customer key.
var ErrCredentialNotFound = errors.New("billing credential not found")

// CredentialStore is the keyed billing-credential store. Save has
// last-write-wins semantics: re-issuing a billing key for a customer
// replaces the previous record wholesale.
type CredentialStore interface {
	Save(ctx context.Context, cred *models.BillingCredential) error
	GetByCustomerKey(ctx context.Context, customerKey string) (*models.BillingCredential, error)
}

// Repository provides DB operations used by the billing service.
type Repository interface {
	CredentialStore
	SavePayment(payment *models.Payment) error
	UpdatePaymentStatus(paymentKey, status string) error
	CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Save(ctx context.Context, cred *models.BillingCredential) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "customer_key"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"billing_key",
			"card_issuer_code",
			"card_number_masked",
			"card_type",
			"card_owner_type",
			"updated_at",
		}),
	}).Create(cred).Error
}

func (r *gormRepository) GetByCustomerKey(ctx context.Context, customerKey string) (*models.BillingCredential, error) {
	var cred models.BillingCredential
	err := r.db.WithContext(ctx).Where("customer_key = ?", customerKey).First(&cred).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCredentialNotFound
		}
		return nil, err
	}
	return &cred, nil
}

func (r *gormRepository) SavePayment(payment *models.Payment) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "order_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"payment_key",
			"order_name",
			"customer_key",
			"amount",
			"currency",
			"method",
			"status",
			"raw_payload_json",
			"updated_at",
		}),
	}).Create(payment).Error
}

func (r *gormRepository) UpdatePaymentStatus(paymentKey, status string) error {
	return r.db.Model(&models.Payment{}).
		Where("payment_key = ?", paymentKey).
		Update("status", status).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PaymentWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.PaymentWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

// MemoryRepository is a process-local Repository used by tests and
// prototyping. Production runs on the GORM repository; an in-memory map has
// no restart durability and no multi-instance visibility.
type MemoryRepository struct {
	mu       sync.Mutex
	creds    map[string]models.BillingCredential
	payments map[string]models.Payment
	events   map[string]models.PaymentWebhookEvent
	nextID   uint
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		creds:    make(map[string]models.BillingCredential),
		payments: make(map[string]models.Payment),
		events:   make(map[string]models.PaymentWebhookEvent),
	}
}

func (s *MemoryRepository) Save(_ context.Context, cred *models.BillingCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[cred.CustomerKey] = *cred
	return nil
}

func (s *MemoryRepository) GetByCustomerKey(_ context.Context, customerKey string) (*models.BillingCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[customerKey]
	if !ok {
		return nil, ErrCredentialNotFound
	}
	return &cred, nil
}

func (s *MemoryRepository) SavePayment(payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[payment.OrderID] = *payment
	return nil
}

func (s *MemoryRepository) UpdatePaymentStatus(paymentKey, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for orderID, p := range s.payments {
		if p.PaymentKey == paymentKey {
			p.Status = status
			s.payments[orderID] = p
		}
	}
	return nil
}

func (s *MemoryRepository) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := event.Provider + ":" + event.ProviderEventID
	if stored, ok := s.events[key]; ok {
		return false, &stored, nil
	}
	s.nextID++
	event.ID = s.nextID
	s.events[key] = *event
	stored := s.events[key]
	return true, &stored, nil
}

func (s *MemoryRepository) MarkWebhookProcessed(id uint, processingError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for key, e := range s.events {
		if e.ID == id {
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			s.events[key] = e
		}
	}
	return nil
}
