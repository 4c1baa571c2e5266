package models

import "time"

// BillingCredential stores the recurring-charge token issued by the payment
// gateway for a customer. There is at most one active credential per
// customer key; re-issuance overwrites the previous record.
type BillingCredential struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	CustomerKey      string    `gorm:"type:varchar(100);not null;uniqueIndex:ux_billing_credentials_customer_key" json:"customer_key"`
	BillingKey       string    `gorm:"type:varchar(200);not null" json:"billing_key"`
	CardIssuerCode   string    `gorm:"type:varchar(10);default:''" json:"card_issuer_code"`
	CardNumberMasked string    `gorm:"type:varchar(30);default:''" json:"card_number_masked"`
	CardType         string    `gorm:"type:varchar(20);default:''" json:"card_type"`
	CardOwnerType    string    `gorm:"type:varchar(20);default:''" json:"card_owner_type"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
