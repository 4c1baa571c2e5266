package models

import "time"

// Payment status values as reported by the gateway.
const (
	PaymentStatusReady             = "READY"
	PaymentStatusInProgress        = "IN_PROGRESS"
	PaymentStatusWaitingForDeposit = "WAITING_FOR_DEPOSIT"
	PaymentStatusDone              = "DONE"
	PaymentStatusCanceled          = "CANCELED"
	PaymentStatusPartialCanceled   = "PARTIAL_CANCELED"
	PaymentStatusAborted           = "ABORTED"
	PaymentStatusExpired           = "EXPIRED"
)

// Payment records a gateway payment result for bookkeeping. The gateway is
// the source of truth; rows here are read-only snapshots of its responses.
type Payment struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	PaymentKey     string    `gorm:"type:varchar(200);index" json:"payment_key"`
	OrderID        string    `gorm:"type:varchar(100);not null;uniqueIndex:ux_payments_order_id" json:"order_id"`
	OrderName      string    `gorm:"type:varchar(200);default:''" json:"order_name"`
	CustomerKey    string    `gorm:"type:varchar(100);index" json:"customer_key"`
	Amount         int64     `gorm:"not null;default:0" json:"amount"`
	Currency       string    `gorm:"type:varchar(10);default:'KRW'" json:"currency"`
	Method         string    `gorm:"type:varchar(50);default:''" json:"method"`
	Status         string    `gorm:"type:varchar(30);not null;index" json:"status"`
	RawPayloadJSON string    `gorm:"type:longtext" json:"-"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
