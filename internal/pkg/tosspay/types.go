package tosspay

// Card is the display-only masked card metadata returned by the gateway.
type Card struct {
	IssuerCode string `json:"issuerCode"`
	Number     string `json:"number"`
	CardType   string `json:"cardType"`
	OwnerType  string `json:"ownerType"`
}

// BillingAuth is the gateway response to a billing-key issuance.
type BillingAuth struct {
	CustomerKey     string `json:"customerKey"`
	BillingKey      string `json:"billingKey"`
	Method          string `json:"method"`
	AuthenticatedAt string `json:"authenticatedAt"`
	CardCompany     string `json:"cardCompany"`
	Card            *Card  `json:"card"`
}

// ChargeRequest is a one-shot authorization against a stored billing key.
type ChargeRequest struct {
	CustomerKey string `json:"customerKey" validate:"required"`
	OrderID     string `json:"orderId" validate:"required"`
	OrderName   string `json:"orderName" validate:"required"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
}

// Payment is the gateway payment payload consumed read-only by this system.
type Payment struct {
	PaymentKey  string `json:"paymentKey"`
	OrderID     string `json:"orderId"`
	OrderName   string `json:"orderName"`
	Status      string `json:"status"`
	Method      string `json:"method"`
	Currency    string `json:"currency"`
	TotalAmount int64  `json:"totalAmount"`
	RequestedAt string `json:"requestedAt"`
	ApprovedAt  string `json:"approvedAt"`
}

// WebhookEvent is the envelope the gateway posts to the webhook endpoint.
type WebhookEvent struct {
	EventType string  `json:"eventType"`
	CreatedAt string  `json:"createdAt"`
	Data      Payment `json:"data"`
}
