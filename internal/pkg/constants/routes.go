package constants

// Static route constants
const (
	PublicRoute = "/"

	// Billing redirect targets after the gateway callback
	BillingSuccessRoute = "/payment/success"
	BillingFailRoute    = "/payment/fail"
)
