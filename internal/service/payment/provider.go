package payment

import "net/http"

const (
	ProviderStripe = "stripe"
	ProviderPolar  = "polar"
)

// TopUpLedger is the slice of the wallet layer providers need: amount
// validation before checkout, crediting after webhook confirmation.
type TopUpLedger interface {
	ValidateAmount(amountCents int64) error
	ConfirmTopUp(userID string, amountCents int64, providerReference string) error
}

// Provider defines the interface that all payment providers must implement
type Provider interface {
	// CreateTopUpURL creates a checkout session for a wallet top-up
	// and returns the URL the buyer is sent to.
	CreateTopUpURL(userID, customerEmail, customerName string, amountCents int64) (string, error)

	// HandleWebhook processes webhook events from the payment provider
	HandleWebhook(payload []byte, headers http.Header) error

	// Name returns the provider name (e.g., "polar", "stripe")
	Name() string
}
