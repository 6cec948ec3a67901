package payment

import (
	"fmt"
	"log/slog"

	"github.com/lootbay/lootbay/internal/config"
)

// NewProvider creates a payment provider based on configuration
func NewProvider(cfg *config.Config, ledger TopUpLedger) (Provider, error) {
	provider := cfg.PaymentProvider

	slog.Info("initializing payment provider", "provider", provider)

	switch provider {
	case ProviderPolar:
		if cfg.PolarAPIKey == "" {
			return nil, fmt.Errorf("POLAR_API_KEY is required when using Polar provider")
		}
		if cfg.PolarProductIDTopUp == "" {
			return nil, fmt.Errorf("POLAR_PRODUCT_ID_TOPUP is required when using Polar provider")
		}
		return NewPolarProvider(cfg, ledger), nil

	case ProviderStripe:
		if cfg.StripeSecretKey == "" {
			return nil, fmt.Errorf("STRIPE_SECRET_KEY is required when using Stripe provider")
		}
		if cfg.StripeWebhookSecret == "" {
			return nil, fmt.Errorf("STRIPE_WEBHOOK_SECRET is required when using Stripe provider")
		}
		return NewStripeProvider(cfg, ledger), nil

	default:
		return nil, fmt.Errorf("unknown payment provider: %s (supported: polar, stripe)", provider)
	}
}
