package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	polargo "github.com/polarsource/polar-go"
	"github.com/polarsource/polar-go/models/components"
	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"

	"github.com/lootbay/lootbay/internal/config"
)

type PolarProvider struct {
	cfg    *config.Config
	ledger TopUpLedger
	client *polargo.Polar
}

func NewPolarProvider(cfg *config.Config, ledger TopUpLedger) *PolarProvider {
	var serverOption polargo.SDKOption
	if cfg.PolarSandboxMode {
		serverOption = polargo.WithServer(polargo.ServerSandbox)
		slog.Info("polar using sandbox mode", "app_env", cfg.AppEnv)
	} else {
		serverOption = polargo.WithServer(polargo.ServerProduction)
		slog.Info("polar using production mode", "app_env", cfg.AppEnv)
	}

	client := polargo.New(
		polargo.WithSecurity(cfg.PolarAPIKey),
		serverOption,
	)

	return &PolarProvider{
		cfg:    cfg,
		ledger: ledger,
		client: client,
	}
}

func (p *PolarProvider) Name() string {
	return ProviderPolar
}

// CreateTopUpURL starts a checkout against the configured top-up
// product. The credited amount travels in metadata and is read back in
// the order webhook.
func (p *PolarProvider) CreateTopUpURL(userID, customerEmail, customerName string, amountCents int64) (string, error) {
	if err := p.ledger.ValidateAmount(amountCents); err != nil {
		return "", err
	}

	ctx := context.Background()

	successURL := fmt.Sprintf("%s/app/wallet", p.cfg.AppURL)

	metadata := map[string]components.CheckoutCreateMetadata{
		"user_id":      components.CreateCheckoutCreateMetadataStr(userID),
		"amount_cents": components.CreateCheckoutCreateMetadataStr(strconv.FormatInt(amountCents, 10)),
	}

	res, err := p.client.Checkouts.Create(ctx, components.CheckoutCreate{
		Products:      []string{p.cfg.PolarProductIDTopUp},
		SuccessURL:    polargo.String(successURL),
		ReturnURL:     polargo.String(successURL),
		CustomerEmail: polargo.String(customerEmail),
		CustomerName:  polargo.String(customerName),
		Metadata:      metadata,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create checkout: %w", err)
	}

	if res == nil || res.Checkout == nil {
		return "", fmt.Errorf("checkout response is nil")
	}

	slog.Info("polar top-up checkout created", "user_id", userID, "amount_cents", amountCents, "checkout_id", res.Checkout.ID)
	return res.Checkout.URL, nil
}

func (p *PolarProvider) HandleWebhook(payload []byte, headers http.Header) error {
	webhookID := headers.Get("webhook-id")
	timestamp := headers.Get("webhook-timestamp")
	signature := headers.Get("webhook-signature")

	if p.cfg.PolarWebhookSecret == "" {
		slog.Warn("polar no webhook secret configured, skipping signature verification")
	} else {
		wh, err := standardwebhooks.NewWebhookRaw([]byte(p.cfg.PolarWebhookSecret))
		if err != nil {
			return fmt.Errorf("failed to create webhook verifier: %w", err)
		}

		httpHeaders := http.Header{}
		httpHeaders.Set("webhook-id", webhookID)
		httpHeaders.Set("webhook-timestamp", timestamp)
		httpHeaders.Set("webhook-signature", signature)

		if err := wh.Verify(payload, httpHeaders); err != nil {
			return fmt.Errorf("invalid webhook signature: %w", err)
		}
	}

	var event struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to parse webhook: %w", err)
	}

	slog.Info("polar webhook received", "event_type", event.Type)

	switch event.Type {
	case "order.paid":
		return p.handleOrderPaid(event.Data)
	default:
		slog.Debug("polar webhook ignored event type", "event_type", event.Type)
		return nil
	}
}

func (p *PolarProvider) handleOrderPaid(data json.RawMessage) error {
	var order struct {
		ID       string            `json:"id"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(data, &order); err != nil {
		return fmt.Errorf("failed to parse order: %w", err)
	}

	userID := order.Metadata["user_id"]
	if userID == "" {
		return fmt.Errorf("order %s has no user_id metadata", order.ID)
	}

	amountCents, err := strconv.ParseInt(order.Metadata["amount_cents"], 10, 64)
	if err != nil {
		return fmt.Errorf("order %s has invalid amount_cents metadata: %w", order.ID, err)
	}

	return p.ledger.ConfirmTopUp(userID, amountCents, order.ID)
}
