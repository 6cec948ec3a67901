package payment

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/stripe/stripe-go/v81"
	checkoutsession "github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/lootbay/lootbay/internal/config"
)

type StripeProvider struct {
	cfg    *config.Config
	ledger TopUpLedger
}

func NewStripeProvider(cfg *config.Config, ledger TopUpLedger) *StripeProvider {
	// Set Stripe API key
	stripe.Key = cfg.StripeSecretKey

	slog.Info("stripe provider initialized", "app_env", cfg.AppEnv)

	return &StripeProvider{
		cfg:    cfg,
		ledger: ledger,
	}
}

func (s *StripeProvider) Name() string {
	return ProviderStripe
}

func (s *StripeProvider) CreateTopUpURL(userID, customerEmail, customerName string, amountCents int64) (string, error) {
	if err := s.ledger.ValidateAmount(amountCents); err != nil {
		return "", err
	}

	successURL := fmt.Sprintf("%s/app/wallet?session_id={CHECKOUT_SESSION_ID}", s.cfg.AppURL)
	cancelURL := fmt.Sprintf("%s/app/wallet", s.cfg.AppURL)

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(s.cfg.WalletCurrency),
					UnitAmount: stripe.Int64(amountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("%s wallet top-up", s.cfg.AppName)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail: stripe.String(customerEmail),
		Metadata: map[string]string{
			"user_id":      userID,
			"amount_cents": strconv.FormatInt(amountCents, 10),
		},
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	slog.Info("stripe top-up checkout created", "user_id", userID, "amount_cents", amountCents, "session_id", sess.ID)
	return sess.URL, nil
}

func (s *StripeProvider) HandleWebhook(payload []byte, headers http.Header) error {
	signature := headers.Get("Stripe-Signature")

	// Use ConstructEventWithOptions to ignore API version mismatch
	// Stripe's API versions are backwards compatible, so this is safe
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		s.cfg.StripeWebhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to verify webhook signature: %w", err)
	}

	slog.Info("stripe webhook received", "event_type", event.Type)

	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutSessionCompleted(event.Data.Raw)
	default:
		slog.Debug("stripe webhook ignored event type", "event_type", event.Type)
		return nil
	}
}

func (s *StripeProvider) handleCheckoutSessionCompleted(data json.RawMessage) error {
	var checkoutSession struct {
		ID            string            `json:"id"`
		PaymentStatus string            `json:"payment_status"`
		Metadata      map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(data, &checkoutSession); err != nil {
		return fmt.Errorf("failed to parse checkout session: %w", err)
	}

	if checkoutSession.PaymentStatus != "paid" {
		slog.Info("stripe checkout completed but not paid", "session_id", checkoutSession.ID, "payment_status", checkoutSession.PaymentStatus)
		return nil
	}

	userID := checkoutSession.Metadata["user_id"]
	if userID == "" {
		return fmt.Errorf("checkout session %s has no user_id metadata", checkoutSession.ID)
	}

	amountCents, err := strconv.ParseInt(checkoutSession.Metadata["amount_cents"], 10, 64)
	if err != nil {
		return fmt.Errorf("checkout session %s has invalid amount_cents metadata: %w", checkoutSession.ID, err)
	}

	return s.ledger.ConfirmTopUp(userID, amountCents, checkoutSession.ID)
}
