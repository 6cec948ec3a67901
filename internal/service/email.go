package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appURL    string
	appName   string
}

func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		appURL:    appURL,
		appName:   appName,
	}
}

func (s *EmailService) send(emailType, to, subject, body string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", emailType, "to", to, "subject", subject)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(context.Background(), params)
	if err == nil {
		slog.Info("email sent", "type", emailType, "to", to)
	}
	return err
}

func (s *EmailService) SendVerificationEmail(email, token, name string) error {
	verifyURL := fmt.Sprintf("%s/auth/verify/%s", s.appURL, token)
	subject := fmt.Sprintf("Verify your %s account", s.appName)
	body := fmt.Sprintf(
		"Hi %s,\n\nWelcome to %s! Confirm your email address by opening this link:\n\n%s\n\nThe link expires in 24 hours. If you didn't create an account, you can ignore this email.\n",
		name, s.appName, verifyURL,
	)
	return s.send("email_verify", email, subject, body)
}

func (s *EmailService) SendPurchaseReceipt(email, name, listingTitle string, amountCents int64, currency string) error {
	subject := fmt.Sprintf("Your %s receipt", s.appName)
	body := fmt.Sprintf(
		"Hi %s,\n\nThanks for your purchase of %q (%s %.2f).\n\nYour item is available in your library:\n%s/app/purchases\n",
		name, listingTitle, currency, float64(amountCents)/100, s.appURL,
	)
	return s.send("purchase_receipt", email, subject, body)
}

func (s *EmailService) SendSaleNotification(email, name, listingTitle string, amountCents int64, currency string) error {
	subject := fmt.Sprintf("You made a sale on %s", s.appName)
	body := fmt.Sprintf(
		"Hi %s,\n\n%q just sold for %s %.2f. The proceeds were credited to your wallet.\n\n%s/seller/dashboard\n",
		name, listingTitle, currency, float64(amountCents)/100, s.appURL,
	)
	return s.send("sale_notification", email, subject, body)
}

func (s *EmailService) SendTopUpReceipt(email, name string, amountCents int64, currency string) error {
	subject := fmt.Sprintf("%s wallet top-up confirmed", s.appName)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour wallet was topped up by %s %.2f.\n\n%s/app/wallet\n",
		name, currency, float64(amountCents)/100, s.appURL,
	)
	return s.send("top_up_receipt", email, subject, body)
}

func (s *EmailService) SendDisputeOpened(email, name, listingTitle string) error {
	subject := fmt.Sprintf("A dispute was opened on %s", s.appName)
	body := fmt.Sprintf(
		"Hi %s,\n\nA dispute was opened for %q. Please respond within 3 days or the dispute may be resolved in the buyer's favor.\n\n%s/seller/disputes\n",
		name, listingTitle, s.appURL,
	)
	return s.send("dispute_opened", email, subject, body)
}
