package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lootbay/lootbay/internal/model"
)

var ErrTopUpAmountOutOfRange = errors.New("top-up amount out of range")

// TopUpService turns confirmed provider payments into wallet credits.
// Providers call ConfirmTopUp from their webhook handlers.
type TopUpService struct {
	walletSvc  *WalletService
	userSvc    *UserService
	profileSvc *ProfileService
	emailSvc   *EmailService
	currency   string
	minCents   int64
	maxCents   int64
}

func NewTopUpService(
	walletSvc *WalletService,
	userSvc *UserService,
	profileSvc *ProfileService,
	emailSvc *EmailService,
	currency string,
	minCents, maxCents int64,
) *TopUpService {
	return &TopUpService{
		walletSvc:  walletSvc,
		userSvc:    userSvc,
		profileSvc: profileSvc,
		emailSvc:   emailSvc,
		currency:   currency,
		minCents:   minCents,
		maxCents:   maxCents,
	}
}

// ValidateAmount checks a requested top-up against the configured
// bounds before any checkout session is created.
func (s *TopUpService) ValidateAmount(amountCents int64) error {
	if amountCents < s.minCents {
		return fmt.Errorf("%w: minimum top-up is %s %.2f", ErrTopUpAmountOutOfRange, s.currency, float64(s.minCents)/100)
	}
	if amountCents > s.maxCents {
		return fmt.Errorf("%w: maximum top-up is %s %.2f", ErrTopUpAmountOutOfRange, s.currency, float64(s.maxCents)/100)
	}
	return nil
}

// ConfirmTopUp credits a wallet after the provider confirmed payment.
// providerReference is the provider's checkout/order id and lands in
// the ledger for reconciliation.
func (s *TopUpService) ConfirmTopUp(userID string, amountCents int64, providerReference string) error {
	if amountCents <= 0 {
		return fmt.Errorf("invalid top-up amount %d", amountCents)
	}

	ref := providerReference
	if err := s.walletSvc.Credit(userID, amountCents, model.TransactionTypeTopUp, &ref); err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}

	slog.Info("wallet topped up", "user_id", userID, "amount_cents", amountCents, "reference", providerReference)

	if user, err := s.userSvc.ByID(userID); err == nil {
		name := ""
		if p, err := s.profileSvc.ByUserID(userID); err == nil {
			name = p.FullName
		}
		if err := s.emailSvc.SendTopUpReceipt(user.Email, name, amountCents, s.currency); err != nil {
			slog.Warn("failed to send top-up receipt", "user_id", userID, "error", err)
		}
	}

	return nil
}
