package service

import (
	"errors"
	"fmt"

	"github.com/lootbay/lootbay/internal/model"
	"github.com/lootbay/lootbay/internal/repository"
)

var ErrInsufficientFunds = errors.New("insufficient wallet balance")

type WalletService struct {
	walletRepo repository.WalletRepository
}

func NewWalletService(walletRepo repository.WalletRepository) *WalletService {
	return &WalletService{
		walletRepo: walletRepo,
	}
}

func (s *WalletService) ByUserID(userID string) (*model.Wallet, error) {
	return s.walletRepo.ByUserID(userID)
}

// Credit adds funds to a user's wallet and records a ledger row.
func (s *WalletService) Credit(userID string, amountCents int64, txType string, reference *string) error {
	if amountCents <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amountCents)
	}
	wallet, err := s.walletRepo.ByUserID(userID)
	if err != nil {
		return err
	}
	return s.walletRepo.Apply(wallet.ID, amountCents, txType, reference)
}

// Debit removes funds; the repository rejects a debit that would take
// the balance below zero.
func (s *WalletService) Debit(userID string, amountCents int64, txType string, reference *string) error {
	if amountCents <= 0 {
		return fmt.Errorf("debit amount must be positive, got %d", amountCents)
	}
	wallet, err := s.walletRepo.ByUserID(userID)
	if err != nil {
		return err
	}
	if wallet.Balance < amountCents {
		return ErrInsufficientFunds
	}
	return s.walletRepo.Apply(wallet.ID, -amountCents, txType, reference)
}

func (s *WalletService) Transactions(userID string, limit int) ([]*model.WalletTransaction, error) {
	wallet, err := s.walletRepo.ByUserID(userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	return s.walletRepo.Transactions(wallet.ID, limit)
}
