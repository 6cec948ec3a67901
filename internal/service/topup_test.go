package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTopUpFixture(t *testing.T) (*TopUpService, *memWalletRepo, string) {
	t.Helper()

	wallets := newMemWalletRepo()
	userID := uuid.New().String()
	wallets.addWallet(userID, 0)

	svc := NewTopUpService(
		NewWalletService(wallets),
		NewUserService(&memUserRepo{}),
		NewProfileService(&memProfileRepo{}),
		NewEmailService("", "test@lootbay.test", "http://localhost", "Lootbay", true),
		"USD",
		500,
		50000,
	)
	return svc, wallets, userID
}

func TestValidateAmountBounds(t *testing.T) {
	svc, _, _ := newTopUpFixture(t)

	tests := []struct {
		name    string
		amount  int64
		wantErr bool
	}{
		{name: "below minimum", amount: 499, wantErr: true},
		{name: "at minimum", amount: 500},
		{name: "mid range", amount: 2500},
		{name: "at maximum", amount: 50000},
		{name: "above maximum", amount: 50001, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ValidateAmount(tt.amount)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrTopUpAmountOutOfRange)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfirmTopUpCreditsWallet(t *testing.T) {
	svc, wallets, userID := newTopUpFixture(t)

	require.NoError(t, svc.ConfirmTopUp(userID, 2500, "cs_test_123"))

	wallet, err := wallets.ByUserID(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), wallet.Balance)

	txs, err := wallets.Transactions(wallet.ID, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "top_up", txs[0].Type)
	require.NotNil(t, txs[0].Reference)
	assert.Equal(t, "cs_test_123", *txs[0].Reference)
}

func TestConfirmTopUpRejectsNonPositiveAmount(t *testing.T) {
	svc, wallets, userID := newTopUpFixture(t)

	require.Error(t, svc.ConfirmTopUp(userID, 0, "cs_test_123"))
	require.Error(t, svc.ConfirmTopUp(userID, -100, "cs_test_123"))

	wallet, err := wallets.ByUserID(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), wallet.Balance)
}
