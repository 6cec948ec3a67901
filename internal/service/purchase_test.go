package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lootbay/lootbay/internal/model"
	"github.com/lootbay/lootbay/internal/repository"
)

type memWalletRepo struct {
	wallets map[string]*model.Wallet // keyed by user id
	ledger  []*model.WalletTransaction
	// failCreditFor forces Apply to fail for one wallet id.
	failCreditFor string
}

func newMemWalletRepo() *memWalletRepo {
	return &memWalletRepo{wallets: map[string]*model.Wallet{}}
}

func (r *memWalletRepo) addWallet(userID string, balance int64) *model.Wallet {
	w := &model.Wallet{ID: uuid.New().String(), UserID: userID, Balance: balance, Currency: "USD"}
	r.wallets[userID] = w
	return w
}

func (r *memWalletRepo) ByUserID(userID string) (*model.Wallet, error) {
	w, ok := r.wallets[userID]
	if !ok {
		return nil, repository.ErrWalletNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *memWalletRepo) Create(wallet *model.Wallet) error {
	r.wallets[wallet.UserID] = wallet
	return nil
}

func (r *memWalletRepo) Apply(walletID string, amount int64, txType string, reference *string) error {
	if walletID == r.failCreditFor && amount > 0 {
		return errors.New("apply failed")
	}
	for _, w := range r.wallets {
		if w.ID == walletID {
			w.Balance += amount
			r.ledger = append(r.ledger, &model.WalletTransaction{
				ID: uuid.New().String(), WalletID: walletID, Type: txType, Amount: amount, Reference: reference,
			})
			return nil
		}
	}
	return repository.ErrWalletNotFound
}

func (r *memWalletRepo) Transactions(walletID string, limit int) ([]*model.WalletTransaction, error) {
	var out []*model.WalletTransaction
	for _, tx := range r.ledger {
		if tx.WalletID == walletID {
			out = append(out, tx)
		}
	}
	return out, nil
}

type memListingRepo struct {
	listings map[string]*model.Listing
}

func (r *memListingRepo) ByID(id string) (*model.Listing, error) {
	l, ok := r.listings[id]
	if !ok {
		return nil, repository.ErrListingNotFound
	}
	return l, nil
}

func (r *memListingRepo) BySeller(sellerID string) ([]*model.Listing, error) { return nil, nil }
func (r *memListingRepo) Published(category string, limit int) ([]*model.Listing, error) {
	return nil, nil
}
func (r *memListingRepo) Create(listing *model.Listing) error {
	r.listings[listing.ID] = listing
	return nil
}

func (r *memListingRepo) Update(listing *model.Listing) error {
	r.listings[listing.ID] = listing
	return nil
}

func (r *memListingRepo) Delete(id string) error {
	delete(r.listings, id)
	return nil
}

type memPurchaseRepo struct {
	purchases map[string]*model.Purchase
}

func (r *memPurchaseRepo) ByID(id string) (*model.Purchase, error) {
	p, ok := r.purchases[id]
	if !ok {
		return nil, repository.ErrPurchaseNotFound
	}
	return p, nil
}

func (r *memPurchaseRepo) ByBuyer(buyerID string) ([]*model.Purchase, error) {
	var out []*model.Purchase
	for _, p := range r.purchases {
		if p.BuyerID == buyerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPurchaseRepo) ByBuyerAndListing(buyerID, listingID string) (*model.Purchase, error) {
	for _, p := range r.purchases {
		if p.BuyerID == buyerID && p.ListingID == listingID {
			return p, nil
		}
	}
	return nil, repository.ErrPurchaseNotFound
}

func (r *memPurchaseRepo) Create(purchase *model.Purchase) error {
	r.purchases[purchase.ID] = purchase
	return nil
}

func (r *memPurchaseRepo) UpdateStatus(id, status string) error {
	p, ok := r.purchases[id]
	if !ok {
		return repository.ErrPurchaseNotFound
	}
	p.Status = status
	return nil
}

type memUserRepo struct{}

func (r *memUserRepo) Create(user *model.User) error         { return nil }
func (r *memUserRepo) ByID(id string) (*model.User, error)   { return nil, repository.ErrUserNotFound }
func (r *memUserRepo) ByEmail(e string) (*model.User, error) { return nil, repository.ErrUserNotFound }
func (r *memUserRepo) Update(user *model.User) error         { return nil }
func (r *memUserRepo) Delete(id string) error                { return nil }

type memProfileRepo struct{}

func (r *memProfileRepo) ByUserID(userID string) (*model.Profile, error) {
	return nil, repository.ErrProfileNotFound
}
func (r *memProfileRepo) ByUsername(username string) (*model.Profile, error) {
	return nil, repository.ErrProfileNotFound
}
func (r *memProfileRepo) Create(profile *model.Profile) error { return nil }
func (r *memProfileRepo) Update(profile *model.Profile) error { return nil }
func (r *memProfileRepo) UpdateAvatarURL(userID string, avatarURL *string) error {
	return nil
}

type purchaseFixture struct {
	svc      *PurchaseService
	wallets  *memWalletRepo
	listings *memListingRepo
	buyer    string
	seller   string
	listing  *model.Listing
}

func newPurchaseFixture(t *testing.T, buyerBalance int64) *purchaseFixture {
	t.Helper()

	wallets := newMemWalletRepo()
	buyerID := uuid.New().String()
	sellerID := uuid.New().String()
	wallets.addWallet(buyerID, buyerBalance)
	wallets.addWallet(sellerID, 0)

	listing := &model.Listing{
		ID:        uuid.New().String(),
		SellerID:  sellerID,
		Title:     "Skyrim save pack",
		Price:     1500,
		Currency:  "USD",
		Status:    model.ListingStatusPublished,
		CreatedAt: time.Now(),
	}
	listings := &memListingRepo{listings: map[string]*model.Listing{listing.ID: listing}}

	walletSvc := NewWalletService(wallets)
	userSvc := NewUserService(&memUserRepo{})
	profileSvc := NewProfileService(&memProfileRepo{})
	emailSvc := NewEmailService("", "test@lootbay.test", "http://localhost", "Lootbay", true)

	svc := NewPurchaseService(
		&memPurchaseRepo{purchases: map[string]*model.Purchase{}},
		listings,
		walletSvc,
		userSvc,
		profileSvc,
		emailSvc,
	)

	return &purchaseFixture{
		svc:      svc,
		wallets:  wallets,
		listings: listings,
		buyer:    buyerID,
		seller:   sellerID,
		listing:  listing,
	}
}

func TestBuyMovesFundsBetweenWallets(t *testing.T) {
	f := newPurchaseFixture(t, 2000)

	purchase, err := f.svc.Buy(f.buyer, f.listing.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseStatusCompleted, purchase.Status)
	assert.Equal(t, int64(1500), purchase.Price)

	buyerWallet, err := f.wallets.ByUserID(f.buyer)
	require.NoError(t, err)
	assert.Equal(t, int64(500), buyerWallet.Balance)

	sellerWallet, err := f.wallets.ByUserID(f.seller)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), sellerWallet.Balance)
}

func TestBuyRejectsInsufficientBalance(t *testing.T) {
	f := newPurchaseFixture(t, 100)

	_, err := f.svc.Buy(f.buyer, f.listing.ID)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	buyerWallet, err := f.wallets.ByUserID(f.buyer)
	require.NoError(t, err)
	assert.Equal(t, int64(100), buyerWallet.Balance, "failed purchase must not touch the wallet")
}

func TestBuyRejectsOwnListing(t *testing.T) {
	f := newPurchaseFixture(t, 5000)

	_, err := f.svc.Buy(f.seller, f.listing.ID)
	require.ErrorIs(t, err, ErrOwnListing)
}

func TestBuyRejectsDuplicatePurchase(t *testing.T) {
	f := newPurchaseFixture(t, 5000)

	_, err := f.svc.Buy(f.buyer, f.listing.ID)
	require.NoError(t, err)

	_, err = f.svc.Buy(f.buyer, f.listing.ID)
	require.ErrorIs(t, err, ErrAlreadyPurchased)
}

func TestBuyRejectsUnpublishedListing(t *testing.T) {
	f := newPurchaseFixture(t, 5000)
	f.listing.Status = model.ListingStatusDraft

	_, err := f.svc.Buy(f.buyer, f.listing.ID)
	require.ErrorIs(t, err, ErrListingInactive)
}

func TestBuyRefundsBuyerWhenSellerCreditFails(t *testing.T) {
	f := newPurchaseFixture(t, 2000)
	sellerWallet, err := f.wallets.ByUserID(f.seller)
	require.NoError(t, err)
	f.wallets.failCreditFor = sellerWallet.ID

	_, err = f.svc.Buy(f.buyer, f.listing.ID)
	require.Error(t, err)

	buyerWallet, err := f.wallets.ByUserID(f.buyer)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), buyerWallet.Balance, "buyer must be made whole")
}

func TestRefundReversesTheFlow(t *testing.T) {
	f := newPurchaseFixture(t, 2000)

	purchase, err := f.svc.Buy(f.buyer, f.listing.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Refund(purchase.ID))

	buyerWallet, err := f.wallets.ByUserID(f.buyer)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), buyerWallet.Balance)

	sellerWallet, err := f.wallets.ByUserID(f.seller)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sellerWallet.Balance)

	refunded, err := f.svc.ByID(purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseStatusRefunded, refunded.Status)
}
