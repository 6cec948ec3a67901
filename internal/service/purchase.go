package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lootbay/lootbay/internal/model"
	"github.com/lootbay/lootbay/internal/repository"
)

var (
	ErrAlreadyPurchased = errors.New("listing already purchased")
	ErrOwnListing       = errors.New("sellers cannot purchase their own listing")
)

type PurchaseService struct {
	purchaseRepo repository.PurchaseRepository
	listingRepo  repository.ListingRepository
	walletSvc    *WalletService
	userSvc      *UserService
	profileSvc   *ProfileService
	emailSvc     *EmailService
}

func NewPurchaseService(
	purchaseRepo repository.PurchaseRepository,
	listingRepo repository.ListingRepository,
	walletSvc *WalletService,
	userSvc *UserService,
	profileSvc *ProfileService,
	emailSvc *EmailService,
) *PurchaseService {
	return &PurchaseService{
		purchaseRepo: purchaseRepo,
		listingRepo:  listingRepo,
		walletSvc:    walletSvc,
		userSvc:      userSvc,
		profileSvc:   profileSvc,
		emailSvc:     emailSvc,
	}
}

func (s *PurchaseService) ByID(id string) (*model.Purchase, error) {
	return s.purchaseRepo.ByID(id)
}

func (s *PurchaseService) ByBuyer(buyerID string) ([]*model.Purchase, error) {
	return s.purchaseRepo.ByBuyer(buyerID)
}

// HasPurchased reports whether the buyer owns the listing.
func (s *PurchaseService) HasPurchased(buyerID, listingID string) (bool, error) {
	_, err := s.purchaseRepo.ByBuyerAndListing(buyerID, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrPurchaseNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Buy pays for a listing out of the buyer's wallet and credits the
// seller. Receipts go out best-effort; a mail failure never unwinds a
// completed purchase.
func (s *PurchaseService) Buy(buyerID, listingID string) (*model.Purchase, error) {
	listing, err := s.listingRepo.ByID(listingID)
	if err != nil {
		return nil, err
	}
	if !listing.Published() {
		return nil, ErrListingInactive
	}
	if listing.SellerID == buyerID {
		return nil, ErrOwnListing
	}

	if owned, err := s.HasPurchased(buyerID, listingID); err != nil {
		return nil, err
	} else if owned {
		return nil, ErrAlreadyPurchased
	}

	purchase := &model.Purchase{
		ID:        uuid.New().String(),
		ListingID: listing.ID,
		BuyerID:   buyerID,
		SellerID:  listing.SellerID,
		Price:     listing.Price,
		Currency:  listing.Currency,
		Status:    model.PurchaseStatusCompleted,
		CreatedAt: time.Now(),
	}
	ref := purchase.ID

	if err := s.walletSvc.Debit(buyerID, listing.Price, model.TransactionTypePurchase, &ref); err != nil {
		return nil, err
	}

	if err := s.walletSvc.Credit(listing.SellerID, listing.Price, model.TransactionTypeSale, &ref); err != nil {
		// Put the buyer's money back; the purchase never happened.
		if refundErr := s.walletSvc.Credit(buyerID, listing.Price, model.TransactionTypeRefund, &ref); refundErr != nil {
			slog.Error("failed to refund buyer after seller credit failure", "purchase_id", ref, "error", refundErr)
		}
		return nil, fmt.Errorf("failed to credit seller: %w", err)
	}

	if err := s.purchaseRepo.Create(purchase); err != nil {
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	s.sendReceipts(purchase, listing)
	return purchase, nil
}

func (s *PurchaseService) sendReceipts(purchase *model.Purchase, listing *model.Listing) {
	if buyer, err := s.userSvc.ByID(purchase.BuyerID); err == nil {
		name := ""
		if p, err := s.profileSvc.ByUserID(purchase.BuyerID); err == nil {
			name = p.FullName
		}
		if err := s.emailSvc.SendPurchaseReceipt(buyer.Email, name, listing.Title, purchase.Price, purchase.Currency); err != nil {
			slog.Warn("failed to send purchase receipt", "purchase_id", purchase.ID, "error", err)
		}
	}

	if seller, err := s.userSvc.ByID(purchase.SellerID); err == nil {
		name := ""
		if p, err := s.profileSvc.ByUserID(purchase.SellerID); err == nil {
			name = p.FullName
		}
		if err := s.emailSvc.SendSaleNotification(seller.Email, name, listing.Title, purchase.Price, purchase.Currency); err != nil {
			slog.Warn("failed to send sale notification", "purchase_id", purchase.ID, "error", err)
		}
	}
}

// Refund reverses a purchase's money flow and marks it refunded. Used
// by dispute resolution.
func (s *PurchaseService) Refund(purchaseID string) error {
	purchase, err := s.purchaseRepo.ByID(purchaseID)
	if err != nil {
		return err
	}
	if purchase.Status == model.PurchaseStatusRefunded {
		return nil
	}

	ref := purchase.ID
	if err := s.walletSvc.Debit(purchase.SellerID, purchase.Price, model.TransactionTypeRefund, &ref); err != nil {
		return fmt.Errorf("failed to debit seller for refund: %w", err)
	}
	if err := s.walletSvc.Credit(purchase.BuyerID, purchase.Price, model.TransactionTypeRefund, &ref); err != nil {
		return fmt.Errorf("failed to credit buyer for refund: %w", err)
	}

	return s.purchaseRepo.UpdateStatus(purchase.ID, model.PurchaseStatusRefunded)
}

func (s *PurchaseService) MarkDisputed(purchaseID string) error {
	return s.purchaseRepo.UpdateStatus(purchaseID, model.PurchaseStatusDisputed)
}
