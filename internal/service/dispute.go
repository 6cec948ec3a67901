package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lootbay/lootbay/internal/model"
	"github.com/lootbay/lootbay/internal/repository"
)

var (
	ErrNotPurchaseOwner = errors.New("purchase belongs to another buyer")
	ErrDisputeClosed    = errors.New("dispute is already resolved")
)

type DisputeService struct {
	disputeRepo repository.DisputeRepository
	purchaseSvc *PurchaseService
	listingRepo repository.ListingRepository
	userSvc     *UserService
	profileSvc  *ProfileService
	emailSvc    *EmailService
}

func NewDisputeService(
	disputeRepo repository.DisputeRepository,
	purchaseSvc *PurchaseService,
	listingRepo repository.ListingRepository,
	userSvc *UserService,
	profileSvc *ProfileService,
	emailSvc *EmailService,
) *DisputeService {
	return &DisputeService{
		disputeRepo: disputeRepo,
		purchaseSvc: purchaseSvc,
		listingRepo: listingRepo,
		userSvc:     userSvc,
		profileSvc:  profileSvc,
		emailSvc:    emailSvc,
	}
}

func (s *DisputeService) ByID(id string) (*model.Dispute, error) {
	return s.disputeRepo.ByID(id)
}

func (s *DisputeService) ByPurchase(purchaseID string) ([]*model.Dispute, error) {
	return s.disputeRepo.ByPurchase(purchaseID)
}

// Open files a dispute against a purchase. Evidence paths reference
// objects in the private disputes bucket; URLs are minted on read.
func (s *DisputeService) Open(buyerID, purchaseID, reason string, evidencePaths []string) (*model.Dispute, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errors.New("a reason is required to open a dispute")
	}

	purchase, err := s.purchaseSvc.ByID(purchaseID)
	if err != nil {
		return nil, err
	}
	if purchase.BuyerID != buyerID {
		return nil, ErrNotPurchaseOwner
	}

	now := time.Now()
	dispute := &model.Dispute{
		ID:            uuid.New().String(),
		PurchaseID:    purchaseID,
		OpenedByID:    buyerID,
		Reason:        reason,
		Status:        model.DisputeStatusOpen,
		EvidencePaths: strings.Join(evidencePaths, ","),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.disputeRepo.Create(dispute); err != nil {
		return nil, fmt.Errorf("failed to create dispute: %w", err)
	}

	if err := s.purchaseSvc.MarkDisputed(purchaseID); err != nil {
		slog.Warn("failed to mark purchase disputed", "purchase_id", purchaseID, "error", err)
	}

	s.notifySeller(purchase)
	return dispute, nil
}

func (s *DisputeService) notifySeller(purchase *model.Purchase) {
	seller, err := s.userSvc.ByID(purchase.SellerID)
	if err != nil {
		return
	}
	name := ""
	if p, err := s.profileSvc.ByUserID(purchase.SellerID); err == nil {
		name = p.FullName
	}
	title := purchase.ListingID
	if listing, err := s.listingRepo.ByID(purchase.ListingID); err == nil {
		title = listing.Title
	}
	if err := s.emailSvc.SendDisputeOpened(seller.Email, name, title); err != nil {
		slog.Warn("failed to send dispute notification", "purchase_id", purchase.ID, "error", err)
	}
}

// Resolve closes a dispute. A resolution in the buyer's favor refunds
// the purchase.
func (s *DisputeService) Resolve(disputeID string, inBuyersFavor bool) error {
	dispute, err := s.disputeRepo.ByID(disputeID)
	if err != nil {
		return err
	}
	if dispute.Status != model.DisputeStatusOpen {
		return ErrDisputeClosed
	}

	if inBuyersFavor {
		if err := s.purchaseSvc.Refund(dispute.PurchaseID); err != nil {
			return fmt.Errorf("failed to refund disputed purchase: %w", err)
		}
		dispute.Status = model.DisputeStatusResolved
	} else {
		dispute.Status = model.DisputeStatusRejected
	}

	dispute.UpdatedAt = time.Now()
	return s.disputeRepo.Update(dispute)
}

// EvidencePathList splits the stored evidence paths.
func (s *DisputeService) EvidencePathList(dispute *model.Dispute) []string {
	if dispute.EvidencePaths == "" {
		return nil
	}
	return strings.Split(dispute.EvidencePaths, ",")
}
