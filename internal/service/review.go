package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lootbay/lootbay/internal/model"
	"github.com/lootbay/lootbay/internal/repository"
)

var ErrReviewWithoutPurchase = errors.New("only buyers of a listing can review it")

type ReviewService struct {
	reviewRepo  repository.ReviewRepository
	purchaseSvc *PurchaseService
}

func NewReviewService(reviewRepo repository.ReviewRepository, purchaseSvc *PurchaseService) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		purchaseSvc: purchaseSvc,
	}
}

func (s *ReviewService) ByListing(listingID string) ([]*model.Review, error) {
	return s.reviewRepo.ByListing(listingID)
}

func (s *ReviewService) AverageRating(listingID string) (float64, int, error) {
	return s.reviewRepo.AverageRating(listingID)
}

// Create posts a review. Only verified buyers can review, and only
// once per listing.
func (s *ReviewService) Create(buyerID, listingID string, rating int, body string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5, got %d", rating)
	}

	owned, err := s.purchaseSvc.HasPurchased(buyerID, listingID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, ErrReviewWithoutPurchase
	}

	review := &model.Review{
		ID:        uuid.New().String(),
		ListingID: listingID,
		BuyerID:   buyerID,
		Rating:    rating,
		Body:      strings.TrimSpace(body),
		CreatedAt: time.Now(),
	}
	if err := s.reviewRepo.Create(review); err != nil {
		return nil, err
	}
	return review, nil
}
