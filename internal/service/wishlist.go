package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/lootbay/lootbay/internal/model"
	"github.com/lootbay/lootbay/internal/repository"
)

type WishlistService struct {
	wishlistRepo repository.WishlistRepository
	listingRepo  repository.ListingRepository
}

func NewWishlistService(wishlistRepo repository.WishlistRepository, listingRepo repository.ListingRepository) *WishlistService {
	return &WishlistService{
		wishlistRepo: wishlistRepo,
		listingRepo:  listingRepo,
	}
}

func (s *WishlistService) ByUser(userID string) ([]*model.WishlistItem, error) {
	return s.wishlistRepo.ByUser(userID)
}

// Add saves a listing to the wishlist. Adding twice is a no-op.
func (s *WishlistService) Add(userID, listingID string) error {
	if _, err := s.listingRepo.ByID(listingID); err != nil {
		return err
	}

	return s.wishlistRepo.Add(&model.WishlistItem{
		ID:        uuid.New().String(),
		UserID:    userID,
		ListingID: listingID,
		CreatedAt: time.Now(),
	})
}

func (s *WishlistService) Remove(userID, listingID string) error {
	return s.wishlistRepo.Remove(userID, listingID)
}

func (s *WishlistService) Contains(userID, listingID string) (bool, error) {
	return s.wishlistRepo.Contains(userID, listingID)
}
