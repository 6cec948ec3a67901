package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lootbay/lootbay/internal/markdown"
	"github.com/lootbay/lootbay/internal/model"
	"github.com/lootbay/lootbay/internal/repository"
)

var (
	ErrNotListingOwner = errors.New("listing belongs to another seller")
	ErrListingInactive = errors.New("listing is not available for purchase")
)

const maxListingImages = 8

type ListingService struct {
	listingRepo repository.ListingRepository
	parser      *markdown.Parser
	currency    string
}

func NewListingService(listingRepo repository.ListingRepository, currency string) *ListingService {
	return &ListingService{
		listingRepo: listingRepo,
		parser:      markdown.NewParser(),
		currency:    currency,
	}
}

func (s *ListingService) ByID(id string) (*model.Listing, error) {
	return s.listingRepo.ByID(id)
}

func (s *ListingService) BySeller(sellerID string) ([]*model.Listing, error) {
	return s.listingRepo.BySeller(sellerID)
}

func (s *ListingService) Browse(category string, limit int) ([]*model.Listing, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.listingRepo.Published(category, limit)
}

// RenderDescription converts a listing's markdown description to HTML.
func (s *ListingService) RenderDescription(listing *model.Listing) (string, error) {
	html, err := s.parser.Parse([]byte(listing.Description))
	if err != nil {
		return "", fmt.Errorf("failed to render description: %w", err)
	}
	return string(html), nil
}

func (s *ListingService) validate(title, description string, priceCents int64) error {
	if strings.TrimSpace(title) == "" {
		return errors.New("title is required")
	}
	if len(title) > 140 {
		return errors.New("title is too long (max 140 characters)")
	}
	if strings.TrimSpace(description) == "" {
		return errors.New("description is required")
	}
	if priceCents <= 0 {
		return errors.New("price must be positive")
	}
	return nil
}

func (s *ListingService) Create(sellerID, title, description, category string, priceCents int64) (*model.Listing, error) {
	if err := s.validate(title, description, priceCents); err != nil {
		return nil, err
	}

	now := time.Now()
	listing := &model.Listing{
		ID:          uuid.New().String(),
		SellerID:    sellerID,
		Title:       strings.TrimSpace(title),
		Description: description,
		Price:       priceCents,
		Currency:    s.currency,
		Category:    strings.TrimSpace(strings.ToLower(category)),
		Status:      model.ListingStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.listingRepo.Create(listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	return listing, nil
}

// owned fetches a listing and checks the caller is its seller.
func (s *ListingService) owned(sellerID, listingID string) (*model.Listing, error) {
	listing, err := s.listingRepo.ByID(listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != sellerID {
		return nil, ErrNotListingOwner
	}
	return listing, nil
}

func (s *ListingService) Update(sellerID, listingID, title, description, category string, priceCents int64) (*model.Listing, error) {
	if err := s.validate(title, description, priceCents); err != nil {
		return nil, err
	}

	listing, err := s.owned(sellerID, listingID)
	if err != nil {
		return nil, err
	}

	listing.Title = strings.TrimSpace(title)
	listing.Description = description
	listing.Price = priceCents
	listing.Category = strings.TrimSpace(strings.ToLower(category))
	listing.UpdatedAt = time.Now()

	if err := s.listingRepo.Update(listing); err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	return listing, nil
}

// SetImages replaces the listing's gallery with uploaded image URLs.
func (s *ListingService) SetImages(sellerID, listingID string, urls []string) error {
	if len(urls) > maxListingImages {
		return fmt.Errorf("too many images (max %d)", maxListingImages)
	}

	listing, err := s.owned(sellerID, listingID)
	if err != nil {
		return err
	}

	listing.ImageURLs = strings.Join(urls, ",")
	listing.UpdatedAt = time.Now()
	return s.listingRepo.Update(listing)
}

func (s *ListingService) SetStatus(sellerID, listingID, status string) error {
	switch status {
	case model.ListingStatusDraft, model.ListingStatusPublished, model.ListingStatusArchived:
	default:
		return fmt.Errorf("unknown listing status %q", status)
	}

	listing, err := s.owned(sellerID, listingID)
	if err != nil {
		return err
	}

	listing.Status = status
	listing.UpdatedAt = time.Now()
	return s.listingRepo.Update(listing)
}

func (s *ListingService) Delete(sellerID, listingID string) error {
	if _, err := s.owned(sellerID, listingID); err != nil {
		return err
	}
	return s.listingRepo.Delete(listingID)
}

// Images splits the stored gallery into individual URLs.
func (s *ListingService) Images(listing *model.Listing) []string {
	if listing.ImageURLs == "" {
		return nil
	}
	return strings.Split(listing.ImageURLs, ",")
}
