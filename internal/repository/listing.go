package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lootbay/lootbay/internal/model"
)

type ListingRepository interface {
	ByID(id string) (*model.Listing, error)
	BySeller(sellerID string) ([]*model.Listing, error)
	Published(category string, limit int) ([]*model.Listing, error)
	Create(listing *model.Listing) error
	Update(listing *model.Listing) error
	Delete(id string) error
}

type listingRepository struct {
	db *sqlx.DB
}

func NewListingRepository(db *sqlx.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) ByID(id string) (*model.Listing, error) {
	var listing model.Listing
	err := r.db.Get(&listing, `SELECT * FROM listings WHERE id = $1`, id)

	if err == sql.ErrNoRows {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}

	return &listing, nil
}

func (r *listingRepository) BySeller(sellerID string) ([]*model.Listing, error) {
	listings := []*model.Listing{}
	err := r.db.Select(&listings, `
		SELECT * FROM listings WHERE seller_id = $1 ORDER BY created_at DESC
	`, sellerID)
	if err != nil {
		return nil, err
	}

	return listings, nil
}

func (r *listingRepository) Published(category string, limit int) ([]*model.Listing, error) {
	listings := []*model.Listing{}

	if category != "" {
		err := r.db.Select(&listings, `
			SELECT * FROM listings
			WHERE status = $1 AND category = $2
			ORDER BY created_at DESC
			LIMIT $3
		`, model.ListingStatusPublished, category, limit)
		if err != nil {
			return nil, err
		}
		return listings, nil
	}

	err := r.db.Select(&listings, `
		SELECT * FROM listings
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, model.ListingStatusPublished, limit)
	if err != nil {
		return nil, err
	}

	return listings, nil
}

func (r *listingRepository) Create(listing *model.Listing) error {
	if listing.ID == "" {
		listing.ID = uuid.New().String()
	}
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = time.Now()
	}
	if listing.UpdatedAt.IsZero() {
		listing.UpdatedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO listings (id, seller_id, title, description, price, currency, category, status, image_urls, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, listing.ID, listing.SellerID, listing.Title, listing.Description, listing.Price, listing.Currency,
		listing.Category, listing.Status, listing.ImageURLs, listing.CreatedAt, listing.UpdatedAt)

	return err
}

func (r *listingRepository) Update(listing *model.Listing) error {
	result, err := r.db.Exec(`
		UPDATE listings
		SET title = $1, description = $2, price = $3, category = $4, status = $5, image_urls = $6, updated_at = $7
		WHERE id = $8
	`, listing.Title, listing.Description, listing.Price, listing.Category, listing.Status,
		listing.ImageURLs, time.Now(), listing.ID)

	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrListingNotFound
	}

	return nil
}

func (r *listingRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrListingNotFound
	}

	return nil
}
