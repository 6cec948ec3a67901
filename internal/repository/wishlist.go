package repository

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lootbay/lootbay/internal/model"
)

type WishlistRepository interface {
	ByUser(userID string) ([]*model.WishlistItem, error)
	Add(item *model.WishlistItem) error
	Remove(userID, listingID string) error
	Contains(userID, listingID string) (bool, error)
}

type wishlistRepository struct {
	db *sqlx.DB
}

func NewWishlistRepository(db *sqlx.DB) WishlistRepository {
	return &wishlistRepository{db: db}
}

func (r *wishlistRepository) ByUser(userID string) ([]*model.WishlistItem, error) {
	items := []*model.WishlistItem{}
	err := r.db.Select(&items, `
		SELECT * FROM wishlist_items WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *wishlistRepository) Add(item *model.WishlistItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO wishlist_items (id, user_id, listing_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, item.ID, item.UserID, item.ListingID, item.CreatedAt)

	if err != nil {
		// Adding twice is a no-op, not an error
		errStr := err.Error()
		if strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value") {
			return nil
		}
		return err
	}

	return nil
}

func (r *wishlistRepository) Remove(userID, listingID string) error {
	_, err := r.db.Exec(`
		DELETE FROM wishlist_items WHERE user_id = $1 AND listing_id = $2
	`, userID, listingID)
	return err
}

func (r *wishlistRepository) Contains(userID, listingID string) (bool, error) {
	var count int
	err := r.db.Get(&count, `
		SELECT COUNT(*) FROM wishlist_items WHERE user_id = $1 AND listing_id = $2
	`, userID, listingID)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
