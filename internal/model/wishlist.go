package model

import "time"

type WishlistItem struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	ListingID string    `db:"listing_id"`
	CreatedAt time.Time `db:"created_at"`
}
