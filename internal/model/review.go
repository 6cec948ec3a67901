package model

import "time"

type Review struct {
	ID        string    `db:"id"`
	ListingID string    `db:"listing_id"`
	BuyerID   string    `db:"buyer_id"`
	Rating    int       `db:"rating"` // 1..5
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
}
