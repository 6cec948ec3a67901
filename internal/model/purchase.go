package model

import "time"

const (
	PurchaseStatusCompleted = "completed"
	PurchaseStatusDisputed  = "disputed"
	PurchaseStatusRefunded  = "refunded"
)

type Purchase struct {
	ID        string    `db:"id"`
	ListingID string    `db:"listing_id"`
	BuyerID   string    `db:"buyer_id"`
	SellerID  string    `db:"seller_id"`
	Price     int64     `db:"price"` // cents, captured at purchase time
	Currency  string    `db:"currency"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}
