package model

import "time"

const (
	ListingStatusDraft     = "draft"
	ListingStatusPublished = "published"
	ListingStatusArchived  = "archived"
)

type Listing struct {
	ID          string    `db:"id"`
	SellerID    string    `db:"seller_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"` // markdown source
	Price       int64     `db:"price"`       // integer cents
	Currency    string    `db:"currency"`
	Category    string    `db:"category"`
	Status      string    `db:"status"`
	ImageURLs   string    `db:"image_urls"` // comma-separated public URLs
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (l *Listing) Published() bool {
	return l.Status == ListingStatusPublished
}
