package model

import "time"

// Conversation is a buyer/seller thread, optionally anchored to a listing.
type Conversation struct {
	ID        string    `db:"id"`
	BuyerID   string    `db:"buyer_id"`
	SellerID  string    `db:"seller_id"`
	ListingID *string   `db:"listing_id"`
	CreatedAt time.Time `db:"created_at"`
}

type Message struct {
	ID             string     `db:"id"`
	ConversationID string     `db:"conversation_id"`
	SenderID       string     `db:"sender_id"`
	Body           string     `db:"body"`
	AttachmentURL  *string    `db:"attachment_url"`
	ReadAt         *time.Time `db:"read_at"`
	CreatedAt      time.Time  `db:"created_at"`
}
