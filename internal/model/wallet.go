package model

import "time"

type Wallet struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Balance   int64     `db:"balance"` // integer cents
	Currency  string    `db:"currency"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const (
	TransactionTypeTopUp    = "top_up"
	TransactionTypePurchase = "purchase"
	TransactionTypeSale     = "sale"
	TransactionTypeRefund   = "refund"
)

// WalletTransaction is one ledger row; Amount is signed (credits positive,
// debits negative).
type WalletTransaction struct {
	ID        string    `db:"id"`
	WalletID  string    `db:"wallet_id"`
	Type      string    `db:"type"`
	Amount    int64     `db:"amount"`
	Reference *string   `db:"reference"` // purchase id, provider checkout id, etc.
	CreatedAt time.Time `db:"created_at"`
}
