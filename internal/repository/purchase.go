package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lootbay/lootbay/internal/model"
)

type PurchaseRepository interface {
	ByID(id string) (*model.Purchase, error)
	ByBuyer(buyerID string) ([]*model.Purchase, error)
	ByBuyerAndListing(buyerID, listingID string) (*model.Purchase, error)
	Create(purchase *model.Purchase) error
	UpdateStatus(id, status string) error
}

type purchaseRepository struct {
	db *sqlx.DB
}

func NewPurchaseRepository(db *sqlx.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) ByID(id string) (*model.Purchase, error) {
	var purchase model.Purchase
	err := r.db.Get(&purchase, `SELECT * FROM purchases WHERE id = $1`, id)

	if err == sql.ErrNoRows {
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, err
	}

	return &purchase, nil
}

func (r *purchaseRepository) ByBuyer(buyerID string) ([]*model.Purchase, error) {
	purchases := []*model.Purchase{}
	err := r.db.Select(&purchases, `
		SELECT * FROM purchases WHERE buyer_id = $1 ORDER BY created_at DESC
	`, buyerID)
	if err != nil {
		return nil, err
	}

	return purchases, nil
}

func (r *purchaseRepository) ByBuyerAndListing(buyerID, listingID string) (*model.Purchase, error) {
	var purchase model.Purchase
	err := r.db.Get(&purchase, `
		SELECT * FROM purchases WHERE buyer_id = $1 AND listing_id = $2
	`, buyerID, listingID)

	if err == sql.ErrNoRows {
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, err
	}

	return &purchase, nil
}

func (r *purchaseRepository) Create(purchase *model.Purchase) error {
	if purchase.ID == "" {
		purchase.ID = uuid.New().String()
	}
	if purchase.CreatedAt.IsZero() {
		purchase.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO purchases (id, listing_id, buyer_id, seller_id, price, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, purchase.ID, purchase.ListingID, purchase.BuyerID, purchase.SellerID,
		purchase.Price, purchase.Currency, purchase.Status, purchase.CreatedAt)

	return err
}

func (r *purchaseRepository) UpdateStatus(id, status string) error {
	result, err := r.db.Exec(`UPDATE purchases SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrPurchaseNotFound
	}

	return nil
}
