package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lootbay/lootbay/internal/model"
)

type DisputeRepository interface {
	ByID(id string) (*model.Dispute, error)
	ByPurchase(purchaseID string) ([]*model.Dispute, error)
	Create(dispute *model.Dispute) error
	Update(dispute *model.Dispute) error
}

type disputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) DisputeRepository {
	return &disputeRepository{db: db}
}

func (r *disputeRepository) ByID(id string) (*model.Dispute, error) {
	var dispute model.Dispute
	err := r.db.Get(&dispute, `SELECT * FROM disputes WHERE id = $1`, id)

	if err == sql.ErrNoRows {
		return nil, ErrDisputeNotFound
	}
	if err != nil {
		return nil, err
	}

	return &dispute, nil
}

func (r *disputeRepository) ByPurchase(purchaseID string) ([]*model.Dispute, error) {
	disputes := []*model.Dispute{}
	err := r.db.Select(&disputes, `
		SELECT * FROM disputes WHERE purchase_id = $1 ORDER BY created_at DESC
	`, purchaseID)
	if err != nil {
		return nil, err
	}

	return disputes, nil
}

func (r *disputeRepository) Create(dispute *model.Dispute) error {
	if dispute.ID == "" {
		dispute.ID = uuid.New().String()
	}
	if dispute.CreatedAt.IsZero() {
		dispute.CreatedAt = time.Now()
	}
	if dispute.UpdatedAt.IsZero() {
		dispute.UpdatedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO disputes (id, purchase_id, opened_by_id, reason, status, evidence_paths, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, dispute.ID, dispute.PurchaseID, dispute.OpenedByID, dispute.Reason,
		dispute.Status, dispute.EvidencePaths, dispute.CreatedAt, dispute.UpdatedAt)

	return err
}

func (r *disputeRepository) Update(dispute *model.Dispute) error {
	result, err := r.db.Exec(`
		UPDATE disputes
		SET reason = $1, status = $2, evidence_paths = $3, updated_at = $4
		WHERE id = $5
	`, dispute.Reason, dispute.Status, dispute.EvidencePaths, time.Now(), dispute.ID)

	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrDisputeNotFound
	}

	return nil
}
