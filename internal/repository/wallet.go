package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lootbay/lootbay/internal/model"
)

type WalletRepository interface {
	ByUserID(userID string) (*model.Wallet, error)
	Create(wallet *model.Wallet) error
	// Apply atomically adjusts the balance and appends a ledger row.
	Apply(walletID string, amount int64, txType string, reference *string) error
	Transactions(walletID string, limit int) ([]*model.WalletTransaction, error)
}

type walletRepository struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) ByUserID(userID string) (*model.Wallet, error) {
	var wallet model.Wallet
	err := r.db.Get(&wallet, `SELECT * FROM wallets WHERE user_id = $1`, userID)

	if err == sql.ErrNoRows {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}

	return &wallet, nil
}

func (r *walletRepository) Create(wallet *model.Wallet) error {
	if wallet.ID == "" {
		wallet.ID = uuid.New().String()
	}
	if wallet.CreatedAt.IsZero() {
		wallet.CreatedAt = time.Now()
	}
	if wallet.UpdatedAt.IsZero() {
		wallet.UpdatedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO wallets (id, user_id, balance, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, wallet.ID, wallet.UserID, wallet.Balance, wallet.Currency, wallet.CreatedAt, wallet.UpdatedAt)

	return err
}

func (r *walletRepository) Apply(walletID string, amount int64, txType string, reference *string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()

	// Debits must not push the balance negative; the WHERE clause makes
	// the check and the update a single statement.
	result, err := tx.Exec(`
		UPDATE wallets
		SET balance = balance + $1, updated_at = $2
		WHERE id = $3 AND balance + $1 >= 0
	`, amount, now, walletID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("wallet %s: insufficient balance for %d", walletID, amount)
	}

	_, err = tx.Exec(`
		INSERT INTO wallet_transactions (id, wallet_id, type, amount, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New().String(), walletID, txType, amount, reference, now)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *walletRepository) Transactions(walletID string, limit int) ([]*model.WalletTransaction, error) {
	txs := []*model.WalletTransaction{}
	err := r.db.Select(&txs, `
		SELECT * FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, walletID, limit)
	if err != nil {
		return nil, err
	}

	return txs, nil
}
