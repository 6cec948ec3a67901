package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lootbay/lootbay/internal/model"
)

var ErrDuplicateReview = errors.New("review already exists for this listing")

type ReviewRepository interface {
	ByListing(listingID string) ([]*model.Review, error)
	Create(review *model.Review) error
	AverageRating(listingID string) (float64, int, error)
}

type reviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) ByListing(listingID string) ([]*model.Review, error) {
	reviews := []*model.Review{}
	err := r.db.Select(&reviews, `
		SELECT * FROM reviews WHERE listing_id = $1 ORDER BY created_at DESC
	`, listingID)
	if err != nil {
		return nil, err
	}

	return reviews, nil
}

func (r *reviewRepository) Create(review *model.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO reviews (id, listing_id, buyer_id, rating, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, review.ID, review.ListingID, review.BuyerID, review.Rating, review.Body, review.CreatedAt)

	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value") {
			return ErrDuplicateReview
		}
		return err
	}

	return nil
}

func (r *reviewRepository) AverageRating(listingID string) (float64, int, error) {
	var row struct {
		Avg   *float64 `db:"avg_rating"`
		Count int      `db:"review_count"`
	}

	err := r.db.Get(&row, `
		SELECT AVG(rating) AS avg_rating, COUNT(*) AS review_count
		FROM reviews WHERE listing_id = $1
	`, listingID)
	if err != nil {
		return 0, 0, err
	}

	if row.Avg == nil {
		return 0, 0, nil
	}
	return *row.Avg, row.Count, nil
}
