package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lootbay/lootbay/internal/model"
)

type ProfileRepository interface {
	ByUserID(userID string) (*model.Profile, error)
	ByUsername(username string) (*model.Profile, error)
	Create(profile *model.Profile) error
	Update(profile *model.Profile) error
	UpdateAvatarURL(userID string, avatarURL *string) error
}

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) ByUserID(userID string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.Get(&profile, `SELECT * FROM profiles WHERE user_id = $1`, userID)

	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileRepository) ByUsername(username string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.Get(&profile, `SELECT * FROM profiles WHERE username = $1`, username)

	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileRepository) Create(profile *model.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now()
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO profiles (id, user_id, full_name, username, avatar_url, role, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, profile.ID, profile.UserID, profile.FullName, profile.Username, profile.AvatarURL, profile.Role, profile.IsVerified, profile.CreatedAt, profile.UpdatedAt)

	return err
}

func (r *profileRepository) Update(profile *model.Profile) error {
	result, err := r.db.Exec(`
		UPDATE profiles
		SET full_name = $1, username = $2, avatar_url = $3, role = $4, is_verified = $5, updated_at = $6
		WHERE user_id = $7
	`, profile.FullName, profile.Username, profile.AvatarURL, profile.Role, profile.IsVerified, time.Now(), profile.UserID)

	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("no profile found for user_id: %s", profile.UserID)
	}

	return nil
}

func (r *profileRepository) UpdateAvatarURL(userID string, avatarURL *string) error {
	result, err := r.db.Exec(`
		UPDATE profiles
		SET avatar_url = $1, updated_at = $2
		WHERE user_id = $3
	`, avatarURL, time.Now(), userID)

	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("no profile found for user_id: %s", userID)
	}

	return nil
}
