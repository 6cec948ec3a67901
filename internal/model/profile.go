package model

import "time"

// Role drives both UI affordances and route-guard redirect targets.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

type Profile struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	FullName   string    `db:"full_name"`
	Username   string    `db:"username"`
	AvatarURL  *string   `db:"avatar_url"`
	Role       Role      `db:"role"`
	IsVerified bool      `db:"is_verified"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}
