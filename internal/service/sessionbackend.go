package service

import (
	"context"

	"github.com/lootbay/lootbay/internal/model"
	"github.com/lootbay/lootbay/internal/session"
)

// SessionBackend adapts AuthService to session.Backend for callers
// that hold a persisted refresh token, such as the admin CLI or an
// embedded client. Restoring consumes the stored token and rotates it.
type SessionBackend struct {
	auth         *AuthService
	refreshToken string
}

func NewSessionBackend(auth *AuthService, refreshToken string) *SessionBackend {
	return &SessionBackend{auth: auth, refreshToken: refreshToken}
}

func (b *SessionBackend) Current(_ context.Context) (*session.Session, error) {
	if b.refreshToken == "" {
		return nil, nil
	}
	sess, err := b.auth.RefreshSession(b.refreshToken)
	if err != nil {
		return nil, err
	}
	b.refreshToken = sess.RefreshToken
	return sess, nil
}

func (b *SessionBackend) SignOut(_ context.Context, sess *session.Session) error {
	b.refreshToken = ""
	return b.auth.SignOut(sess)
}

// ProfileLookup adapts ProfileService to session.ProfileStore.
type ProfileLookup struct {
	Profiles *ProfileService
}

func (l ProfileLookup) ByUserID(_ context.Context, userID string) (*model.Profile, error) {
	return l.Profiles.ByUserID(userID)
}

// WalletLookup adapts WalletService to session.WalletStore.
type WalletLookup struct {
	Wallets *WalletService
}

func (l WalletLookup) ByUserID(_ context.Context, userID string) (*model.Wallet, error) {
	return l.Wallets.ByUserID(userID)
}
