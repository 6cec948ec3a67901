package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lootbay/lootbay/internal/model"
)

type fakeBackend struct {
	session    *Session
	currentErr error
	signOutErr error
	signedOut  bool
}

func (f *fakeBackend) Current(context.Context) (*Session, error) {
	return f.session, f.currentErr
}

func (f *fakeBackend) SignOut(context.Context, *Session) error {
	if f.signOutErr != nil {
		return f.signOutErr
	}
	f.signedOut = true
	return nil
}

type fakeProfiles struct {
	profile *model.Profile
	err     error
	calls   int
}

func (f *fakeProfiles) ByUserID(context.Context, string) (*model.Profile, error) {
	f.calls++
	return f.profile, f.err
}

type fakeWallets struct {
	wallet *model.Wallet
	err    error
	calls  int
}

func (f *fakeWallets) ByUserID(context.Context, string) (*model.Wallet, error) {
	f.calls++
	return f.wallet, f.err
}

func testSession() *Session {
	return &Session{
		UserID:       "u1",
		Email:        "ana@example.com",
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(15 * time.Minute),
	}
}

func newTestManager(backend *fakeBackend, profiles *fakeProfiles, wallets *fakeWallets) (*Manager, *Broker) {
	broker := NewBroker()
	m := NewManager(backend, profiles, wallets, broker)
	return m, broker
}

func TestManagerStartWithPersistedSession(t *testing.T) {
	profiles := &fakeProfiles{profile: &model.Profile{UserID: "u1", Role: model.RoleSeller}}
	wallets := &fakeWallets{wallet: &model.Wallet{UserID: "u1", Balance: 1200}}
	m, broker := newTestManager(&fakeBackend{session: testSession()}, profiles, wallets)
	defer broker.Close()

	m.Start(context.Background())
	defer m.Close()

	st := m.Snapshot()
	assert.Equal(t, StatusAuthenticated, st.Status)
	assert.False(t, st.Loading)
	require.NotNil(t, st.Session)
	assert.Equal(t, "u1", st.Session.UserID)
	require.NotNil(t, st.Profile)
	require.NotNil(t, st.Wallet)
	assert.Equal(t, int64(1200), st.Wallet.Balance)
}

func TestManagerStartWithoutSession(t *testing.T) {
	m, broker := newTestManager(&fakeBackend{}, &fakeProfiles{}, &fakeWallets{})
	defer broker.Close()

	m.Start(context.Background())
	defer m.Close()

	st := m.Snapshot()
	assert.Equal(t, StatusAnonymous, st.Status)
	assert.False(t, st.Loading)
	assert.Nil(t, st.Session)
	assert.Nil(t, st.Profile)
	assert.Nil(t, st.Wallet)
}

func TestManagerStartRestoreError(t *testing.T) {
	m, broker := newTestManager(&fakeBackend{currentErr: errors.New("store offline")}, &fakeProfiles{}, &fakeWallets{})
	defer broker.Close()

	m.Start(context.Background())
	defer m.Close()

	st := m.Snapshot()
	assert.Equal(t, StatusAnonymous, st.Status)
	assert.False(t, st.Loading)
	assert.Error(t, st.Err)
}

func TestManagerPartialIdentityFetch(t *testing.T) {
	profiles := &fakeProfiles{err: errors.New("profile store down")}
	wallets := &fakeWallets{wallet: &model.Wallet{UserID: "u1", Balance: 50}}
	m, broker := newTestManager(&fakeBackend{session: testSession()}, profiles, wallets)
	defer broker.Close()

	m.Start(context.Background())
	defer m.Close()

	st := m.Snapshot()
	assert.Equal(t, StatusAuthenticated, st.Status)
	assert.Nil(t, st.Profile)
	require.NotNil(t, st.Wallet, "wallet fetch must survive a profile failure")
}

func TestManagerSignedOutEventClearsEverything(t *testing.T) {
	profiles := &fakeProfiles{profile: &model.Profile{UserID: "u1", Role: model.RoleBuyer}}
	wallets := &fakeWallets{wallet: &model.Wallet{UserID: "u1"}}
	m, broker := newTestManager(&fakeBackend{session: testSession()}, profiles, wallets)
	defer broker.Close()

	m.Start(context.Background())
	defer m.Close()

	broker.Publish(Event{Type: EventSignedOut})

	require.Eventually(t, func() bool {
		return m.Snapshot().Status == StatusAnonymous
	}, time.Second, 5*time.Millisecond)

	st := m.Snapshot()
	assert.Nil(t, st.Session)
	assert.Nil(t, st.Profile)
	assert.Nil(t, st.Wallet)
}

func TestManagerSignedInEvent(t *testing.T) {
	profiles := &fakeProfiles{profile: &model.Profile{UserID: "u2", Role: model.RoleSeller}}
	wallets := &fakeWallets{wallet: &model.Wallet{UserID: "u2"}}
	m, broker := newTestManager(&fakeBackend{}, profiles, wallets)
	defer broker.Close()

	m.Start(context.Background())
	defer m.Close()
	require.Equal(t, StatusAnonymous, m.Snapshot().Status)

	sess := testSession()
	sess.UserID = "u2"
	broker.Publish(Event{Type: EventSignedIn, Session: sess})

	require.Eventually(t, func() bool {
		return m.Snapshot().Status == StatusAuthenticated
	}, time.Second, 5*time.Millisecond)

	st := m.Snapshot()
	require.NotNil(t, st.Profile)
	assert.Equal(t, "u2", st.Session.UserID)
	assert.True(t, m.IsSeller())
}

func TestManagerTokenRefreshKeepsIdentity(t *testing.T) {
	profiles := &fakeProfiles{profile: &model.Profile{UserID: "u1", Role: model.RoleBuyer}}
	wallets := &fakeWallets{wallet: &model.Wallet{UserID: "u1"}}
	m, broker := newTestManager(&fakeBackend{session: testSession()}, profiles, wallets)
	defer broker.Close()

	m.Start(context.Background())
	defer m.Close()

	fetchesBefore := profiles.calls

	refreshed := testSession()
	refreshed.AccessToken = "access-2"
	broker.Publish(Event{Type: EventTokenRefreshed, Session: refreshed})

	require.Eventually(t, func() bool {
		return m.Snapshot().Session.AccessToken == "access-2"
	}, time.Second, 5*time.Millisecond)

	st := m.Snapshot()
	assert.NotNil(t, st.Profile, "identity must survive a token refresh")
	assert.Equal(t, fetchesBefore, profiles.calls, "token refresh must not re-fetch identity")
}

func TestManagerSignOut(t *testing.T) {
	t.Run("success clears state", func(t *testing.T) {
		backend := &fakeBackend{session: testSession()}
		m, broker := newTestManager(backend, &fakeProfiles{profile: &model.Profile{UserID: "u1"}}, &fakeWallets{})
		defer broker.Close()
		m.Start(context.Background())
		defer m.Close()

		require.NoError(t, m.SignOut(context.Background()))
		assert.True(t, backend.signedOut)

		st := m.Snapshot()
		assert.Equal(t, StatusAnonymous, st.Status)
		assert.Nil(t, st.Session)
		assert.False(t, st.Loading, "loading must be released after sign-out")
	})

	t.Run("failure keeps session and releases loading", func(t *testing.T) {
		backend := &fakeBackend{session: testSession(), signOutErr: errors.New("backend down")}
		m, broker := newTestManager(backend, &fakeProfiles{}, &fakeWallets{})
		defer broker.Close()
		m.Start(context.Background())
		defer m.Close()

		require.Error(t, m.SignOut(context.Background()))

		st := m.Snapshot()
		assert.NotNil(t, st.Session)
		assert.Error(t, st.Err)
		assert.False(t, st.Loading, "loading must be released even on failure")
	})

	t.Run("anonymous sign-out is a no-op", func(t *testing.T) {
		backend := &fakeBackend{}
		m, broker := newTestManager(backend, &fakeProfiles{}, &fakeWallets{})
		defer broker.Close()
		m.Start(context.Background())
		defer m.Close()

		require.NoError(t, m.SignOut(context.Background()))
		assert.False(t, backend.signedOut)
	})
}

func TestManagerRefreshers(t *testing.T) {
	t.Run("no-op when anonymous", func(t *testing.T) {
		profiles := &fakeProfiles{}
		wallets := &fakeWallets{}
		m, broker := newTestManager(&fakeBackend{}, profiles, wallets)
		defer broker.Close()
		m.Start(context.Background())
		defer m.Close()

		callsBefore := profiles.calls
		require.NoError(t, m.RefreshProfile(context.Background()))
		require.NoError(t, m.RefreshWallet(context.Background()))
		assert.Equal(t, callsBefore, profiles.calls)
		assert.Zero(t, wallets.calls)
	})

	t.Run("refresh wallet replaces only the wallet", func(t *testing.T) {
		profiles := &fakeProfiles{profile: &model.Profile{UserID: "u1"}}
		wallets := &fakeWallets{wallet: &model.Wallet{UserID: "u1", Balance: 100}}
		m, broker := newTestManager(&fakeBackend{session: testSession()}, profiles, wallets)
		defer broker.Close()
		m.Start(context.Background())
		defer m.Close()

		wallets.wallet = &model.Wallet{UserID: "u1", Balance: 900}
		require.NoError(t, m.RefreshWallet(context.Background()))

		st := m.Snapshot()
		assert.Equal(t, int64(900), st.Wallet.Balance)
		assert.NotNil(t, st.Profile)
	})
}

func TestManagerRolePredicates(t *testing.T) {
	m, broker := newTestManager(&fakeBackend{}, &fakeProfiles{}, &fakeWallets{})
	defer broker.Close()
	m.Start(context.Background())
	defer m.Close()

	assert.False(t, m.IsSeller())
	assert.False(t, m.IsBuyer())
	assert.False(t, m.IsAdmin())
}

func TestManagerRequireAuth(t *testing.T) {
	t.Run("anonymous redirects", func(t *testing.T) {
		m, broker := newTestManager(&fakeBackend{}, &fakeProfiles{}, &fakeWallets{})
		defer broker.Close()
		m.Start(context.Background())
		defer m.Close()

		target, redirect := m.RequireAuth("/auth")
		assert.True(t, redirect)
		assert.Equal(t, "/auth", target)
	})

	t.Run("loading never redirects", func(t *testing.T) {
		m := NewManager(&fakeBackend{}, &fakeProfiles{}, &fakeWallets{}, NewBroker())

		_, redirect := m.RequireAuth("/auth")
		assert.False(t, redirect)
	})

	t.Run("authenticated passes", func(t *testing.T) {
		m, broker := newTestManager(&fakeBackend{session: testSession()}, &fakeProfiles{}, &fakeWallets{})
		defer broker.Close()
		m.Start(context.Background())
		defer m.Close()

		_, redirect := m.RequireAuth("/auth")
		assert.False(t, redirect)
	})
}
