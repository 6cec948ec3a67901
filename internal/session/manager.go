package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lootbay/lootbay/internal/model"
)

// Status is the lifecycle phase of the session state machine.
type Status string

const (
	StatusInitializing  Status = "initializing"
	StatusAuthenticated Status = "authenticated"
	StatusAnonymous     Status = "anonymous"
)

// Backend restores and revokes persisted sessions. The auth service
// implements it; tests substitute fakes.
type Backend interface {
	// Current returns the persisted session, or nil when none exists.
	Current(ctx context.Context) (*Session, error)

	// SignOut revokes a session's tokens.
	SignOut(ctx context.Context, s *Session) error
}

// ProfileStore is the point lookup the manager needs; the profile
// repository satisfies it.
type ProfileStore interface {
	ByUserID(ctx context.Context, userID string) (*model.Profile, error)
}

// WalletStore is the point lookup the manager needs; the wallet
// repository satisfies it.
type WalletStore interface {
	ByUserID(ctx context.Context, userID string) (*model.Wallet, error)
}

// State is one consistent snapshot of the session. Profile and Wallet
// are best-effort: either can be nil after a failed fetch without the
// session as a whole being anonymous.
type State struct {
	Status  Status
	Session *Session
	Profile *model.Profile
	Wallet  *model.Wallet
	Loading bool
	Err     error
}

func (s State) Authenticated() bool {
	return s.Session != nil
}

// Manager owns the session state for the life of the application. It
// is the sole writer; everything else reads through Snapshot.
type Manager struct {
	backend  Backend
	profiles ProfileStore
	wallets  WalletStore
	broker   *Broker
	log      *slog.Logger

	mu    sync.RWMutex
	state State

	unsubscribe func()
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

func NewManager(backend Backend, profiles ProfileStore, wallets WalletStore, broker *Broker) *Manager {
	return &Manager{
		backend:  backend,
		profiles: profiles,
		wallets:  wallets,
		broker:   broker,
		log:      slog.Default().With("component", "session"),
		state:    State{Status: StatusInitializing, Loading: true},
	}
}

// Start restores any persisted session and begins consuming auth
// events. The subscription is taken before the restore so no event
// emitted during startup is lost. Callers must pair Start with Close.
func (m *Manager) Start(ctx context.Context) {
	events, unsubscribe := m.broker.Subscribe()
	m.unsubscribe = unsubscribe

	sess, err := m.backend.Current(ctx)
	switch {
	case err != nil:
		m.log.Warn("session restore failed", "error", err)
		m.setState(State{Status: StatusAnonymous, Err: err})
	case sess == nil:
		m.setState(State{Status: StatusAnonymous})
	default:
		profile, wallet := m.fetchIdentity(ctx, sess.UserID)
		m.setState(State{Status: StatusAuthenticated, Session: sess, Profile: profile, Wallet: wallet})
	}

	m.wg.Add(1)
	go m.loop(ctx, events)
}

// Close unsubscribes from the event stream and waits for the event
// loop to drain. Safe to call more than once.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		m.wg.Wait()
	})
}

func (m *Manager) loop(ctx context.Context, events <-chan Event) {
	defer m.wg.Done()
	for event := range events {
		m.handle(ctx, event)
	}
}

func (m *Manager) handle(ctx context.Context, event Event) {
	switch event.Type {
	case EventSignedIn:
		if event.Session == nil {
			return
		}
		profile, wallet := m.fetchIdentity(ctx, event.Session.UserID)
		m.setState(State{Status: StatusAuthenticated, Session: event.Session, Profile: profile, Wallet: wallet})

	case EventTokenRefreshed:
		m.mu.Lock()
		if m.state.Session != nil && event.Session != nil {
			m.state.Session = event.Session
		}
		m.mu.Unlock()

	case EventSignedOut:
		m.setState(State{Status: StatusAnonymous})
	}
}

// fetchIdentity loads profile and wallet concurrently. Failures are
// independent: one fetch erroring leaves the other's result intact and
// surfaces as a nil field, not a failed transition.
func (m *Manager) fetchIdentity(ctx context.Context, userID string) (*model.Profile, *model.Wallet) {
	var (
		wg      sync.WaitGroup
		profile *model.Profile
		wallet  *model.Wallet
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		p, err := m.profiles.ByUserID(ctx, userID)
		if err != nil {
			m.log.Warn("profile fetch failed", "user_id", userID, "error", err)
			return
		}
		profile = p
	}()
	go func() {
		defer wg.Done()
		w, err := m.wallets.ByUserID(ctx, userID)
		if err != nil {
			m.log.Warn("wallet fetch failed", "user_id", userID, "error", err)
			return
		}
		wallet = w
	}()
	wg.Wait()

	return profile, wallet
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Snapshot returns the current state. The pointers it carries are
// treated as read-only by callers.
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// SignOut revokes the current session. Loading is released on every
// exit path, including backend failure.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	sess := m.state.Session
	m.state.Loading = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.state.Loading = false
		m.mu.Unlock()
	}()

	if sess == nil {
		return nil
	}

	if err := m.backend.SignOut(ctx, sess); err != nil {
		m.mu.Lock()
		m.state.Err = err
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.state = State{Status: StatusAnonymous}
	m.mu.Unlock()
	return nil
}

// RefreshProfile re-fetches the profile, leaving the rest of the
// state untouched. No-op when anonymous.
func (m *Manager) RefreshProfile(ctx context.Context) error {
	sess := m.Snapshot().Session
	if sess == nil {
		return nil
	}
	profile, err := m.profiles.ByUserID(ctx, sess.UserID)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.state.Profile = profile
	m.mu.Unlock()
	return nil
}

// RefreshWallet re-fetches the wallet, leaving the rest of the state
// untouched. No-op when anonymous.
func (m *Manager) RefreshWallet(ctx context.Context) error {
	sess := m.Snapshot().Session
	if sess == nil {
		return nil
	}
	wallet, err := m.wallets.ByUserID(ctx, sess.UserID)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.state.Wallet = wallet
	m.mu.Unlock()
	return nil
}

func (m *Manager) role() model.Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.Profile == nil {
		return ""
	}
	return m.state.Profile.Role
}

func (m *Manager) IsSeller() bool { return m.role() == model.RoleSeller }
func (m *Manager) IsBuyer() bool  { return m.role() == model.RoleBuyer }
func (m *Manager) IsAdmin() bool  { return m.role() == model.RoleAdmin }

// RequireAuth reports whether a view should bounce to redirectTo.
// While the state is still loading it never redirects; the caller
// re-consults once loading settles.
func (m *Manager) RequireAuth(redirectTo string) (string, bool) {
	st := m.Snapshot()
	if !st.Loading && st.Session == nil {
		return redirectTo, true
	}
	return "", false
}
