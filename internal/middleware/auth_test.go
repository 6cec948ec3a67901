package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lootbay/lootbay/internal/ctxkeys"
	"github.com/lootbay/lootbay/internal/model"
	"github.com/lootbay/lootbay/internal/repository"
	"github.com/lootbay/lootbay/internal/service"
	"github.com/lootbay/lootbay/internal/session"
)

// In-memory repositories backing the identity middleware tests.

type memUserRepo struct {
	users map[string]*model.User
}

func (r *memUserRepo) Create(u *model.User) error { r.users[u.ID] = u; return nil }
func (r *memUserRepo) ByID(id string) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}
func (r *memUserRepo) ByEmail(email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}
func (r *memUserRepo) Update(u *model.User) error { r.users[u.ID] = u; return nil }
func (r *memUserRepo) Delete(id string) error     { delete(r.users, id); return nil }

type memProfileRepo struct {
	profiles map[string]*model.Profile // keyed by user id
}

func (r *memProfileRepo) ByUserID(userID string) (*model.Profile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	return p, nil
}
func (r *memProfileRepo) ByUsername(username string) (*model.Profile, error) {
	for _, p := range r.profiles {
		if p.Username == username {
			return p, nil
		}
	}
	return nil, repository.ErrProfileNotFound
}
func (r *memProfileRepo) Create(p *model.Profile) error { r.profiles[p.UserID] = p; return nil }
func (r *memProfileRepo) Update(p *model.Profile) error { r.profiles[p.UserID] = p; return nil }
func (r *memProfileRepo) UpdateAvatarURL(userID string, avatarURL *string) error {
	if p, ok := r.profiles[userID]; ok {
		p.AvatarURL = avatarURL
	}
	return nil
}

type memTokenRepo struct {
	tokens map[string]*model.Token // keyed by token string
}

func (r *memTokenRepo) Create(t *model.Token) error { r.tokens[t.Token] = t; return nil }
func (r *memTokenRepo) ConsumeToken(token string) (*model.Token, error) {
	t, ok := r.tokens[token]
	if !ok || !t.IsValid() {
		return nil, repository.ErrTokenNotFound
	}
	now := time.Now()
	t.UsedAt = &now
	return t, nil
}
func (r *memTokenRepo) DeleteByUserAndType(userID, tokenType string) error {
	for key, t := range r.tokens {
		if t.UserID == userID && t.Type == tokenType {
			delete(r.tokens, key)
		}
	}
	return nil
}

type memWalletRepo struct {
	wallets map[string]*model.Wallet // keyed by user id
}

func (r *memWalletRepo) ByUserID(userID string) (*model.Wallet, error) {
	w, ok := r.wallets[userID]
	if !ok {
		return nil, repository.ErrWalletNotFound
	}
	return w, nil
}
func (r *memWalletRepo) Create(w *model.Wallet) error { r.wallets[w.UserID] = w; return nil }
func (r *memWalletRepo) Apply(walletID string, amount int64, txType string, reference *string) error {
	for _, w := range r.wallets {
		if w.ID == walletID {
			w.Balance += amount
		}
	}
	return nil
}
func (r *memWalletRepo) Transactions(walletID string, limit int) ([]*model.WalletTransaction, error) {
	return nil, nil
}

type authFixture struct {
	auth     *service.AuthService
	users    *service.UserService
	profiles *service.ProfileService
	wallets  *service.WalletService
	user     *model.User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	userRepo := &memUserRepo{users: make(map[string]*model.User)}
	profileRepo := &memProfileRepo{profiles: make(map[string]*model.Profile)}
	tokenRepo := &memTokenRepo{tokens: make(map[string]*model.Token)}
	walletRepo := &memWalletRepo{wallets: make(map[string]*model.Wallet)}

	emailSvc := service.NewEmailService("", "noreply@lootbay.test", "https://lootbay.test", "Lootbay", true)
	broker := session.NewBroker()
	t.Cleanup(broker.Close)

	auth := service.NewAuthService(
		userRepo, profileRepo, tokenRepo, walletRepo,
		emailSvc, broker,
		"test-secret", false,
		15*time.Minute, 720*time.Hour, "usd",
	)

	now := time.Now()
	user := &model.User{ID: "u1", Email: "ana@example.com", EmailVerifiedAt: &now, CreatedAt: now}
	require.NoError(t, userRepo.Create(user))
	require.NoError(t, profileRepo.Create(&model.Profile{ID: "p1", UserID: "u1", FullName: "Ana", Username: "ana", Role: model.RoleBuyer}))
	require.NoError(t, walletRepo.Create(&model.Wallet{ID: "w1", UserID: "u1", Balance: 500, Currency: "usd"}))

	return &authFixture{
		auth:     auth,
		users:    service.NewUserService(userRepo),
		profiles: service.NewProfileService(profileRepo),
		wallets:  service.NewWalletService(walletRepo),
		user:     user,
	}
}

func identityHandler(f *authFixture) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := ctxkeys.User(r.Context()); user != nil {
			w.Header().Set("X-User-ID", user.ID)
		}
		if wallet := ctxkeys.Wallet(r.Context()); wallet != nil {
			w.Header().Set("X-Wallet", "1")
		}
		w.WriteHeader(http.StatusOK)
	})
	return Identity(f.auth, f.users, f.profiles, f.wallets)(inner)
}

func TestIdentityWithValidAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	sess, err := f.auth.IssueSession(f.user)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/app/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: service.AccessTokenCookie, Value: sess.AccessToken})
	rec := httptest.NewRecorder()

	identityHandler(f).ServeHTTP(rec, req)

	assert.Equal(t, "u1", rec.Header().Get("X-User-ID"))
	assert.Equal(t, "1", rec.Header().Get("X-Wallet"))
}

func TestIdentitySilentRefresh(t *testing.T) {
	f := newAuthFixture(t)
	sess, err := f.auth.IssueSession(f.user)
	require.NoError(t, err)

	// Only the refresh token is presented, as after access expiry.
	req := httptest.NewRequest(http.MethodGet, "/app/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: service.RefreshTokenCookie, Value: sess.RefreshToken})
	rec := httptest.NewRecorder()

	identityHandler(f).ServeHTTP(rec, req)

	assert.Equal(t, "u1", rec.Header().Get("X-User-ID"))

	// The pair must be rotated on the response.
	cookies := rec.Result().Cookies()
	var newAccess, newRefresh string
	for _, c := range cookies {
		switch c.Name {
		case service.AccessTokenCookie:
			newAccess = c.Value
		case service.RefreshTokenCookie:
			newRefresh = c.Value
		}
	}
	assert.NotEmpty(t, newAccess)
	require.NotEmpty(t, newRefresh)
	assert.NotEqual(t, sess.RefreshToken, newRefresh, "refresh token must rotate")

	// The consumed refresh token is dead; replaying it clears cookies.
	replay := httptest.NewRequest(http.MethodGet, "/app/dashboard", nil)
	replay.AddCookie(&http.Cookie{Name: service.RefreshTokenCookie, Value: sess.RefreshToken})
	rec2 := httptest.NewRecorder()
	identityHandler(f).ServeHTTP(rec2, replay)
	assert.Empty(t, rec2.Header().Get("X-User-ID"))
}

func TestIdentityWithNoCookies(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	identityHandler(f).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-User-ID"))
}

func TestIdentityWithGarbageAccessToken(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: service.AccessTokenCookie, Value: "not-a-jwt"})
	rec := httptest.NewRecorder()

	identityHandler(f).ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("X-User-ID"))
}

// Route guard tests drive the middleware with pre-resolved identities.

func guardHandler() http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return RouteGuard(DefaultGuardConfig())(inner)
}

func TestRouteGuardProtectedPaths(t *testing.T) {
	t.Run("anonymous request redirects to sign-in with return path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/app/wallet", nil)
		rec := httptest.NewRecorder()

		guardHandler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/auth?redirect=%2Fapp%2Fwallet", rec.Header().Get("Location"))
	})

	t.Run("authenticated request passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/app/wallet", nil)
		ctx := ctxkeys.WithUser(req.Context(), &model.User{ID: "u1"})
		rec := httptest.NewRecorder()

		guardHandler().ServeHTTP(rec, req.WithContext(ctx))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("prefix match does not catch lookalike paths", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/application-notes", nil)
		rec := httptest.NewRecorder()

		guardHandler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRouteGuardAuthOnlyPaths(t *testing.T) {
	authReq := func(role model.Role, withProfile bool) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/auth", nil)
		ctx := ctxkeys.WithUser(req.Context(), &model.User{ID: "u1"})
		if withProfile {
			ctx = ctxkeys.WithProfile(ctx, &model.Profile{UserID: "u1", Role: role})
		}
		return req.WithContext(ctx)
	}

	tests := []struct {
		name       string
		req        *http.Request
		wantTarget string
	}{
		{"seller goes to seller home", authReq(model.RoleSeller, true), "/seller/dashboard"},
		{"buyer goes to buyer home", authReq(model.RoleBuyer, true), "/app/dashboard"},
		{"admin defaults to buyer home", authReq(model.RoleAdmin, true), "/app/dashboard"},
		{"unrecognized role defaults to buyer home", authReq(model.Role("wizard"), true), "/app/dashboard"},
		{"missing profile defaults to buyer home", authReq("", false), "/app/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			guardHandler().ServeHTTP(rec, tt.req)

			require.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.wantTarget, rec.Header().Get("Location"))
		})
	}

	t.Run("anonymous visitor reaches auth pages", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth", nil)
		rec := httptest.NewRecorder()

		guardHandler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequireSeller(t *testing.T) {
	handler := RequireSeller(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("seller passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/seller/listings", nil)
		ctx := ctxkeys.WithUser(req.Context(), &model.User{ID: "u1"})
		ctx = ctxkeys.WithProfile(ctx, &model.Profile{UserID: "u1", Role: model.RoleSeller})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req.WithContext(ctx))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("buyer is bounced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/seller/listings", nil)
		ctx := ctxkeys.WithUser(req.Context(), &model.User{ID: "u1"})
		ctx = ctxkeys.WithProfile(ctx, &model.Profile{UserID: "u1", Role: model.RoleBuyer})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req.WithContext(ctx))
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/app/dashboard", rec.Header().Get("Location"))
	})

	t.Run("anonymous is sent to sign-in", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/seller/listings", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/auth?redirect=%2Fseller%2Flistings", rec.Header().Get("Location"))
	})
}
