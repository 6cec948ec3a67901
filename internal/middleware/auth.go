package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/lootbay/lootbay/internal/ctxkeys"
	"github.com/lootbay/lootbay/internal/model"
	"github.com/lootbay/lootbay/internal/service"
)

// Identity resolves the caller from the access-token cookie and loads
// user, profile, and wallet into the request context. An expired access
// token is refreshed silently from the refresh-token cookie, rotating
// the pair and rewriting both cookies on the response. Requests without
// a resolvable identity continue anonymously.
func Identity(authService *service.AuthService, userService *service.UserService, profileService *service.ProfileService, walletService *service.WalletService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := resolveUserID(w, r, authService)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := userService.ByID(userID)
			if err != nil {
				authService.ClearSessionCookies(w)
				next.ServeHTTP(w, r)
				return
			}

			// Security: keep the password hash out of the context
			user.PasswordHash = nil

			profile, err := profileService.ByUserID(userID)
			if err != nil {
				authService.ClearSessionCookies(w)
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithUser(r.Context(), user)
			ctx = ctxkeys.WithProfile(ctx, profile)

			// Wallet is best-effort; a hiccup here must not log the
			// user out.
			if wallet, err := walletService.ByUserID(userID); err == nil {
				ctx = ctxkeys.WithWallet(ctx, wallet)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveUserID validates the access token, falling back to a silent
// refresh when it is missing or expired.
func resolveUserID(w http.ResponseWriter, r *http.Request, authService *service.AuthService) (string, bool) {
	if cookie, err := r.Cookie(service.AccessTokenCookie); err == nil {
		if claims, err := authService.VerifyJWT(cookie.Value); err == nil {
			if userID, ok := claims["user_id"].(string); ok {
				return userID, true
			}
		}
	}

	refreshCookie, err := r.Cookie(service.RefreshTokenCookie)
	if err != nil {
		return "", false
	}

	sess, err := authService.RefreshSession(refreshCookie.Value)
	if err != nil {
		authService.ClearSessionCookies(w)
		return "", false
	}

	authService.SetSessionCookies(w, sess)
	return sess.UserID, true
}

// GuardConfig names the path prefixes the route guard watches and the
// per-role homes it redirects to.
type GuardConfig struct {
	// ProtectedPrefixes require an identity; anonymous requests bounce
	// to SignInPath with the original path in a redirect parameter.
	ProtectedPrefixes []string
	// AuthOnlyPrefixes are for anonymous visitors only; authenticated
	// requests bounce to their role's home.
	AuthOnlyPrefixes []string
	SignInPath       string
	BuyerHome        string
	SellerHome       string
}

func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		ProtectedPrefixes: []string{"/app", "/seller"},
		AuthOnlyPrefixes:  []string{"/auth", "/get-started"},
		SignInPath:        "/auth",
		BuyerHome:         "/app/dashboard",
		SellerHome:        "/seller/dashboard",
	}
}

// RouteGuard redirects anonymous requests away from protected areas
// and authenticated requests away from auth-only areas. It relies on
// Identity having run first.
func RouteGuard(guard GuardConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := ctxkeys.User(r.Context())
			path := r.URL.Path

			if user == nil && hasPrefix(path, guard.ProtectedPrefixes) {
				target := guard.SignInPath + "?redirect=" + url.QueryEscape(path)
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}

			// Auth-only bouncing applies to navigation, not to the
			// POST actions under /auth (login, logout, refresh).
			if user != nil && r.Method == http.MethodGet && hasPrefix(path, guard.AuthOnlyPrefixes) {
				http.Redirect(w, r, roleHome(ctxkeys.Profile(r.Context()), guard), http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func hasPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// roleHome picks the redirect target for a signed-in user. Anything
// but an explicit seller role, including a missing profile, lands on
// the buyer home.
func roleHome(profile *model.Profile, guard GuardConfig) string {
	if profile != nil && profile.Role == model.RoleSeller {
		return guard.SellerHome
	}
	return guard.BuyerHome
}

// RequireAuth ensures the user is authenticated
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxkeys.User(r.Context())
		if user == nil {
			target := "/auth?redirect=" + url.QueryEscape(r.URL.Path)
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// RequireSeller ensures the user is authenticated and a seller or admin
func RequireSeller(next http.HandlerFunc) http.HandlerFunc {
	return RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		profile := ctxkeys.Profile(r.Context())
		if profile == nil || (profile.Role != model.RoleSeller && profile.Role != model.RoleAdmin) {
			http.Redirect(w, r, "/app/dashboard", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
