package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/lootbay/lootbay/internal/api"
	"github.com/lootbay/lootbay/internal/config"
	"github.com/lootbay/lootbay/internal/ctxkeys"
	"github.com/lootbay/lootbay/internal/service"
	"github.com/lootbay/lootbay/internal/session"
)

type authHandler struct {
	authService       *service.AuthService
	guardBuyerHome    string
	guardSellerHome   string
	googleOAuthConfig *oauth2.Config
	githubOAuthConfig *oauth2.Config
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *authHandler {
	return &authHandler{
		authService:     authService,
		guardBuyerHome:  "/app/dashboard",
		guardSellerHome: "/seller/dashboard",
		googleOAuthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.AppURL + "/auth/google/callback",
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
			Endpoint:     google.Endpoint,
		},
		githubOAuthConfig: &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.AppURL + "/auth/github/callback",
			Scopes:       []string{"user:email"},
			Endpoint:     github.Endpoint,
		},
	}
}

func (h *authHandler) Signup(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	fullName := strings.TrimSpace(r.FormValue("full_name"))
	username := strings.TrimSpace(r.FormValue("username"))

	user, err := h.authService.Signup(email, password, fullName, username)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailAlreadyExists),
			errors.Is(err, service.ErrUsernameTaken),
			errors.Is(err, service.ErrInvalidEmail):
			api.Error(w, http.StatusConflict, err.Error())
		default:
			slog.Error("signup failed", "error", err, "email", email)
			api.Error(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	api.JSON(w, http.StatusCreated, map[string]any{
		"user_id": user.ID,
		"message": "Check your email to verify your account.",
	})
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	user, err := h.authService.Login(email, password)
	if err != nil {
		if errors.Is(err, service.ErrEmailNotVerified) {
			api.Error(w, http.StatusForbidden, err.Error())
			return
		}
		slog.Warn("login failed", "email", email)
		api.Error(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	sess, err := h.authService.IssueSession(user)
	if err != nil {
		slog.Error("failed to issue session", "error", err, "user_id", user.ID)
		api.ServerError(w, err)
		return
	}
	h.authService.SetSessionCookies(w, sess)

	api.JSON(w, http.StatusOK, map[string]any{
		"user_id":  user.ID,
		"email":    user.Email,
		"redirect": safeRedirect(r.URL.Query().Get("redirect"), h.guardBuyerHome),
	})
}

func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if user := ctxkeys.User(r.Context()); user != nil {
		if err := h.authService.SignOut(&session.Session{UserID: user.ID}); err != nil {
			slog.Warn("sign out cleanup failed", "error", err, "user_id", user.ID)
		}
	}

	h.authService.ClearSessionCookies(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *authHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	user, err := h.authService.VerifyEmail(token)
	if err != nil {
		slog.Warn("email verification failed", "error", err)
		api.Error(w, http.StatusBadRequest, "Invalid or expired verification link")
		return
	}

	sess, err := h.authService.IssueSession(user)
	if err != nil {
		slog.Error("failed to issue session", "error", err, "user_id", user.ID)
		api.ServerError(w, err)
		return
	}
	h.authService.SetSessionCookies(w, sess)

	http.Redirect(w, r, h.guardBuyerHome, http.StatusSeeOther)
}

func (h *authHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(service.RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		api.Error(w, http.StatusUnauthorized, "No session")
		return
	}

	sess, err := h.authService.RefreshSession(cookie.Value)
	if err != nil {
		h.authService.ClearSessionCookies(w)
		api.Error(w, http.StatusUnauthorized, "Session expired, please sign in again")
		return
	}
	h.authService.SetSessionCookies(w, sess)

	api.JSON(w, http.StatusOK, map[string]any{
		"user_id":    sess.UserID,
		"expires_at": sess.ExpiresAt,
	})
}

// GoogleAuth redirects to Google's consent screen with a state cookie
// for CSRF protection.
func (h *authHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	state := generateOAuthState()

	cfg := ctxkeys.Config(r.Context())
	isProduction := cfg != nil && cfg.IsProduction()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})

	url := h.googleOAuthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *authHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie("oauth_state")
	if err != nil || cookie.Value != state || state == "" {
		slog.Warn("google oauth state validation failed", "error", err)
		api.Error(w, http.StatusBadRequest, "OAuth authentication failed. Please try again.")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("google oauth callback missing code")
		api.Error(w, http.StatusBadRequest, "OAuth authentication failed. Please try again.")
		return
	}

	token, err := h.googleOAuthConfig.Exchange(context.Background(), code)
	if err != nil {
		slog.Error("google oauth token exchange failed", "error", err)
		api.Error(w, http.StatusBadGateway, "OAuth authentication failed. Please try again.")
		return
	}

	client := h.googleOAuthConfig.Client(context.Background(), token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		slog.Error("failed to get google user info", "error", err)
		api.Error(w, http.StatusBadGateway, "OAuth authentication failed. Please try again.")
		return
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	var userInfo struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Error("failed to decode google user info", "error", err)
		api.Error(w, http.StatusBadGateway, "OAuth authentication failed. Please try again.")
		return
	}

	user, err := h.authService.FindOrCreateOAuthUser(userInfo.Email, userInfo.Name)
	if err != nil {
		slog.Error("oauth authentication failed", "error", err, "email", userInfo.Email)
		api.Error(w, http.StatusBadGateway, "Authentication failed. Please try again.")
		return
	}

	sess, err := h.authService.IssueSession(user)
	if err != nil {
		slog.Error("failed to issue session", "error", err, "user_id", user.ID)
		api.ServerError(w, err)
		return
	}
	h.authService.SetSessionCookies(w, sess)

	slog.Info("user logged in with google oauth", "user_id", user.ID, "email", user.Email)
	http.Redirect(w, r, h.guardBuyerHome, http.StatusSeeOther)
}

// GitHubAuth redirects to GitHub's consent screen with the same state
// cookie scheme as Google.
func (h *authHandler) GitHubAuth(w http.ResponseWriter, r *http.Request) {
	state := generateOAuthState()

	cfg := ctxkeys.Config(r.Context())
	isProduction := cfg != nil && cfg.IsProduction()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})

	url := h.githubOAuthConfig.AuthCodeURL(state)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *authHandler) GitHubCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie("oauth_state")
	if err != nil || cookie.Value != state || state == "" {
		slog.Warn("github oauth state validation failed", "error", err)
		api.Error(w, http.StatusBadRequest, "OAuth authentication failed. Please try again.")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("github oauth callback missing code")
		api.Error(w, http.StatusBadRequest, "OAuth authentication failed. Please try again.")
		return
	}

	token, err := h.githubOAuthConfig.Exchange(context.Background(), code)
	if err != nil {
		slog.Error("github oauth token exchange failed", "error", err)
		api.Error(w, http.StatusBadGateway, "OAuth authentication failed. Please try again.")
		return
	}

	client := h.githubOAuthConfig.Client(context.Background(), token)
	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		slog.Error("failed to get github user info", "error", err)
		api.Error(w, http.StatusBadGateway, "OAuth authentication failed. Please try again.")
		return
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	var userInfo struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Error("failed to decode github user info", "error", err)
		api.Error(w, http.StatusBadGateway, "OAuth authentication failed. Please try again.")
		return
	}

	// GitHub hides private emails on /user; fall back to /user/emails
	// and take the primary one.
	if userInfo.Email == "" {
		emailResp, err := client.Get("https://api.github.com/user/emails")
		if err != nil {
			slog.Error("failed to get github user emails", "error", err)
			api.Error(w, http.StatusBadGateway, "OAuth authentication failed. Please try again.")
			return
		}
		defer func() {
			if closeErr := emailResp.Body.Close(); closeErr != nil {
				slog.Error("failed to close email response body", "error", closeErr)
			}
		}()

		var emails []struct {
			Email   string `json:"email"`
			Primary bool   `json:"primary"`
		}
		if err := json.NewDecoder(emailResp.Body).Decode(&emails); err != nil {
			slog.Error("failed to decode github emails", "error", err)
			api.Error(w, http.StatusBadGateway, "OAuth authentication failed. Please try again.")
			return
		}
		for _, e := range emails {
			if e.Primary {
				userInfo.Email = e.Email
				break
			}
		}
	}

	if userInfo.Email == "" {
		slog.Warn("github oauth: no email found")
		api.Error(w, http.StatusBadRequest, "Could not retrieve email from GitHub. Please make sure your email is public.")
		return
	}

	user, err := h.authService.FindOrCreateOAuthUser(userInfo.Email, userInfo.Name)
	if err != nil {
		slog.Error("oauth authentication failed", "error", err, "email", userInfo.Email)
		api.Error(w, http.StatusBadGateway, "Authentication failed. Please try again.")
		return
	}

	sess, err := h.authService.IssueSession(user)
	if err != nil {
		slog.Error("failed to issue session", "error", err, "user_id", user.ID)
		api.ServerError(w, err)
		return
	}
	h.authService.SetSessionCookies(w, sess)

	slog.Info("user logged in with github oauth", "user_id", user.ID, "email", user.Email)
	http.Redirect(w, r, h.guardBuyerHome, http.StatusSeeOther)
}

func generateOAuthState() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		panic("failed to generate oauth state: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
