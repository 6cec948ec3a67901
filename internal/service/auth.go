package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lootbay/lootbay/internal/model"
	"github.com/lootbay/lootbay/internal/repository"
	"github.com/lootbay/lootbay/internal/session"
	"github.com/lootbay/lootbay/internal/validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrSessionExpired     = errors.New("session expired, please sign in again")
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

type AuthService struct {
	userRepository     repository.UserRepository
	profileRepository  repository.ProfileRepository
	tokenRepository    repository.TokenRepository
	walletRepository   repository.WalletRepository
	emailService       *EmailService
	broker             *session.Broker
	jwtSecret          string
	isProduction       bool
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	walletCurrency     string
}

func NewAuthService(
	userRepository repository.UserRepository,
	profileRepository repository.ProfileRepository,
	tokenRepository repository.TokenRepository,
	walletRepository repository.WalletRepository,
	emailService *EmailService,
	broker *session.Broker,
	jwtSecret string,
	isProduction bool,
	accessTokenExpiry time.Duration,
	refreshTokenExpiry time.Duration,
	walletCurrency string,
) *AuthService {
	return &AuthService{
		userRepository:     userRepository,
		profileRepository:  profileRepository,
		tokenRepository:    tokenRepository,
		walletRepository:   walletRepository,
		emailService:       emailService,
		broker:             broker,
		jwtSecret:          jwtSecret,
		isProduction:       isProduction,
		accessTokenExpiry:  accessTokenExpiry,
		refreshTokenExpiry: refreshTokenExpiry,
		walletCurrency:     walletCurrency,
	}
}

// Broker exposes the auth event stream for session consumers.
func (s *AuthService) Broker() *session.Broker {
	return s.broker
}

// Signup creates a user with a buyer profile and an empty wallet, then
// sends an email verification link.
func (s *AuthService) Signup(email, password, fullName, username string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(strings.ToLower(username))

	if err := validation.ValidateEmail(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(fullName); err != nil {
		return nil, err
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}

	if existing, err := s.userRepository.ByEmail(email); err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	} else if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	if existing, err := s.profileRepository.ByUsername(username); err != nil && !errors.Is(err, repository.ErrProfileNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	} else if existing != nil {
		return nil, ErrUsernameTaken
	}

	hashedPassword, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: &hashedPassword,
		CreatedAt:    now,
	}
	if err := s.userRepository.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	profile := &model.Profile{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		FullName:  fullName,
		Username:  username,
		Role:      model.RoleBuyer,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.profileRepository.Create(profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	wallet := &model.Wallet{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Currency:  s.walletCurrency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.walletRepository.Create(wallet); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	if err := s.sendEmailVerification(user, fullName); err != nil {
		slog.Warn("failed to send verification email", "error", err, "user_id", user.ID)
	}

	slog.Info("new user created", "email", email, "user_id", user.ID)
	return user, nil
}

func (s *AuthService) sendEmailVerification(user *model.User, name string) error {
	verificationToken, err := s.GenerateToken()
	if err != nil {
		return err
	}

	token := &model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypeEmailVerify,
		Token:     verificationToken,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	if err := s.tokenRepository.Create(token); err != nil {
		return err
	}

	return s.emailService.SendVerificationEmail(user.Email, verificationToken, name)
}

// VerifyEmail consumes a verification token and marks the user verified.
func (s *AuthService) VerifyEmail(tokenString string) (*model.User, error) {
	// ConsumeToken atomically marks the token used so a double-click on
	// the link cannot verify twice.
	tokenModel, err := s.tokenRepository.ConsumeToken(tokenString)
	if err != nil {
		return nil, errors.New("invalid or expired verification link")
	}

	if tokenModel.Type != model.TokenTypeEmailVerify {
		return nil, errors.New("invalid token type")
	}

	user, err := s.userRepository.ByID(tokenModel.UserID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.EmailVerifiedAt = &now
	if err := s.userRepository.Update(user); err != nil {
		return nil, fmt.Errorf("failed to mark email verified: %w", err)
	}

	return user, nil
}

// FindOrCreateOAuthUser resolves an OAuth sign-in to a local account,
// provisioning user, profile, and wallet on first contact. OAuth
// emails arrive verified by the provider.
func (s *AuthService) FindOrCreateOAuthUser(email, fullName string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, ErrInvalidEmail
	}

	user, err := s.userRepository.ByEmail(email)
	if err == nil {
		if user.EmailVerifiedAt == nil {
			now := time.Now()
			user.EmailVerifiedAt = &now
			if err := s.userRepository.Update(user); err != nil {
				return nil, fmt.Errorf("failed to mark email verified: %w", err)
			}
		}
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	now := time.Now()
	user = &model.User{
		ID:              uuid.New().String(),
		Email:           email,
		EmailVerifiedAt: &now,
		CreatedAt:       now,
		// password_hash stays NULL for OAuth-only accounts
	}
	if err := s.userRepository.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if fullName == "" {
		fullName = strings.Split(email, "@")[0]
	}
	profile := &model.Profile{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		FullName:  fullName,
		Username:  s.generateUsername(email),
		Role:      model.RoleBuyer,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.profileRepository.Create(profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	wallet := &model.Wallet{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Currency:  s.walletCurrency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.walletRepository.Create(wallet); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	slog.Info("new oauth user created", "email", email, "user_id", user.ID)
	return user, nil
}

// generateUsername derives a unique username from an email local part.
func (s *AuthService) generateUsername(email string) string {
	base := strings.Split(email, "@")[0]
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, base)
	if len(base) < 3 {
		base = "user"
	}

	if _, err := s.profileRepository.ByUsername(base); errors.Is(err, repository.ErrProfileNotFound) {
		return base
	}

	suffix, _ := s.GenerateToken()
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return base + "-" + suffix
}

func (s *AuthService) Login(email, password string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() {
		return nil, fmt.Errorf("this account uses social login")
	}

	if err := s.ComparePassword(password, *user.PasswordHash); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", ErrInvalidCredentials)
	}

	if user.EmailVerifiedAt == nil {
		return nil, fmt.Errorf("email not verified: %w", ErrEmailNotVerified)
	}

	return user, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func (s *AuthService) GenerateJWT(user *model.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.accessTokenExpiry)
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     expiresAt.Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

func (s *AuthService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// IssueSession mints an access/refresh token pair for a logged-in user,
// persists the refresh token, and announces the sign-in.
func (s *AuthService) IssueSession(user *model.User) (*session.Session, error) {
	accessToken, expiresAt, err := s.GenerateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	token := &model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypeSessionRefresh,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(s.refreshTokenExpiry),
	}
	if err := s.tokenRepository.Create(token); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	sess := &session.Session{
		UserID:       user.ID,
		Email:        user.Email,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}

	s.broker.Publish(session.Event{Type: session.EventSignedIn, Session: sess})
	return sess, nil
}

// RefreshSession rotates a refresh token: the presented token is
// consumed atomically and a fresh pair is issued. A token that was
// already consumed (replay or expiry) yields ErrSessionExpired.
func (s *AuthService) RefreshSession(refreshToken string) (*session.Session, error) {
	tokenModel, err := s.tokenRepository.ConsumeToken(refreshToken)
	if err != nil {
		return nil, ErrSessionExpired
	}
	if tokenModel.Type != model.TokenTypeSessionRefresh {
		return nil, ErrSessionExpired
	}

	user, err := s.userRepository.ByID(tokenModel.UserID)
	if err != nil {
		return nil, ErrSessionExpired
	}

	accessToken, expiresAt, err := s.GenerateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	newRefresh, err := s.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	if err := s.tokenRepository.Create(&model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypeSessionRefresh,
		Token:     newRefresh,
		ExpiresAt: time.Now().Add(s.refreshTokenExpiry),
	}); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	sess := &session.Session{
		UserID:       user.ID,
		Email:        user.Email,
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiresAt:    expiresAt,
	}

	s.broker.Publish(session.Event{Type: session.EventTokenRefreshed, Session: sess})
	return sess, nil
}

// SignOut revokes every refresh token the user holds and announces the
// sign-out.
func (s *AuthService) SignOut(sess *session.Session) error {
	if sess == nil {
		return nil
	}

	if err := s.tokenRepository.DeleteByUserAndType(sess.UserID, model.TokenTypeSessionRefresh); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}

	s.broker.Publish(session.Event{Type: session.EventSignedOut})
	slog.Info("user signed out", "user_id", sess.UserID)
	return nil
}

// SetSessionCookies writes the token pair. The refresh cookie is
// scoped to the whole site so the identity middleware can rotate it on
// any page.
func (s *AuthService) SetSessionCookies(w http.ResponseWriter, sess *session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    sess.AccessToken,
		Expires:  sess.ExpiresAt,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    sess.RefreshToken,
		Expires:  time.Now().Add(s.refreshTokenExpiry),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Expires:  time.Unix(0, 0),
			Path:     "/",
			HttpOnly: true,
			Secure:   s.isProduction,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
