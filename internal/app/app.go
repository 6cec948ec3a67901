package app

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/lootbay/lootbay/internal/config"
	"github.com/lootbay/lootbay/internal/db"
	"github.com/lootbay/lootbay/internal/repository"
	"github.com/lootbay/lootbay/internal/service"
	"github.com/lootbay/lootbay/internal/service/payment"
	"github.com/lootbay/lootbay/internal/session"
	"github.com/lootbay/lootbay/internal/storage"
	"github.com/lootbay/lootbay/internal/upload"
)

type App struct {
	Cfg             *config.Config
	DB              *sqlx.DB
	SessionBroker   *session.Broker
	Storage         storage.ObjectStore
	UploadGateway   *upload.Gateway
	AuthService     *service.AuthService
	UserService     *service.UserService
	ProfileService  *service.ProfileService
	WalletService   *service.WalletService
	EmailService    *service.EmailService
	ListingService  *service.ListingService
	PurchaseService *service.PurchaseService
	MessageService  *service.MessageService
	ReviewService   *service.ReviewService
	WishlistService *service.WishlistService
	DisputeService  *service.DisputeService
	HelpService     *service.HelpService
	TopUpService    *service.TopUpService
	PaymentProvider payment.Provider
}

func New(cfg *config.Config) (*App, error) {
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	profileRepository := repository.NewProfileRepository(database)
	tokenRepository := repository.NewTokenRepository(database)
	walletRepository := repository.NewWalletRepository(database)
	listingRepository := repository.NewListingRepository(database)
	purchaseRepository := repository.NewPurchaseRepository(database)
	messageRepository := repository.NewMessageRepository(database)
	reviewRepository := repository.NewReviewRepository(database)
	wishlistRepository := repository.NewWishlistRepository(database)
	disputeRepository := repository.NewDisputeRepository(database)

	// Storage
	objectStore, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}
	uploadGateway := upload.NewGateway(objectStore, cfg.SignedURLExpiry)

	// Session events
	broker := session.NewBroker()

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	authService := service.NewAuthService(
		userRepository,
		profileRepository,
		tokenRepository,
		walletRepository,
		emailService,
		broker,
		cfg.JWTSecret,
		cfg.IsProduction(),
		cfg.AccessTokenExpiry,
		cfg.RefreshTokenExpiry,
		cfg.WalletCurrency,
	)
	userService := service.NewUserService(userRepository)
	profileService := service.NewProfileService(profileRepository)
	walletService := service.NewWalletService(walletRepository)
	listingService := service.NewListingService(listingRepository, cfg.WalletCurrency)
	purchaseService := service.NewPurchaseService(
		purchaseRepository,
		listingRepository,
		walletService,
		userService,
		profileService,
		emailService,
	)
	messageService := service.NewMessageService(messageRepository, listingRepository)
	reviewService := service.NewReviewService(reviewRepository, purchaseService)
	wishlistService := service.NewWishlistService(wishlistRepository, listingRepository)
	disputeService := service.NewDisputeService(
		disputeRepository,
		purchaseService,
		listingRepository,
		userService,
		profileService,
		emailService,
	)
	topUpService := service.NewTopUpService(
		walletService,
		userService,
		profileService,
		emailService,
		cfg.WalletCurrency,
		cfg.TopUpMinCents,
		cfg.TopUpMaxCents,
	)

	paymentProvider, err := payment.NewProvider(cfg, topUpService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize payment provider: %v", err)
	}

	helpService := service.NewHelpService(cfg.ContentPath)
	if err := helpService.Load(); err != nil {
		slog.Warn("failed to load help content", "error", err, "path", cfg.ContentPath)
	}

	return &App{
		Cfg:             cfg,
		DB:              database,
		SessionBroker:   broker,
		Storage:         objectStore,
		UploadGateway:   uploadGateway,
		AuthService:     authService,
		UserService:     userService,
		ProfileService:  profileService,
		WalletService:   walletService,
		EmailService:    emailService,
		ListingService:  listingService,
		PurchaseService: purchaseService,
		MessageService:  messageService,
		ReviewService:   reviewService,
		WishlistService: wishlistService,
		DisputeService:  disputeService,
		HelpService:     helpService,
		TopUpService:    topUpService,
		PaymentProvider: paymentProvider,
	}, nil
}

func (a *App) Close() error {
	a.SessionBroker.Close()
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
