package routes

import (
	"net/http"

	"github.com/lootbay/lootbay/internal/api"
	"github.com/lootbay/lootbay/internal/app"
	"github.com/lootbay/lootbay/internal/handler"
	"github.com/lootbay/lootbay/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService, app.Cfg)
	account := handler.NewAccountHandler(app.ProfileService, app.WalletService, app.UploadGateway)
	listing := handler.NewListingHandler(app.ListingService, app.ReviewService, app.UploadGateway)
	purchase := handler.NewPurchaseHandler(app.PurchaseService)
	wallet := handler.NewWalletHandler(app.WalletService, app.PaymentProvider)
	message := handler.NewMessageHandler(app.MessageService, app.UploadGateway)
	wishlist := handler.NewWishlistHandler(app.WishlistService, app.ListingService)
	review := handler.NewReviewHandler(app.ReviewService)
	dispute := handler.NewDisputeHandler(app.DisputeService, app.PurchaseService, app.UploadGateway)
	help := handler.NewHelpHandler(app.HelpService)
	webhook := handler.NewWebhookHandler(app.PaymentProvider)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	// Marketplace browsing
	mux.HandleFunc("GET /listings", listing.Browse)
	mux.HandleFunc("GET /listings/{id}", listing.Get)
	mux.HandleFunc("GET /listings/{id}/reviews", review.List)

	// Help center
	mux.HandleFunc("GET /help", help.List)
	mux.HandleFunc("GET /help/{slug}", help.Article)

	// Auth (rate limited)
	rateLimiter := middleware.RateLimitAuth()

	mux.HandleFunc("POST /auth/signup", rateLimiter(auth.Signup))
	mux.HandleFunc("POST /auth/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /auth/refresh", rateLimiter(auth.Refresh))
	mux.HandleFunc("POST /auth/logout", auth.Logout)
	mux.HandleFunc("GET /auth/verify/{token}", auth.VerifyEmail)

	// OAuth
	mux.HandleFunc("GET /auth/google", rateLimiter(auth.GoogleAuth))
	mux.HandleFunc("GET /auth/google/callback", rateLimiter(auth.GoogleCallback))
	mux.HandleFunc("GET /auth/github", rateLimiter(auth.GitHubAuth))
	mux.HandleFunc("GET /auth/github/callback", rateLimiter(auth.GitHubCallback))

	// ============================================================================
	// PROTECTED ROUTES (/app/*)
	// ============================================================================

	// Account
	mux.HandleFunc("GET /app/account", middleware.RequireAuth(account.Me))
	mux.HandleFunc("PATCH /app/account/name", middleware.RequireAuth(account.UpdateName))
	mux.HandleFunc("POST /app/account/seller", middleware.RequireAuth(account.BecomeSeller))
	mux.HandleFunc("POST /app/account/avatar", middleware.RequireAuth(account.UploadAvatar))
	mux.HandleFunc("DELETE /app/account/avatar", middleware.RequireAuth(account.DeleteAvatar))

	// Wallet
	mux.HandleFunc("GET /app/wallet", middleware.RequireAuth(wallet.Get))
	mux.HandleFunc("GET /app/wallet/transactions", middleware.RequireAuth(account.Transactions))
	mux.HandleFunc("POST /app/wallet/topup", middleware.RequireAuth(wallet.TopUp))

	// Buying
	mux.HandleFunc("POST /listings/{id}/buy", middleware.RequireAuth(purchase.Buy))
	mux.HandleFunc("GET /app/purchases", middleware.RequireAuth(purchase.Mine))
	mux.HandleFunc("POST /listings/{id}/reviews", middleware.RequireAuth(review.Create))

	// Wishlist
	mux.HandleFunc("GET /app/wishlist", middleware.RequireAuth(wishlist.List))
	mux.HandleFunc("POST /listings/{id}/wishlist", middleware.RequireAuth(wishlist.Add))
	mux.HandleFunc("DELETE /listings/{id}/wishlist", middleware.RequireAuth(wishlist.Remove))

	// Messaging
	mux.HandleFunc("GET /app/messages", middleware.RequireAuth(message.Conversations))
	mux.HandleFunc("POST /app/messages", middleware.RequireAuth(message.Start))
	mux.HandleFunc("GET /app/messages/{id}", middleware.RequireAuth(message.Messages))
	mux.HandleFunc("POST /app/messages/{id}", middleware.RequireAuth(message.Send))
	mux.HandleFunc("POST /app/messages/{id}/read", middleware.RequireAuth(message.MarkRead))

	// Disputes
	mux.HandleFunc("POST /app/purchases/{id}/dispute", middleware.RequireAuth(dispute.Open))
	mux.HandleFunc("GET /app/disputes/{id}", middleware.RequireAuth(dispute.Get))
	mux.HandleFunc("POST /app/disputes/{id}/resolve", middleware.RequireAuth(dispute.Resolve))

	// ============================================================================
	// SELLER ROUTES (/seller/*)
	// ============================================================================

	mux.HandleFunc("GET /seller/listings", middleware.RequireSeller(listing.Mine))
	mux.HandleFunc("POST /seller/listings", middleware.RequireSeller(listing.Create))
	mux.HandleFunc("PUT /seller/listings/{id}", middleware.RequireSeller(listing.Update))
	mux.HandleFunc("POST /seller/listings/{id}/status", middleware.RequireSeller(listing.SetStatus))
	mux.HandleFunc("POST /seller/listings/{id}/images", middleware.RequireSeller(listing.UploadImages))
	mux.HandleFunc("DELETE /seller/listings/{id}", middleware.RequireSeller(listing.Delete))

	// ============================================================================
	// WEBHOOKS
	// ============================================================================

	// Payment provider webhook (works with both Polar and Stripe)
	mux.HandleFunc("POST /webhooks/payment", webhook.Payment)

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", func(w http.ResponseWriter, r *http.Request) {
		api.Error(w, http.StatusNotFound, "Not found")
	})

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.Config(app.Cfg),
		middleware.SecurityHeaders,
		middleware.RequestLogging,
		middleware.CSRFProtection,
		middleware.Identity(app.AuthService, app.UserService, app.ProfileService, app.WalletService),
		middleware.RouteGuard(middleware.DefaultGuardConfig()),
		middleware.WithURLPath,
	)
}
