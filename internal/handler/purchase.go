package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/lootbay/lootbay/internal/api"
	"github.com/lootbay/lootbay/internal/ctxkeys"
	"github.com/lootbay/lootbay/internal/repository"
	"github.com/lootbay/lootbay/internal/service"
)

type purchaseHandler struct {
	purchaseService *service.PurchaseService
}

func NewPurchaseHandler(purchaseService *service.PurchaseService) *purchaseHandler {
	return &purchaseHandler{purchaseService: purchaseService}
}

func (h *purchaseHandler) Buy(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	listingID := r.PathValue("id")

	purchase, err := h.purchaseService.Buy(user.ID, listingID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrListingNotFound):
			api.Error(w, http.StatusNotFound, "Listing not found")
		case errors.Is(err, service.ErrInsufficientFunds):
			api.Error(w, http.StatusPaymentRequired, "Insufficient wallet balance")
		case errors.Is(err, service.ErrAlreadyPurchased):
			api.Error(w, http.StatusConflict, "Listing already purchased")
		default:
			slog.Error("purchase failed", "error", err, "buyer_id", user.ID, "listing_id", listingID)
			api.BadRequest(w, err)
		}
		return
	}

	slog.Info("purchase completed", "purchase_id", purchase.ID, "buyer_id", user.ID)
	api.JSON(w, http.StatusCreated, map[string]any{
		"id":         purchase.ID,
		"listing_id": purchase.ListingID,
		"price":      purchase.Price,
		"currency":   purchase.Currency,
		"status":     purchase.Status,
		"created_at": purchase.CreatedAt,
	})
}

func (h *purchaseHandler) Mine(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	purchases, err := h.purchaseService.ByBuyer(user.ID)
	if err != nil {
		api.ServerError(w, err)
		return
	}

	items := make([]map[string]any, 0, len(purchases))
	for _, p := range purchases {
		items = append(items, map[string]any{
			"id":         p.ID,
			"listing_id": p.ListingID,
			"seller_id":  p.SellerID,
			"price":      p.Price,
			"currency":   p.Currency,
			"status":     p.Status,
			"created_at": p.CreatedAt,
		})
	}
	api.JSON(w, http.StatusOK, items)
}
