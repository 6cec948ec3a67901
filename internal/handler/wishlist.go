package handler

import (
	"errors"
	"net/http"

	"github.com/lootbay/lootbay/internal/api"
	"github.com/lootbay/lootbay/internal/ctxkeys"
	"github.com/lootbay/lootbay/internal/repository"
	"github.com/lootbay/lootbay/internal/service"
)

type wishlistHandler struct {
	wishlistService *service.WishlistService
	listingService  *service.ListingService
}

func NewWishlistHandler(wishlistService *service.WishlistService, listingService *service.ListingService) *wishlistHandler {
	return &wishlistHandler{
		wishlistService: wishlistService,
		listingService:  listingService,
	}
}

func (h *wishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	items, err := h.wishlistService.ByUser(user.ID)
	if err != nil {
		api.ServerError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		entry := map[string]any{
			"listing_id": item.ListingID,
			"added_at":   item.CreatedAt,
		}
		if listing, err := h.listingService.ByID(item.ListingID); err == nil {
			entry["title"] = listing.Title
			entry["price"] = listing.Price
			entry["currency"] = listing.Currency
			entry["status"] = listing.Status
		}
		out = append(out, entry)
	}
	api.JSON(w, http.StatusOK, out)
}

func (h *wishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	if err := h.wishlistService.Add(user.ID, r.PathValue("id")); err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			api.Error(w, http.StatusNotFound, "Listing not found")
			return
		}
		api.BadRequest(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *wishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	if err := h.wishlistService.Remove(user.ID, r.PathValue("id")); err != nil {
		api.BadRequest(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
