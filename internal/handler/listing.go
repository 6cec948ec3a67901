package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/lootbay/lootbay/internal/api"
	"github.com/lootbay/lootbay/internal/ctxkeys"
	"github.com/lootbay/lootbay/internal/model"
	"github.com/lootbay/lootbay/internal/repository"
	"github.com/lootbay/lootbay/internal/service"
	"github.com/lootbay/lootbay/internal/upload"
)

type listingHandler struct {
	listingService *service.ListingService
	reviewService  *service.ReviewService
	gateway        *upload.Gateway
}

func NewListingHandler(listingService *service.ListingService, reviewService *service.ReviewService, gateway *upload.Gateway) *listingHandler {
	return &listingHandler{
		listingService: listingService,
		reviewService:  reviewService,
		gateway:        gateway,
	}
}

func (h *listingHandler) summary(listing *model.Listing) map[string]any {
	return map[string]any{
		"id":         listing.ID,
		"seller_id":  listing.SellerID,
		"title":      listing.Title,
		"price":      listing.Price,
		"currency":   listing.Currency,
		"category":   listing.Category,
		"status":     listing.Status,
		"images":     h.listingService.Images(listing),
		"created_at": listing.CreatedAt,
	}
}

func (h *listingHandler) Browse(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	listings, err := h.listingService.Browse(category, limit)
	if err != nil {
		api.ServerError(w, err)
		return
	}

	items := make([]map[string]any, 0, len(listings))
	for _, l := range listings {
		items = append(items, h.summary(l))
	}
	api.JSON(w, http.StatusOK, items)
}

func (h *listingHandler) Get(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listingService.ByID(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			api.Error(w, http.StatusNotFound, "Listing not found")
			return
		}
		api.ServerError(w, err)
		return
	}

	// Drafts are only visible to their owner.
	if !listing.Published() {
		user := ctxkeys.User(r.Context())
		if user == nil || user.ID != listing.SellerID {
			api.Error(w, http.StatusNotFound, "Listing not found")
			return
		}
	}

	descriptionHTML, err := h.listingService.RenderDescription(listing)
	if err != nil {
		slog.Warn("failed to render listing description", "error", err, "listing_id", listing.ID)
		descriptionHTML = ""
	}

	rating, count, err := h.reviewService.AverageRating(listing.ID)
	if err != nil {
		slog.Warn("failed to load rating", "error", err, "listing_id", listing.ID)
	}

	resp := h.summary(listing)
	resp["description"] = listing.Description
	resp["description_html"] = descriptionHTML
	resp["average_rating"] = rating
	resp["review_count"] = count
	api.JSON(w, http.StatusOK, resp)
}

func (h *listingHandler) Mine(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	listings, err := h.listingService.BySeller(user.ID)
	if err != nil {
		api.ServerError(w, err)
		return
	}

	items := make([]map[string]any, 0, len(listings))
	for _, l := range listings {
		items = append(items, h.summary(l))
	}
	api.JSON(w, http.StatusOK, items)
}

func (h *listingHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	priceCents, err := strconv.ParseInt(r.FormValue("price_cents"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "price_cents must be an integer")
		return
	}

	listing, err := h.listingService.Create(
		user.ID,
		strings.TrimSpace(r.FormValue("title")),
		r.FormValue("description"),
		strings.TrimSpace(r.FormValue("category")),
		priceCents,
	)
	if err != nil {
		api.BadRequest(w, err)
		return
	}

	slog.Info("listing created", "listing_id", listing.ID, "seller_id", user.ID)
	api.JSON(w, http.StatusCreated, h.summary(listing))
}

func (h *listingHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	priceCents, err := strconv.ParseInt(r.FormValue("price_cents"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "price_cents must be an integer")
		return
	}

	listing, err := h.listingService.Update(
		user.ID,
		r.PathValue("id"),
		strings.TrimSpace(r.FormValue("title")),
		r.FormValue("description"),
		strings.TrimSpace(r.FormValue("category")),
		priceCents,
	)
	if err != nil {
		h.writeOwnedError(w, err)
		return
	}
	api.JSON(w, http.StatusOK, h.summary(listing))
}

func (h *listingHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	status := r.FormValue("status")

	if err := h.listingService.SetStatus(user.ID, r.PathValue("id"), status); err != nil {
		h.writeOwnedError(w, err)
		return
	}
	api.JSON(w, http.StatusOK, map[string]any{"status": status})
}

func (h *listingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	if err := h.listingService.Delete(user.ID, r.PathValue("id")); err != nil {
		h.writeOwnedError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImages appends gallery images to a listing. Each file succeeds
// or fails on its own; only the successful ones are recorded.
func (h *listingHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	listingID := r.PathValue("id")

	listing, err := h.listingService.ByID(listingID)
	if err != nil {
		h.writeOwnedError(w, err)
		return
	}
	if listing.SellerID != user.ID {
		api.Error(w, http.StatusForbidden, "Not your listing")
		return
	}

	files, closeAll, err := formFiles(r, "images")
	if err != nil {
		api.BadRequest(w, err)
		return
	}
	defer closeAll()

	if len(files) == 0 {
		api.Error(w, http.StatusBadRequest, "No images provided")
		return
	}

	results := h.gateway.UploadListingImages(r.Context(), listingID, files)

	urls := h.listingService.Images(listing)
	for _, res := range results {
		if res.Success {
			urls = append(urls, res.URL)
		}
	}

	if err := h.listingService.SetImages(user.ID, listingID, urls); err != nil {
		h.writeOwnedError(w, err)
		return
	}
	api.JSON(w, http.StatusOK, results)
}

func (h *listingHandler) writeOwnedError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrListingNotFound):
		api.Error(w, http.StatusNotFound, "Listing not found")
	case errors.Is(err, service.ErrNotListingOwner):
		api.Error(w, http.StatusForbidden, "Not your listing")
	default:
		api.BadRequest(w, err)
	}
}
