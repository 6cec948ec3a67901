package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/lootbay/lootbay/internal/api"
	"github.com/lootbay/lootbay/internal/ctxkeys"
	"github.com/lootbay/lootbay/internal/service"
)

type reviewHandler struct {
	reviewService *service.ReviewService
}

func NewReviewHandler(reviewService *service.ReviewService) *reviewHandler {
	return &reviewHandler{reviewService: reviewService}
}

func (h *reviewHandler) List(w http.ResponseWriter, r *http.Request) {
	listingID := r.PathValue("id")

	reviews, err := h.reviewService.ByListing(listingID)
	if err != nil {
		api.ServerError(w, err)
		return
	}

	rating, count, err := h.reviewService.AverageRating(listingID)
	if err != nil {
		api.ServerError(w, err)
		return
	}

	items := make([]map[string]any, 0, len(reviews))
	for _, rev := range reviews {
		items = append(items, map[string]any{
			"id":         rev.ID,
			"buyer_id":   rev.BuyerID,
			"rating":     rev.Rating,
			"body":       rev.Body,
			"created_at": rev.CreatedAt,
		})
	}

	api.JSON(w, http.StatusOK, map[string]any{
		"average_rating": rating,
		"review_count":   count,
		"reviews":        items,
	})
}

func (h *reviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	rating, err := strconv.Atoi(r.FormValue("rating"))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "rating must be an integer")
		return
	}

	review, err := h.reviewService.Create(user.ID, r.PathValue("id"), rating, strings.TrimSpace(r.FormValue("body")))
	if err != nil {
		if errors.Is(err, service.ErrReviewWithoutPurchase) {
			api.Error(w, http.StatusForbidden, err.Error())
			return
		}
		api.BadRequest(w, err)
		return
	}

	api.JSON(w, http.StatusCreated, map[string]any{
		"id":     review.ID,
		"rating": review.Rating,
		"body":   review.Body,
	})
}
