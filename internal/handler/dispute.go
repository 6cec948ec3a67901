package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lootbay/lootbay/internal/api"
	"github.com/lootbay/lootbay/internal/ctxkeys"
	"github.com/lootbay/lootbay/internal/model"
	"github.com/lootbay/lootbay/internal/repository"
	"github.com/lootbay/lootbay/internal/service"
	"github.com/lootbay/lootbay/internal/storage"
	"github.com/lootbay/lootbay/internal/upload"
)

type disputeHandler struct {
	disputeService  *service.DisputeService
	purchaseService *service.PurchaseService
	gateway         *upload.Gateway
}

func NewDisputeHandler(disputeService *service.DisputeService, purchaseService *service.PurchaseService, gateway *upload.Gateway) *disputeHandler {
	return &disputeHandler{
		disputeService:  disputeService,
		purchaseService: purchaseService,
		gateway:         gateway,
	}
}

// Open files a dispute against a purchase. Evidence files land in the
// private disputes bucket keyed by purchase; uploads that fail are
// reported but do not block the dispute itself.
func (h *disputeHandler) Open(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	purchaseID := r.PathValue("id")

	files, closeAll, err := formFiles(r, "evidence")
	if err != nil {
		api.BadRequest(w, err)
		return
	}
	defer closeAll()

	reason := strings.TrimSpace(r.FormValue("reason"))

	var evidencePaths []string
	var results []upload.Result
	if len(files) > 0 {
		results = h.gateway.UploadDisputeEvidence(r.Context(), purchaseID, files)
		for _, res := range results {
			if res.Success {
				evidencePaths = append(evidencePaths, res.Path)
			}
		}
	}

	dispute, err := h.disputeService.Open(user.ID, purchaseID, reason, evidencePaths)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPurchaseNotFound):
			api.Error(w, http.StatusNotFound, "Purchase not found")
		case errors.Is(err, service.ErrNotPurchaseOwner):
			api.Error(w, http.StatusForbidden, "Only the buyer can dispute a purchase")
		default:
			api.BadRequest(w, err)
		}
		return
	}

	slog.Info("dispute opened", "dispute_id", dispute.ID, "purchase_id", purchaseID, "user_id", user.ID)
	api.JSON(w, http.StatusCreated, map[string]any{
		"id":      dispute.ID,
		"status":  dispute.Status,
		"uploads": results,
	})
}

func (h *disputeHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	profile := ctxkeys.Profile(r.Context())

	dispute, purchase, ok := h.load(w, r.PathValue("id"))
	if !ok {
		return
	}

	isAdmin := profile != nil && profile.Role == model.RoleAdmin
	if user.ID != purchase.BuyerID && user.ID != purchase.SellerID && !isAdmin {
		api.Error(w, http.StatusForbidden, "Not a party to this dispute")
		return
	}

	// Evidence lives in a private bucket, so parties get short-lived
	// signed URLs instead of raw paths.
	paths := h.disputeService.EvidencePathList(dispute)
	evidence := make([]string, 0, len(paths))
	for _, path := range paths {
		url, err := h.gateway.SignedURL(r.Context(), storage.BucketDisputes, path, upload.DefaultSignedURLExpiry)
		if err != nil {
			slog.Warn("failed to sign evidence url", "error", err, "path", path)
			continue
		}
		evidence = append(evidence, url)
	}

	api.JSON(w, http.StatusOK, map[string]any{
		"id":          dispute.ID,
		"purchase_id": dispute.PurchaseID,
		"reason":      dispute.Reason,
		"status":      dispute.Status,
		"evidence":    evidence,
		"created_at":  dispute.CreatedAt,
	})
}

// Resolve settles a dispute. Admin only; resolving in the buyer's
// favor refunds the purchase.
func (h *disputeHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	profile := ctxkeys.Profile(r.Context())
	if profile == nil || profile.Role != model.RoleAdmin {
		api.Error(w, http.StatusForbidden, "Admin access required")
		return
	}

	dispute, _, ok := h.load(w, r.PathValue("id"))
	if !ok {
		return
	}

	inBuyersFavor := r.FormValue("in_buyers_favor") == "true"
	if err := h.disputeService.Resolve(dispute.ID, inBuyersFavor); err != nil {
		slog.Error("failed to resolve dispute", "error", err, "dispute_id", dispute.ID)
		api.BadRequest(w, err)
		return
	}

	api.JSON(w, http.StatusOK, map[string]any{"id": dispute.ID, "in_buyers_favor": inBuyersFavor})
}

func (h *disputeHandler) load(w http.ResponseWriter, disputeID string) (*model.Dispute, *model.Purchase, bool) {
	dispute, err := h.disputeService.ByID(disputeID)
	if err != nil {
		if errors.Is(err, repository.ErrDisputeNotFound) {
			api.Error(w, http.StatusNotFound, "Dispute not found")
		} else {
			api.ServerError(w, err)
		}
		return nil, nil, false
	}

	purchase, err := h.purchaseService.ByID(dispute.PurchaseID)
	if err != nil {
		api.ServerError(w, err)
		return nil, nil, false
	}
	return dispute, purchase, true
}
