package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/lootbay/lootbay/internal/api"
	"github.com/lootbay/lootbay/internal/ctxkeys"
	"github.com/lootbay/lootbay/internal/service"
	"github.com/lootbay/lootbay/internal/storage"
	"github.com/lootbay/lootbay/internal/upload"
)

type accountHandler struct {
	profileService *service.ProfileService
	walletService  *service.WalletService
	gateway        *upload.Gateway
}

func NewAccountHandler(profileService *service.ProfileService, walletService *service.WalletService, gateway *upload.Gateway) *accountHandler {
	return &accountHandler{
		profileService: profileService,
		walletService:  walletService,
		gateway:        gateway,
	}
}

func (h *accountHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	profile := ctxkeys.Profile(r.Context())
	wallet := ctxkeys.Wallet(r.Context())

	resp := map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	}
	if profile != nil {
		resp["full_name"] = profile.FullName
		resp["username"] = profile.Username
		resp["role"] = profile.Role
		resp["avatar_url"] = profile.AvatarURL
		resp["is_verified"] = profile.IsVerified
	}
	if wallet != nil {
		resp["balance"] = wallet.Balance
		resp["currency"] = wallet.Currency
	}
	api.JSON(w, http.StatusOK, resp)
}

func (h *accountHandler) UpdateName(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	fullName := strings.TrimSpace(r.FormValue("full_name"))

	if err := h.profileService.UpdateName(user.ID, fullName); err != nil {
		api.BadRequest(w, err)
		return
	}
	api.JSON(w, http.StatusOK, map[string]any{"full_name": fullName})
}

func (h *accountHandler) BecomeSeller(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	if err := h.profileService.BecomeSeller(user.ID); err != nil {
		slog.Error("failed to upgrade to seller", "error", err, "user_id", user.ID)
		api.BadRequest(w, err)
		return
	}

	slog.Info("user became seller", "user_id", user.ID)
	api.JSON(w, http.StatusOK, map[string]any{"redirect": "/seller/dashboard"})
}

// UploadAvatar replaces the profile picture. The object path is
// deterministic per user, so the old file is overwritten in place; a
// previously stored URL from an older scheme is cleaned up best
// effort.
func (h *accountHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	profile := ctxkeys.Profile(r.Context())

	files, closeAll, err := formFiles(r, "avatar")
	if err != nil {
		api.BadRequest(w, err)
		return
	}
	defer closeAll()

	if len(files) != 1 {
		api.Error(w, http.StatusBadRequest, "Exactly one avatar file is required")
		return
	}

	result := h.gateway.UploadAvatar(r.Context(), user.ID, files[0])
	if !result.Success {
		api.Error(w, http.StatusUnprocessableEntity, result.Error)
		return
	}

	if profile != nil && profile.AvatarURL != nil {
		if oldPath, ok := h.gateway.ExtractPathFromURL(*profile.AvatarURL, storage.BucketAvatars); ok && oldPath != result.Path {
			if err := h.gateway.DeleteFile(r.Context(), storage.BucketAvatars, oldPath); err != nil {
				slog.Warn("failed to delete old avatar", "error", err, "path", oldPath)
			}
		}
	}

	if err := h.profileService.SetAvatarURL(user.ID, &result.URL); err != nil {
		slog.Error("failed to store avatar url", "error", err, "user_id", user.ID)
		api.ServerError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, result)
}

func (h *accountHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	profile := ctxkeys.Profile(r.Context())

	if profile != nil && profile.AvatarURL != nil {
		if path, ok := h.gateway.ExtractPathFromURL(*profile.AvatarURL, storage.BucketAvatars); ok {
			if err := h.gateway.DeleteFile(r.Context(), storage.BucketAvatars, path); err != nil {
				slog.Warn("failed to delete avatar object", "error", err, "path", path)
			}
		}
	}

	if err := h.profileService.SetAvatarURL(user.ID, nil); err != nil {
		api.ServerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *accountHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	txs, err := h.walletService.Transactions(user.ID, 50)
	if err != nil {
		api.ServerError(w, err)
		return
	}

	items := make([]map[string]any, 0, len(txs))
	for _, tx := range txs {
		items = append(items, map[string]any{
			"id":         tx.ID,
			"type":       tx.Type,
			"amount":     tx.Amount,
			"reference":  tx.Reference,
			"created_at": tx.CreatedAt,
		})
	}
	api.JSON(w, http.StatusOK, items)
}
