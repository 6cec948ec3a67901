package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lootbay/lootbay/internal/api"
	"github.com/lootbay/lootbay/internal/ctxkeys"
	"github.com/lootbay/lootbay/internal/service"
	"github.com/lootbay/lootbay/internal/service/payment"
)

type walletHandler struct {
	walletService *service.WalletService
	provider      payment.Provider
}

func NewWalletHandler(walletService *service.WalletService, provider payment.Provider) *walletHandler {
	return &walletHandler{
		walletService: walletService,
		provider:      provider,
	}
}

func (h *walletHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	wallet, err := h.walletService.ByUserID(user.ID)
	if err != nil {
		api.ServerError(w, err)
		return
	}

	txs, err := h.walletService.Transactions(user.ID, 20)
	if err != nil {
		slog.Warn("failed to load transactions", "error", err, "user_id", user.ID)
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

	api.JSON(w, http.StatusOK, map[string]any{
		"balance":      wallet.Balance,
		"currency":     wallet.Currency,
		"transactions": items,
	})
}

// TopUp starts a hosted checkout for adding funds; the wallet is
// credited by the provider webhook, never here.
func (h *walletHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	profile := ctxkeys.Profile(r.Context())

	amountCents, err := strconv.ParseInt(r.FormValue("amount_cents"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "amount_cents must be an integer")
		return
	}

	name := ""
	if profile != nil {
		name = profile.FullName
	}

	checkoutURL, err := h.provider.CreateTopUpURL(user.ID, user.Email, name, amountCents)
	if err != nil {
		if errors.Is(err, service.ErrTopUpAmountOutOfRange) {
			api.BadRequest(w, err)
			return
		}
		slog.Error("failed to create checkout", "error", err, "user_id", user.ID, "provider", h.provider.Name())
		api.ServerError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, map[string]any{"checkout_url": checkoutURL})
}
