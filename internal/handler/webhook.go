package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/lootbay/lootbay/internal/api"
	"github.com/lootbay/lootbay/internal/service/payment"
)

// webhook bodies are small; this cap just keeps a hostile sender from
// streaming unbounded data.
const maxWebhookBody = 1 << 20

type webhookHandler struct {
	provider payment.Provider
}

func NewWebhookHandler(provider payment.Provider) *webhookHandler {
	return &webhookHandler{provider: provider}
}

// Payment receives provider callbacks. Signature verification happens
// inside the provider; a failure here returns non-2xx so the provider
// retries.
func (h *webhookHandler) Payment(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		slog.Error("failed to read webhook body", "error", err)
		api.Error(w, http.StatusBadRequest, "failed to read body")
		return
	}

	if err := h.provider.HandleWebhook(payload, r.Header); err != nil {
		slog.Error("webhook processing failed", "error", err, "provider", h.provider.Name())
		api.Error(w, http.StatusBadRequest, "webhook processing failed")
		return
	}

	w.WriteHeader(http.StatusOK)
}
