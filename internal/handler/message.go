package handler

import (
	"errors"
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

type messageHandler struct {
	messageService *service.MessageService
	gateway        *upload.Gateway
}

func NewMessageHandler(messageService *service.MessageService, gateway *upload.Gateway) *messageHandler {
	return &messageHandler{
		messageService: messageService,
		gateway:        gateway,
	}
}

func (h *messageHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	conversations, err := h.messageService.Conversations(user.ID)
	if err != nil {
		api.ServerError(w, err)
		return
	}

	items := make([]map[string]any, 0, len(conversations))
	for _, c := range conversations {
		items = append(items, map[string]any{
			"id":         c.ID,
			"buyer_id":   c.BuyerID,
			"seller_id":  c.SellerID,
			"listing_id": c.ListingID,
			"created_at": c.CreatedAt,
		})
	}
	api.JSON(w, http.StatusOK, items)
}

func (h *messageHandler) Start(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	sellerID := strings.TrimSpace(r.FormValue("seller_id"))

	var listingID *string
	if v := strings.TrimSpace(r.FormValue("listing_id")); v != "" {
		listingID = &v
	}

	conversation, err := h.messageService.StartConversation(user.ID, sellerID, listingID)
	if err != nil {
		api.BadRequest(w, err)
		return
	}

	api.JSON(w, http.StatusCreated, map[string]any{"id": conversation.ID})
}

func (h *messageHandler) Messages(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := h.messageService.Messages(user.ID, r.PathValue("id"), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	items := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		items = append(items, messageJSON(m))
	}
	api.JSON(w, http.StatusOK, items)
}

// Send posts a message. An optional "attachment" file is stored first;
// a message may carry text, an attachment, or both.
func (h *messageHandler) Send(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	conversationID := r.PathValue("id")

	var body string
	var attachmentURL *string

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		files, closeAll, err := formFiles(r, "attachment")
		if err != nil {
			api.BadRequest(w, err)
			return
		}
		defer closeAll()

		if len(files) > 1 {
			api.Error(w, http.StatusBadRequest, "At most one attachment per message")
			return
		}
		if len(files) == 1 {
			result := h.gateway.UploadMessageAttachment(r.Context(), conversationID, files[0])
			if !result.Success {
				api.Error(w, http.StatusUnprocessableEntity, result.Error)
				return
			}
			attachmentURL = &result.URL
		}
		body = strings.TrimSpace(r.FormValue("body"))
	} else {
		body = strings.TrimSpace(r.FormValue("body"))
	}

	message, err := h.messageService.Send(user.ID, conversationID, body, attachmentURL)
	if err != nil {
		h.writeError(w, err)
		return
	}

	api.JSON(w, http.StatusCreated, messageJSON(message))
}

func (h *messageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	if err := h.messageService.MarkRead(user.ID, r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *messageHandler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrConversationNotFound) {
		api.Error(w, http.StatusNotFound, "Conversation not found")
		return
	}
	api.BadRequest(w, err)
}

func messageJSON(m *model.Message) map[string]any {
	return map[string]any{
		"id":              m.ID,
		"conversation_id": m.ConversationID,
		"sender_id":       m.SenderID,
		"body":            m.Body,
		"attachment_url":  m.AttachmentURL,
		"read_at":         m.ReadAt,
		"created_at":      m.CreatedAt,
	}
}
