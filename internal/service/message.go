package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lootbay/lootbay/internal/model"
	"github.com/lootbay/lootbay/internal/repository"
)

var (
	ErrNotParticipant = errors.New("not a participant in this conversation")
	ErrEmptyMessage   = errors.New("message body is required")
)

const maxMessageLength = 4000

type MessageService struct {
	messageRepo repository.MessageRepository
	listingRepo repository.ListingRepository
}

func NewMessageService(messageRepo repository.MessageRepository, listingRepo repository.ListingRepository) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		listingRepo: listingRepo,
	}
}

func (s *MessageService) Conversations(userID string) ([]*model.Conversation, error) {
	return s.messageRepo.ConversationsForUser(userID)
}

// conversation fetches a thread and checks the caller belongs to it.
func (s *MessageService) conversation(userID, conversationID string) (*model.Conversation, error) {
	conv, err := s.messageRepo.ConversationByID(conversationID)
	if err != nil {
		return nil, err
	}
	if conv.BuyerID != userID && conv.SellerID != userID {
		return nil, ErrNotParticipant
	}
	return conv, nil
}

// StartConversation opens (or reuses) a buyer/seller thread, optionally
// anchored to a listing.
func (s *MessageService) StartConversation(buyerID, sellerID string, listingID *string) (*model.Conversation, error) {
	if buyerID == sellerID {
		return nil, errors.New("cannot start a conversation with yourself")
	}

	if listingID != nil {
		listing, err := s.listingRepo.ByID(*listingID)
		if err != nil {
			return nil, err
		}
		if listing.SellerID != sellerID {
			return nil, errors.New("listing does not belong to that seller")
		}
	}

	existing, err := s.messageRepo.FindConversation(buyerID, sellerID, listingID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrConversationNotFound) {
		return nil, err
	}

	conv := &model.Conversation{
		ID:        uuid.New().String(),
		BuyerID:   buyerID,
		SellerID:  sellerID,
		ListingID: listingID,
		CreatedAt: time.Now(),
	}
	if err := s.messageRepo.CreateConversation(conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

func (s *MessageService) Messages(userID, conversationID string, limit int) ([]*model.Message, error) {
	if _, err := s.conversation(userID, conversationID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	return s.messageRepo.Messages(conversationID, limit)
}

// Send posts a message; attachmentURL comes from a prior upload and
// may be nil for plain text.
func (s *MessageService) Send(userID, conversationID, body string, attachmentURL *string) (*model.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" && attachmentURL == nil {
		return nil, ErrEmptyMessage
	}
	if len(body) > maxMessageLength {
		return nil, fmt.Errorf("message is too long (max %d characters)", maxMessageLength)
	}

	if _, err := s.conversation(userID, conversationID); err != nil {
		return nil, err
	}

	msg := &model.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       userID,
		Body:           body,
		AttachmentURL:  attachmentURL,
		CreatedAt:      time.Now(),
	}
	if err := s.messageRepo.CreateMessage(msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return msg, nil
}

// MarkRead marks every message addressed to the reader as read.
func (s *MessageService) MarkRead(userID, conversationID string) error {
	if _, err := s.conversation(userID, conversationID); err != nil {
		return err
	}
	return s.messageRepo.MarkRead(conversationID, userID)
}
