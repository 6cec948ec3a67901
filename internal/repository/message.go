package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lootbay/lootbay/internal/model"
)

var ErrConversationNotFound = errors.New("conversation not found")

type MessageRepository interface {
	ConversationByID(id string) (*model.Conversation, error)
	ConversationsForUser(userID string) ([]*model.Conversation, error)
	FindConversation(buyerID, sellerID string, listingID *string) (*model.Conversation, error)
	CreateConversation(conv *model.Conversation) error
	Messages(conversationID string, limit int) ([]*model.Message, error)
	CreateMessage(msg *model.Message) error
	MarkRead(conversationID, readerID string) error
}

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) ConversationByID(id string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.Get(&conv, `SELECT * FROM conversations WHERE id = $1`, id)

	if err == sql.ErrNoRows {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}

	return &conv, nil
}

func (r *messageRepository) ConversationsForUser(userID string) ([]*model.Conversation, error) {
	convs := []*model.Conversation{}
	err := r.db.Select(&convs, `
		SELECT * FROM conversations
		WHERE buyer_id = $1 OR seller_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}

	return convs, nil
}

func (r *messageRepository) FindConversation(buyerID, sellerID string, listingID *string) (*model.Conversation, error) {
	var conv model.Conversation
	var err error

	if listingID != nil {
		err = r.db.Get(&conv, `
			SELECT * FROM conversations
			WHERE buyer_id = $1 AND seller_id = $2 AND listing_id = $3
		`, buyerID, sellerID, *listingID)
	} else {
		err = r.db.Get(&conv, `
			SELECT * FROM conversations
			WHERE buyer_id = $1 AND seller_id = $2 AND listing_id IS NULL
		`, buyerID, sellerID)
	}

	if err == sql.ErrNoRows {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}

	return &conv, nil
}

func (r *messageRepository) CreateConversation(conv *model.Conversation) error {
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO conversations (id, buyer_id, seller_id, listing_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, conv.ID, conv.BuyerID, conv.SellerID, conv.ListingID, conv.CreatedAt)

	return err
}

func (r *messageRepository) Messages(conversationID string, limit int) ([]*model.Message, error) {
	msgs := []*model.Message{}
	err := r.db.Select(&msgs, `
		SELECT * FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
		LIMIT $2
	`, conversationID, limit)
	if err != nil {
		return nil, err
	}

	return msgs, nil
}

func (r *messageRepository) CreateMessage(msg *model.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO messages (id, conversation_id, sender_id, body, attachment_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, msg.ID, msg.ConversationID, msg.SenderID, msg.Body, msg.AttachmentURL, msg.CreatedAt)

	return err
}

func (r *messageRepository) MarkRead(conversationID, readerID string) error {
	_, err := r.db.Exec(`
		UPDATE messages
		SET read_at = $1
		WHERE conversation_id = $2 AND sender_id != $3 AND read_at IS NULL
	`, time.Now(), conversationID, readerID)
	return err
}
