package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"skillscape-chat/internal/models"
)

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, chatID int, senderID int, content string) (models.Message, error)
	ListPage(ctx context.Context, chatID int, page int, limit int) ([]models.Message, error)
	CountByChat(ctx context.Context, chatID int) (int, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a message with a server-assigned timestamp.
func (r *MessageRepo) CreateMessage(ctx context.Context, chatID int, senderID int, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (chat_id, sender_id, content, msg_type) VALUES ($1, $2, $3, $4)
         RETURNING id, chat_id, sender_id, content, msg_type, created_at`,
		chatID, senderID, content, models.MessageTypeText).StructScan(&msg)
	return msg, err
}

// ListPage returns one page of chat history. Page 1 holds the newest
// messages; within a page messages are ordered oldest to newest, which is
// how the client renders a conversation.
func (r *MessageRepo) ListPage(ctx context.Context, chatID int, page int, limit int) ([]models.Message, error) {
	offset := (page - 1) * limit
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT id, chat_id, sender_id, content, msg_type, created_at
         FROM messages WHERE chat_id=$1
         ORDER BY created_at DESC, id DESC
         LIMIT $2 OFFSET $3`, chatID, limit, offset)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// CountByChat returns the number of messages in a chat.
func (r *MessageRepo) CountByChat(ctx context.Context, chatID int) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM messages WHERE chat_id=$1`, chatID)
	return total, err
}
