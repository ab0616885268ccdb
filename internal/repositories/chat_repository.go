package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"skillscape-chat/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

const chatColumns = `id, user_a, user_b, last_message_content, last_message_sender_id, last_message_at, created_at, updated_at`

// ChatRepository abstracts chat persistence.
type ChatRepository interface {
	CreateOrGetChat(ctx context.Context, userID int, friendID int) (models.Chat, error)
	GetChat(ctx context.Context, chatID int) (models.Chat, error)
	IsParticipant(ctx context.Context, chatID int, userID int) (bool, error)
	ListChats(ctx context.Context, userID int) ([]models.Chat, error)
	UpdateLastMessage(ctx context.Context, chatID int, preview string, senderID int, at time.Time) error
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// normalizePair sorts the participant pair so one unordered pair always maps
// to the same (user_a, user_b) row.
func normalizePair(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

// CreateOrGetChat returns the chat for the unordered user pair, creating it
// on first use. The pair is normalized before lookup so swapped participant
// order cannot produce a duplicate; the UNIQUE constraint backstops races.
func (r *ChatRepo) CreateOrGetChat(ctx context.Context, userID int, friendID int) (models.Chat, error) {
	if userID == friendID {
		return models.Chat{}, errors.New("cannot create chat with self")
	}
	userA, userB := normalizePair(userID, friendID)

	var chat models.Chat
	err := r.db.GetContext(ctx, &chat,
		`SELECT `+chatColumns+` FROM chats WHERE user_a=$1 AND user_b=$2`, userA, userB)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, err
	}

	err = r.db.QueryRowxContext(ctx,
		`INSERT INTO chats (user_a, user_b) VALUES ($1, $2) RETURNING `+chatColumns,
		userA, userB).StructScan(&chat)
	if err != nil {
		// Lost an insert race; the winner's row is the chat.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			err = r.db.GetContext(ctx, &chat,
				`SELECT `+chatColumns+` FROM chats WHERE user_a=$1 AND user_b=$2`, userA, userB)
		}
	}
	return chat, err
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat,
		`SELECT `+chatColumns+` FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// IsParticipant checks whether a user belongs to the chat.
func (r *ChatRepo) IsParticipant(ctx context.Context, chatID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM chats WHERE id=$1 AND (user_a=$2 OR user_b=$2))`, chatID, userID)
	return exists, err
}

// ListChats returns the user's chats, most recently updated first.
func (r *ChatRepo) ListChats(ctx context.Context, userID int) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.db.SelectContext(ctx, &chats,
		`SELECT `+chatColumns+` FROM chats WHERE user_a=$1 OR user_b=$1 ORDER BY updated_at DESC`, userID)
	return chats, err
}

// UpdateLastMessage overwrites the denormalized snapshot. Concurrent senders
// race here and the last write wins; the messages table stays authoritative.
func (r *ChatRepo) UpdateLastMessage(ctx context.Context, chatID int, preview string, senderID int, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE chats SET last_message_content=$2, last_message_sender_id=$3, last_message_at=$4, updated_at=$4
         WHERE id=$1`, chatID, preview, senderID, at)
	return err
}
