package models

import "time"

// MessageTypeText is the only message type the product currently ships.
const MessageTypeText = "text"

// MaxMessageLength bounds message content in characters.
const MaxMessageLength = 5000

// Message represents an immutable chat message.
type Message struct {
	ID        int       `db:"id" json:"id"`
	ChatID    int       `db:"chat_id" json:"chat_id"`
	SenderID  int       `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	Type      string    `db:"msg_type" json:"type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MessagePage is one page of chat history.
type MessagePage struct {
	Messages   []Message `json:"messages"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
	Total      int       `json:"total"`
}
