package models

import "time"

// Chat represents a private chat between exactly two users. Participants are
// stored sorted (user_a < user_b) so one unordered pair maps to one row.
// The last_message_* columns are a denormalized snapshot of the newest
// message; the messages table stays the source of truth.
type Chat struct {
	ID                  int        `db:"id" json:"id"`
	UserA               int        `db:"user_a" json:"user_a"`
	UserB               int        `db:"user_b" json:"user_b"`
	LastMessageContent  string     `db:"last_message_content" json:"last_message_content"`
	LastMessageSenderID *int       `db:"last_message_sender_id" json:"last_message_sender_id,omitempty"`
	LastMessageAt       *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// HasParticipant reports whether the user belongs to the chat.
func (c Chat) HasParticipant(userID int) bool {
	return c.UserA == userID || c.UserB == userID
}

// OtherParticipant returns the participant that is not the given user.
func (c Chat) OtherParticipant(userID int) int {
	if c.UserA == userID {
		return c.UserB
	}
	return c.UserA
}

// ChatSummary is the API view of a chat for one user: the chat itself plus
// the resolved friend profile.
type ChatSummary struct {
	Chat
	Friend Profile `json:"friend"`
}
