package ws

import (
	"encoding/json"

	"skillscape-chat/internal/models"
)

// Client-to-server event names.
const (
	EventJoinChat    = "join_chat"
	EventLeaveChat   = "leave_chat"
	EventSendMessage = "send_message"
	EventTyping      = "typing"
	EventStopTyping  = "stop_typing"
)

// Server-to-client event names.
const (
	EventReceiveMessage  = "receive_message"
	EventNewMessageNotif = "new_message_notification"
	EventUserTyping      = "user_typing"
	EventUserStopTyping  = "user_stop_typing"
	EventUserOnline      = "user_online"
	EventUserOffline     = "user_offline"
	EventError           = "error"
)

// InboundEvent is the envelope clients send. Unknown event names are
// rejected with an error event rather than ignored.
type InboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// OutboundEvent is the envelope the server sends.
type OutboundEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// ChatRef identifies a chat in join/leave/typing payloads.
type ChatRef struct {
	ChatID int `json:"chatId"`
}

// SendMessagePayload carries a message send request.
type SendMessagePayload struct {
	ChatID  int    `json:"chatId"`
	Content string `json:"content"`
}

// MessageNotification goes to participants' personal channels so a chat list
// can update its unread indicator without the chat room being joined.
type MessageNotification struct {
	ChatID  int            `json:"chatId"`
	Message models.Message `json:"message"`
}

// TypingSignal identifies who is composing in which chat.
type TypingSignal struct {
	UserID int `json:"userId"`
	ChatID int `json:"chatId"`
}

// PresenceSignal carries online/offline transitions.
type PresenceSignal struct {
	UserID int `json:"userId"`
}

// ErrorPayload is delivered to the originating connection only.
type ErrorPayload struct {
	Message string `json:"message"`
}

func errorEvent(message string) OutboundEvent {
	return OutboundEvent{Event: EventError, Data: ErrorPayload{Message: message}}
}
