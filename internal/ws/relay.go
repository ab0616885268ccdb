package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"skillscape-chat/internal/broker"
	"skillscape-chat/internal/models"
	"skillscape-chat/internal/observability"
	"skillscape-chat/internal/presence"
	"skillscape-chat/internal/repositories"
)

const lastMessagePreviewLen = 100

// Relay coordinates the live messaging flow: membership checks, persistence,
// local fan-out through the hub and cross-instance fan-out through the
// broker.
type Relay struct {
	hub         *Hub
	chatRepo    repositories.ChatRepository
	messageRepo repositories.MessageRepository
	friendRepo  repositories.FriendRepository
	tracker     presence.Tracker
	bus         broker.Publisher
	origin      string
}

// NewRelay wires the relay dependencies. origin identifies this service
// instance on the broker.
func NewRelay(hub *Hub, chatRepo repositories.ChatRepository, messageRepo repositories.MessageRepository,
	friendRepo repositories.FriendRepository, tracker presence.Tracker, bus broker.Publisher, origin string) *Relay {
	return &Relay{
		hub:         hub,
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		friendRepo:  friendRepo,
		tracker:     tracker,
		bus:         bus,
		origin:      origin,
	}
}

// JoinChat subscribes the connection to a chat room after verifying the user
// is a participant. Unauthorized joins receive an explicit error event.
func (r *Relay) JoinChat(ctx context.Context, client *Client, chatID int) {
	member, err := r.chatRepo.IsParticipant(ctx, chatID, client.UserID)
	if err != nil {
		client.Enqueue(errorEvent("could not verify chat membership"))
		return
	}
	if !member {
		client.Enqueue(errorEvent("not a participant of this chat"))
		return
	}
	r.hub.JoinChat(chatID, client)
	observability.IncWSEvent(EventJoinChat)
}

// LeaveChat unsubscribes the connection. Leaving an unjoined room is a no-op.
func (r *Relay) LeaveChat(client *Client, chatID int) {
	r.hub.LeaveChat(chatID, client)
	observability.IncWSEvent(EventLeaveChat)
}

// SendMessage validates, persists and fans out a message. On any failure
// before persistence nothing is written; on persistence failure nothing is
// fanned out and only the sender sees an error.
func (r *Relay) SendMessage(ctx context.Context, client *Client, chatID int, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		client.Enqueue(errorEvent("message content must not be empty"))
		return
	}
	if len([]rune(content)) > models.MaxMessageLength {
		client.Enqueue(errorEvent("message content too long"))
		return
	}

	chat, err := r.chatRepo.GetChat(ctx, chatID)
	if err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			client.Enqueue(errorEvent("chat not found"))
		} else {
			client.Enqueue(errorEvent("could not load chat"))
		}
		return
	}
	if !chat.HasParticipant(client.UserID) {
		client.Enqueue(errorEvent("not a participant of this chat"))
		return
	}

	msg, err := r.messageRepo.CreateMessage(ctx, chatID, client.UserID, content)
	if err != nil {
		log.Printf("message persist failed chat_id=%d: %v", chatID, err)
		client.Enqueue(errorEvent("failed to send message"))
		return
	}

	if err := r.chatRepo.UpdateLastMessage(ctx, chatID, previewOf(content), client.UserID, msg.CreatedAt); err != nil {
		// Snapshot is a cache; the message is already durable.
		log.Printf("last message snapshot update failed chat_id=%d: %v", chatID, err)
	}

	r.hub.SendToChat(chatID, OutboundEvent{Event: EventReceiveMessage, Data: msg})

	notif := MessageNotification{ChatID: chatID, Message: msg}
	participants := []int{chat.UserA, chat.UserB}
	for _, userID := range participants {
		r.hub.SendToUser(userID, OutboundEvent{Event: EventNewMessageNotif, Data: notif})
	}

	r.publish(ctx, broker.KeyMessage, broker.Envelope{
		Event:   EventReceiveMessage,
		ChatID:  chatID,
		Payload: mustJSON(msg),
	})
	r.publish(ctx, broker.KeyNotify, broker.Envelope{
		Event:   EventNewMessageNotif,
		ChatID:  chatID,
		UserIDs: participants,
		Payload: mustJSON(notif),
	})
	observability.IncMessageSent()
	observability.IncWSEvent(EventSendMessage)
}

// Typing relays a composing signal to the other chat room subscribers.
// Unpersisted and best-effort; signals from connections that never joined
// the room are dropped.
func (r *Relay) Typing(ctx context.Context, client *Client, chatID int, stop bool) {
	if !r.hub.InChat(chatID, client) {
		return
	}
	event := EventUserTyping
	key := broker.KeyTyping
	if stop {
		event = EventUserStopTyping
	}
	signal := TypingSignal{UserID: client.UserID, ChatID: chatID}
	r.hub.SendToChatExcept(chatID, client, OutboundEvent{Event: event, Data: signal})
	r.publish(ctx, key, broker.Envelope{
		Event:   event,
		ChatID:  chatID,
		Payload: mustJSON(signal),
	})
	observability.IncWSEvent(event)
}

// ClientConnected records presence and announces the user to their friends
// when this is their first live connection.
func (r *Relay) ClientConnected(ctx context.Context, client *Client) {
	first, err := r.tracker.Connected(ctx, client.UserID)
	if err != nil {
		log.Printf("presence connect failed user_id=%d: %v", client.UserID, err)
		return
	}
	if first {
		r.broadcastPresence(ctx, client.UserID, EventUserOnline)
	}
}

// RefreshPresence re-arms the presence record for a long-lived connection.
func (r *Relay) RefreshPresence(ctx context.Context, client *Client) {
	if err := r.tracker.Refresh(ctx, client.UserID); err != nil {
		log.Printf("presence refresh failed user_id=%d: %v", client.UserID, err)
	}
}

// ClientDisconnected records presence and announces the user offline when
// their last connection closed.
func (r *Relay) ClientDisconnected(ctx context.Context, client *Client) {
	last, err := r.tracker.Disconnected(ctx, client.UserID)
	if err != nil {
		log.Printf("presence disconnect failed user_id=%d: %v", client.UserID, err)
		return
	}
	if last {
		r.broadcastPresence(ctx, client.UserID, EventUserOffline)
	}
}

func (r *Relay) broadcastPresence(ctx context.Context, userID int, event string) {
	friendIDs, err := r.friendRepo.ListFriendIDs(ctx, userID)
	if err != nil {
		log.Printf("presence friend lookup failed user_id=%d: %v", userID, err)
		return
	}
	signal := PresenceSignal{UserID: userID}
	for _, friendID := range friendIDs {
		r.hub.SendToUser(friendID, OutboundEvent{Event: event, Data: signal})
	}
	r.publish(ctx, broker.KeyPresence, broker.Envelope{
		Event:   event,
		UserIDs: friendIDs,
		Payload: mustJSON(signal),
	})
	observability.IncWSEvent(event)
}

// ApplyRemote replays an envelope produced by another instance through the
// local hub.
func (r *Relay) ApplyRemote(env broker.Envelope) {
	switch env.Event {
	case EventReceiveMessage:
		var msg models.Message
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			log.Printf("broker: malformed message payload: %v", err)
			return
		}
		r.hub.SendToChat(env.ChatID, OutboundEvent{Event: EventReceiveMessage, Data: msg})
	case EventNewMessageNotif:
		var notif MessageNotification
		if err := json.Unmarshal(env.Payload, &notif); err != nil {
			log.Printf("broker: malformed notification payload: %v", err)
			return
		}
		for _, userID := range env.UserIDs {
			r.hub.SendToUser(userID, OutboundEvent{Event: EventNewMessageNotif, Data: notif})
		}
	case EventUserTyping, EventUserStopTyping:
		var signal TypingSignal
		if err := json.Unmarshal(env.Payload, &signal); err != nil {
			return
		}
		r.hub.SendToChat(env.ChatID, OutboundEvent{Event: env.Event, Data: signal})
	case EventUserOnline, EventUserOffline:
		var signal PresenceSignal
		if err := json.Unmarshal(env.Payload, &signal); err != nil {
			return
		}
		for _, userID := range env.UserIDs {
			r.hub.SendToUser(userID, OutboundEvent{Event: env.Event, Data: signal})
		}
	default:
		log.Printf("broker: unrecognized event %q dropped", env.Event)
	}
}

func (r *Relay) publish(ctx context.Context, routingKey string, env broker.Envelope) {
	env.Origin = r.origin
	if err := r.bus.Publish(ctx, routingKey, env); err != nil {
		log.Printf("broker publish failed key=%s: %v", routingKey, err)
	}
}

func previewOf(content string) string {
	runes := []rune(content)
	if len(runes) <= lastMessagePreviewLen {
		return content
	}
	return string(runes[:lastMessagePreviewLen])
}

func mustJSON(v any) json.RawMessage {
	body, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return body
}
