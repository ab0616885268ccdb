package ws

import "sync"

// Hub maintains the active websocket rooms: one personal room per connected
// user and one room per joined chat. All cross-instance coordination goes
// through the broker; the hub only knows local connections.
type Hub struct {
	mu          sync.RWMutex
	chatRooms   map[int]map[*Client]bool
	personal    map[int]map[*Client]bool
	clientChats map[*Client]map[int]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		chatRooms:   make(map[int]map[*Client]bool),
		personal:    make(map[int]map[*Client]bool),
		clientChats: make(map[*Client]map[int]bool),
	}
}

// Register subscribes the client to its own personal room.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.personal[client.UserID]; !ok {
		h.personal[client.UserID] = make(map[*Client]bool)
	}
	h.personal[client.UserID][client] = true
	h.clientChats[client] = make(map[int]bool)
}

// Unregister removes the client from its personal room and every chat room
// it joined.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.personal[client.UserID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.personal, client.UserID)
		}
	}
	for chatID := range h.clientChats[client] {
		h.removeFromChatLocked(chatID, client)
	}
	delete(h.clientChats, client)
}

// JoinChat subscribes the client to a chat room. Membership authorization
// happens before this call.
func (h *Hub) JoinChat(chatID int, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.chatRooms[chatID]; !ok {
		h.chatRooms[chatID] = make(map[*Client]bool)
	}
	h.chatRooms[chatID][client] = true
	if joined, ok := h.clientChats[client]; ok {
		joined[chatID] = true
	}
}

// LeaveChat unsubscribes the client from a chat room. Leaving a room the
// client never joined is a no-op.
func (h *Hub) LeaveChat(chatID int, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromChatLocked(chatID, client)
	if joined, ok := h.clientChats[client]; ok {
		delete(joined, chatID)
	}
}

func (h *Hub) removeFromChatLocked(chatID int, client *Client) {
	if conns, ok := h.chatRooms[chatID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.chatRooms, chatID)
		}
	}
}

// SendToChat delivers an event to every local subscriber of a chat room,
// including the sender's own connection.
func (h *Hub) SendToChat(chatID int, event OutboundEvent) {
	for _, client := range h.chatClients(chatID) {
		client.Enqueue(event)
	}
}

// SendToChatExcept delivers to every local chat room subscriber except one
// connection. Used for typing signals, which the composer does not echo.
func (h *Hub) SendToChatExcept(chatID int, except *Client, event OutboundEvent) {
	for _, client := range h.chatClients(chatID) {
		if client == except {
			continue
		}
		client.Enqueue(event)
	}
}

// SendToUser delivers an event to every connection in the user's personal
// room (all tabs and devices).
func (h *Hub) SendToUser(userID int, event OutboundEvent) {
	h.mu.RLock()
	conns := make([]*Client, 0, len(h.personal[userID]))
	for client := range h.personal[userID] {
		conns = append(conns, client)
	}
	h.mu.RUnlock()

	for _, client := range conns {
		client.Enqueue(event)
	}
}

func (h *Hub) chatClients(chatID int) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := make([]*Client, 0, len(h.chatRooms[chatID]))
	for client := range h.chatRooms[chatID] {
		conns = append(conns, client)
	}
	return conns
}

// InChat reports whether the client currently subscribes to the chat room.
func (h *Hub) InChat(chatID int, client *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.chatRooms[chatID][client]
}
