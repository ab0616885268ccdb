package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"skillscape-chat/internal/models"
	"skillscape-chat/internal/repositories"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

// ChatHandler manages the chat REST surface: list, get-or-create, history.
type ChatHandler struct {
	chatRepo    repositories.ChatRepository
	messageRepo repositories.MessageRepository
	friendRepo  repositories.FriendRepository
	userRepo    repositories.UserRepository
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chatRepo repositories.ChatRepository, messageRepo repositories.MessageRepository,
	friendRepo repositories.FriendRepository, userRepo repositories.UserRepository) *ChatHandler {
	return &ChatHandler{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		friendRepo:  friendRepo,
		userRepo:    userRepo,
	}
}

// ListChats returns the caller's chats, most recently updated first, each
// annotated with the other participant's profile.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := c.GetInt("userID")

	chats, err := h.chatRepo.ListChats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not load chats")
		return
	}

	friendIDs := make([]int, 0, len(chats))
	for _, chat := range chats {
		friendIDs = append(friendIDs, chat.OtherParticipant(userID))
	}

	profiles, err := h.userRepo.BulkProfiles(c.Request.Context(), friendIDs)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not load chat participants")
		return
	}
	profileByID := make(map[int]models.Profile, len(profiles))
	for _, p := range profiles {
		profileByID[p.ID] = p
	}

	summaries := make([]models.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		summaries = append(summaries, models.ChatSummary{
			Chat:   chat,
			Friend: profileByID[chat.OtherParticipant(userID)],
		})
	}

	respond(c, http.StatusOK, summaries, "chats loaded")
}

// StartChat returns the chat with the given friend, creating it on first
// use. Only accepted friends may open a chat.
func (h *ChatHandler) StartChat(c *gin.Context) {
	friendID, err := strconv.Atoi(c.Param("friend_id"))
	if err != nil || friendID <= 0 {
		respondError(c, http.StatusBadRequest, "invalid friend id")
		return
	}

	userID := c.GetInt("userID")
	if friendID == userID {
		respondError(c, http.StatusBadRequest, "cannot chat with yourself")
		return
	}

	friends, err := h.friendRepo.AreFriends(c.Request.Context(), userID, friendID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not verify friendship")
		return
	}
	if !friends {
		respondError(c, http.StatusForbidden, "users are not friends")
		return
	}

	chat, err := h.chatRepo.CreateOrGetChat(c.Request.Context(), userID, friendID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not create chat")
		return
	}

	profiles, err := h.userRepo.BulkProfiles(c.Request.Context(), []int{friendID})
	if err != nil || len(profiles) == 0 {
		respondError(c, http.StatusInternalServerError, "could not load chat participant")
		return
	}

	respond(c, http.StatusOK, models.ChatSummary{Chat: chat, Friend: profiles[0]}, "chat ready")
}

// GetChatMessages returns one page of chat history. A chat the caller does
// not participate in looks identical to one that does not exist.
func (h *ChatHandler) GetChatMessages(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil || chatID <= 0 {
		respondError(c, http.StatusBadRequest, "invalid chat id")
		return
	}

	userID := c.GetInt("userID")
	member, err := h.chatRepo.IsParticipant(c.Request.Context(), chatID, userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not verify chat membership")
		return
	}
	if !member {
		respondError(c, http.StatusNotFound, "chat not found")
		return
	}

	page, limit := normalizePaging(c.Query("page"), c.Query("limit"))

	total, err := h.messageRepo.CountByChat(c.Request.Context(), chatID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not load messages")
		return
	}

	msgs, err := h.messageRepo.ListPage(c.Request.Context(), chatID, page, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not load messages")
		return
	}

	totalPages := (total + limit - 1) / limit
	respond(c, http.StatusOK, models.MessagePage{
		Messages:   msgs,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	}, "messages loaded")
}

// normalizePaging applies defaults and clamps out-of-range values instead of
// rejecting them.
func normalizePaging(pageStr, limitStr string) (int, int) {
	page := 1
	if parsed, err := strconv.Atoi(pageStr); err == nil && parsed > 0 {
		page = parsed
	}

	limit := defaultPageLimit
	if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
		limit = parsed
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}
