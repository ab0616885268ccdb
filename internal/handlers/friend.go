package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"skillscape-chat/internal/models"
	"skillscape-chat/internal/presence"
	"skillscape-chat/internal/repositories"
)

// FriendHandler manages the friend graph endpoints.
type FriendHandler struct {
	friendRepo repositories.FriendRepository
	userRepo   repositories.UserRepository
	tracker    presence.Tracker
}

// NewFriendHandler builds a FriendHandler.
func NewFriendHandler(friendRepo repositories.FriendRepository, userRepo repositories.UserRepository, tracker presence.Tracker) *FriendHandler {
	return &FriendHandler{friendRepo: friendRepo, userRepo: userRepo, tracker: tracker}
}

// SendRequest creates a pending friend request.
func (h *FriendHandler) SendRequest(c *gin.Context) {
	var req struct {
		ReceiverID int `json:"receiver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	userID := c.GetInt("userID")
	if req.ReceiverID == userID {
		respondError(c, http.StatusBadRequest, "cannot befriend yourself")
		return
	}

	if _, err := h.userRepo.GetByID(c.Request.Context(), req.ReceiverID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "user not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "could not send friend request")
		return
	}

	request, err := h.friendRepo.CreateRequest(c.Request.Context(), userID, req.ReceiverID)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateRequest) {
			respondError(c, http.StatusConflict, "friend request already exists")
			return
		}
		respondError(c, http.StatusInternalServerError, "could not send friend request")
		return
	}

	respond(c, http.StatusCreated, request, "friend request sent")
}

// Accept transitions a pending request to accepted. Receiver only.
func (h *FriendHandler) Accept(c *gin.Context) {
	h.resolve(c, models.FriendStatusAccepted)
}

// Reject transitions a pending request to rejected. Receiver only.
func (h *FriendHandler) Reject(c *gin.Context) {
	h.resolve(c, models.FriendStatusRejected)
}

func (h *FriendHandler) resolve(c *gin.Context, status string) {
	requestID, err := strconv.Atoi(c.Param("request_id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid request id")
		return
	}

	userID := c.GetInt("userID")
	request, err := h.friendRepo.GetRequest(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			respondError(c, http.StatusNotFound, "friend request not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "could not resolve friend request")
		return
	}
	if request.ReceiverID != userID {
		// Same body as not-found so request ids cannot be probed.
		respondError(c, http.StatusNotFound, "friend request not found")
		return
	}
	if request.Status != models.FriendStatusPending {
		respondError(c, http.StatusConflict, "friend request already resolved")
		return
	}

	if err := h.friendRepo.SetRequestStatus(c.Request.Context(), requestID, status); err != nil {
		respondError(c, http.StatusInternalServerError, "could not resolve friend request")
		return
	}

	respond(c, http.StatusOK, gin.H{"id": requestID, "status": status}, "friend request "+status)
}

type friendEntry struct {
	models.Profile
	Online bool `json:"online"`
}

// ListFriends returns the caller's accepted friends with profile fields and
// a presence snapshot. Live transitions arrive over the socket; this is the
// initial state.
func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID := c.GetInt("userID")

	ids, err := h.friendRepo.ListFriendIDs(c.Request.Context(), userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not load friends")
		return
	}

	profiles, err := h.userRepo.BulkProfiles(c.Request.Context(), ids)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not load friends")
		return
	}

	entries := make([]friendEntry, 0, len(profiles))
	for _, p := range profiles {
		online, err := h.tracker.IsOnline(c.Request.Context(), p.ID)
		if err != nil {
			// Presence is best-effort; an unreachable tracker reads offline.
			online = false
		}
		entries = append(entries, friendEntry{Profile: p, Online: online})
	}

	respond(c, http.StatusOK, entries, "friends loaded")
}

// ListIncoming returns pending friend requests addressed to the caller.
func (h *FriendHandler) ListIncoming(c *gin.Context) {
	userID := c.GetInt("userID")

	requests, err := h.friendRepo.ListIncomingPending(c.Request.Context(), userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not load friend requests")
		return
	}

	respond(c, http.StatusOK, requests, "friend requests loaded")
}
