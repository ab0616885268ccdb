package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"skillscape-chat/internal/mocks"
	"skillscape-chat/internal/models"
)

func setupChatRouter(handler *ChatHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/chats", handler.ListChats)
	r.POST("/chats/:friend_id", handler.StartChat)
	r.GET("/chats/:chat_id/messages", handler.GetChatMessages)
	return r
}

func TestListChatsSuccess(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewChatHandler(chatRepo, nil, nil, userRepo)
	router := setupChatRouter(handler)

	chatRepo.On("ListChats", mock.Anything, 1).Return([]models.Chat{{ID: 3, UserA: 1, UserB: 2}}, nil).Once()
	userRepo.On("BulkProfiles", mock.Anything, []int{2}).Return([]models.Profile{{ID: 2, Username: "bob"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool                 `json:"success"`
		Data    []models.ChatSummary `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.True(t, resp.Success)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "bob", resp.Data[0].Friend.Username)

	chatRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestListChatsRepoError(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := NewChatHandler(chatRepo, nil, nil, new(mocks.UserRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("ListChats", mock.Anything, 1).Return(([]models.Chat)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	chatRepo.AssertExpectations(t)
}

func TestStartChatSelf(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	friendRepo := new(mocks.FriendRepositoryMock)
	handler := NewChatHandler(chatRepo, nil, friendRepo, new(mocks.UserRepositoryMock))
	router := setupChatRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/chats/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	chatRepo.AssertNotCalled(t, "CreateOrGetChat", mock.Anything, mock.Anything, mock.Anything)
}

func TestStartChatNotFriends(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	friendRepo := new(mocks.FriendRepositoryMock)
	handler := NewChatHandler(chatRepo, nil, friendRepo, new(mocks.UserRepositoryMock))
	router := setupChatRouter(handler)

	friendRepo.On("AreFriends", mock.Anything, 1, 2).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats/2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	chatRepo.AssertNotCalled(t, "CreateOrGetChat", mock.Anything, mock.Anything, mock.Anything)
	friendRepo.AssertExpectations(t)
}

func TestStartChatSuccess(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	friendRepo := new(mocks.FriendRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewChatHandler(chatRepo, nil, friendRepo, userRepo)
	router := setupChatRouter(handler)

	friendRepo.On("AreFriends", mock.Anything, 1, 2).Return(true, nil).Once()
	chatRepo.On("CreateOrGetChat", mock.Anything, 1, 2).Return(models.Chat{ID: 10, UserA: 1, UserB: 2}, nil).Once()
	userRepo.On("BulkProfiles", mock.Anything, []int{2}).Return([]models.Profile{{ID: 2, Username: "bob"}}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats/2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data models.ChatSummary `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 10, resp.Data.ID)

	friendRepo.AssertExpectations(t)
	chatRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestStartChatInvalidID(t *testing.T) {
	handler := NewChatHandler(new(mocks.ChatRepositoryMock), nil, new(mocks.FriendRepositoryMock), new(mocks.UserRepositoryMock))
	router := setupChatRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/chats/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetChatMessagesNotParticipant(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewChatHandler(chatRepo, messageRepo, nil, new(mocks.UserRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("IsParticipant", mock.Anything, 5, 1).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats/5/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// Absent and forbidden chats are indistinguishable to the caller.
	require.Equal(t, http.StatusNotFound, rec.Code)
	messageRepo.AssertNotCalled(t, "ListPage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	chatRepo.AssertExpectations(t)
}

func TestGetChatMessagesClampsPaging(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewChatHandler(chatRepo, messageRepo, nil, new(mocks.UserRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	messageRepo.On("CountByChat", mock.Anything, 5).Return(1, nil).Once()
	messageRepo.On("ListPage", mock.Anything, 5, 1, 100).
		Return([]models.Message{{ID: 1, ChatID: 5, SenderID: 1, Content: "hi"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats/5/messages?page=0&limit=1000", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data models.MessagePage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Data.Page)
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.TotalPages)

	chatRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
}

func TestGetChatMessagesInvalidID(t *testing.T) {
	handler := NewChatHandler(new(mocks.ChatRepositoryMock), new(mocks.MessageRepositoryMock), nil, new(mocks.UserRepositoryMock))
	router := setupChatRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/chats/abc/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNormalizePaging(t *testing.T) {
	cases := []struct {
		page, limit         string
		wantPage, wantLimit int
	}{
		{"", "", 1, 50},
		{"0", "0", 1, 50},
		{"-3", "-10", 1, 50},
		{"2", "25", 2, 25},
		{"1", "1000", 1, 100},
		{"abc", "xyz", 1, 50},
	}
	for _, tc := range cases {
		page, limit := normalizePaging(tc.page, tc.limit)
		assert.Equal(t, tc.wantPage, page, "page=%q", tc.page)
		assert.Equal(t, tc.wantLimit, limit, "limit=%q", tc.limit)
	}
}
