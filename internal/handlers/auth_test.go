package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"skillscape-chat/internal/auth"
	"skillscape-chat/internal/mocks"
	"skillscape-chat/internal/models"
	"skillscape-chat/internal/repositories"
)

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	return r
}

func testIssuer() *auth.TokenIssuer {
	return auth.NewTokenIssuer("test-secret", time.Hour)
}

func TestRegisterSuccess(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(userRepo, testIssuer())
	router := setupAuthRouter(handler)

	username := gofakeit.Username()
	email := gofakeit.Email()
	userRepo.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(models.User{ID: 7, Username: username, Email: email}, nil).Once()

	body := fmt.Sprintf(`{"username":%q,"email":%q,"password":"hunter22"}`, username, email)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Data authResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.Data.Token)

	userID, err := testIssuer().Verify(resp.Data.Token)
	require.NoError(t, err)
	require.Equal(t, 7, userID)

	userRepo.AssertExpectations(t)
}

func TestRegisterDuplicateAccount(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(userRepo, testIssuer())
	router := setupAuthRouter(handler)

	userRepo.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(models.User{}, repositories.ErrUserExists).Once()

	body := `{"username":"alice","email":"alice@example.com","password":"hunter22"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestRegisterShortPassword(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(userRepo, testIssuer())
	router := setupAuthRouter(handler)

	body := `{"username":"alice","email":"alice@example.com","password":"ab"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginSuccess(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(userRepo, testIssuer())
	router := setupAuthRouter(handler)

	hash, err := auth.HashPassword("hunter22")
	require.NoError(t, err)
	userRepo.On("GetByUsername", mock.Anything, "alice").
		Return(models.User{ID: 3, Username: "alice", PasswordHash: hash}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username":"alice","password":"hunter22"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(userRepo, testIssuer())
	router := setupAuthRouter(handler)

	hash, err := auth.HashPassword("hunter22")
	require.NoError(t, err)
	userRepo.On("GetByUsername", mock.Anything, "alice").
		Return(models.User{ID: 3, Username: "alice", PasswordHash: hash}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username":"alice","password":"nope"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(userRepo, testIssuer())
	router := setupAuthRouter(handler)

	userRepo.On("GetByUsername", mock.Anything, "ghost").
		Return(models.User{}, repositories.ErrUserNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username":"ghost","password":"whatever"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// Same status and message as a wrong password.
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
