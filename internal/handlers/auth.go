package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"skillscape-chat/internal/auth"
	"skillscape-chat/internal/models"
	"skillscape-chat/internal/repositories"
)

// AuthHandler manages account registration and login.
type AuthHandler struct {
	userRepo repositories.UserRepository
	issuer   *auth.TokenIssuer
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(userRepo repositories.UserRepository, issuer *auth.TokenIssuer) *AuthHandler {
	return &AuthHandler{userRepo: userRepo, issuer: issuer}
}

type authResponse struct {
	Token string         `json:"token"`
	User  models.Profile `json:"user"`
}

// Register creates an account and returns a session token.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid registration payload")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if len(req.Username) < 3 || len(req.Username) > 32 {
		respondError(c, http.StatusBadRequest, "username must be 3-32 characters")
		return
	}
	if len(req.Password) < 6 {
		respondError(c, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not create account")
		return
	}

	user, err := h.userRepo.Create(c.Request.Context(), req.Username, req.Email, hash)
	if err != nil {
		if errors.Is(err, repositories.ErrUserExists) {
			respondError(c, http.StatusConflict, "username or email already taken")
			return
		}
		respondError(c, http.StatusInternalServerError, "could not create account")
		return
	}

	token, err := h.issuer.Issue(user.ID, user.Username)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not issue token")
		return
	}

	respond(c, http.StatusCreated, authResponse{
		Token: token,
		User:  models.Profile{ID: user.ID, Username: user.Username},
	}, "account created")
}

// Login verifies credentials and returns a session token. Unknown user and
// wrong password produce the same message.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid login payload")
		return
	}

	user, err := h.userRepo.GetByUsername(c.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			respondError(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondError(c, http.StatusInternalServerError, "could not log in")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.issuer.Issue(user.ID, user.Username)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not issue token")
		return
	}

	respond(c, http.StatusOK, authResponse{
		Token: token,
		User:  models.Profile{ID: user.ID, Username: user.Username},
	}, "logged in")
}
