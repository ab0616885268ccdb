package ws

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func contextForRequest(req *http.Request) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req
	return c
}

func TestBearerTokenFromHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", bearerToken(contextForRequest(req)))
}

func TestBearerTokenMalformedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "abc123")
	assert.Equal(t, "", bearerToken(contextForRequest(req)))
}

func TestBearerTokenMalformedHeaderFallsThrough(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws?token=abc123", nil)
	req.Header.Set("Authorization", "NotBearer xyz")
	assert.Equal(t, "abc123", bearerToken(contextForRequest(req)))

	req = httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "Bearer")
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "abc123"})
	assert.Equal(t, "abc123", bearerToken(contextForRequest(req)))
}

func TestBearerTokenFromQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws?token=abc123", nil)
	assert.Equal(t, "abc123", bearerToken(contextForRequest(req)))
}

func TestBearerTokenFromCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "abc123"})
	assert.Equal(t, "abc123", bearerToken(contextForRequest(req)))
}

func TestBearerTokenMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.Equal(t, "", bearerToken(contextForRequest(req)))
}
