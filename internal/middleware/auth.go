package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"skillscape-chat/internal/auth"
)

// AuthMiddleware validates the Authorization header and stores the
// authenticated user id in the request context.
func AuthMiddleware(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false, "statusCode": http.StatusUnauthorized, "message": "missing authorization",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false, "statusCode": http.StatusUnauthorized, "message": "invalid authorization header",
			})
			return
		}

		userID, err := issuer.Verify(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false, "statusCode": http.StatusUnauthorized, "message": "invalid token",
			})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
