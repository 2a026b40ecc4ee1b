package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

// requireAuth validates the bearer token and stores the caller's user
// id in the request context.
func (s *Server) requireAuth(c *gin.Context) {
	raw := strings.TrimSpace(c.GetHeader("Authorization"))
	raw = strings.TrimPrefix(raw, "Bearer ")
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "missing token"})
		return
	}

	userID, err := s.tokens.Parse(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "token is not valid"})
		return
	}

	c.Set(userIDKey, userID)
	c.Next()
}

func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
