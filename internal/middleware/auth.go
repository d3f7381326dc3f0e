package middleware

import (
	"errors"
	"net/http"
	"strings"

	pkgAuth "sequence-service/pkg/auth"

	"github.com/gin-gonic/gin"
)

const (
	ContextRoomCodeKey = "roomCode"
	ContextPlayerIDKey = "playerID"
	ContextTokenKey    = "sessionToken"
)

// SessionRequired gates room-scoped endpoints behind the reconnect token
// handed out at join time.
func SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		claims, err := pkgAuth.ParseReconnectToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextRoomCodeKey, claims.RoomCode)
		c.Set(ContextPlayerIDKey, claims.PlayerID)
		c.Set(ContextTokenKey, token)
		c.Next()
	}
}

func extractBearerToken(authHeader string) (string, error) {
	if strings.TrimSpace(authHeader) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
