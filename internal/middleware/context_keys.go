package middleware

import (
	"github.com/gin-gonic/gin"
)

// userIDKey is the key used to store the acting user's ID in the Gin context.
// Using a custom type prevents collisions.
const userIDKey = contextKey("userID")

// actorHeader carries the acting user's identity from the ERP shell.
// Authentication happens upstream; the ledger core only records the actor.
const actorHeader = "X-Actor-ID"

// ActorMiddleware resolves the acting user for audit fields from the
// request header, falling back to "system" for internal callers.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader(actorHeader)
		if actor == "" {
			actor = "system"
		}
		c.Set(string(userIDKey), actor)
		c.Next()
	}
}

// GetUserIDFromContext retrieves the acting user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userIDVal, exists := c.Get(string(userIDKey))
	if !exists {
		return "", false
	}

	userID, ok := userIDVal.(string)
	if !ok {
		return "", false
	}

	return userID, true
}
