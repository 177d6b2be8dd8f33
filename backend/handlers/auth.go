package handlers

import (
	"github.com/gin-gonic/gin"

	"flip7server/backend/auth"
)

// AuthenticatedUserIDKey is the gin context key OptionalAuth sets when a
// request carries a valid bearer token.
const AuthenticatedUserIDKey = "authenticated_user_id"

// OptionalAuth decodes an Authorization header if present and attaches the
// verified user id to the request context. A missing or invalid token is
// never an error here - per spec, authentication is advisory for both the
// REST fallback and the WebSocket gateway; unauthenticated ("guest")
// requests are first-class.
func OptionalAuth(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, err := auth.ExtractBearer(header)
		if err == nil {
			if userID, verr := verifier.Verify(token); verr == nil {
				c.Set(AuthenticatedUserIDKey, userID)
			}
		}
		c.Next()
	}
}
