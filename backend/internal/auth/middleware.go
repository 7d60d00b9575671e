package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"flock/backend/pkg/logger"
)

// contextUserKey is where the middleware stores the verified caller
const contextUserKey = "auth_user"

// Middleware returns a gin middleware that verifies the Bearer token and
// injects the caller identity into the request context. Requests without
// a valid token are rejected with 401.
func Middleware(verifier *Verifier) gin.HandlerFunc {
	log := logger.Get()

	return func(c *gin.Context) {
		token := extractBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		user, err := verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			log.Debug("Token verification failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(contextUserKey, *user)
		c.Next()
	}
}

// UserFromContext returns the verified caller set by Middleware
func UserFromContext(c *gin.Context) (User, bool) {
	val, ok := c.Get(contextUserKey)
	if !ok {
		return User{}, false
	}
	user, ok := val.(User)
	return user, ok
}

// SetContextUser injects a caller identity directly; used by handler tests
func SetContextUser(c *gin.Context, user User) {
	c.Set(contextUserKey, user)
}

// extractBearerToken pulls the token out of an Authorization header,
// returning "" unless the header is exactly "Bearer <token>"
func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
