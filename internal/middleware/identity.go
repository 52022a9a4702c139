package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Authentication lives in the reverse proxy in front of this service
// (oauth2-proxy style). It injects the authenticated principal as headers;
// we only read them. There is no token handling here on purpose.

const (
	headerAuthUser      = "X-Auth-Request-User"
	headerForwardedUser = "X-Forwarded-User"
)

// IdentityMiddleware extracts the proxy-injected identity into the context.
// Requests without identity pass through; handlers that need one use
// RequireIdentity.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := strings.TrimSpace(c.GetHeader(headerAuthUser))
		if user == "" {
			user = strings.TrimSpace(c.GetHeader(headerForwardedUser))
		}
		if user != "" {
			c.Set("userId", user)
		}
		c.Next()
	}
}

// RequireIdentity blocks requests that arrived without a proxy identity
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get("userId"); !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Identity header missing"})
			c.Abort()
			return
		}
		c.Next()
	}
}
