package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders adds various security headers to the response
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Strict Transport Security (HSTS) - 1 year, include subdomains
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")

		// Clickjacking protection
		c.Header("X-Frame-Options", "DENY")

		// MIME type sniffing protection
		c.Header("X-Content-Type-Options", "nosniff")

		// Referrer Policy: redirect targets must not learn scan URLs
		c.Header("Referrer-Policy", "no-referrer")

		c.Next()
	}
}
