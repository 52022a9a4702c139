package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/pushp314/qrtrack-backend/internal/handlers"
	"github.com/pushp314/qrtrack-backend/internal/middleware"
)

// RegisterRedirectRoutes registers the public short-id redirect route
func RegisterRedirectRoutes(r *gin.Engine, h *handlers.RedirectHandler) {
	r.GET("/r/:shortId", middleware.RedirectRateLimit(), h.Redirect)
}
