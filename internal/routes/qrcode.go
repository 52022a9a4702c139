package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/pushp314/qrtrack-backend/internal/handlers"
	"github.com/pushp314/qrtrack-backend/internal/middleware"
)

// RegisterQRCodeRoutes registers the CRUD + analytics JSON API.
// The group already carries identity extraction; mutations and analytics
// additionally require an authenticated principal from the proxy.
func RegisterQRCodeRoutes(api gin.IRouter, h *handlers.QRCodeHandler) {
	qr := api.Group("/qrcodes")

	// Image rendering is public (the printed symbol is public by nature)
	qr.GET("/:id/image", middleware.ImageRateLimit(), h.Image)

	authed := qr.Group("")
	authed.Use(middleware.RequireIdentity())
	{
		authed.POST("", h.CreateQRCode)
		authed.GET("", h.ListQRCodes)
		authed.GET("/:id", h.GetQRCode)
		authed.PATCH("/:id", h.UpdateQRCode)
		authed.DELETE("/:id", h.DeleteQRCode)
		authed.GET("/:id/scans", h.ListScans)
		authed.GET("/:id/analytics", h.Analytics)
		authed.POST("/:id/publish", h.PublishImage)
	}
}
