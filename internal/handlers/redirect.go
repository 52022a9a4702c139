package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/qrtrack-backend/internal/services"
	"github.com/pushp314/qrtrack-backend/pkg/utils"
)

// Marker query parameter embedded only in the QR-encoded URL, not in the
// human-shareable link. Presence means "scanned with a camera". This is a
// best-effort analytics heuristic, never a security signal.
const (
	scanRefParam = "scan_ref"
	scanRefValue = "qr"
)

// RedirectHandler serves GET /r/:shortId. Resolution is synchronous and
// blocks the response; statistics recording is handed to the recorder's
// queue after the redirect is already committed.
type RedirectHandler struct {
	resolver *services.RedirectResolver
	recorder *services.ScanRecorder
}

func NewRedirectHandler(resolver *services.RedirectResolver, recorder *services.ScanRecorder) *RedirectHandler {
	return &RedirectHandler{resolver: resolver, recorder: recorder}
}

// Redirect resolves a short identifier and issues a 302
func (h *RedirectHandler) Redirect(c *gin.Context) {
	resolution, err := h.resolver.Resolve(c.Request.Context(), c.Param("shortId"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRecordNotFound):
			// Malformed and absent ids answer identically (anti-enumeration)
			c.JSON(http.StatusNotFound, gin.H{"detail": "QR code not found"})
		case errors.Is(err, services.ErrNotConfigured):
			c.JSON(http.StatusBadRequest, gin.H{"detail": "QR code not configured for redirects"})
		case errors.Is(err, services.ErrUnsafeRedirect):
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Redirect not permitted"})
		case errors.Is(err, services.ErrStoreUnavailable):
			c.Header("Retry-After", "30")
			c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Service temporarily unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		}
		return
	}

	task := services.ScanTask{
		QRID:         resolution.QRID,
		Timestamp:    time.Now().UTC(),
		ClientIP:     utils.ClientIP(c.Request),
		RawUserAgent: c.Request.UserAgent(),
		IsGenuine:    c.Query(scanRefParam) == scanRefValue,
	}

	c.Redirect(http.StatusFound, resolution.TargetURL)

	// After this point the task's fate is invisible to the client
	h.recorder.Enqueue(task)
}
