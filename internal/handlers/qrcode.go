package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/qrtrack-backend/internal/database"
	"github.com/pushp314/qrtrack-backend/internal/models"
	"github.com/pushp314/qrtrack-backend/internal/services"
	"github.com/pushp314/qrtrack-backend/pkg/logger"
	"github.com/pushp314/qrtrack-backend/pkg/utils"
)

const (
	maxContentLength       = 2048
	shortIDCreateAttempts  = 5
	analyticsCacheDuration = 60 * time.Second
)

// QRCodeHandler carries the injected collaborators for the CRUD/analytics
// surface. No ambient globals besides the redis cache helpers.
type QRCodeHandler struct {
	store   *services.RecordStore
	policy  utils.RedirectPolicy
	baseURL string
}

func NewQRCodeHandler(store *services.RecordStore, policy utils.RedirectPolicy, baseURL string) *QRCodeHandler {
	return &QRCodeHandler{
		store:   store,
		policy:  policy,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type createQRCodeInput struct {
	QRType      string `json:"qrType" binding:"required,oneof=static dynamic"`
	Content     string `json:"content"`
	RedirectURL string `json:"redirectUrl"`
	Title       string `json:"title"`
	Description string `json:"description"`
	FillColor   string `json:"fillColor"`
	BackColor   string `json:"backColor"`
	Size        int    `json:"size"`
	Border      int    `json:"border"`
	ErrorLevel  string `json:"errorLevel"`
}

// CreateQRCode handles POST /api/qrcodes
func (h *QRCodeHandler) CreateQRCode(c *gin.Context) {
	var input createQRCodeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	ownerID, _ := c.Get("userId")
	ownerIDStr, _ := ownerID.(string)

	code := models.QRCode{
		QRType:      models.QRType(input.QRType),
		Title:       input.Title,
		Description: input.Description,
		FillColor:   defaultString(input.FillColor, "#000000"),
		BackColor:   defaultString(input.BackColor, "#FFFFFF"),
		Size:        defaultInt(input.Size, 256),
		Border:      input.Border,
		ErrorLevel:  defaultString(input.ErrorLevel, models.ErrorLevelMedium),
		OwnerID:     ownerIDStr,
	}

	switch code.QRType {
	case models.QRTypeStatic:
		if input.Content == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Static QR codes require content"})
			return
		}
		if len(input.Content) > maxContentLength {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Content exceeds 2048 characters"})
			return
		}
		code.Content = input.Content

	case models.QRTypeDynamic:
		if input.RedirectURL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Dynamic QR codes require a redirect URL"})
			return
		}
		if !h.policy.IsSafeRedirectURL(input.RedirectURL) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Redirect URL not permitted"})
			return
		}
		redirectURL := input.RedirectURL
		code.RedirectURL = &redirectURL
	}

	// Dynamic codes need a unique short id; the DB unique index is the
	// arbiter, so regenerate and retry on a duplicate-key answer.
	var err error
	for attempt := 0; attempt < shortIDCreateAttempts; attempt++ {
		if code.QRType == models.QRTypeDynamic {
			shortID := utils.GenerateShortID()
			code.ShortID = &shortID
			code.Content = fmt.Sprintf("%s/r/%s?%s=%s", h.baseURL, shortID, "scan_ref", "qr")
		}

		err = h.store.CreateQRCode(c.Request.Context(), &code)
		if !errors.Is(err, services.ErrDuplicateShortID) {
			break
		}
		logger.Warn().Str("short_id", *code.ShortID).Msg("Short id collision, regenerating")
		code.ID = "" // let BeforeCreate assign a fresh id on the next attempt
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create QR code"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"qrcode": code})
}

// ListQRCodes handles GET /api/qrcodes
func (h *QRCodeHandler) ListQRCodes(c *gin.Context) {
	page, perPage := pagination(c)
	ownerID := c.Query("owner")

	search := ""
	if raw := c.Query("search"); strings.TrimSpace(raw) != "" {
		search = utils.SanitizeSearchQuery(raw)
	}

	codes, total, err := h.store.ListQRCodes(c.Request.Context(), ownerID, search, page, perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch QR codes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"qrcodes": codes,
		"total":   total,
		"page":    page,
		"perPage": perPage,
	})
}

// GetQRCode handles GET /api/qrcodes/:id
func (h *QRCodeHandler) GetQRCode(c *gin.Context) {
	code, ok := h.loadCode(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"qrcode": code})
}

type updateQRCodeInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	RedirectURL *string `json:"redirectUrl"`
	FillColor   *string `json:"fillColor"`
	BackColor   *string `json:"backColor"`
	Size        *int    `json:"size"`
	Border      *int    `json:"border"`
	ErrorLevel  *string `json:"errorLevel"`
}

// UpdateQRCode handles PATCH /api/qrcodes/:id. The redirect target of a
// dynamic code can change without reissuing the printed symbol; that is
// the whole point of dynamic codes. qrType, shortId and counters are
// immutable through this endpoint.
func (h *QRCodeHandler) UpdateQRCode(c *gin.Context) {
	code, ok := h.loadCode(c)
	if !ok {
		return
	}

	var input updateQRCodeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.FillColor != nil {
		updates["fill_color"] = *input.FillColor
	}
	if input.BackColor != nil {
		updates["back_color"] = *input.BackColor
	}
	if input.Size != nil {
		updates["size"] = *input.Size
	}
	if input.Border != nil {
		updates["border"] = *input.Border
	}
	if input.ErrorLevel != nil {
		updates["error_level"] = *input.ErrorLevel
	}

	if input.RedirectURL != nil {
		if code.QRType != models.QRTypeDynamic {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Static QR codes cannot have a redirect URL"})
			return
		}
		if !h.policy.IsSafeRedirectURL(*input.RedirectURL) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Redirect URL not permitted"})
			return
		}
		updates["redirect_url"] = *input.RedirectURL
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No updatable fields provided"})
		return
	}

	updated, err := h.store.UpdateQRCode(c.Request.Context(), code.ID, updates)
	if err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "QR code not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update QR code"})
		return
	}

	database.CacheInvalidate(database.AnalyticsCacheKey(code.ID))

	c.JSON(http.StatusOK, gin.H{"qrcode": updated})
}

// DeleteQRCode handles DELETE /api/qrcodes/:id (scan logs go with it)
func (h *QRCodeHandler) DeleteQRCode(c *gin.Context) {
	code, ok := h.loadCode(c)
	if !ok {
		return
	}

	if err := h.store.DeleteQRCode(c.Request.Context(), code.ID); err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "QR code not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete QR code"})
		return
	}

	database.CacheInvalidate(database.AnalyticsCacheKey(code.ID))

	c.JSON(http.StatusOK, gin.H{"message": "QR code deleted"})
}

// ListScans handles GET /api/qrcodes/:id/scans
func (h *QRCodeHandler) ListScans(c *gin.Context) {
	code, ok := h.loadCode(c)
	if !ok {
		return
	}

	page, perPage := pagination(c)
	logs, total, err := h.store.ListScanLogs(c.Request.Context(), code.ID, page, perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch scan logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"scans":   logs,
		"total":   total,
		"page":    page,
		"perPage": perPage,
	})
}

// Analytics handles GET /api/qrcodes/:id/analytics with a short redis cache
func (h *QRCodeHandler) Analytics(c *gin.Context) {
	code, ok := h.loadCode(c)
	if !ok {
		return
	}

	cacheKey := database.AnalyticsCacheKey(code.ID)
	var cached services.AnalyticsSummary
	if err := database.CacheGet(cacheKey, &cached); err == nil {
		c.JSON(http.StatusOK, gin.H{"analytics": cached, "cached": true})
		return
	}

	summary, err := h.store.Summarize(c.Request.Context(), code.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics"})
		return
	}

	if err := database.CacheSet(cacheKey, summary, analyticsCacheDuration); err != nil {
		logger.Debug().Err(err).Msg("Analytics cache write skipped")
	}

	c.JSON(http.StatusOK, gin.H{"analytics": summary, "cached": false})
}

// -- Helpers -- //

func (h *QRCodeHandler) loadCode(c *gin.Context) (*models.QRCode, bool) {
	id := c.Param("id")
	if !utils.IsUUID(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "QR code not found"})
		return nil, false
	}

	code, err := h.store.GetQRCode(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "QR code not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch QR code"})
		}
		return nil, false
	}
	return code, true
}

func pagination(c *gin.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("perPage", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func defaultInt(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
