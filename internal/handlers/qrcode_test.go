package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/qrtrack-backend/internal/models"
	"github.com/pushp314/qrtrack-backend/internal/services"
	"github.com/pushp314/qrtrack-backend/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func newQRTestHandler(t *testing.T, policy utils.RedirectPolicy) (*QRCodeHandler, *services.RecordStore) {
	t.Helper()
	store := SetupTestDB(t)
	return NewQRCodeHandler(store, policy, "http://localhost:8080"), store
}

func performJSON(h gin.HandlerFunc, method, path string, payload interface{}, params gin.Params) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(method, path, body)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params
	c.Set("userId", "ops@example.org")
	h(c)
	return w
}

func TestCreateQRCode_Dynamic(t *testing.T) {
	h, _ := newQRTestHandler(t, utils.RedirectPolicy{})

	w := performJSON(h.CreateQRCode, "POST", "/api/qrcodes", gin.H{
		"qrType":      "dynamic",
		"redirectUrl": "https://example.org/landing",
		"title":       "Landing",
	}, nil)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		QRCode models.QRCode `json:"qrcode"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	code := resp.QRCode
	assert.Equal(t, models.QRTypeDynamic, code.QRType)
	if assert.NotNil(t, code.ShortID) {
		assert.True(t, utils.IsValidShortID(*code.ShortID))
		assert.Contains(t, code.Content, "/r/"+*code.ShortID)
		assert.Contains(t, code.Content, "scan_ref=qr")
	}
	assert.Equal(t, "ops@example.org", code.OwnerID)
	assert.Equal(t, int64(0), code.ScanCount)
}

func TestCreateQRCode_Static(t *testing.T) {
	h, _ := newQRTestHandler(t, utils.RedirectPolicy{})

	w := performJSON(h.CreateQRCode, "POST", "/api/qrcodes", gin.H{
		"qrType":  "static",
		"content": "wifi:WPA;S:cafe;P:secret;;",
	}, nil)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		QRCode models.QRCode `json:"qrcode"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Nil(t, resp.QRCode.ShortID)
	assert.Nil(t, resp.QRCode.RedirectURL)
}

func TestCreateQRCode_Validation(t *testing.T) {
	h, _ := newQRTestHandler(t, utils.RedirectPolicy{BlockedHosts: []string{"evil.example"}})

	cases := []gin.H{
		{"qrType": "banner"},                                            // bad type
		{"qrType": "static"},                                            // static needs content
		{"qrType": "dynamic"},                                           // dynamic needs redirectUrl
		{"qrType": "dynamic", "redirectUrl": "ftp://example.org/x"},     // bad scheme
		{"qrType": "dynamic", "redirectUrl": "https://evil.example/x"},  // blocked host
		{"qrType": "static", "content": strings.Repeat("a", 3000)},      // too long
	}
	for i, payload := range cases {
		w := performJSON(h.CreateQRCode, "POST", "/api/qrcodes", payload, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "case %d", i)
	}
}

func TestGetQRCode(t *testing.T) {
	h, store := newQRTestHandler(t, utils.RedirectPolicy{})
	code := mustCreateDynamic(t, store, "a1b2c3d4", "https://example.org/landing")

	w := performJSON(h.GetQRCode, "GET", "/api/qrcodes/"+code.ID, nil,
		gin.Params{{Key: "id", Value: code.ID}})
	assert.Equal(t, http.StatusOK, w.Code)

	// Invalid uuid answers exactly like a miss
	w = performJSON(h.GetQRCode, "GET", "/api/qrcodes/not-a-uuid", nil,
		gin.Params{{Key: "id", Value: "not-a-uuid"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateQRCode_RedirectTarget(t *testing.T) {
	h, store := newQRTestHandler(t, utils.RedirectPolicy{BlockedHosts: []string{"evil.example"}})
	code := mustCreateDynamic(t, store, "a1b2c3d4", "https://example.org/old")

	w := performJSON(h.UpdateQRCode, "PATCH", "/api/qrcodes/"+code.ID, gin.H{
		"redirectUrl": "https://example.org/new",
		"title":       "Updated",
	}, gin.Params{{Key: "id", Value: code.ID}})
	assert.Equal(t, http.StatusOK, w.Code)

	reloaded, _ := store.GetQRCode(context.Background(), code.ID)
	assert.Equal(t, "https://example.org/new", *reloaded.RedirectURL)
	assert.Equal(t, "Updated", reloaded.Title)
	// Short id survives a retarget: that is the point of dynamic codes
	assert.Equal(t, "a1b2c3d4", *reloaded.ShortID)

	// Retarget to a blocked host is refused
	w = performJSON(h.UpdateQRCode, "PATCH", "/api/qrcodes/"+code.ID, gin.H{
		"redirectUrl": "https://evil.example/phish",
	}, gin.Params{{Key: "id", Value: code.ID}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateQRCode_StaticCannotGetRedirect(t *testing.T) {
	h, store := newQRTestHandler(t, utils.RedirectPolicy{})

	static := &models.QRCode{QRType: models.QRTypeStatic, Content: "plain"}
	assert.NoError(t, store.CreateQRCode(context.Background(), static))

	w := performJSON(h.UpdateQRCode, "PATCH", "/api/qrcodes/"+static.ID, gin.H{
		"redirectUrl": "https://example.org/x",
	}, gin.Params{{Key: "id", Value: static.ID}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteQRCode(t *testing.T) {
	h, store := newQRTestHandler(t, utils.RedirectPolicy{})
	code := mustCreateDynamic(t, store, "a1b2c3d4", "https://example.org/landing")

	assert.NoError(t, store.InsertScanLog(context.Background(), &models.ScanLog{
		QRCodeID:  code.ID,
		ScannedAt: time.Now().UTC(),
	}))

	w := performJSON(h.DeleteQRCode, "DELETE", "/api/qrcodes/"+code.ID, nil,
		gin.Params{{Key: "id", Value: code.ID}})
	assert.Equal(t, http.StatusOK, w.Code)

	_, err := store.GetQRCode(context.Background(), code.ID)
	assert.ErrorIs(t, err, services.ErrRecordNotFound)

	_, total, _ := store.ListScanLogs(context.Background(), code.ID, 1, 10)
	assert.Equal(t, int64(0), total)

	// Deleting again is a 404
	w = performJSON(h.DeleteQRCode, "DELETE", "/api/qrcodes/"+code.ID, nil,
		gin.Params{{Key: "id", Value: code.ID}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListQRCodes_Pagination(t *testing.T) {
	h, store := newQRTestHandler(t, utils.RedirectPolicy{})
	mustCreateDynamic(t, store, "a1b2c3d4", "https://example.org/1")
	mustCreateDynamic(t, store, "b1b2c3d4", "https://example.org/2")
	mustCreateDynamic(t, store, "c1b2c3d4", "https://example.org/3")

	w := performJSON(h.ListQRCodes, "GET", "/api/qrcodes?page=1&perPage=2", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		QRCodes []models.QRCode `json:"qrcodes"`
		Total   int64           `json:"total"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Len(t, resp.QRCodes, 2)
	assert.Equal(t, int64(3), resp.Total)
}

func TestListQRCodes_Search(t *testing.T) {
	h, store := newQRTestHandler(t, utils.RedirectPolicy{})

	spring := mustCreateDynamic(t, store, "a1b2c3d4", "https://example.org/1")
	spring.Title = "Spring Campaign"
	assert.NoError(t, testDB.Save(spring).Error)

	autumn := mustCreateDynamic(t, store, "b1b2c3d4", "https://example.org/2")
	autumn.Title = "Autumn 100% Off"
	assert.NoError(t, testDB.Save(autumn).Error)

	w := performJSON(h.ListQRCodes, "GET", "/api/qrcodes?search=spring", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		QRCodes []models.QRCode `json:"qrcodes"`
		Total   int64           `json:"total"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if assert.Len(t, resp.QRCodes, 1) {
		assert.Equal(t, "Spring Campaign", resp.QRCodes[0].Title)
	}

	// Wildcards in the search term are literals, not patterns
	w = performJSON(h.ListQRCodes, "GET", "/api/qrcodes?search=100%25+Off", nil, nil)
	json.Unmarshal(w.Body.Bytes(), &resp)
	if assert.Len(t, resp.QRCodes, 1) {
		assert.Equal(t, "Autumn 100% Off", resp.QRCodes[0].Title)
	}
}

func TestAnalytics(t *testing.T) {
	h, store := newQRTestHandler(t, utils.RedirectPolicy{})
	code := mustCreateDynamic(t, store, "a1b2c3d4", "https://example.org/landing")

	ctx := context.Background()
	ts := time.Now().UTC()
	assert.NoError(t, store.AtomicIncrementScan(ctx, code.ID, ts, true))
	assert.NoError(t, store.AtomicIncrementScan(ctx, code.ID, ts, false))
	assert.NoError(t, store.InsertScanLog(ctx, &models.ScanLog{
		QRCodeID: code.ID, ScannedAt: ts, DeviceFamily: "iPhone", OSFamily: "iOS",
		BrowserFamily: "Safari", IsMobile: true, IsGenuineScan: true,
	}))

	w := performJSON(h.Analytics, "GET", "/api/qrcodes/"+code.ID+"/analytics", nil,
		gin.Params{{Key: "id", Value: code.ID}})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Analytics services.AnalyticsSummary `json:"analytics"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, int64(2), resp.Analytics.ScanCount)
	assert.Equal(t, int64(1), resp.Analytics.GenuineScanCount)
}

func TestImage(t *testing.T) {
	h, store := newQRTestHandler(t, utils.RedirectPolicy{})
	code := mustCreateDynamic(t, store, "a1b2c3d4", "https://example.org/landing")

	w := performJSON(h.Image, "GET", "/api/qrcodes/"+code.ID+"/image", nil,
		gin.Params{{Key: "id", Value: code.ID}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())
}
