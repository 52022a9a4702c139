package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pushp314/qrtrack-backend/internal/models"
	"github.com/pushp314/qrtrack-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestStore initializes an in-memory SQLite DB for testing
func setupTestStore(t *testing.T) *RecordStore {
	t.Helper()
	logger.Init("test")

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}

	// Single connection keeps sqlite happy under the concurrency test;
	// the atomicity property comes from the single-statement UPDATE,
	// not from connection scheduling.
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.QRCode{}, &models.ScanLog{}); err != nil {
		t.Fatalf("Failed to migrate test DB: %v", err)
	}
	return NewRecordStore(db)
}

func createDynamicCode(t *testing.T, store *RecordStore, shortID, target string) *models.QRCode {
	t.Helper()
	code := &models.QRCode{
		QRType:      models.QRTypeDynamic,
		Content:     "http://localhost:8080/r/" + shortID + "?scan_ref=qr",
		ShortID:     &shortID,
		RedirectURL: &target,
	}
	if err := store.CreateQRCode(context.Background(), code); err != nil {
		t.Fatalf("Failed to create test code: %v", err)
	}
	return code
}

func TestFindByShortID(t *testing.T) {
	store := setupTestStore(t)
	created := createDynamicCode(t, store, "a1b2c3d4", "https://example.org/landing")

	found, err := store.FindByShortID(context.Background(), "a1b2c3d4")
	assert.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = store.FindByShortID(context.Background(), "ffffffff")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestCreateQRCode_DuplicateShortID(t *testing.T) {
	store := setupTestStore(t)
	createDynamicCode(t, store, "a1b2c3d4", "https://example.org/one")

	shortID := "a1b2c3d4"
	target := "https://example.org/two"
	dup := &models.QRCode{
		QRType:      models.QRTypeDynamic,
		Content:     "http://localhost:8080/r/a1b2c3d4?scan_ref=qr",
		ShortID:     &shortID,
		RedirectURL: &target,
	}
	err := store.CreateQRCode(context.Background(), dup)
	assert.ErrorIs(t, err, ErrDuplicateShortID)
}

func TestAtomicIncrementScan_Counters(t *testing.T) {
	store := setupTestStore(t)
	code := createDynamicCode(t, store, "a1b2c3d4", "https://example.org/landing")
	ctx := context.Background()

	t1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t2.Add(time.Hour)

	// genuine, direct, genuine
	assert.NoError(t, store.AtomicIncrementScan(ctx, code.ID, t1, true))
	assert.NoError(t, store.AtomicIncrementScan(ctx, code.ID, t2, false))
	assert.NoError(t, store.AtomicIncrementScan(ctx, code.ID, t3, true))

	updated, err := store.GetQRCode(ctx, code.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), updated.ScanCount)
	assert.Equal(t, int64(2), updated.GenuineScanCount)
	assert.True(t, updated.GenuineScanCount <= updated.ScanCount)

	// First genuine stays at t1, last genuine and last scan advance to t3
	assert.Equal(t, t1, updated.FirstGenuineScanAt.UTC())
	assert.Equal(t, t3, updated.LastGenuineScanAt.UTC())
	assert.Equal(t, t3, updated.LastScanAt.UTC())
}

func TestAtomicIncrementScan_DirectOnlyLeavesGenuineFieldsNull(t *testing.T) {
	store := setupTestStore(t)
	code := createDynamicCode(t, store, "a1b2c3d4", "https://example.org/landing")
	ctx := context.Background()

	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	assert.NoError(t, store.AtomicIncrementScan(ctx, code.ID, ts, false))

	updated, _ := store.GetQRCode(ctx, code.ID)
	assert.Equal(t, int64(1), updated.ScanCount)
	assert.Equal(t, int64(0), updated.GenuineScanCount)
	assert.Nil(t, updated.FirstGenuineScanAt)
	assert.Nil(t, updated.LastGenuineScanAt)
	assert.NotNil(t, updated.LastScanAt)
}

func TestAtomicIncrementScan_NotFound(t *testing.T) {
	store := setupTestStore(t)
	err := store.AtomicIncrementScan(context.Background(), "no-such-id", time.Now().UTC(), true)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestAtomicIncrementScan_NoLostUpdatesUnderConcurrency(t *testing.T) {
	store := setupTestStore(t)
	code := createDynamicCode(t, store, "a1b2c3d4", "https://example.org/landing")
	ctx := context.Background()

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(genuine bool) {
			defer wg.Done()
			assert.NoError(t, store.AtomicIncrementScan(ctx, code.ID, time.Now().UTC(), genuine))
		}(i%2 == 0)
	}
	wg.Wait()

	updated, err := store.GetQRCode(ctx, code.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(n), updated.ScanCount)
	assert.Equal(t, int64(n/2), updated.GenuineScanCount)
}

func TestDeleteQRCode_CascadesScanLogs(t *testing.T) {
	store := setupTestStore(t)
	code := createDynamicCode(t, store, "a1b2c3d4", "https://example.org/landing")
	ctx := context.Background()

	assert.NoError(t, store.InsertScanLog(ctx, &models.ScanLog{
		QRCodeID:  code.ID,
		ScannedAt: time.Now().UTC(),
	}))

	assert.NoError(t, store.DeleteQRCode(ctx, code.ID))

	_, err := store.GetQRCode(ctx, code.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	logs, total, err := store.ListScanLogs(ctx, code.ID, 1, 10)
	assert.NoError(t, err)
	assert.Empty(t, logs)
	assert.Equal(t, int64(0), total)
}

func TestSummarize(t *testing.T) {
	store := setupTestStore(t)
	code := createDynamicCode(t, store, "a1b2c3d4", "https://example.org/landing")
	ctx := context.Background()

	entries := []models.ScanLog{
		{QRCodeID: code.ID, ScannedAt: time.Now().UTC(), DeviceFamily: "iPhone", OSFamily: "iOS", BrowserFamily: "Safari", IsMobile: true, IsGenuineScan: true},
		{QRCodeID: code.ID, ScannedAt: time.Now().UTC(), DeviceFamily: "iPhone", OSFamily: "iOS", BrowserFamily: "Safari", IsMobile: true},
		{QRCodeID: code.ID, ScannedAt: time.Now().UTC(), DeviceFamily: "Unknown", OSFamily: "Windows", BrowserFamily: "Chrome", IsPC: true},
		{QRCodeID: code.ID, ScannedAt: time.Now().UTC(), DeviceFamily: "Spider", OSFamily: "Unknown", BrowserFamily: "Unknown", IsBot: true},
	}
	for i := range entries {
		assert.NoError(t, store.InsertScanLog(ctx, &entries[i]))
	}

	summary, err := store.Summarize(ctx, code.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), summary.BotScans)
	assert.Len(t, summary.Devices, 3)
	// Biggest bucket first
	assert.Equal(t, "iPhone", summary.Devices[0].Family)
	assert.Equal(t, int64(2), summary.Devices[0].Count)
}
