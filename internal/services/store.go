package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pushp314/qrtrack-backend/internal/models"
	"github.com/pushp314/qrtrack-backend/pkg/logger"
	"gorm.io/gorm"
)

// Sentinel errors the rest of the core branches on
var (
	// ErrRecordNotFound: no QR code matches (or zero rows were updated)
	ErrRecordNotFound = errors.New("qr code record not found")
	// ErrDuplicateShortID: unique index collision on short_id; caller regenerates
	ErrDuplicateShortID = errors.New("short id already in use")
	// ErrStoreUnavailable: transient persistence failure that outlived the retry budget
	ErrStoreUnavailable = errors.New("record store unavailable")
)

// Bounded retry for transient store failures. Not-found and duplicate-key are
// definitive answers and are never retried.
const storeRetryAttempts = 3

var storeRetryBackoff = []time.Duration{50 * time.Millisecond, 100 * time.Millisecond, 200 * time.Millisecond}

// RecordStore is the persistence boundary for QR codes and scan logs.
// Counters are mutated exclusively through AtomicIncrementScan; no other
// code path may read-modify-write them.
type RecordStore struct {
	db *gorm.DB
}

func NewRecordStore(db *gorm.DB) *RecordStore {
	return &RecordStore{db: db}
}

func (s *RecordStore) withRetry(op func() error) error {
	var err error
	for attempt := 0; attempt < storeRetryAttempts; attempt++ {
		err = op()
		if err == nil || errors.Is(err, ErrRecordNotFound) || errors.Is(err, ErrDuplicateShortID) {
			return err
		}
		if attempt < len(storeRetryBackoff) {
			time.Sleep(storeRetryBackoff[attempt])
		}
	}
	logger.Error().Err(err).Msg("Store operation failed after retries")
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// FindByShortID looks up a QR code by its normalized (lowercased) short token
func (s *RecordStore) FindByShortID(ctx context.Context, shortID string) (*models.QRCode, error) {
	var code models.QRCode
	err := s.withRetry(func() error {
		res := s.db.WithContext(ctx).Where("short_id = ?", shortID).First(&code)
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return res.Error
	})
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// AtomicIncrementScan bumps the counters and scan timestamps of one QR code in
// a single UPDATE statement. Concurrent scans of the same code must each land
// exactly once, so this is never implemented as fetch-then-save.
// Returns ErrRecordNotFound when zero rows match (code deleted concurrently).
func (s *RecordStore) AtomicIncrementScan(ctx context.Context, qrID string, ts time.Time, genuine bool) error {
	updates := map[string]interface{}{
		"scan_count":   gorm.Expr("scan_count + 1"),
		"last_scan_at": ts,
	}
	if genuine {
		updates["genuine_scan_count"] = gorm.Expr("genuine_scan_count + 1")
		updates["first_genuine_scan_at"] = gorm.Expr("COALESCE(first_genuine_scan_at, ?)", ts)
		updates["last_genuine_scan_at"] = ts
	}

	return s.withRetry(func() error {
		res := s.db.WithContext(ctx).Model(&models.QRCode{}).
			Where("id = ?", qrID).
			UpdateColumns(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRecordNotFound
		}
		return nil
	})
}

// InsertScanLog appends one scan-log row. Runs outside the increment's
// statement on purpose: losing a log row must never roll back a counter.
func (s *RecordStore) InsertScanLog(ctx context.Context, entry *models.ScanLog) error {
	return s.withRetry(func() error {
		return s.db.WithContext(ctx).Create(entry).Error
	})
}

// -- CRUD surface used by the JSON API -- //

func (s *RecordStore) CreateQRCode(ctx context.Context, code *models.QRCode) error {
	return s.withRetry(func() error {
		err := s.db.WithContext(ctx).Create(code).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateShortID
		}
		return err
	})
}

func (s *RecordStore) GetQRCode(ctx context.Context, id string) (*models.QRCode, error) {
	var code models.QRCode
	err := s.withRetry(func() error {
		res := s.db.WithContext(ctx).First(&code, "id = ?", id)
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return res.Error
	})
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// ListQRCodes pages through codes, optionally filtered by owner and a
// pre-sanitized title/description search pattern (see utils.SanitizeSearchQuery).
func (s *RecordStore) ListQRCodes(ctx context.Context, ownerID, search string, page, perPage int) ([]models.QRCode, int64, error) {
	var codes []models.QRCode
	var total int64

	err := s.withRetry(func() error {
		query := s.db.WithContext(ctx).Model(&models.QRCode{})
		if ownerID != "" {
			query = query.Where("owner_id = ?", ownerID)
		}
		if search != "" {
			// ESCAPE is explicit so the sanitizer's \% and \_ stay literal on
			// both postgres and the sqlite test databases
			query = query.Where(`(LOWER(title) LIKE LOWER(?) ESCAPE '\' OR LOWER(description) LIKE LOWER(?) ESCAPE '\')`, search, search)
		}
		if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
			return err
		}
		return query.Session(&gorm.Session{}).
			Order("created_at DESC").
			Offset((page - 1) * perPage).
			Limit(perPage).
			Find(&codes).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return codes, total, nil
}

// UpdateQRCode applies metadata changes. Counter columns are rejected here by
// construction: only the fields in the map are touched and the handlers never
// put counters into it.
func (s *RecordStore) UpdateQRCode(ctx context.Context, id string, updates map[string]interface{}) (*models.QRCode, error) {
	err := s.withRetry(func() error {
		res := s.db.WithContext(ctx).Model(&models.QRCode{}).
			Where("id = ?", id).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetQRCode(ctx, id)
}

// DeleteQRCode removes a code and its scan logs. The FK carries ON DELETE
// CASCADE in postgres; the explicit child delete keeps the semantics identical
// on sqlite test databases that run without foreign_keys enabled.
func (s *RecordStore) DeleteQRCode(ctx context.Context, id string) error {
	return s.withRetry(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("qr_code_id = ?", id).Delete(&models.ScanLog{}).Error; err != nil {
				return err
			}
			res := tx.Delete(&models.QRCode{}, "id = ?", id)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrRecordNotFound
			}
			return nil
		})
	})
}

func (s *RecordStore) ListScanLogs(ctx context.Context, qrID string, page, perPage int) ([]models.ScanLog, int64, error) {
	var logs []models.ScanLog
	var total int64

	err := s.withRetry(func() error {
		query := s.db.WithContext(ctx).Model(&models.ScanLog{}).Where("qr_code_id = ?", qrID)
		if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
			return err
		}
		return query.Session(&gorm.Session{}).
			Order("scanned_at DESC").
			Offset((page - 1) * perPage).
			Limit(perPage).
			Find(&logs).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// FamilyCount is one bucket of an analytics breakdown
type FamilyCount struct {
	Family string `json:"family"`
	Count  int64  `json:"count"`
}

// AnalyticsSummary aggregates scan logs for the analytics endpoint
type AnalyticsSummary struct {
	ScanCount        int64         `json:"scanCount"`
	GenuineScanCount int64         `json:"genuineScanCount"`
	BotScans         int64         `json:"botScans"`
	Devices          []FamilyCount `json:"devices"`
	OperatingSystems []FamilyCount `json:"operatingSystems"`
	Browsers         []FamilyCount `json:"browsers"`
}

func (s *RecordStore) Summarize(ctx context.Context, qrID string) (*AnalyticsSummary, error) {
	code, err := s.GetQRCode(ctx, qrID)
	if err != nil {
		return nil, err
	}

	summary := &AnalyticsSummary{
		ScanCount:        code.ScanCount,
		GenuineScanCount: code.GenuineScanCount,
	}

	err = s.withRetry(func() error {
		base := s.db.WithContext(ctx).Model(&models.ScanLog{}).Where("qr_code_id = ?", qrID)

		if err := base.Session(&gorm.Session{}).Where("is_bot = ?", true).Count(&summary.BotScans).Error; err != nil {
			return err
		}

		breakdowns := []struct {
			column string
			dest   *[]FamilyCount
		}{
			{"device_family", &summary.Devices},
			{"os_family", &summary.OperatingSystems},
			{"browser_family", &summary.Browsers},
		}
		for _, b := range breakdowns {
			if err := base.Session(&gorm.Session{}).
				Select(b.column + " AS family, COUNT(*) AS count").
				Group(b.column).
				Order("count DESC").
				Scan(b.dest).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}
