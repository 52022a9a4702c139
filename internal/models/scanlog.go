package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScanLog is one resolved access of a dynamic QR code. Rows are insert-only;
// the only way they disappear is the cascade delete with the parent code.
type ScanLog struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	QRCodeID  string    `gorm:"not null;index:idx_scan_logs_qr_code_id" json:"qrCodeId"`
	ScannedAt time.Time `gorm:"not null;index" json:"scannedAt"`

	// Raw client-supplied context
	IPAddress    string `gorm:"type:varchar(64)" json:"ipAddress"`
	RawUserAgent string `gorm:"type:text" json:"rawUserAgent"`

	// True when the access carried the scan marker parameter, i.e. it came
	// from the QR-encoded URL rather than a typed or shared link. Heuristic.
	IsGenuineScan bool `gorm:"not null;default:false" json:"isGenuineScan"`

	// Parsed user-agent facts, "Unknown" when unparseable
	DeviceFamily   string `gorm:"type:text;default:'Unknown'" json:"deviceFamily"`
	OSFamily       string `gorm:"type:text;default:'Unknown'" json:"osFamily"`
	OSVersion      string `gorm:"type:text;default:'Unknown'" json:"osVersion"`
	BrowserFamily  string `gorm:"type:text;default:'Unknown'" json:"browserFamily"`
	BrowserVersion string `gorm:"type:text;default:'Unknown'" json:"browserVersion"`

	IsMobile bool `gorm:"not null;default:false" json:"isMobile"`
	IsTablet bool `gorm:"not null;default:false" json:"isTablet"`
	IsPC     bool `gorm:"not null;default:false" json:"isPc"`
	IsBot    bool `gorm:"not null;default:false" json:"isBot"`
}

func (ScanLog) TableName() string {
	return "scan_logs"
}

func (s *ScanLog) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return
}
