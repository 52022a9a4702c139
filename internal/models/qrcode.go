package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QRType distinguishes codes whose content is final from codes that redirect
type QRType string

const (
	// QRTypeStatic encodes the payload verbatim; nothing to resolve server-side
	QRTypeStatic QRType = "static"
	// QRTypeDynamic encodes a short redirect URL resolved by this service
	QRTypeDynamic QRType = "dynamic"
)

// Error correction levels accepted for rendering (maps to the encoder's L/M/Q/H)
const (
	ErrorLevelLow     = "L"
	ErrorLevelMedium  = "M"
	ErrorLevelQuality = "Q"
	ErrorLevelHigh    = "H"
)

// QRCode is the aggregate root. For dynamic codes, Content holds the public
// redirect URL ("<base>/r/<shortId>") and RedirectURL the actual destination.
// Counters are only ever touched through the store's atomic increment.
type QRCode struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	QRType  QRType `gorm:"type:text;not null;index" json:"qrType"`
	Content string `gorm:"type:varchar(2048);not null" json:"content"`

	// Set iff QRType == dynamic
	RedirectURL *string `gorm:"type:text" json:"redirectUrl,omitempty"`
	ShortID     *string `gorm:"type:varchar(8);uniqueIndex" json:"shortId,omitempty"`

	// Scan counters. GenuineScanCount <= ScanCount always.
	ScanCount        int64 `gorm:"not null;default:0" json:"scanCount"`
	GenuineScanCount int64 `gorm:"not null;default:0" json:"genuineScanCount"`

	LastScanAt         *time.Time `json:"lastScanAt,omitempty"`
	FirstGenuineScanAt *time.Time `json:"firstGenuineScanAt,omitempty"`
	LastGenuineScanAt  *time.Time `json:"lastGenuineScanAt,omitempty"`

	// Presentation metadata, consumed only by the image renderer
	FillColor  string `gorm:"type:text;default:'#000000'" json:"fillColor"`
	BackColor  string `gorm:"type:text;default:'#FFFFFF'" json:"backColor"`
	Size       int    `gorm:"default:256" json:"size"`
	Border     int    `gorm:"default:4" json:"border"`
	ErrorLevel string `gorm:"type:text;default:'M'" json:"errorLevel"`

	Title       string `gorm:"type:text" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	// Identity header value of the creator (reverse proxy injects it)
	OwnerID string `gorm:"type:text;index" json:"ownerId"`

	ScanLogs []ScanLog `gorm:"foreignKey:QRCodeID;constraint:OnDelete:CASCADE" json:"-"`
}

func (QRCode) TableName() string {
	return "qr_codes"
}

func (q *QRCode) BeforeCreate(tx *gorm.DB) (err error) {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	return
}

// IsRedirectEligible reports whether this record can serve a redirect at all
func (q *QRCode) IsRedirectEligible() bool {
	return q.QRType == QRTypeDynamic && q.RedirectURL != nil && *q.RedirectURL != ""
}
