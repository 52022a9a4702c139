package services

import (
	"fmt"
	"image/color"

	"github.com/pushp314/qrtrack-backend/internal/models"
	qrcode "github.com/skip2/go-qrcode"
)

// RenderPNG encodes a QR code's content into a PNG honoring its presentation
// fields. Pixel-level symbol encoding is fully delegated to the encoder lib.
func RenderPNG(code *models.QRCode) ([]byte, error) {
	q, err := qrcode.New(code.Content, errorLevel(code.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("encode qr content: %w", err)
	}

	q.ForegroundColor = parseHexColor(code.FillColor, color.Black)
	q.BackgroundColor = parseHexColor(code.BackColor, color.White)
	if code.Border <= 0 {
		q.DisableBorder = true
	}

	size := code.Size
	if size <= 0 {
		size = 256
	}
	return q.PNG(size)
}

func errorLevel(level string) qrcode.RecoveryLevel {
	switch level {
	case models.ErrorLevelLow:
		return qrcode.Low
	case models.ErrorLevelQuality:
		return qrcode.High
	case models.ErrorLevelHigh:
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// parseHexColor accepts "#RGB" and "#RRGGBB"; anything else falls back
func parseHexColor(s string, fallback color.Color) color.Color {
	var r, g, b uint8
	switch len(s) {
	case 7: // #RRGGBB
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
			return fallback
		}
	case 4: // #RGB
		if _, err := fmt.Sscanf(s, "#%1x%1x%1x", &r, &g, &b); err != nil {
			return fallback
		}
		r *= 17
		g *= 17
		b *= 17
	default:
		return fallback
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
