package seeds

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pushp314/qrtrack-backend/internal/config"
	"github.com/pushp314/qrtrack-backend/internal/database"
	"github.com/pushp314/qrtrack-backend/internal/models"
	"github.com/pushp314/qrtrack-backend/internal/services"
	"github.com/pushp314/qrtrack-backend/pkg/utils"
)

// SeedQRCodes creates a couple of demo codes (one static, one dynamic with
// scan history) so a fresh environment has something to look at.
func SeedQRCodes() error {
	log.Println("🌱 Seeding demo QR codes...")

	var count int64
	database.DB.Model(&models.QRCode{}).Count(&count)
	if count > 0 {
		log.Printf("   ✅ QR codes already present (%d), skipping", count)
		return nil
	}

	base := strings.TrimRight(config.AppConfig.BaseURL, "/")

	static := models.QRCode{
		ID:      utils.GenerateID(),
		QRType:  models.QRTypeStatic,
		Content: "https://example.org/menu.pdf",
		Title:   "Menu (static)",
	}
	if err := database.DB.Create(&static).Error; err != nil {
		return err
	}

	shortID := "a1b2c3d4"
	redirect := "https://example.org/landing"
	dynamic := models.QRCode{
		ID:          utils.GenerateID(),
		QRType:      models.QRTypeDynamic,
		Content:     fmt.Sprintf("%s/r/%s?scan_ref=qr", base, shortID),
		ShortID:     &shortID,
		RedirectURL: &redirect,
		Title:       "Landing page (dynamic)",
		Description: "Demo dynamic code with seeded scan history",
	}
	if err := database.DB.Create(&dynamic).Error; err != nil {
		return err
	}

	// A little scan history, half genuine
	agents := []string{
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Mobile Safari/537.36",
		"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
	}
	now := time.Now().UTC()
	for i, agent := range agents {
		genuine := i%2 == 0
		ts := now.Add(time.Duration(-i) * time.Hour)

		info := services.Classify(agent)
		entry := models.ScanLog{
			QRCodeID:       dynamic.ID,
			ScannedAt:      ts,
			IPAddress:      fmt.Sprintf("203.0.113.%d", 10+i),
			RawUserAgent:   agent,
			IsGenuineScan:  genuine,
			DeviceFamily:   info.DeviceFamily,
			OSFamily:       info.OSFamily,
			OSVersion:      info.OSVersion,
			BrowserFamily:  info.BrowserFamily,
			BrowserVersion: info.BrowserVersion,
			IsMobile:       info.IsMobile,
			IsTablet:       info.IsTablet,
			IsPC:           info.IsPC,
			IsBot:          info.IsBot,
		}
		if err := database.DB.Create(&entry).Error; err != nil {
			return err
		}
		if err := services.NewRecordStore(database.DB).AtomicIncrementScan(database.Ctx, dynamic.ID, ts, genuine); err != nil {
			return err
		}
	}

	log.Println("   ✅ Seeded 2 QR codes and 4 scan logs")
	return nil
}
