package main

import (
	"log"

	"github.com/pushp314/qrtrack-backend/internal/config"
	"github.com/pushp314/qrtrack-backend/internal/database"
	"github.com/pushp314/qrtrack-backend/internal/models"
	"github.com/pushp314/qrtrack-backend/internal/seeds"
)

func main() {
	log.Println("🌱 QRTrack Seeder")

	config.LoadConfig()
	database.Connect()

	if err := database.DB.AutoMigrate(&models.QRCode{}, &models.ScanLog{}); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if err := seeds.SeedQRCodes(); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("✅ Done")
}
