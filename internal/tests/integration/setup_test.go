package integration

import (
	"fmt"
	"testing"

	"github.com/pushp314/qrtrack-backend/internal/models"
	pkglogger "github.com/pushp314/qrtrack-backend/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	// Using URL format to avoid parsing ambiguities
	baseDSN    = "postgres://pushp314:@localhost:5432/postgres?sslmode=disable"
	testDBName = "qrtrack_test"
)

// setupTestDB provisions a scratch postgres database for an end-to-end run.
// Skips when no local postgres is reachable so the suite stays runnable on
// machines without one.
func setupTestDB(t *testing.T) *gorm.DB {
	pkglogger.Init("test")

	// 1. Connect to default 'postgres' database to create the test DB
	db, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Skipf("Postgres not reachable, skipping integration test: %v", err)
	}

	// 2. Drop and Create Test DB
	// Terminate existing connections first to ensure DROP works
	db.Exec(fmt.Sprintf("SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = '%s'", testDBName))

	if err := db.Exec(fmt.Sprintf("DROP DATABASE IF EXISTS %s", testDBName)).Error; err != nil {
		t.Fatalf("Failed to drop test DB: %v", err)
	}

	if err := db.Exec(fmt.Sprintf("CREATE DATABASE %s", testDBName)).Error; err != nil {
		t.Fatalf("Failed to create test DB: %v", err)
	}

	// 3. Connect to the new Test DB
	testDSN := fmt.Sprintf("postgres://pushp314:@localhost:5432/%s?sslmode=disable", testDBName)
	testDB, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test DB: %v", err)
	}

	// 4. Run Migrations
	if err := testDB.AutoMigrate(&models.QRCode{}, &models.ScanLog{}); err != nil {
		t.Fatalf("Failed to migrate test DB: %v", err)
	}

	return testDB
}
