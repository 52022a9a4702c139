package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`

	// Public base URL embedded into dynamic QR codes ("<base>/r/<shortId>")
	BaseURL string `mapstructure:"BASE_URL"`

	// Redirect safety policy (comma-separated host lists; allow empty = any
	// host that is not blocked)
	RedirectAllowedHosts string `mapstructure:"REDIRECT_ALLOWED_HOSTS"`
	RedirectBlockedHosts string `mapstructure:"REDIRECT_BLOCKED_HOSTS"`

	// Scan statistics queue sizing
	ScanQueueSize    int `mapstructure:"SCAN_QUEUE_SIZE"`
	ScanQueueWorkers int `mapstructure:"SCAN_QUEUE_WORKERS"`

	// Redis (optional; analytics caching degrades gracefully without it)
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// R2 / S3 object storage for published QR images
	R2AccountID       string `mapstructure:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `mapstructure:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `mapstructure:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string `mapstructure:"R2_BUCKET_NAME"`
	R2PublicURL       string `mapstructure:"R2_PUBLIC_URL"` // Custom domain
}

var AppConfig *Config

func LoadConfig() {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("BASE_URL", "http://localhost:8080")
	viper.SetDefault("SCAN_QUEUE_SIZE", 1024)
	viper.SetDefault("SCAN_QUEUE_WORKERS", 4)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}
}

// SplitHosts turns a comma-separated host list into a cleaned slice
func SplitHosts(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var hosts []string
	for _, h := range strings.Split(raw, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}
