package config

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Config holds every path and tunable the application needs. Paths derive
// from DataPath; the rest may be overridden from SITEAUDIT_* variables.
type Config struct {
	DataPath        string
	DBPath          string
	SimpleStorePath string
	ExportDir       string
	ReportNotesDir  string
	CameraDir       string
	DriverManifest  string
	AdvertBucket    string

	LogLevel string `env:"SITEAUDIT_LOG_LEVEL" envDefault:"warn"`
	LogDev   bool   `env:"SITEAUDIT_LOG_DEV" envDefault:"true"`

	StoreQuotaBytes       int64 `env:"SITEAUDIT_STORE_QUOTA_BYTES" envDefault:"0"`
	SimpleStoreQuotaBytes int64 `env:"SITEAUDIT_SIMPLE_QUOTA_BYTES" envDefault:"5242880"`

	CameraDriver string  `env:"SITEAUDIT_CAMERA_DRIVER"`
	SquareCrop   bool    `env:"SITEAUDIT_SQUARE_CROP" envDefault:"true"`
	AutoTitle    bool    `env:"SITEAUDIT_AUTO_TITLE" envDefault:"true"`
	JPEGQuality  float64 `env:"SITEAUDIT_JPEG_QUALITY" envDefault:"0.8"`
	MaxImageSide int     `env:"SITEAUDIT_MAX_IMAGE_SIDE" envDefault:"0"`

	HTTPAddr          string `env:"SITEAUDIT_HTTP_ADDR" envDefault:":8080"`
	CheckoutURL       string `env:"SITEAUDIT_CHECKOUT_URL"`
	CheckoutKey       string `env:"SITEAUDIT_CHECKOUT_KEY"`
	CheckoutReturnURL string `env:"SITEAUDIT_CHECKOUT_RETURN_URL" envDefault:"http://localhost:8080/adverts/thanks"`
	WebhookSecret     string `env:"SITEAUDIT_WEBHOOK_SECRET"`
	AdminUser         string `env:"SITEAUDIT_ADMIN_USER" envDefault:"admin"`
	AdminPasswordHash string `env:"SITEAUDIT_ADMIN_PASSWORD_HASH"`
	AdPriceCents      int64  `env:"SITEAUDIT_AD_PRICE_CENTS" envDefault:"4900"`
}

func New(dataPath string) (Config, error) {
	if dataPath == "" {
		return Config{}, fmt.Errorf("data path is required")
	}
	cfg := Config{
		DataPath:        dataPath,
		DBPath:          filepath.Join(dataPath, ".siteaudit", "siteaudit.db"),
		SimpleStorePath: filepath.Join(dataPath, ".siteaudit", "local-store.yaml"),
		ExportDir:       filepath.Join(dataPath, "exports"),
		ReportNotesDir:  filepath.Join(dataPath, "reports"),
		CameraDir:       filepath.Join(dataPath, "cameras"),
		DriverManifest:  filepath.Join(dataPath, "drivers", "drivers.json"),
		AdvertBucket:    filepath.Join(dataPath, "adverts"),
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 1 {
		return Config{}, fmt.Errorf("jpeg quality must be in (0,1], got %v", cfg.JPEGQuality)
	}
	return cfg, nil
}
