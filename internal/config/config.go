package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DBConfig holds saved-copy catalog configuration
type DBConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// QRConfig holds the fixed rendering parameters of generated codes
type QRConfig struct {
	BoxSize       int
	Border        int
	RecoveryLevel string
	LogoRatio     float64
}

// ScanConfig holds scan poller configuration
type ScanConfig struct {
	Enabled       bool
	Interval      time.Duration
	FramesDir     string
	StopOnSuccess bool
}

// Config holds all configuration for the application
type Config struct {
	AppName         string
	Platform        string
	ExternalStorage string
	DesktopSaveDir  string
	TempPath        string
	LogoPath        string
	FontPath        string
	CaptionFontSize float64
	SaveRetention   time.Duration
	SweepSchedule   string
	QR              QRConfig
	Scan            ScanConfig
	DB              DBConfig
}

// Load loads the configuration from the environment, reading a .env file
// first when one is present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := &Config{
		AppName:         getString("APP_NAME", "NeonQR"),
		Platform:        strings.ToLower(os.Getenv("NEONQR_PLATFORM")),
		ExternalStorage: os.Getenv("EXTERNAL_STORAGE"),
		DesktopSaveDir:  getString("DESKTOP_SAVE_DIR", "."),
		LogoPath:        getString("LOGO_PATH", "icon.png"),
		FontPath:        os.Getenv("FONT_PATH"),
		CaptionFontSize: getFloat("CAPTION_FONT_SIZE", 28),
		SaveRetention:   time.Duration(getInt("SAVE_RETENTION_HOURS", 0)) * time.Hour,
		SweepSchedule:   getString("SWEEP_SCHEDULE", "0 0 * * * *"),
	}

	tempPath, err := filepath.Abs(getString("TEMP_ARTIFACT_PATH", "temp_qr.png"))
	if err != nil {
		return nil, fmt.Errorf("resolve temp artifact path: %w", err)
	}
	config.TempPath = tempPath

	config.QR = QRConfig{
		BoxSize:       getInt("QR_BOX_SIZE", 10),
		Border:        getInt("QR_BORDER", 4),
		RecoveryLevel: strings.ToUpper(getString("QR_RECOVERY_LEVEL", "M")),
		LogoRatio:     getFloat("LOGO_RATIO", 0.22),
	}

	config.Scan = ScanConfig{
		Enabled:       getBool("SCAN_ENABLED", true),
		Interval:      time.Duration(getInt("SCAN_INTERVAL_MS", 33)) * time.Millisecond,
		FramesDir:     os.Getenv("SCAN_FRAMES_DIR"),
		StopOnSuccess: getBool("SCAN_STOP_ON_SUCCESS", false),
	}

	config.DB = DBConfig{
		Driver:          strings.ToLower(os.Getenv("DB_DRIVER")),
		Host:            os.Getenv("DB_HOST"),
		Port:            getInt("DB_PORT", 5432),
		User:            os.Getenv("DB_USER"),
		Password:        os.Getenv("DB_PASSWORD"),
		Database:        os.Getenv("DB_NAME"),
		SSLMode:         getString("DB_SSL_MODE", "disable"),
		Path:            getString("DB_PATH", "neonqr.db"),
		MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 5),
		MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: time.Duration(getInt("DB_CONN_MAX_LIFETIME", 300)) * time.Second,
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the loaded values for consistency
func (c *Config) Validate() error {
	if c.QR.BoxSize < 1 {
		return fmt.Errorf("QR_BOX_SIZE must be at least 1, got %d", c.QR.BoxSize)
	}
	if c.QR.Border < 0 {
		return fmt.Errorf("QR_BORDER must not be negative, got %d", c.QR.Border)
	}
	switch c.QR.RecoveryLevel {
	case "L", "M", "Q", "H":
	default:
		return fmt.Errorf("QR_RECOVERY_LEVEL must be one of L, M, Q, H, got %q", c.QR.RecoveryLevel)
	}
	if c.QR.LogoRatio <= 0 || c.QR.LogoRatio >= 1 {
		return fmt.Errorf("LOGO_RATIO must be between 0 and 1, got %v", c.QR.LogoRatio)
	}
	if c.CaptionFontSize <= 0 {
		return fmt.Errorf("CAPTION_FONT_SIZE must be positive, got %v", c.CaptionFontSize)
	}
	if c.Scan.Interval <= 0 {
		return fmt.Errorf("SCAN_INTERVAL_MS must be positive")
	}
	switch c.Platform {
	case "", "desktop", "mobile":
	default:
		return fmt.Errorf("NEONQR_PLATFORM must be desktop or mobile, got %q", c.Platform)
	}

	switch c.DB.Driver {
	case "":
	case "postgres":
		if c.DB.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.DB.User == "" {
			return fmt.Errorf("DB_USER is required")
		}
		if c.DB.Database == "" {
			return fmt.Errorf("DB_NAME is required")
		}
	case "sqlite":
		if c.DB.Path == "" {
			return fmt.Errorf("DB_PATH is required")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DB.Driver)
	}
	return nil
}

// CatalogEnabled reports whether saved copies are recorded in a database
func (c *Config) CatalogEnabled() bool {
	return c.DB.Driver != ""
}

// GetDSN returns the connection string for the configured catalog driver
func (c *Config) GetDSN() string {
	if c.DB.Driver == "sqlite" {
		return c.DB.Path
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}
