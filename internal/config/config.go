package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBHost    string
	DBPort    string
	DBUser    string
	DBPass    string
	DBName    string
	DBSSLMode string

	JWTSecret string
	Port      string
	Env       string
	LogLevel  string

	BaseURL       string
	PaymentDir    string
	QRDir         string
	MaxUploadSize int64

	// Attendance tokens are short-lived and single-use; spot tokens gate a
	// reusable registration link and live for hours.
	AttendanceTokenTTL time.Duration
	SpotTokenTTL       time.Duration

	// SpotAutoPresent marks spot registrations present at admission time and
	// synthesizes the matching attendance record.
	SpotAutoPresent bool

	// EnforceSingleActive rejects activating a workshop while another one is
	// already active.
	EnforceSingleActive bool

	DownloadLimit int
}

func NewConfigFromEnv() (*Config, error) {
	maxUploadSize, _ := strconv.ParseInt(getenv("MAX_UPLOAD_SIZE", "5242880"), 10, 64)
	attendanceTTL, _ := strconv.Atoi(getenv("ATTENDANCE_TOKEN_TTL_SECONDS", "120"))
	spotTTL, _ := strconv.Atoi(getenv("SPOT_TOKEN_TTL_HOURS", "24"))
	downloadLimit, _ := strconv.Atoi(getenv("DOWNLOAD_LIMIT", "2"))

	cfg := &Config{
		DBHost:    getenv("DB_HOST", "localhost"),
		DBPort:    getenv("DB_PORT", "5432"),
		DBUser:    getenv("DB_USER", "postgres"),
		DBPass:    getenv("DB_PASSWORD", "postgres"),
		DBName:    getenv("DB_NAME", "workshopdb"),
		DBSSLMode: getenv("DB_SSLMODE", "disable"),

		JWTSecret: getenv("JWT_SECRET", ""),
		Port:      getenv("PORT", "3000"),
		Env:       getenv("ENV", "development"),
		LogLevel:  getenv("LOG_LEVEL", "info"),

		BaseURL:       getenv("BASE_URL", "http://localhost:3000"),
		PaymentDir:    getenv("PAYMENT_DIR", "./uploads/payments"),
		QRDir:         getenv("QR_DIR", "./uploads/qr-codes"),
		MaxUploadSize: maxUploadSize,

		AttendanceTokenTTL: time.Duration(attendanceTTL) * time.Second,
		SpotTokenTTL:       time.Duration(spotTTL) * time.Hour,

		SpotAutoPresent:     getenvBool("SPOT_AUTO_PRESENT", true),
		EnforceSingleActive: getenvBool("ENFORCE_SINGLE_ACTIVE", true),

		DownloadLimit: downloadLimit,
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

func getenv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getenvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
