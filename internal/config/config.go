package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/hitoshi/nthweekday/internal/logger"
	"github.com/hitoshi/nthweekday/internal/ordinal"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Logging
	LogLevel slog.Level

	// Calendar
	Location      *time.Location // 「今日」の判定に使うタイムゾーン
	DefaultFormat string         // 書式指定子の省略時に使うセレクタ

	// Rate Limit
	RateLimitGeneral int // req/min/client

	// Notify
	NotifyInterval      time.Duration
	NotifyTimeout       time.Duration
	NotifyMaxConcurrent int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合、TIMEZONE・DEFAULT_FORMATが不正な場合、
// NOTIFY_INTERVAL・NOTIFY_TIMEOUTが0以下の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("required environment variables are not set: %v", []string{"DATABASE_URL"})
	}

	tz := getEnvString("TIMEZONE", "Asia/Tokyo")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	cfg.DefaultFormat = getEnvString("DEFAULT_FORMAT", ordinal.FormatEnglish)
	if !ordinal.IsSupportedFormat(cfg.DefaultFormat) {
		return nil, fmt.Errorf("invalid DEFAULT_FORMAT %q (allowed: %v)", cfg.DefaultFormat, ordinal.Selectors())
	}

	cfg.LogLevel = logger.ParseLevel(getEnvString("LOG_LEVEL", "info"))
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.NotifyInterval = getEnvDuration("NOTIFY_INTERVAL", time.Hour)
	cfg.NotifyTimeout = getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second)
	cfg.NotifyMaxConcurrent = getEnvInt("NOTIFY_MAX_CONCURRENT", 5)
	if cfg.NotifyInterval <= 0 {
		return nil, fmt.Errorf("invalid NOTIFY_INTERVAL %v: must be positive", cfg.NotifyInterval)
	}
	if cfg.NotifyTimeout <= 0 {
		return nil, fmt.Errorf("invalid NOTIFY_TIMEOUT %v: must be positive", cfg.NotifyTimeout)
	}
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
