// Package config は環境変数からのアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Remote API
	BaseURL     string
	HTTPTimeout time.Duration

	// Token store
	TokenPath string

	// Logging
	LogLevel string

	// Stub server
	StubPort      string
	StubRateLimit int // req/min per client
	StubRateBurst int
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込む（未設定の変数のみ反映）。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	// .envは任意。存在しない場合のエラーは無視する。
	_ = godotenv.Load()

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.BaseURL = os.Getenv("BENTO_BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BENTO_BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.HTTPTimeout = getEnvDuration("BENTO_HTTP_TIMEOUT", 10*time.Second)
	cfg.TokenPath = getEnvString("BENTO_TOKEN_PATH", defaultTokenPath())
	cfg.LogLevel = getEnvString("BENTO_LOG_LEVEL", "info")
	cfg.StubPort = getEnvString("STUB_PORT", "8090")
	cfg.StubRateLimit = getEnvInt("STUB_RATE_LIMIT", 120)
	cfg.StubRateBurst = getEnvInt("STUB_RATE_BURST", 30)

	return cfg, nil
}

// defaultTokenPath はトークンストアのデフォルトパスを返す。
// ユーザー設定ディレクトリが解決できない場合はカレントディレクトリを使う。
func defaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "bentocli.db"
	}
	return filepath.Join(dir, "bentocli", "session.db")
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
