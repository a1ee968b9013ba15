package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverJSON     = "json"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	ProviderOpenRouter = "openrouter"
	ProviderOpenAISDK  = "openai_sdk"

	DefaultBaseURL = "https://openrouter.ai/api/v1"
)

var (
	ErrUnsupportedDriver   = errors.New("STORE_DRIVER must be 'json', 'sqlite' or 'postgres'")
	ErrMissingStoreDSN     = errors.New("STORE_DSN is required for sql drivers")
	ErrUnsupportedProvider = errors.New("CHAT_PROVIDER must be 'openrouter' or 'openai_sdk'")
	ErrInvalidMasterKey    = errors.New("MASTER_KEY_B64 must decode to 32 bytes")
)

type Config struct {
	Paths    PathsConfig
	Chat     ChatConfig
	Store    StoreConfig
	Redis    RedisConfig
	Rate     RateConfig
	Telegram TelegramConfig
	Status   StatusConfig
	Crypto   CryptoConfig
	Log      LogConfig

	// APIKeyOverride replaces the stored key at runtime and is never written back.
	APIKeyOverride string
}

type PathsConfig struct {
	ConfigFile string
	DataDir    string
	BackupDir  string
}

type ChatConfig struct {
	Provider    string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	TopP        float64
	Timeout     time.Duration
	Referer     string
	Title       string
}

type StoreConfig struct {
	Driver string
	DSN    string
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	UpdateTTL time.Duration
}

type RateConfig struct {
	PerHour int64
}

type TelegramConfig struct {
	Token         string
	AllowedUserID int64
}

type StatusConfig struct {
	ListenAddr  string
	HealthPath  string
	MetricsPath string
}

type CryptoConfig struct {
	MasterKey []byte
}

type LogConfig struct {
	Level string
	File  string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	home := mustEnv("COGITATOR_HOME", defaultHome())
	dataDir := mustEnv("DATA_DIR", filepath.Join(home, "data"))

	cfg := &Config{
		Paths: PathsConfig{
			ConfigFile: mustEnv("COGITATOR_CONFIG", filepath.Join(home, "config.json")),
			DataDir:    dataDir,
			BackupDir:  mustEnv("BACKUP_DIR", filepath.Join(home, "backups")),
		},
		Chat: ChatConfig{
			Provider:    strings.ToLower(mustEnv("CHAT_PROVIDER", ProviderOpenRouter)),
			BaseURL:     mustEnv("CHAT_BASE_URL", DefaultBaseURL),
			MaxTokens:   mustInt("CHAT_MAX_TOKENS", 2000),
			Temperature: mustFloat("CHAT_TEMPERATURE", 0.8),
			TopP:        mustFloat("CHAT_TOP_P", 0.9),
			Timeout:     mustDuration("HTTP_TIMEOUT", 60*time.Second),
			Referer:     mustEnv("CHAT_REFERER", "https://github.com/cogitator"),
			Title:       mustEnv("CHAT_TITLE", "cogitator"),
		},
		Store: StoreConfig{
			Driver: normalizeDriver(mustEnv("STORE_DRIVER", DriverJSON)),
			DSN:    mustEnv("STORE_DSN", ""),
		},
		Redis: RedisConfig{
			Addr:      mustEnv("REDIS_ADDR", ""),
			Password:  mustEnv("REDIS_PASSWORD", ""),
			DB:        mustInt("REDIS_DB", 0),
			UpdateTTL: mustDuration("UPDATE_DEDUPE_TTL", 6*time.Hour),
		},
		Rate: RateConfig{
			PerHour: mustInt64("RATE_LIMIT_PER_HOUR", 60),
		},
		Telegram: TelegramConfig{
			Token:         mustEnv("TELEGRAM_BOT_TOKEN", ""),
			AllowedUserID: mustInt64("TELEGRAM_ALLOWED_USER_ID", 0),
		},
		Status: StatusConfig{
			ListenAddr:  mustEnv("STATUS_LISTEN_ADDR", ""),
			HealthPath:  mustEnv("HEALTH_PATH", "/healthz"),
			MetricsPath: mustEnv("METRICS_PATH", "/metrics"),
		},
		Log: LogConfig{
			Level: strings.ToLower(mustEnv("LOG_LEVEL", "info")),
			File:  mustEnv("LOG_FILE", filepath.Join(dataDir, "cogitator.log")),
		},
		APIKeyOverride: mustEnv("OPENROUTER_API_KEY", ""),
	}

	switch cfg.Store.Driver {
	case DriverJSON:
	case DriverSQLite:
		if cfg.Store.DSN == "" {
			cfg.Store.DSN = "file:" + filepath.Join(dataDir, "cogitator.db") + "?_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		if cfg.Store.DSN == "" {
			return nil, ErrMissingStoreDSN
		}
	default:
		return nil, ErrUnsupportedDriver
	}

	if cfg.Chat.Provider != ProviderOpenRouter && cfg.Chat.Provider != ProviderOpenAISDK {
		return nil, ErrUnsupportedProvider
	}

	if raw := mustEnv("MASTER_KEY_B64", ""); raw != "" {
		key, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("decode MASTER_KEY_B64: %w", err)
		}
		if len(key) != 32 {
			return nil, ErrInvalidMasterKey
		}
		cfg.Crypto.MasterKey = key
	}

	return cfg, nil
}

func normalizeDriver(driver string) string {
	switch d := strings.ToLower(strings.TrimSpace(driver)); d {
	case "", "json", "file":
		return DriverJSON
	case "sqlite", "sqlite3":
		return DriverSQLite
	case "postgres", "pgx":
		return DriverPostgres
	default:
		return d
	}
}

func defaultHome() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "cogitator")
	}
	return ".cogitator"
}

func mustEnv(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func mustInt(key string, def int) int {
	v := mustEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func mustInt64(key string, def int64) int64 {
	v := mustEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func mustFloat(key string, def float64) float64 {
	v := mustEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func mustDuration(key string, def time.Duration) time.Duration {
	v := mustEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
