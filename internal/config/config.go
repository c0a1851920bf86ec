package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	TelegramToken string
	OpenAIKey     string
	OpenAIModel   string

	CustomersFile string
	LedgerFile    string
	WorksheetName string
	MirrorDB      string

	ServerPort string
	ParseMode  string
	AdminIDs   []int64

	SenderCooldown time.Duration
	PendingTimeout time.Duration
	SweepInterval  time.Duration

	CacheTTL  time.Duration
	CacheSize int
}

func Load() *Config {
	return &Config{
		TelegramToken: getEnv("TELEGRAM_TOKEN", ""),
		OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		CustomersFile: getEnv("CUSTOMERS_FILE", "./customers.json"),
		LedgerFile:    getEnv("LEDGER_FILE", "./orders.xlsx"),
		WorksheetName: getEnv("WORKSHEET_NAME", "Orders"),
		MirrorDB:      getEnv("MIRROR_DB", "./orders.db"),

		ServerPort: getEnv("SERVER_PORT", "8080"),
		ParseMode:  getEnv("PARSE_MODE", "orders"),
		AdminIDs:   getEnvInt64List("ADMIN_IDS"),

		SenderCooldown: getEnvDuration("SENDER_COOLDOWN", 2*time.Second),
		PendingTimeout: getEnvDuration("PENDING_TIMEOUT", 10*time.Minute),
		SweepInterval:  getEnvDuration("SWEEP_INTERVAL", time.Minute),

		CacheTTL:  getEnvDuration("CACHE_TTL", time.Hour),
		CacheSize: getEnvInt("CACHE_SIZE", 500),
	}
}

// Validate fails startup on missing credentials or reference data. Per the
// intake contract, these never degrade silently.
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_TOKEN is required")
	}
	if c.OpenAIKey == "" {
		return errors.New("OPENAI_API_KEY is required")
	}
	if c.CustomersFile == "" {
		return errors.New("CUSTOMERS_FILE is required")
	}
	return nil
}

// IsAdmin reports whether a Telegram user may run admin commands. An empty
// admin list means every sender is trusted.
func (c *Config) IsAdmin(userID int64) bool {
	if len(c.AdminIDs) == 0 {
		return true
	}
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvInt64List(key string) []int64 {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(value, ",") {
		if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
