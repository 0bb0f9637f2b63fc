// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	TelegramBotToken string
	TelegramChatID   string

	LookbackDays   int           // controls date_from for the listing query
	MaxPages       int           // ceiling on pagination
	RequestDelay   time.Duration // throttle between registry/sink calls
	SafeMessageLen int           // message-splitting threshold (runes)
	SeenFile       string        // path of the durable seen-set
	Timezone       string        // registry timezone

	ConfirmViaContent bool // re-confirm title-level verdicts against document text
	KeepUnfetched     bool // keep candidates with unreachable documents for review
	ResultsDir        string

	GeminiAPIKey string
	GeminiModel  string

	SMTPServer string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	FromEmail  string
	ToEmail    string

	LogLevel string
	DevMode  bool
}

// Load reads configuration from environment variables. A .env file is loaded
// first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		LookbackDays:   getEnvAsInt("KINDWATCH_LOOKBACK_DAYS", 1),
		MaxPages:       getEnvAsInt("KINDWATCH_MAX_PAGES", 10),
		RequestDelay:   time.Duration(getEnvAsInt("KINDWATCH_REQUEST_DELAY_MS", 1000)) * time.Millisecond,
		SafeMessageLen: getEnvAsInt("KINDWATCH_SAFE_MESSAGE_LEN", 3800),
		SeenFile:       getEnv("KINDWATCH_SEEN_FILE", defaultSeenFile()),
		Timezone:       getEnv("KINDWATCH_TIMEZONE", "Asia/Seoul"),

		ConfirmViaContent: getEnvAsBool("KINDWATCH_CONFIRM_CONTENT", true),
		KeepUnfetched:     getEnvAsBool("KINDWATCH_KEEP_UNFETCHED", true),
		ResultsDir:        getEnv("KINDWATCH_RESULTS_DIR", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		SMTPServer: getEnv("SMTP_SERVER", ""),
		SMTPPort:   getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:   getEnv("SMTP_USER", ""),
		SMTPPass:   getEnv("SMTP_PASS", ""),
		FromEmail:  getEnv("FROM_EMAIL", ""),
		ToEmail:    getEnv("TO_EMAIL", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),
	}

	if cfg.FromEmail == "" && cfg.SMTPUser != "" {
		cfg.FromEmail = cfg.SMTPUser
	}

	return cfg, nil
}

// Validate checks that required configuration is present. Failing here aborts
// the run before any network call is made.
func (c *Config) Validate() error {
	if c.TelegramBotToken == "" || c.TelegramChatID == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required")
	}
	if c.LookbackDays < 0 {
		return fmt.Errorf("KINDWATCH_LOOKBACK_DAYS must not be negative")
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("KINDWATCH_MAX_PAGES must be at least 1")
	}
	if c.SafeMessageLen < 1 {
		return fmt.Errorf("KINDWATCH_SAFE_MESSAGE_LEN must be at least 1")
	}
	return nil
}

// EmailEnabled reports whether the optional SMTP sink is fully configured.
func (c *Config) EmailEnabled() bool {
	return c.SMTPServer != "" && c.SMTPUser != "" && c.SMTPPass != "" && c.ToEmail != ""
}

func defaultSeenFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return dir + string(os.PathSeparator) + "kindwatch" + string(os.PathSeparator) + "seen_filings.json"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
