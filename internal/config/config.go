// Package config builds the immutable runtime configuration from the
// environment. The Config value is constructed once in main and injected;
// nothing reads the environment after startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration.
type Config struct {
	AppEnv   string
	AppPort  string
	LogLevel string

	DatabaseURL string

	// Operator auth
	JWTSecret      string
	AccessTokenTTL time.Duration

	// Dialer channel
	DialerToken string

	// Batch assignment
	DefaultBatchSize  int // per active line
	MaxBatchSize      int
	AssignmentTimeout time.Duration
	CallCooldownDays  int

	// Scheduling
	Timezone            string
	SkipHolidaysDefault bool
	ShortRetrySeconds   int
	LongRetrySeconds    int

	// Bank SMS profiles and notification transport
	BankProfiles           []BankProfileConfig
	MelipayamakAdvancedURL string
	NotifyTimeout          time.Duration

	// Best-effort deposit webhook
	GoogleSheetWebhookURL   string
	GoogleSheetWebhookToken string
	GoogleSheetTimeout      time.Duration
}

// BankProfileConfig is one named bundle of bank sender numbers and the
// manager-notification credentials used for that bank.
type BankProfileConfig struct {
	Key            string
	BankName       string
	SMSSenders     []string // comma-separated in env
	ManagerNumbers []string
	NotifyFrom     string
	NotifyAPIKey   string
	ParserKey      string
}

// Load builds Config from the environment. Missing required keys fail fast.
func Load() (*Config, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("required environment variable DATABASE_URL not set")
	}
	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		return nil, fmt.Errorf("required environment variable SECRET_KEY not set")
	}
	dialerToken := os.Getenv("DIALER_TOKEN")
	if dialerToken == "" {
		return nil, fmt.Errorf("required environment variable DIALER_TOKEN not set")
	}

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		AppPort:  getEnv("APP_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: dsn,

		JWTSecret:      secret,
		AccessTokenTTL: time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 1440)) * time.Minute,

		DialerToken: dialerToken,

		DefaultBatchSize:  getEnvInt("DEFAULT_BATCH_SIZE", 10),
		MaxBatchSize:      getEnvInt("MAX_BATCH_SIZE", 100),
		AssignmentTimeout: time.Duration(getEnvInt("ASSIGNMENT_TIMEOUT_MINUTES", 60)) * time.Minute,
		CallCooldownDays:  getEnvInt("CALL_COOLDOWN_DAYS", 3),

		Timezone:            getEnv("TIMEZONE", "Asia/Tehran"),
		SkipHolidaysDefault: getEnvBool("SKIP_HOLIDAYS", true),
		ShortRetrySeconds:   getEnvInt("SHORT_RETRY_SECONDS", 300),
		LongRetrySeconds:    getEnvInt("LONG_RETRY_SECONDS", 900),

		MelipayamakAdvancedURL: getEnv("MELIPAYAMAK_ADVANCED_URL", "https://console.melipayamak.com/api/send/advanced"),
		NotifyTimeout:          time.Duration(getEnvInt("NOTIFY_TIMEOUT_SECONDS", 10)) * time.Second,

		GoogleSheetWebhookURL:   getEnv("GOOGLE_SHEET_WEBHOOK_URL", ""),
		GoogleSheetWebhookToken: getEnv("GOOGLE_SHEET_WEBHOOK_TOKEN", ""),
		GoogleSheetTimeout:      time.Duration(getEnvInt("GOOGLE_SHEET_WEBHOOK_TIMEOUT_SECONDS", 10)) * time.Second,
	}

	cfg.BankProfiles = loadBankProfiles()

	return cfg, nil
}

// loadBankProfiles reads the per-profile env bundles. A profile without
// sender numbers is inert and dropped. The legacy single-profile keys
// (BANK_SMS_SENDER, MANAGER_ALERT_NUMBERS, MELIPAYAMAK_*) feed the default
// profile when its own keys are unset.
func loadBankProfiles() []BankProfileConfig {
	salehi := BankProfileConfig{
		Key:            "salehi",
		BankName:       getEnv("SALEHI_BANK_NAME", "Salehi Bank"),
		SMSSenders:     splitList(os.Getenv("SALEHI_BANK_SMS_SENDER")),
		ManagerNumbers: splitList(os.Getenv("SALEHI_MANAGER_ALERT_NUMBERS")),
		NotifyFrom:     getEnv("SALEHI_MELIPAYAMAK_FROM", ""),
		NotifyAPIKey:   getEnv("SALEHI_MELIPAYAMAK_API_KEY", ""),
		ParserKey:      strings.ToLower(getEnv("SALEHI_SMS_PARSER", "default")),
	}
	def := BankProfileConfig{
		Key:            "default",
		BankName:       getEnv("DEFAULT_BANK_NAME", "Default Bank"),
		SMSSenders:     splitList(getEnv("DEFAULT_BANK_SMS_SENDER", os.Getenv("BANK_SMS_SENDER"))),
		ManagerNumbers: splitList(getEnv("DEFAULT_MANAGER_ALERT_NUMBERS", os.Getenv("MANAGER_ALERT_NUMBERS"))),
		NotifyFrom:     getEnv("DEFAULT_MELIPAYAMAK_FROM", os.Getenv("MELIPAYAMAK_FROM")),
		NotifyAPIKey:   getEnv("DEFAULT_MELIPAYAMAK_API_KEY", os.Getenv("MELIPAYAMAK_API_KEY")),
		ParserKey:      strings.ToLower(getEnv("DEFAULT_SMS_PARSER", "default")),
	}

	var profiles []BankProfileConfig
	for _, p := range []BankProfileConfig{salehi, def} {
		if len(p.SMSSenders) > 0 {
			profiles = append(profiles, p)
		}
	}
	return profiles
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
