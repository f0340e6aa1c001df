package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/SscSPs/credit_ledger/internal/core/domain"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"

	defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"
)

// RefreshConfig controls the monthly refresh scheduler.
type RefreshConfig struct {
	Enabled   bool
	Interval  time.Duration
	Cycle     time.Duration
	BatchSize int
}

// BurstConfig controls volume-based pricing.
type BurstConfig struct {
	Mode        domain.BurstMode
	Window      time.Duration
	Threshold   int
	Percent     decimal.Decimal
	ActionTypes []string
}

// Config holds application configuration.
type Config struct {
	StoreDriver   string
	DatabaseURL   string
	SQLitePath    string
	RunMigrations bool
	LockTimeout   time.Duration

	Port          string
	IsProduction  bool
	EnableDBCheck bool
	LogLevel      string

	JWTSecret string
	JWTIssuer string

	CORSAllowedOrigins []string

	CatalogPath            string
	CreditsPerCurrencyUnit int64

	Refresh RefreshConfig
	Burst   BurstConfig

	PosthogAPIKey   string
	PosthogEndpoint string
}

// BurstPolicy converts the burst settings into the pricing policy.
func (c *Config) BurstPolicy() domain.BurstPolicy {
	return domain.BurstPolicy{
		Mode:        c.Burst.Mode,
		Window:      c.Burst.Window,
		Threshold:   c.Burst.Threshold,
		Percent:     c.Burst.Percent,
		ActionTypes: c.Burst.ActionTypes,
	}
}

func setDefaults() {
	viper.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("SQLITE_PATH", "credit_ledger.db")
	viper.SetDefault("RUN_MIGRATIONS", true)
	viper.SetDefault("LOCK_TIMEOUT", "5s")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("JWT_ISSUER", "credit-ledger")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("CATALOG_PATH", "config/catalog.yaml")
	viper.SetDefault("CREDITS_PER_CURRENCY_UNIT", 1000)
	viper.SetDefault("REFRESH_ENABLED", true)
	viper.SetDefault("REFRESH_INTERVAL", "24h")
	viper.SetDefault("REFRESH_CYCLE", "720h")
	viper.SetDefault("REFRESH_BATCH_SIZE", 100)
	viper.SetDefault("BURST_MODE", string(domain.BurstSurcharge))
	viper.SetDefault("BURST_WINDOW", "60m")
	viper.SetDefault("BURST_THRESHOLD", 10)
	viper.SetDefault("BURST_PERCENT", "0.25")
	viper.SetDefault("BURST_ACTIONS", "API_CALL")
	viper.SetDefault("POSTHOG_API_KEY", "")
	viper.SetDefault("POSTHOG_ENDPOINT", "https://us.i.posthog.com")
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	setDefaults()
	viper.AutomaticEnv()

	cfg := &Config{
		StoreDriver:            strings.ToLower(strings.TrimSpace(viper.GetString("STORE_DRIVER"))),
		DatabaseURL:            viper.GetString("PGSQL_URL"),
		SQLitePath:             viper.GetString("SQLITE_PATH"),
		RunMigrations:          viper.GetBool("RUN_MIGRATIONS"),
		Port:                   viper.GetString("PORT"),
		IsProduction:           viper.GetBool("IS_PRODUCTION"),
		EnableDBCheck:          viper.GetBool("ENABLE_DB_CHECK"),
		LogLevel:               viper.GetString("LOG_LEVEL"),
		JWTSecret:              viper.GetString("JWT_SECRET"),
		JWTIssuer:              viper.GetString("JWT_ISSUER"),
		CORSAllowedOrigins:     splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		CatalogPath:            viper.GetString("CATALOG_PATH"),
		CreditsPerCurrencyUnit: viper.GetInt64("CREDITS_PER_CURRENCY_UNIT"),
		PosthogAPIKey:          viper.GetString("POSTHOG_API_KEY"),
		PosthogEndpoint:        viper.GetString("POSTHOG_ENDPOINT"),
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			log.Println("Warning: PGSQL_URL environment variable not set.")
		}
	case StoreDriverSQLite:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: expected %s or %s", cfg.StoreDriver, StoreDriverPostgres, StoreDriverSQLite)
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = defaultJWTSecret
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	if cfg.CreditsPerCurrencyUnit <= 0 {
		return nil, fmt.Errorf("CREDITS_PER_CURRENCY_UNIT must be positive, got %d", cfg.CreditsPerCurrencyUnit)
	}

	var err error
	if cfg.LockTimeout, err = parseDuration("LOCK_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	cfg.Refresh = RefreshConfig{
		Enabled:   viper.GetBool("REFRESH_ENABLED"),
		BatchSize: viper.GetInt("REFRESH_BATCH_SIZE"),
	}
	if cfg.Refresh.Interval, err = parseDuration("REFRESH_INTERVAL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Refresh.Cycle, err = parseDuration("REFRESH_CYCLE", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Refresh.BatchSize <= 0 {
		return nil, fmt.Errorf("REFRESH_BATCH_SIZE must be positive, got %d", cfg.Refresh.BatchSize)
	}

	if cfg.Burst, err = loadBurst(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadBurst() (BurstConfig, error) {
	burst := BurstConfig{
		Mode:        domain.BurstMode(strings.ToLower(strings.TrimSpace(viper.GetString("BURST_MODE")))),
		Threshold:   viper.GetInt("BURST_THRESHOLD"),
		ActionTypes: splitList(viper.GetString("BURST_ACTIONS")),
	}
	switch burst.Mode {
	case domain.BurstOff, domain.BurstSurcharge, domain.BurstDiscount:
	default:
		return burst, fmt.Errorf("invalid BURST_MODE %q: expected off, surcharge or discount", burst.Mode)
	}

	var err error
	if burst.Window, err = parseDuration("BURST_WINDOW", time.Hour); err != nil {
		return burst, err
	}

	raw := viper.GetString("BURST_PERCENT")
	burst.Percent, err = decimal.NewFromString(raw)
	if err != nil {
		return burst, fmt.Errorf("invalid BURST_PERCENT %q: %w", raw, err)
	}
	if burst.Percent.IsNegative() || burst.Percent.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return burst, fmt.Errorf("BURST_PERCENT must be in [0, 1), got %s", raw)
	}
	for i, action := range burst.ActionTypes {
		burst.ActionTypes[i] = domain.NormalizeActionType(action)
	}
	return burst, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := viper.GetString(key)
	if raw == "" {
		log.Printf("Warning: %s not set. Defaulting to %s.\n", key, fallback)
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, raw)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
