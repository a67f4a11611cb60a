package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Lock backends selectable with LOCK_BACKEND.
const (
	LockBackendPostgres = "postgres"
	LockBackendRedis    = "redis"
	LockBackendLocal    = "none"
)

// QuickBooksConfig holds the accounting provider's OAuth client and API endpoints.
type QuickBooksConfig struct {
	ClientID      string
	ClientSecret  string
	AuthURL       string
	TokenURL      string
	RedirectURL   string
	APIBaseURL    string
	MinorVersion  string
	ServiceItemID string
}

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	MigrationsPath string
	JWTSecret      string
	JWTIssuer      string

	// SyncSecret guards the cron trigger endpoints. Empty disables the check.
	SyncSecret      string
	DefaultTenantID string

	QuickBooks         QuickBooksConfig
	TokenEncryptionKey string

	TokenRefreshMargin  time.Duration
	SyncTokenThreshold  time.Duration
	FullSyncInterval    time.Duration
	BidirectionalWindow time.Duration
	CatchupWindow       time.Duration
	PushBatchSize       int
	ExternalCallTimeout time.Duration
	ExternalMaxAttempts int

	LockBackend  string
	RedisAddress string
	LockTTL      time.Duration

	SchedulerEnabled  bool
	SchedulerInterval time.Duration

	SyncRateLimit      string
	CORSAllowedOrigins []string
}

var durationDefaults = map[string]time.Duration{
	"TOKEN_REFRESH_MARGIN":  5 * time.Minute,
	"SYNC_TOKEN_THRESHOLD":  20 * time.Minute,
	"FULL_SYNC_INTERVAL":    24 * time.Hour,
	"BIDIRECTIONAL_WINDOW":  7 * 24 * time.Hour,
	"CATCHUP_WINDOW":        30 * 24 * time.Hour,
	"EXTERNAL_CALL_TIMEOUT": 30 * time.Second,
	"LOCK_TTL":              10 * time.Minute,
	"SCHEDULER_INTERVAL":    5 * time.Minute,
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_ISSUER", "ledger-sync")
	viper.SetDefault("SYNC_SECRET", "")
	viper.SetDefault("DEFAULT_TENANT_ID", "")
	viper.SetDefault("QBO_AUTH_URL", "https://appcenter.intuit.com/connect/oauth2")
	viper.SetDefault("QBO_TOKEN_URL", "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer")
	viper.SetDefault("QBO_API_BASE_URL", "https://sandbox-quickbooks.api.intuit.com")
	viper.SetDefault("QBO_MINOR_VERSION", "75")
	viper.SetDefault("QBO_SERVICE_ITEM_ID", "1")
	viper.SetDefault("PUSH_BATCH_SIZE", 50)
	viper.SetDefault("EXTERNAL_MAX_ATTEMPTS", 3)
	viper.SetDefault("LOCK_BACKEND", LockBackendPostgres)
	viper.SetDefault("REDIS_ADDRESS", "localhost:6379")
	viper.SetDefault("SCHEDULER_ENABLED", false)
	viper.SetDefault("SYNC_RATE_LIMIT", "30-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "")
	for key, def := range durationDefaults {
		viper.SetDefault(key, def.String())
	}

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:     viper.GetString("PGSQL_URL"),
		Port:            viper.GetString("PORT"),
		IsProduction:    viper.GetBool("IS_PRODUCTION"),
		EnableDBCheck:   viper.GetBool("ENABLE_DB_CHECK"),
		MigrationsPath:  viper.GetString("MIGRATIONS_PATH"),
		JWTSecret:       viper.GetString("JWT_SECRET"),
		JWTIssuer:       viper.GetString("JWT_ISSUER"),
		SyncSecret:      viper.GetString("SYNC_SECRET"),
		DefaultTenantID: viper.GetString("DEFAULT_TENANT_ID"),
		QuickBooks: QuickBooksConfig{
			ClientID:      viper.GetString("QBO_CLIENT_ID"),
			ClientSecret:  viper.GetString("QBO_CLIENT_SECRET"),
			AuthURL:       viper.GetString("QBO_AUTH_URL"),
			TokenURL:      viper.GetString("QBO_TOKEN_URL"),
			RedirectURL:   viper.GetString("QBO_REDIRECT_URL"),
			APIBaseURL:    viper.GetString("QBO_API_BASE_URL"),
			MinorVersion:  viper.GetString("QBO_MINOR_VERSION"),
			ServiceItemID: viper.GetString("QBO_SERVICE_ITEM_ID"),
		},
		TokenEncryptionKey:  viper.GetString("TOKEN_ENCRYPTION_KEY"),
		TokenRefreshMargin:  duration("TOKEN_REFRESH_MARGIN"),
		SyncTokenThreshold:  duration("SYNC_TOKEN_THRESHOLD"),
		FullSyncInterval:    duration("FULL_SYNC_INTERVAL"),
		BidirectionalWindow: duration("BIDIRECTIONAL_WINDOW"),
		CatchupWindow:       duration("CATCHUP_WINDOW"),
		PushBatchSize:       viper.GetInt("PUSH_BATCH_SIZE"),
		ExternalCallTimeout: duration("EXTERNAL_CALL_TIMEOUT"),
		ExternalMaxAttempts: viper.GetInt("EXTERNAL_MAX_ATTEMPTS"),
		LockBackend:         strings.ToLower(viper.GetString("LOCK_BACKEND")),
		RedisAddress:        viper.GetString("REDIS_ADDRESS"),
		LockTTL:             duration("LOCK_TTL"),
		SchedulerEnabled:    viper.GetBool("SCHEDULER_ENABLED"),
		SchedulerInterval:   duration("SCHEDULER_INTERVAL"),
		SyncRateLimit:       viper.GetString("SYNC_RATE_LIMIT"),
		CORSAllowedOrigins:  splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}
	if cfg.PushBatchSize <= 0 {
		log.Printf("Warning: Invalid value for PUSH_BATCH_SIZE (%d). Defaulting to 50.\n", cfg.PushBatchSize)
		cfg.PushBatchSize = 50
	}
	if cfg.ExternalMaxAttempts <= 0 {
		log.Printf("Warning: Invalid value for EXTERNAL_MAX_ATTEMPTS (%d). Defaulting to 3.\n", cfg.ExternalMaxAttempts)
		cfg.ExternalMaxAttempts = 3
	}
	if cfg.QuickBooks.ClientID == "" || cfg.QuickBooks.ClientSecret == "" {
		log.Println("Warning: QBO_CLIENT_ID or QBO_CLIENT_SECRET not set. Token refresh will fail.")
	}
	if cfg.SyncSecret == "" {
		log.Println("Warning: SYNC_SECRET not set. Sync endpoints are unauthenticated.")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LockBackend {
	case LockBackendPostgres, LockBackendRedis, LockBackendLocal:
	default:
		return fmt.Errorf("invalid LOCK_BACKEND %q (want postgres, redis or none)", c.LockBackend)
	}
	if c.SchedulerEnabled && c.DefaultTenantID == "" {
		return errors.New("SCHEDULER_ENABLED requires DEFAULT_TENANT_ID")
	}
	if c.IsProduction {
		if c.SyncSecret == "" {
			return errors.New("SYNC_SECRET is required in production")
		}
		if c.TokenEncryptionKey == "" {
			return errors.New("TOKEN_ENCRYPTION_KEY is required in production")
		}
	}
	return nil
}

// duration reads a Go duration, falling back to its default with a warning.
func duration(key string) time.Duration {
	def := durationDefaults[key]
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def)
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
