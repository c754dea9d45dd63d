package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	RecordStoreREST     = "rest"
	RecordStorePostgres = "postgres"
)

// Config holds application configuration loaded from environment variables.
// It is read once at startup and passed explicitly to whatever needs it.
type Config struct {
	AppName string
	Env     string // development, staging, production
	Port    string
	GinMode string

	// Hosted backend (identity provider + record store)
	SupabaseURL         string
	SupabaseKey         string
	SupabaseJWTSecret   string // optional; enables local token pre-check
	SupabaseUsersTable  string
	SupabaseHTTPTimeout time.Duration

	// Record store backend: "rest" or "postgres"
	RecordStore string

	// Database (postgres record store and audit log)
	DatabaseURL     string
	DBMaxConns      int32
	DBMinConns      int32
	DBMaxConnLife   time.Duration
	MigrationsDir   string
	AuditLogEnabled bool

	// Redis (orphaned identity ledger)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// RabbitMQ (email jobs)
	RabbitMQURL        string
	RabbitMQEmailQueue string

	// Mailgun
	MailgunDomain string
	MailgunAPIKey string
	MailgunSender string

	// Email copy
	CompanyName string
	SupportURL  string
	LogoURL     string

	MailSendEnabled bool

	// Comma-separated profile columns PATCH may write. Empty means any.
	ProfileWritableFields string

	// CORS
	CORSAllowedOrigins string // comma-separated

	HTTPLogEnabled      bool
	DebugMetricsEnabled bool
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getbool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid boolean for %s: %v, using default %v", key, err, def)
			return def
		}
		return b
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid int for %s: %v, using default %d", key, err, def)
			return def
		}
		return i
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using default %v", key, err, def)
			return def
		}
		return d
	}
	return def
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		AppName: getenv("APP_NAME", "supabase-auth-api"),
		Env:     getenv("APP_ENV", "development"),
		Port:    getenv("PORT", "8080"),
		GinMode: getenv("GIN_MODE", "release"),

		SupabaseURL:         strings.TrimRight(getenv("SUPABASE_URL", ""), "/"),
		SupabaseKey:         getenv("SUPABASE_KEY", ""),
		SupabaseJWTSecret:   getenv("SUPABASE_JWT_SECRET", ""),
		SupabaseUsersTable:  getenv("SUPABASE_USERS_TABLE", "users"),
		SupabaseHTTPTimeout: getdur("SUPABASE_HTTP_TIMEOUT", 10*time.Second),

		RecordStore: strings.ToLower(getenv("RECORD_STORE", RecordStoreREST)),

		DatabaseURL:     getenv("DATABASE_URL", ""),
		DBMaxConns:      int32(getint("DB_MAX_CONNS", 10)),
		DBMinConns:      int32(getint("DB_MIN_CONNS", 2)),
		DBMaxConnLife:   getdur("DB_MAX_CONN_LIFETIME", time.Hour),
		MigrationsDir:   getenv("MIGRATIONS_DIR", "db/migrations"),
		AuditLogEnabled: getbool("AUDIT_LOG_ENABLED", true),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getint("REDIS_DB", 0),

		RabbitMQURL:        getenv("RABBITMQ_URL", ""),
		RabbitMQEmailQueue: getenv("RABBITMQ_EMAIL_QUEUE", "emails"),

		MailgunDomain: getenv("MAILGUN_DOMAIN", ""),
		MailgunAPIKey: getenv("MAILGUN_API_KEY", ""),
		MailgunSender: getenv("MAILGUN_SENDER", ""),

		CompanyName: getenv("COMPANY_NAME", ""),
		SupportURL:  getenv("SUPPORT_URL", ""),
		LogoURL:     getenv("LOGO_URL", ""),

		MailSendEnabled: getbool("MAIL_SEND_ENABLED", false),

		ProfileWritableFields: getenv("PROFILE_WRITABLE_FIELDS", ""),

		CORSAllowedOrigins: getenv("CORS_ALLOWED_ORIGINS", ""),

		HTTPLogEnabled:      getbool("HTTP_LOG_ENABLED", false),
		DebugMetricsEnabled: getbool("DEBUG_METRICS_ENABLED", true),
	}
}

// Validate reports missing or inconsistent settings.
func (c *Config) Validate() error {
	var errs []error
	if c.SupabaseURL == "" {
		errs = append(errs, errors.New("SUPABASE_URL is required"))
	}
	if c.SupabaseKey == "" {
		errs = append(errs, errors.New("SUPABASE_KEY is required"))
	}
	switch c.RecordStore {
	case RecordStoreREST:
	case RecordStorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when RECORD_STORE=postgres"))
		}
	default:
		errs = append(errs, errors.New("RECORD_STORE must be \"rest\" or \"postgres\""))
	}
	return errors.Join(errs...)
}

// NeedsDatabase reports whether a Postgres pool must be opened.
func (c *Config) NeedsDatabase() bool {
	return c.RecordStore == RecordStorePostgres || (c.AuditLogEnabled && c.DatabaseURL != "")
}

// CORSOrigins returns the allowed origins as slice.
func (c *Config) CORSOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

// WritableFields returns the PATCH allow-list, nil when unrestricted.
func (c *Config) WritableFields() []string {
	return splitList(c.ProfileWritableFields)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			res = append(res, p)
		}
	}
	if len(res) == 0 {
		return nil
	}
	return res
}
