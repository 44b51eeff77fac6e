package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig encapsulates all runtime configuration knobs.
type AppConfig struct {
	App         AppSettings
	HTTP        HTTPSettings
	Auth        AuthSettings
	Log         LogSettings
	Database    DatabaseSettings
	Audit       AuditSettings
	Portal      PortalSettings
	CompanyInfo CompanyInfoSettings
	Push        PushSettings
}

type AppSettings struct {
	Name        string
	Version     string
	Environment string
}

type HTTPSettings struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type AuthSettings struct {
	Enabled     bool
	IssuerURI   string
	JWKSetURI   string
	ClockSkew   time.Duration
	BypassPaths []string
}

type LogSettings struct {
	Level string
}

type DatabaseSettings struct {
	Enabled         bool
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuditSettings struct {
	Enabled bool
}

// PortalSettings configures the remote payment portal API.
type PortalSettings struct {
	BaseURL    string
	Token      string
	APITimeout time.Duration
}

// CompanyInfoSettings configures the company display info endpoint.
type CompanyInfoSettings struct {
	BaseURL    string
	Token      string
	APITimeout time.Duration
}

// PushSettings tunes the automatic push-reference validation flow.
type PushSettings struct {
	PollInterval time.Duration
	SettleDelay  time.Duration
}

// Load resolves the application configuration from environment variables.
// It first attempts to load variables from a .env file if it exists.
// Environment variables set in the system take precedence over .env file values.
func Load() (AppConfig, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	// This allows the application to work both with .env files (local dev)
	// and environment variables (Docker, production)
	_ = godotenv.Load()

	cfg := AppConfig{
		App: AppSettings{
			Name:        getEnv("APP_NAME", "validar_pago"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
			Environment: getEnv("APP_ENV", "local"),
		},
		HTTP: HTTPSettings{
			Port:            getEnvAsInt("APP_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Auth: AuthSettings{
			Enabled:     getEnvAsBool("AUTH_ENABLED", false),
			IssuerURI:   strings.TrimSpace(os.Getenv("JWT_ISSUER_URI")),
			JWKSetURI:   strings.TrimSpace(os.Getenv("JWT_JWK_SET_URI")),
			ClockSkew:   getEnvAsDuration("AUTH_CLOCK_SKEW", 2*time.Minute),
			BypassPaths: getEnvAsCSV("AUTH_BYPASS_PATHS", []string{"/health"}),
		},
		Log: LogSettings{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseSettings{
			Enabled:         getEnvAsBool("DB_ENABLED", false),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Database:        getEnv("DB_NAME", "validar_pago"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Audit: AuditSettings{
			Enabled: getEnvAsBool("AUDIT_ENABLED", true),
		},
		Portal: PortalSettings{
			BaseURL:    strings.TrimSpace(os.Getenv("PORTAL_API_URL")),
			Token:      strings.TrimSpace(os.Getenv("PORTAL_API_TOKEN")),
			APITimeout: getEnvAsDuration("PORTAL_API_TIMEOUT", 30*time.Second),
		},
		CompanyInfo: CompanyInfoSettings{
			BaseURL:    strings.TrimSpace(os.Getenv("COMPANY_INFO_URL")),
			Token:      strings.TrimSpace(os.Getenv("COMPANY_INFO_TOKEN")),
			APITimeout: getEnvAsDuration("COMPANY_INFO_TIMEOUT", 10*time.Second),
		},
		Push: PushSettings{
			PollInterval: getEnvAsDuration("PUSH_POLL_INTERVAL", 2*time.Second),
			SettleDelay:  getEnvAsDuration("PUSH_SETTLE_DELAY", 3*time.Second),
		},
	}

	if cfg.Portal.BaseURL == "" {
		return cfg, errors.New("invalid config: PORTAL_API_URL is required")
	}
	if cfg.Portal.Token == "" {
		return cfg, errors.New("invalid config: PORTAL_API_TOKEN is required")
	}

	if cfg.Push.PollInterval <= 0 {
		return cfg, errors.New("invalid config: PUSH_POLL_INTERVAL must be greater than 0")
	}
	if cfg.Push.SettleDelay <= 0 {
		return cfg, errors.New("invalid config: PUSH_SETTLE_DELAY must be greater than 0")
	}

	if cfg.Auth.Enabled {
		if cfg.Auth.IssuerURI == "" {
			return cfg, errors.New("invalid config: JWT_ISSUER_URI is required when AUTH_ENABLED=true")
		}
		if cfg.Auth.JWKSetURI == "" {
			return cfg, errors.New("invalid config: JWT_JWK_SET_URI is required when AUTH_ENABLED=true")
		}
	}

	return cfg, nil
}

// Address returns the HTTP listen address in host:port form.
func (h HTTPSettings) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

// DSN builds the PostgreSQL connection string.
func (d DatabaseSettings) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsCSV(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
