package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/upb/session-gateway/utils"
)

// MinCookiePasswordLength is the shortest accepted cookie-sealing password.
const MinCookiePasswordLength = 32

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      *DatabaseConfig // Optional: auth audit trail. When nil, audit events are only logged.
	Provider      ProviderConfig
	Session       SessionConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host               string `validate:"required"`
	Port               int    `validate:"gt=0,lte=65535"`
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	RequestTimeout     time.Duration
	CORSAllowedOrigins []string
}

// DatabaseConfig holds PostgreSQL configuration for the audit store.
type DatabaseConfig struct {
	ConnectionString string `validate:"required"` // From DATABASE_URL
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// ProviderConfig holds identity provider (user management API) configuration
type ProviderConfig struct {
	APIKey            string
	ClientID          string
	CookiePassword    string
	RedirectURI       string `validate:"omitempty,url"`
	BaseURL           string `validate:"required,url"`
	FrontEndURL       string `validate:"required,url"` // Post-login redirect target (loaded from FRONTEND_URL)
	LogoutRedirectURL string `validate:"omitempty,url"`
	HTTPTimeout       time.Duration
	JWKSCacheTTL      time.Duration
}

// SessionConfig holds session cookie configuration
type SessionConfig struct {
	CookieName string `validate:"required"`
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string `validate:"required"`
	LogFormat      string `validate:"omitempty,oneof=json console text"`
	LogFile        string
	MetricsEnabled bool
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	frontEndURL := getEnv("FRONTEND_URL", "http://localhost:5173")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "127.0.0.1"),
			Port:               getPort(),
			ReadTimeout:        getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:       getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout:    getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			RequestTimeout:     getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 60*time.Second),
			CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{frontEndURL}),
		},
		Database: loadDatabaseConfig(),
		Provider: ProviderConfig{
			APIKey:            getEnv("WORKOS_API_KEY", ""),
			ClientID:          getEnv("WORKOS_CLIENT_ID", ""),
			CookiePassword:    getEnv("WORKOS_COOKIE_PASSWORD", ""),
			RedirectURI:       getEnv("WORKOS_REDIRECT_URI", "http://localhost:5000/callback"),
			BaseURL:           getEnv("WORKOS_BASE_URL", "https://api.workos.com"),
			FrontEndURL:       frontEndURL,
			LogoutRedirectURL: getEnv("LOGOUT_REDIRECT_URL", ""),
			HTTPTimeout:       getEnvAsDuration("WORKOS_HTTP_TIMEOUT", 10*time.Second),
			JWKSCacheTTL:      getEnvAsDuration("WORKOS_JWKS_CACHE_TTL", time.Hour),
		},
		Session: SessionConfig{
			CookieName: getEnv("SESSION_COOKIE_NAME", "wos_session"),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			LogFile:        getEnv("LOG_FILE", ""),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	for _, section := range []interface{}{&c.Server, &c.Provider, &c.Session, &c.Observability} {
		if err := utils.ValidateStruct(section); err != nil {
			if fields := utils.GetValidationFields(err); len(fields) > 0 {
				return fmt.Errorf("%w: %v", err, fields)
			}
			return err
		}
	}
	if c.Database != nil {
		if err := utils.ValidateStruct(c.Database); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	// Provider credentials are required in production
	if c.IsProduction() {
		if c.Provider.APIKey == "" {
			return fmt.Errorf("provider API key is required in production")
		}
		if c.Provider.ClientID == "" {
			return fmt.Errorf("provider client ID is required in production")
		}
		if c.Provider.CookiePassword == "" {
			return fmt.Errorf("cookie password is required in production")
		}
	}

	if c.Provider.CookiePassword != "" && len(c.Provider.CookiePassword) < MinCookiePasswordLength {
		return fmt.Errorf("cookie password must be at least %d characters", MinCookiePasswordLength)
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// IsConfigured reports whether every credential needed to talk to the provider is present.
func (p *ProviderConfig) IsConfigured() bool {
	return p.APIKey != "" && p.ClientID != "" && p.CookiePassword != ""
}

// PostLogoutURL returns where the browser lands when no provider logout URL can be built.
func (p *ProviderConfig) PostLogoutURL() string {
	if p.LogoutRedirectURL != "" {
		return p.LogoutRedirectURL
	}
	if p.FrontEndURL != "" {
		return p.FrontEndURL
	}
	return "/"
}

// LogString returns a safe string for logging (no password).
func (c *DatabaseConfig) LogString() string {
	u, err := url.Parse(c.ConnectionString)
	if err != nil || u.Host == "" {
		return "host=<from DATABASE_URL>"
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	db := strings.TrimPrefix(u.Path, "/")
	return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, db)
}

// loadDatabaseConfig loads the audit store config from DATABASE_URL.
// Returns nil when not set.
func loadDatabaseConfig() *DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		return nil
	}
	return &DatabaseConfig{
		ConnectionString: dbURL,
		MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 5000)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 5000
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma-separated value, dropping empty entries
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
