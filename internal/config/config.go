package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment names accepted in APP_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Storage backend names accepted in STORAGE.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Coupon   CouponConfig
	Partner  PartnerConfig
}

// AppConfig holds environment and storage selection.
type AppConfig struct {
	Environment string
	Storage     string
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// CouponConfig holds coupon issuing configuration.
type CouponConfig struct {
	CodePrefix      string
	ValidityMinutes int
	QRBaseOrigin    string
}

// PartnerConfig holds partner back-office authentication configuration.
type PartnerConfig struct {
	// Token is the bearer session token accepted on /partner routes. The
	// identity provider that issues real session tokens is an external
	// collaborator; this static token stands in for its verification step.
	Token string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Environment: getEnv("APP_ENV", EnvDevelopment),
			Storage:     getEnv("STORAGE", StoragePostgres),
		},
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "tavaresclub"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Coupon: CouponConfig{
			CodePrefix:      getEnv("CODE_PREFIX", "TRV"),
			ValidityMinutes: getEnvAsInt("COUPON_VALIDITY_MINUTES", 120),
			QRBaseOrigin:    getEnv("QR_BASE_ORIGIN", "https://tavares.club"),
		},
		Partner: PartnerConfig{
			Token: getEnv("PARTNER_TOKEN", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.App.Environment != EnvDevelopment && c.App.Environment != EnvProduction {
		return fmt.Errorf("invalid environment: %s (must be development or production)", c.App.Environment)
	}

	if c.App.Storage != StoragePostgres && c.App.Storage != StorageMemory {
		return fmt.Errorf("invalid storage backend: %s (must be postgres or memory)", c.App.Storage)
	}

	// The in-memory store is a local development stub; a production
	// deployment must fail closed rather than run on forgeable storage.
	if c.IsProduction() && c.App.Storage == StorageMemory {
		return fmt.Errorf("memory storage is not allowed in production")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.App.Storage == StoragePostgres {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}

		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Database.Port)
		}

		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}

		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}

		if c.Database.MaxConnections < 1 {
			return fmt.Errorf("database max connections must be at least 1")
		}

		if c.Database.MinConnections < 1 {
			return fmt.Errorf("database min connections must be at least 1")
		}

		if c.Database.MinConnections > c.Database.MaxConnections {
			return fmt.Errorf("database min connections cannot exceed max connections")
		}
	}

	if c.Partner.Token == "" {
		return fmt.Errorf("partner token is required")
	}

	if c.Coupon.ValidityMinutes < 1 {
		return fmt.Errorf("coupon validity must be at least 1 minute")
	}

	if c.Coupon.QRBaseOrigin == "" {
		return fmt.Errorf("QR base origin is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	return nil
}

// IsProduction reports whether the app runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// Validity returns the coupon validity window as a duration.
func (c *CouponConfig) Validity() time.Duration {
	return time.Duration(c.ValidityMinutes) * time.Minute
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
