package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Check    CheckConfig
	Store    StoreConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Admin    AdminConfig
}

// AppConfig holds HTTP API configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// CheckConfig holds the badge check transport configuration
type CheckConfig struct {
	Port int
}

// StoreConfig selects and configures the snapshot store
type StoreConfig struct {
	Type         string // file | postgres
	SnapshotFile string
	// AutosaveSeconds is the snapshot autosave debounce; 0 disables
	// autosave (save on shutdown only).
	AutosaveSeconds int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds admin token configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AdminConfig holds the admin API credential (bcrypt hash of the API key)
type AdminConfig struct {
	APIKeyHash string
}

func Load() (*Config, error) {
	// A .env file is a development convenience; absence is fine.
	_ = godotenv.Load()

	config := &Config{}

	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}
	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	checkPort, err := strconv.Atoi(getEnv("CHECK_PORT", "9700"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHECK_PORT: %w", err)
	}
	config.Check = CheckConfig{Port: checkPort}

	autosave, err := strconv.Atoi(getEnv("SNAPSHOT_AUTOSAVE_SECONDS", "300"))
	if err != nil {
		return nil, fmt.Errorf("invalid SNAPSHOT_AUTOSAVE_SECONDS: %w", err)
	}
	config.Store = StoreConfig{
		Type:            getEnv("STORE_TYPE", "file"),
		SnapshotFile:    getEnv("SNAPSHOT_FILE", "pointage.json"),
		AutosaveSeconds: autosave,
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "pointage"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	config.Admin = AdminConfig{
		APIKeyHash: getEnv("ADMIN_API_KEY_HASH", ""),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Admin.APIKeyHash == "" {
		return fmt.Errorf("ADMIN_API_KEY_HASH is required")
	}
	switch c.Store.Type {
	case "file":
		if c.Store.SnapshotFile == "" {
			return fmt.Errorf("SNAPSHOT_FILE is required")
		}
	case "postgres":
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	default:
		return fmt.Errorf("unsupported STORE_TYPE: %s", c.Store.Type)
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
