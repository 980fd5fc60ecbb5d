package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	App        AppConfig
	Promotions PromotionsConfig
	Redis      RedisConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver   string // postgres or sqlite
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	Path     string // sqlite database file
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port        string
	FrontendURL string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret string
}

// PromotionsConfig holds the nomination confirmation schedule
type PromotionsConfig struct {
	PollInterval     time.Duration
	ConfirmDeadline  time.Duration
	StatusMessageTTL time.Duration
	JanitorInterval  time.Duration
}

// RedisConfig selects the Redis reaction board when URL is set
type RedisConfig struct {
	URL string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	config, err := load()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadDatabase loads configuration for tools that only open the database.
// JWT_SECRET and the promotion schedule are not checked.
func LoadDatabase() (*Config, error) {
	config, err := load()
	if err != nil {
		return nil, err
	}
	if err := config.ValidateDatabase(); err != nil {
		return nil, err
	}
	return config, nil
}

func load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	pollInterval, err := getDuration("PROMOTION_POLL_INTERVAL", time.Second)
	if err != nil {
		return nil, err
	}
	deadline, err := getDuration("PROMOTION_CONFIRM_DEADLINE", 10*time.Second)
	if err != nil {
		return nil, err
	}
	messageTTL, err := getDuration("STATUS_MESSAGE_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	janitorInterval, err := getDuration("JANITOR_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "promotions"),
			Path:     getEnv("DB_PATH", "promotions.db"),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			FrontendURL: getEnv("FRONTEND_URL", ""),
		},
		App: AppConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Promotions: PromotionsConfig{
			PollInterval:     pollInterval,
			ConfirmDeadline:  deadline,
			StatusMessageTTL: messageTTL,
			JanitorInterval:  janitorInterval,
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
	}

	return config, nil
}

// Validate checks required fields and the confirmation schedule
func (c *Config) Validate() error {
	if c.App.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if err := c.ValidateDatabase(); err != nil {
		return err
	}

	if c.Promotions.PollInterval <= 0 {
		return fmt.Errorf("PROMOTION_POLL_INTERVAL must be positive")
	}

	if c.Promotions.ConfirmDeadline < c.Promotions.PollInterval {
		return fmt.Errorf("PROMOTION_CONFIRM_DEADLINE must be at least PROMOTION_POLL_INTERVAL")
	}

	if c.Promotions.StatusMessageTTL <= 0 {
		return fmt.Errorf("STATUS_MESSAGE_TTL must be positive")
	}

	// Status messages must outlive the confirmation they track
	if c.Promotions.StatusMessageTTL < c.Promotions.ConfirmDeadline {
		return fmt.Errorf("STATUS_MESSAGE_TTL must be at least PROMOTION_CONFIRM_DEADLINE")
	}

	if c.Promotions.JanitorInterval <= 0 {
		return fmt.Errorf("JANITOR_INTERVAL must be positive")
	}

	return nil
}

// ValidateDatabase checks the database driver only
func (c *Config) ValidateDatabase() error {
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.Database.Driver)
	}
	return nil
}

// GetDSN returns the connection string for the configured driver
func (c *Config) GetDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.Path
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// GetPostgresURL returns the PostgreSQL connection string in URL form
func (c *Config) GetPostgresURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getDuration parses a duration such as "1s" or "500ms" from the environment
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
