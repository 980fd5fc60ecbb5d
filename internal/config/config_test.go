package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "test.db")
	t.Setenv("PROMOTION_POLL_INTERVAL", "500ms")
	t.Setenv("PROMOTION_CONFIRM_DEADLINE", "5s")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Promotions.PollInterval != 500*time.Millisecond {
		t.Errorf("expected poll interval 500ms, got %v", cfg.Promotions.PollInterval)
	}
	if cfg.Promotions.ConfirmDeadline != 5*time.Second {
		t.Errorf("expected deadline 5s, got %v", cfg.Promotions.ConfirmDeadline)
	}
	if cfg.Promotions.StatusMessageTTL != time.Hour {
		t.Errorf("expected default ttl 1h, got %v", cfg.Promotions.StatusMessageTTL)
	}
	if cfg.GetDSN() != "test.db" {
		t.Errorf("expected sqlite DSN to be the path, got %q", cfg.GetDSN())
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Errorf("unexpected redis url %q", cfg.Redis.URL)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PROMOTION_POLL_INTERVAL", "soon")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "PROMOTION_POLL_INTERVAL") {
		t.Errorf("expected an error naming PROMOTION_POLL_INTERVAL, got %v", err)
	}
}

func TestLoad_InvalidJanitorInterval(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JANITOR_INTERVAL", "0s")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "JANITOR_INTERVAL") {
		t.Errorf("expected an error naming JANITOR_INTERVAL, got %v", err)
	}
}

func TestLoadDatabase_WithoutSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("JANITOR_INTERVAL", "0s")

	if _, err := Load(); err == nil {
		t.Fatal("expected Load to require JWT_SECRET")
	}

	cfg, err := LoadDatabase()
	if err != nil {
		t.Fatalf("LoadDatabase failed: %v", err)
	}
	if cfg.Database.Host != "db" {
		t.Errorf("expected host db, got %q", cfg.Database.Host)
	}
}

func TestLoadDatabase_UnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	if _, err := LoadDatabase(); err == nil || !strings.Contains(err.Error(), "DB_DRIVER") {
		t.Errorf("expected an error naming DB_DRIVER, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: "postgres"},
			App:      AppConfig{JWTSecret: "secret"},
			Promotions: PromotionsConfig{
				PollInterval:     time.Second,
				ConfirmDeadline:  10 * time.Second,
				StatusMessageTTL: time.Hour,
				JanitorInterval:  time.Minute,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing secret", func(c *Config) { c.App.JWTSecret = "" }, true},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"zero poll interval", func(c *Config) { c.Promotions.PollInterval = 0 }, true},
		{"deadline shorter than interval", func(c *Config) { c.Promotions.ConfirmDeadline = 500 * time.Millisecond }, true},
		{"zero message ttl", func(c *Config) { c.Promotions.StatusMessageTTL = 0 }, true},
		{"negative message ttl", func(c *Config) { c.Promotions.StatusMessageTTL = -time.Minute }, true},
		{"message ttl shorter than deadline", func(c *Config) { c.Promotions.StatusMessageTTL = 5 * time.Second }, true},
		{"message ttl equal to deadline", func(c *Config) { c.Promotions.StatusMessageTTL = 10 * time.Second }, false},
		{"zero janitor interval", func(c *Config) { c.Promotions.JanitorInterval = 0 }, true},
		{"negative janitor interval", func(c *Config) { c.Promotions.JanitorInterval = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestGetDSN_Postgres(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Driver:   "postgres",
		Host:     "db",
		Port:     "5432",
		User:     "app",
		Password: "pw",
		DBName:   "promotions",
	}}

	want := "host=db port=5432 user=app password=pw dbname=promotions sslmode=disable"
	if got := cfg.GetDSN(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if got := cfg.GetPostgresURL(); got != "postgres://app:pw@db:5432/promotions?sslmode=disable" {
		t.Errorf("unexpected postgres url %q", got)
	}
}
