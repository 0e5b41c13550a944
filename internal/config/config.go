package config

import (
	"errors"
	"fmt"
	"os"

	"wanderbook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Booking    BookingConfig    `yaml:"booking"`
	Exports    ExportConfig     `yaml:"exports"`
}

// BookingConfig controls checkout policy.
type BookingConfig struct {
	MaxGuests int `yaml:"max_guests"`
	MinGuests int `yaml:"min_guests"`
	// RejectUpcomingPromos decides whether a promo whose valid_from is still
	// in the future is rejected. The permissive legacy behavior is false.
	RejectUpcomingPromos *bool `yaml:"reject_upcoming_promos"`
	CheckoutTTLSeconds   int   `yaml:"checkout_ttl_seconds"`
	AvailabilityDays     int   `yaml:"availability_days"`
	RateLimitRequests    int   `yaml:"rate_limit_requests"`
	RateLimitWindow      int   `yaml:"rate_limit_window"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

func Load(configPath string) (*Config, error) {
	// .env подхватывается, если существует
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Booking.MinGuests < 1 {
		return fmt.Errorf("booking.min_guests must be at least 1, got %d", c.Booking.MinGuests)
	}
	if c.Booking.MaxGuests < c.Booking.MinGuests {
		return fmt.Errorf("booking.max_guests (%d) must not be below booking.min_guests (%d)",
			c.Booking.MaxGuests, c.Booking.MinGuests)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	// auth enabled by default when API is enabled
	if !c.API.Auth.Enabled {
		c.API.Auth.Enabled = true
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}

	// Booking defaults
	if c.Booking.MinGuests == 0 {
		c.Booking.MinGuests = models.MinGuests
	}
	if c.Booking.MaxGuests == 0 {
		c.Booking.MaxGuests = models.MaxGuests
	}
	if c.Booking.RejectUpcomingPromos == nil {
		rejectUpcoming := true
		c.Booking.RejectUpcomingPromos = &rejectUpcoming
	}
	if c.Booking.CheckoutTTLSeconds == 0 {
		c.Booking.CheckoutTTLSeconds = models.DefaultCheckoutTTL
	}
	if c.Booking.AvailabilityDays == 0 {
		c.Booking.AvailabilityDays = models.DefaultAvailabilityDays
	}
	if c.Booking.RateLimitRequests == 0 {
		c.Booking.RateLimitRequests = models.RateLimitRequests
	}
	if c.Booking.RateLimitWindow == 0 {
		c.Booking.RateLimitWindow = models.RateLimitWindow
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
