package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Username string `mapstructure:"LINKEDIN_USERNAME"`
	Password string `mapstructure:"LINKEDIN_PASSWORD"`
	BaseURL  string `mapstructure:"BASE_URL"`

	WaitSeconds         int    `mapstructure:"WAIT_SECONDS"`
	ScrollMaxIterations int    `mapstructure:"SCROLL_MAX_ITERATIONS"`
	BrowserDriver       string `mapstructure:"BROWSER_DRIVER"`
	Headless            bool   `mapstructure:"HEADLESS"`
	ChromePath          string `mapstructure:"CHROME_PATH"`

	StoreDriver string `mapstructure:"STORE_DRIVER"`
	DBPath      string `mapstructure:"DB_PATH"`
	PostgresURL string `mapstructure:"POSTGRES_URL"`

	LogPath  string `mapstructure:"LOG_PATH"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	RedisAddr        string `mapstructure:"REDIS_ADDR"`
	RedisPassword    string `mapstructure:"REDIS_PASSWORD"`
	RedisDB          int    `mapstructure:"REDIS_DB"`
	SnapshotTTLHours int    `mapstructure:"SNAPSHOT_TTL_HOURS"`

	MetricsFile string `mapstructure:"METRICS_FILE"`
	StatusAddr  string `mapstructure:"STATUS_ADDR"`
}

// Wait is the blind wait applied after every navigation step.
func (c *Config) Wait() time.Duration {
	return time.Duration(c.WaitSeconds) * time.Second
}

// SnapshotTTL is how long archived snapshots are kept in Redis.
func (c *Config) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLHours) * time.Hour
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("LINKEDIN_USERNAME", "")
	v.SetDefault("LINKEDIN_PASSWORD", "")
	v.SetDefault("BASE_URL", "https://www.linkedin.com")
	v.SetDefault("WAIT_SECONDS", 10)
	v.SetDefault("SCROLL_MAX_ITERATIONS", 500)
	v.SetDefault("BROWSER_DRIVER", "chromedp")
	v.SetDefault("HEADLESS", false)
	v.SetDefault("CHROME_PATH", "")
	v.SetDefault("STORE_DRIVER", "sqlite")
	v.SetDefault("DB_PATH", "linkedin.db")
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("LOG_PATH", "linkedin.log")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SNAPSHOT_TTL_HOURS", 48)
	v.SetDefault("METRICS_FILE", "")
	v.SetDefault("STATUS_ADDR", "")
}

// Load reads configuration from the global viper instance, an optional .env file
// and environment variables.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper(), ".env")
}

// LoadFrom reads configuration from v. envFile may be empty to skip the file.
func LoadFrom(v *viper.Viper, envFile string) (*Config, error) {
	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		// Attempt to read the .env file, but don't fail if it's not present
		_ = v.ReadInConfig()
	}
	v.AutomaticEnv()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the run cannot start with.
func (c *Config) Validate() error {
	c.BrowserDriver = strings.ToLower(c.BrowserDriver)
	c.StoreDriver = strings.ToLower(c.StoreDriver)

	switch c.BrowserDriver {
	case "chromedp", "rod":
	default:
		return fmt.Errorf("unknown browser driver %q", c.BrowserDriver)
	}
	switch c.StoreDriver {
	case "sqlite":
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite store")
		}
	case "postgres":
		if c.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if c.WaitSeconds < 0 {
		return fmt.Errorf("WAIT_SECONDS must not be negative")
	}
	if c.ScrollMaxIterations <= 0 {
		return fmt.Errorf("SCROLL_MAX_ITERATIONS must be positive")
	}
	return nil
}
