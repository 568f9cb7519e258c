package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	Backend struct {
		BaseURL        string  `yaml:"base_url"`
		Token          string  `yaml:"token"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		FetchAllLimit  int     `yaml:"fetch_all_limit"`
		Exhaustive     bool    `yaml:"exhaustive"`
		RateLimitRPS   float64 `yaml:"rate_limit_rps"`
		RateLimitBurst int     `yaml:"rate_limit_burst"`
	} `yaml:"backend"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Server struct {
		Address string   `yaml:"address"`
		APIKeys []string `yaml:"api_keys"`
	} `yaml:"server"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Telegram struct {
		Enabled    bool    `yaml:"enabled"`
		BotToken   string  `yaml:"bot_token"`
		Debug      bool    `yaml:"debug"`
		Managers   []int64 `yaml:"managers"`
		DigestHour int     `yaml:"digest_hour"` // 0 disables the daily digest
	} `yaml:"telegram"`

	Slots struct {
		Path          string `yaml:"path"`
		ReloadSeconds int    `yaml:"reload_seconds"`
		Timezone      string `yaml:"timezone"`
	} `yaml:"slots"`

	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
}

// Load reads the YAML config at path, expanding ${ENV_VAR} placeholders.
// Variables from a .env file in the working directory are loaded first;
// values already set in the environment win.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes config YAML after environment expansion.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	base := strings.TrimSpace(c.Backend.BaseURL)
	if base == "" {
		return errors.New("backend.base_url is required")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return fmt.Errorf("backend.base_url %q must be an http(s) URL", base)
	}
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return errors.New("telegram.bot_token is required when telegram is enabled")
	}
	if c.Telegram.DigestHour < 0 || c.Telegram.DigestHour > 23 {
		return fmt.Errorf("telegram.digest_hour %d must be within 0-23", c.Telegram.DigestHour)
	}
	if c.Slots.Timezone != "" {
		if _, err := time.LoadLocation(c.Slots.Timezone); err != nil {
			return fmt.Errorf("slots.timezone: %w", err)
		}
	}
	return nil
}

func (c *Config) BackendTimeout() time.Duration {
	if c.Backend.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

func (c *Config) FetchAllLimit() int {
	if c.Backend.FetchAllLimit <= 0 {
		return 1000
	}
	return c.Backend.FetchAllLimit
}

func (c *Config) CacheTTL() time.Duration {
	if c.Redis.CacheTTLSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}

func (c *Config) ServerAddress() string {
	if c.Server.Address == "" {
		return ":8080"
	}
	return c.Server.Address
}

func (c *Config) PrometheusAddress() string {
	if c.Monitoring.PrometheusPort == 0 {
		return ":9090"
	}
	return fmt.Sprintf(":%d", c.Monitoring.PrometheusPort)
}

func (c *Config) SlotsPath() string {
	if c.Slots.Path == "" {
		return DefaultSlotsPath
	}
	return c.Slots.Path
}

func (c *Config) SlotsReload() time.Duration {
	if c.Slots.ReloadSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Slots.ReloadSeconds) * time.Second
}

// Location is the clinic's time zone, used to derive "today" for the calendar.
func (c *Config) Location() *time.Location {
	if c.Slots.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Slots.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
