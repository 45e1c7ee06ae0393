// Package config provides YAML-based configuration loading for the storefront.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/zulandar/storefront/internal/timer"
	"gopkg.in/yaml.v3"
)

// Config is the top-level storefront configuration, loaded from storefront.yaml.
type Config struct {
	StoreName string          `yaml:"store_name"`
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Chat      ChatConfig      `yaml:"chat"`
	GeoIP     GeoIPConfig     `yaml:"geoip"`
	Timer     TimerConfig     `yaml:"timer"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Admin     AdminConfig     `yaml:"admin"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// HTTPConfig holds listener settings.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig selects and configures the relational store.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "mysql" (default) or "sqlite"
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Path     string `yaml:"path"` // sqlite file path
}

// RedisConfig holds connection settings for the optional Redis server.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

// ChatConfig controls the staff presence signal.
type ChatConfig struct {
	Presence       string        `yaml:"presence"` // "activity" (default) or "redis"
	PresenceWindow time.Duration `yaml:"presence_window"`
	StaffRoster    []string      `yaml:"staff_roster"`
}

// GeoIPConfig controls visitor geolocation lookups.
type GeoIPConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// TimerConfig controls the promotional countdown.
type TimerConfig struct {
	DefaultHours    int    `yaml:"default_hours"`
	RestartSchedule string `yaml:"restart_schedule"` // 5-field cron expression, empty disables
}

// AlertsConfig configures staff notification channels.
type AlertsConfig struct {
	Slack   ChannelConfig `yaml:"slack"`
	Discord ChannelConfig `yaml:"discord"`
}

// ChannelConfig holds a bot token and target channel for one platform.
type ChannelConfig struct {
	BotToken string `yaml:"bot_token"`
	Channel  string `yaml:"channel"`
}

// Enabled reports whether both token and channel are set.
func (c ChannelConfig) Enabled() bool { return c.BotToken != "" && c.Channel != "" }

// AdminConfig holds the staff basic-auth accounts. Empty leaves staff routes open.
type AdminConfig struct {
	Accounts map[string]string `yaml:"accounts"`
}

// RateLimitConfig throttles public write endpoints per client IP.
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled"`
	Limit   int           `yaml:"limit"`
	Window  time.Duration `yaml:"window"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references from the environment, then unmarshals
// YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultStaffRoster is the display-name pool for the activity presence signal.
var DefaultStaffRoster = []string{"Sarah", "Michael", "Emma", "David", "Olivia"}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.StoreName == "" {
		c.StoreName = "Storefront"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.Driver == "mysql" {
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
		if c.Database.Name == "" {
			c.Database.Name = "storefront"
		}
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "storefront.db"
	}
	if c.Chat.Presence == "" {
		c.Chat.Presence = "activity"
	}
	if c.Chat.PresenceWindow == 0 {
		c.Chat.PresenceWindow = 5 * time.Minute
	}
	if len(c.Chat.StaffRoster) == 0 {
		c.Chat.StaffRoster = append([]string(nil), DefaultStaffRoster...)
	}
	if c.GeoIP.Endpoint == "" {
		c.GeoIP.Endpoint = "http://ip-api.com/json"
	}
	if c.GeoIP.Timeout == 0 {
		c.GeoIP.Timeout = 3 * time.Second
	}
	if c.Timer.DefaultHours == 0 {
		c.Timer.DefaultHours = 48
	}
	if c.RateLimit.Limit == 0 {
		c.RateLimit.Limit = 30
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Sprintf("http.port %d out of range", c.HTTP.Port))
	}
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q must be mysql or sqlite", c.Database.Driver))
	}
	switch c.Chat.Presence {
	case "activity":
	case "redis":
		if !c.Redis.Enabled() {
			errs = append(errs, "chat.presence redis requires redis.addr")
		}
	default:
		errs = append(errs, fmt.Sprintf("chat.presence %q must be activity or redis", c.Chat.Presence))
	}
	if c.Chat.PresenceWindow < 0 {
		errs = append(errs, "chat.presence_window must be positive")
	}
	if c.Timer.DefaultHours < 0 {
		errs = append(errs, "timer.default_hours must be positive")
	}
	if c.Timer.RestartSchedule != "" {
		if err := timer.ValidateSchedule(c.Timer.RestartSchedule); err != nil {
			errs = append(errs, fmt.Sprintf("timer.restart_schedule: %v", err))
		}
	}
	if c.RateLimit.Enabled && !c.Redis.Enabled() {
		errs = append(errs, "rate_limit requires redis.addr")
	}
	if c.RateLimit.Limit < 0 {
		errs = append(errs, "rate_limit.limit must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
