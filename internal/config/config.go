package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/claude/trainsync/internal/plan"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Local     LocalConfig     `yaml:"local"`
	Plan      PlanConfig      `yaml:"plan"`
	Sync      SyncConfig      `yaml:"sync"`
	Strava    StravaConfig    `yaml:"strava"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// Domain is used in calendar event UIDs.
	Domain string `yaml:"domain"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type LocalConfig struct {
	StateDir  string `yaml:"state_dir"`
	Namespace string `yaml:"namespace"`
}

type PlanConfig struct {
	StartDate string `yaml:"start_date"`
	Weeks     int    `yaml:"weeks"`
	Timezone  string `yaml:"timezone"`
	// Template is a YAML plan file; empty means the built-in plan.
	Template string `yaml:"template"`
}

type SyncConfig struct {
	Enabled     bool          `yaml:"enabled"`
	URL         string        `yaml:"url"`
	APIKey      string        `yaml:"api_key"`
	Key         string        `yaml:"key"`
	DeviceLabel string        `yaml:"device_label"`
	Interval    time.Duration `yaml:"interval"`
}

type StravaConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
	BaseURL      string `yaml:"base_url"`
	PerPage      int    `yaml:"per_page"`
	MaxPages     int    `yaml:"max_pages"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Enabled reports whether Strava credentials are configured.
func (s StravaConfig) Enabled() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// Location returns the plan's time zone, defaulting to the local zone.
func (p PlanConfig) Location() (*time.Location, error) {
	if p.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("plan.timezone: %w", err)
	}
	return loc, nil
}

// Anchor returns the calendar anchor of the training plan.
func (p PlanConfig) Anchor() (plan.Anchor, error) {
	loc, err := p.Location()
	if err != nil {
		return plan.Anchor{}, err
	}
	return plan.NewAnchor(p.StartDate, p.Weeks, loc)
}

func defaults() *Config {
	return &Config{
		Server:    ServerConfig{Host: "127.0.0.1", Port: 8090, Domain: "trainsync.local"},
		Tailscale: TailscaleConfig{Hostname: "trainsync-cloud", StateDir: "tsnet-state"},
		Local:     LocalConfig{StateDir: "data", Namespace: "trainsync"},
		Plan:      PlanConfig{Weeks: 8},
		Sync:      SyncConfig{Interval: 5 * time.Minute},
		Strava:    StravaConfig{PerPage: 50, MaxPages: 5},
	}
}

// Load reads config from a YAML file over the built-in defaults, then applies
// environment variable overrides. Env vars use the prefix TRAINSYNC_:
//
//	TRAINSYNC_SERVER_HOST, TRAINSYNC_SERVER_PORT, TRAINSYNC_STATE_DIR,
//	TRAINSYNC_PLAN_START_DATE, TRAINSYNC_PLAN_TIMEZONE,
//	TRAINSYNC_SYNC_URL, TRAINSYNC_SYNC_API_KEY, TRAINSYNC_SYNC_KEY,
//	TRAINSYNC_STRAVA_CLIENT_ID, TRAINSYNC_STRAVA_CLIENT_SECRET,
//	TRAINSYNC_DB_HOST, TRAINSYNC_DB_PORT, TRAINSYNC_DB_NAME,
//	TRAINSYNC_DB_USER, TRAINSYNC_DB_PASSWORD, TRAINSYNC_DB_SSLMODE,
//	TRAINSYNC_AUTH_API_KEY
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRAINSYNC_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("TRAINSYNC_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TRAINSYNC_STATE_DIR"); v != "" {
		cfg.Local.StateDir = v
	}
	if v := os.Getenv("TRAINSYNC_PLAN_START_DATE"); v != "" {
		cfg.Plan.StartDate = v
	}
	if v := os.Getenv("TRAINSYNC_PLAN_TIMEZONE"); v != "" {
		cfg.Plan.Timezone = v
	}
	if v := os.Getenv("TRAINSYNC_SYNC_URL"); v != "" {
		cfg.Sync.URL = v
		cfg.Sync.Enabled = true
	}
	if v := os.Getenv("TRAINSYNC_SYNC_API_KEY"); v != "" {
		cfg.Sync.APIKey = v
	}
	if v := os.Getenv("TRAINSYNC_SYNC_KEY"); v != "" {
		cfg.Sync.Key = v
	}
	if v := os.Getenv("TRAINSYNC_STRAVA_CLIENT_ID"); v != "" {
		cfg.Strava.ClientID = v
	}
	if v := os.Getenv("TRAINSYNC_STRAVA_CLIENT_SECRET"); v != "" {
		cfg.Strava.ClientSecret = v
	}
	if v := os.Getenv("TRAINSYNC_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("TRAINSYNC_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("TRAINSYNC_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("TRAINSYNC_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("TRAINSYNC_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("TRAINSYNC_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("TRAINSYNC_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if (c.Strava.ClientID == "") != (c.Strava.ClientSecret == "") {
		return fmt.Errorf("strava.client_id and strava.client_secret must be set together")
	}
	return nil
}

// ValidateApp checks the settings the personal app server needs.
func (c *Config) ValidateApp() error {
	if c.Plan.StartDate == "" {
		return fmt.Errorf("plan.start_date is required")
	}
	if _, err := c.Plan.Anchor(); err != nil {
		return err
	}
	if c.Local.StateDir == "" {
		return fmt.Errorf("local.state_dir is required")
	}
	if c.Sync.Enabled {
		if c.Sync.URL == "" {
			return fmt.Errorf("sync.url is required when sync is enabled")
		}
		if c.Sync.Interval < 10*time.Second {
			return fmt.Errorf("sync.interval must be at least 10s, got %s", c.Sync.Interval)
		}
	}
	return nil
}

// ValidateCloud checks the settings only the cloud sync endpoint needs.
func (c *Config) ValidateCloud() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	return nil
}
