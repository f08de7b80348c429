// Package config loads the tasklog settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sadopc/tasklog/internal/analytics"
)

const (
	BackendHTTP  = "http"
	BackendLocal = "local"
)

type Config struct {
	Backend      string           `toml:"backend"`
	APIURL       string           `toml:"api_url"`
	Token        string           `toml:"token"`
	UserID       string           `toml:"user_id"`
	DBPath       string           `toml:"db_path"`
	WindowDays   int              `toml:"window_days"`
	RecentLimit  int              `toml:"recent_limit"`
	Timezone     string           `toml:"timezone"`
	TickInterval string           `toml:"tick_interval"`
	Achievements []analytics.Rule `toml:"achievements"`
}

func Default() *Config {
	dbPath := ""
	if dir, err := Dir(); err == nil {
		dbPath = filepath.Join(dir, "tasklog.db")
	}
	return &Config{
		Backend:      BackendHTTP,
		APIURL:       "http://localhost:5000",
		DBPath:       dbPath,
		WindowDays:   analytics.DefaultWindowDays,
		RecentLimit:  analytics.DefaultRecentLimit,
		Timezone:     "Local",
		TickInterval: "1s",
		Achievements: analytics.DefaultRules(),
	}
}

// Dir returns ~/.config/tasklog (or the platform equivalent).
func Dir() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "tasklog"), nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config from the default path.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, fmt.Errorf("locate config: %w", err)
	}
	return LoadFile(path)
}

// LoadFile reads the config at path, writing defaults there first if the
// file does not exist. Environment overrides are applied after decoding and
// are never written back.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	} else {
		// Decoding into a fresh slice keeps a user table from merging
		// with the built-in rules.
		cfg.Achievements = nil
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.DBPath = expandPath(cfg.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("TASKLOG_API_URL")); v != "" {
		c.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv("TASKLOG_TOKEN")); v != "" {
		c.Token = v
	}
	if v := strings.TrimSpace(os.Getenv("TASKLOG_USER")); v != "" {
		c.UserID = v
	}
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendHTTP:
		if c.APIURL == "" {
			return fmt.Errorf("api_url is required for the http backend")
		}
	case BackendLocal:
		if c.DBPath == "" {
			return fmt.Errorf("db_path is required for the local backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.WindowDays < 1 {
		return fmt.Errorf("window_days must be at least 1, got %d", c.WindowDays)
	}
	if c.RecentLimit < 1 {
		return fmt.Errorf("recent_limit must be at least 1, got %d", c.RecentLimit)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Tick(); err != nil {
		return err
	}
	for _, r := range c.Achievements {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Location resolves the timezone used to decide which calendar day "today" is.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Tick is the timer display refresh interval.
func (c *Config) Tick() (time.Duration, error) {
	if c.TickInterval == "" {
		return time.Second, nil
	}
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		return 0, fmt.Errorf("tick_interval %q: %w", c.TickInterval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("tick_interval must be positive, got %s", d)
	}
	return d, nil
}

// Rules is the achievement table, falling back to the built-in rules when
// the file defines none.
func (c *Config) Rules() []analytics.Rule {
	if len(c.Achievements) == 0 {
		return analytics.DefaultRules()
	}
	return c.Achievements
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
