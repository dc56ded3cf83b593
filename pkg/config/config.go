package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

const (
	DefaultEndpoint    = "https://hn.algolia.com/api/v1/search"
	DefaultQuery       = "redux"
	DefaultHitsPerPage = 100
	DefaultHost        = "localhost"
	DefaultPort        = 8080
	DefaultSessionTTL  = 30 * time.Minute
	DefaultMaxSessions = 1024
	DefaultStalePolicy = "lenient"
)

type Config struct {
	Endpoint       string    `toml:"endpoint"`
	DefaultQuery   string    `toml:"default_query"`
	HitsPerPage    int       `toml:"hits_per_page"`
	RequestTimeout Duration  `toml:"request_timeout"`
	StaleResponses string    `toml:"stale_responses"`
	Web            WebConfig `toml:"web"`
}

type WebConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	SessionTTL  Duration `toml:"session_ttl"`
	MaxSessions int      `toml:"max_sessions"`
}

type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// Addr returns host:port for the web server.
func (w WebConfig) Addr() string {
	return fmt.Sprintf("%s:%d", w.Host, w.Port)
}

func GetDefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if strings.TrimSpace(c.DefaultQuery) == "" {
		c.DefaultQuery = DefaultQuery
	}
	if c.HitsPerPage <= 0 {
		c.HitsPerPage = DefaultHitsPerPage
	}
	if c.StaleResponses == "" {
		c.StaleResponses = DefaultStalePolicy
	}
	if c.Web.Host == "" {
		c.Web.Host = DefaultHost
	}
	if c.Web.Port == 0 {
		c.Web.Port = DefaultPort
	}
	if c.Web.SessionTTL.Duration == 0 {
		c.Web.SessionTTL = Duration{DefaultSessionTTL}
	}
	if c.Web.MaxSessions <= 0 {
		c.Web.MaxSessions = DefaultMaxSessions
	}
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	if c.RequestTimeout.Duration < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	switch c.StaleResponses {
	case "lenient", "latest":
	default:
		return fmt.Errorf("stale_responses must be lenient or latest, got %q", c.StaleResponses)
	}
	if c.Web.Port < 0 || c.Web.Port > 65535 {
		return fmt.Errorf("web.port out of range: %d", c.Web.Port)
	}
	return nil
}

func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(configPath, []byte(configTemplate), 0644)
}

// GetConfigDir returns the configuration directory for hnsearch
func GetConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise use ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	dir := filepath.Join(configDir, "hnsearch")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	return dir, nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
