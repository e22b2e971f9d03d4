package server

import (
	"fmt"
	"net"
	"os"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Host           string         `yaml:"host"`
	Port           int            `yaml:"port"`
	Root           string         `yaml:"root"`
	Template       string         `yaml:"template"`
	Static         bool           `yaml:"static"`
	Database       DatabaseConfig `yaml:"database"`
	Workers        int            `yaml:"workers"`
	ReadTimeout    time.Duration  `yaml:"read_timeout"`
	WriteTimeout   time.Duration  `yaml:"write_timeout"`
	MaxHeaderSize  int            `yaml:"max_header_size"`
	MaxBodySize    int64          `yaml:"max_body_size"`
	DefaultVersion string         `yaml:"default_version"`
	Legacy         LegacyConfig   `yaml:"legacy"`
	Logging        LogConfig      `yaml:"logging"`
}

// DatabaseConfig enables the table endpoints
type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LegacyConfig reproduces statement and extension quirks of older deployments
type LegacyConfig struct {
	// WhereSeparator omits the " AND " between "1=1" and the first condition
	WhereSeparator bool `yaml:"where_separator"`
	// ExtensionOffByOne drops the last character of the path when
	// computing a file extension
	ExtensionOffByOne bool `yaml:"extension_off_by_one"`
}

// LogConfig contains settings for logging
type LogConfig struct {
	Debug      bool   `yaml:"debug"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`    // megabytes
	MaxBackups int    `yaml:"max_backups"` // rotated files to keep
	MaxAge     int    `yaml:"max_age"`     // days
	Compress   bool   `yaml:"compress"`
}

func DefaultConfig() *Config {
	return &Config{
		Port:     8080,
		Root:     ".",
		Template: "template.html",
		Static:   true,
		Database: DatabaseConfig{
			Enabled: true,
			Path:    "database/database.db",
		},
		Workers:        0, // runtime.NumCPU()
		ReadTimeout:    0,
		WriteTimeout:   0,
		MaxHeaderSize:  8192,
		MaxBodySize:    10 * 1024 * 1024, // 10MB
		DefaultVersion: "HTTP/1.1",
		Logging: LogConfig{
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		},
	}
}

// LoadConfig reads a YAML file and applies it over the defaults
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadConfigOrDefault loads path, falling back to defaults on any error
func LoadConfigOrDefault(path string) *Config {
	cfg, err := LoadConfig(path)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// Validate checks values that would prevent the server from starting
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid worker count %d", c.Workers)
	}
	if c.MaxHeaderSize <= 0 {
		return fmt.Errorf("max_header_size must be positive")
	}
	if c.Database.Enabled && c.Database.Path == "" {
		return fmt.Errorf("database path is required when the database is enabled")
	}
	return nil
}

// Address returns the listen address
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// WorkerCount returns the pool size, one worker per CPU unless configured
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}
