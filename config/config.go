// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	PBX      PBXConfig      `yaml:"pbx"`
	Database DatabaseConfig `yaml:"database"`
	Output   OutputConfig   `yaml:"output"`
	Serve    ServeConfig    `yaml:"serve"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PBXConfig locates the PBX admin interface.
type PBXConfig struct {
	// Host is the PBX hostname or IP, no scheme.
	Host string `yaml:"host"`
	// Username and Password authenticate both the web session and, by
	// default, the SSH tunnel.
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// ScrapePages disables admin-page scraping when false; page-backed
	// fields then document as empty.
	ScrapePages bool `yaml:"scrape_pages"`
}

// DatabaseConfig locates the PBX configuration database.
type DatabaseConfig struct {
	// Driver is "sqlite3" for a local snapshot or "mysql" for a live PBX.
	Driver string `yaml:"driver"`
	// DSN is the sqlite file path, or a full MySQL DSN when no tunnel is
	// used.
	DSN string `yaml:"dsn"`
	// Name is the MySQL database name (default "asterisk").
	Name string `yaml:"name"`
	// User overrides the MySQL user (default "root").
	User string `yaml:"user"`
	// Password is the MySQL password; the original PBX images often leave
	// root empty.
	Password string `yaml:"password"`
	Tunnel   TunnelConfig `yaml:"tunnel"`
}

// TunnelConfig configures the SSH port forward to the database.
type TunnelConfig struct {
	Enabled bool `yaml:"enabled"`
	// Port is the SSH port; 0 means 22.
	Port int `yaml:"port"`
	// RemoteAddr is the database address on the far side.
	RemoteAddr string `yaml:"remote_addr"`
}

// OutputConfig controls the generated document.
type OutputConfig struct {
	// Path is where generate writes the wiki text.
	Path string `yaml:"path"`
}

// ServeConfig configures serve mode.
type ServeConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // "console" or "json"
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.Name == "" {
		c.Database.Name = "asterisk"
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Database.Tunnel.RemoteAddr == "" {
		c.Database.Tunnel.RemoteAddr = "127.0.0.1:3306"
	}
	if c.Output.Path == "" {
		c.Output.Path = "wiki.txt"
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = ":8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	switch c.Database.Driver {
	case "sqlite3":
		if c.Database.DSN == "" {
			errs = append(errs, "database.dsn is required for the sqlite3 driver")
		}
	case "mysql":
		if c.PBX.Host == "" && !strings.Contains(c.Database.DSN, "@") {
			errs = append(errs, "pbx.host or a full database.dsn is required for the mysql driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite3, mysql)", c.Database.Driver))
	}

	if c.PBX.ScrapePages && c.PBX.Host == "" {
		errs = append(errs, "pbx.host is required when scrape_pages is enabled")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q is not valid", c.Logging.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
