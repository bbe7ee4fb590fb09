// Package config loads pagebuilder.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up by LoadFromDir.
const FileName = "pagebuilder.yaml"

// Config represents the pagebuilder configuration
type Config struct {
	DataDir   string          `yaml:"data_dir"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Autosave  AutosaveConfig  `yaml:"autosave"`
	Directory DirectoryConfig `yaml:"directory"`
	MCP       MCPConfig       `yaml:"mcp"`
}

// StorageConfig selects where projects, pages and blocks are persisted.
type StorageConfig struct {
	Driver         string `yaml:"driver"`                    // "sqlite", "postgres", "mysql" or "mongodb"
	Path           string `yaml:"path,omitempty"`            // For sqlite: database file, relative to data_dir
	Host           string `yaml:"host,omitempty"`            // For postgres/mysql
	Port           int    `yaml:"port,omitempty"`            // For postgres/mysql
	Database       string `yaml:"database,omitempty"`        // For postgres/mysql/mongodb
	Username       string `yaml:"username,omitempty"`        // For postgres/mysql
	PasswordSecret string `yaml:"password_secret,omitempty"` // Secret store key holding the password
	SSLMode        string `yaml:"ssl_mode,omitempty"`        // For postgres. Default: disable
	URI            string `yaml:"uri,omitempty"`             // For mongodb: connection URI
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`          // debug, info, warn, error
	Format string `yaml:"format"`         // json or console
	File   string `yaml:"file,omitempty"` // Empty logs to stderr
}

// AutosaveConfig schedules saving of the page being edited.
type AutosaveConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"` // cron spec, e.g. "@every 30s"
}

// DirectoryConfig optionally replaces the project's pages as link targets.
type DirectoryConfig struct {
	File string `yaml:"file,omitempty"` // YAML list of {id, name}
}

type MCPConfig struct {
	ApprovalTimeout string `yaml:"approval_timeout"` // e.g. "5m"
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: defaultDataDir(),
		Storage: StorageConfig{
			Driver:  "sqlite",
			Path:    "pagebuilder.db",
			SSLMode: "disable",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Autosave: AutosaveConfig{
			Enabled:  true,
			Schedule: "@every 30s",
		},
		MCP: MCPConfig{
			ApprovalTimeout: "5m",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pagebuilder"
	}
	return filepath.Join(home, ".pagebuilder")
}

// Load reads configPath over the defaults. An empty or missing path yields
// the defaults.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFromDir loads pagebuilder.yaml from dir, or the defaults if absent.
func LoadFromDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, FileName))
}

// Save writes the configuration to a YAML file
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects values the rest of the program cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "postgres", "mysql", "mongodb":
	default:
		return fmt.Errorf("invalid storage driver %q", c.Storage.Driver)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}
	if _, err := time.ParseDuration(c.MCP.ApprovalTimeout); c.MCP.ApprovalTimeout != "" && err != nil {
		return fmt.Errorf("invalid mcp.approval_timeout: %w", err)
	}
	return nil
}

// SQLitePath returns the sqlite file, resolved against the data dir.
func (c *Config) SQLitePath() string {
	if filepath.IsAbs(c.Storage.Path) {
		return c.Storage.Path
	}
	return filepath.Join(c.DataDir, c.Storage.Path)
}

// DirectoryFile returns the page directory file resolved against the data dir, or "".
func (c *Config) DirectoryFile() string {
	if c.Directory.File == "" || filepath.IsAbs(c.Directory.File) {
		return c.Directory.File
	}
	return filepath.Join(c.DataDir, c.Directory.File)
}

// GetApprovalTimeout returns how long destructive MCP calls wait for the user (default: 5m)
func (c *Config) GetApprovalTimeout() time.Duration {
	d, err := time.ParseDuration(c.MCP.ApprovalTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// GetStoragePort returns the configured port or the driver's default.
func (c *Config) GetStoragePort() int {
	if c.Storage.Port != 0 {
		return c.Storage.Port
	}
	switch c.Storage.Driver {
	case "postgres":
		return 5432
	case "mysql":
		return 3306
	}
	return 0
}
