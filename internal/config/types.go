package config

import (
	"path/filepath"
	"time"
)

// Config represents the complete launchpad configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	API       APIConfig       `yaml:"api"`
	Profiles  ProfilesConfig  `yaml:"profiles"`
	Env       EnvConfig       `yaml:"env"`
	Approvals ApprovalsConfig `yaml:"approvals"`

	// SourcePath is the file the config was loaded from, empty for defaults.
	SourcePath string `yaml:"-"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	// BaseDir is the directory agents run in; request working_dir values are
	// joined onto it.
	BaseDir string `yaml:"base_dir"`
	// StateDir holds the PID lock and the approval log.
	StateDir string `yaml:"state_dir"`
}

// APIConfig defines HTTP API server settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	// APIKey is the single bearer token with full access.
	APIKey string `yaml:"api_key"`
	// Tokens is an optional list of scoped bearer tokens.
	Tokens []APIToken `yaml:"tokens,omitempty"`
	// AllowEscapingWorkingDir lets requests name a working_dir outside
	// service.base_dir (absolute, or containing "..").
	AllowEscapingWorkingDir bool          `yaml:"allow_escaping_working_dir"`
	MaxBodyBytes            int64         `yaml:"max_body_bytes"`
	ShutdownTimeout         time.Duration `yaml:"shutdown_timeout"`
}

// APIToken defines a bearer token and its scopes.
type APIToken struct {
	Token  string   `yaml:"token"`
	Scopes []string `yaml:"scopes"`
}

// ProfilesConfig points at the executor profiles file.
type ProfilesConfig struct {
	// Path is optional; the built-in profiles are used when empty.
	Path string `yaml:"path"`
	// Fingerprint pins the BLAKE3 hash of Path.
	Fingerprint string `yaml:"fingerprint"`
}

// EnvConfig builds the base environment every agent starts from.
type EnvConfig struct {
	InheritPrefixes []string          `yaml:"inherit_prefixes"`
	Inherit         []string          `yaml:"inherit"`
	Vars            map[string]string `yaml:"vars"`
}

// ApprovalsConfig configures the built-in approval policy.
type ApprovalsConfig struct {
	Default string            `yaml:"default"`
	Rules   map[string]string `yaml:"rules"`
	// Log persists every decision to the approval log in service.state_dir.
	Log bool `yaml:"log"`
}

// Defaults returns default configuration values.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "launchpad",
			LogLevel:  "info",
			LogFormat: "json",
			BaseDir:   ".",
			StateDir:  "./data",
		},
		API: APIConfig{
			Enabled:         false,
			Listen:          "127.0.0.1:8787",
			MaxBodyBytes:    1 << 20,
			ShutdownTimeout: 5 * time.Second,
		},
		Approvals: ApprovalsConfig{
			Default: "approve",
			Log:     true,
		},
	}
}

// ApprovalLogPath is the SQLite file decisions are written to.
func (c *Config) ApprovalLogPath() string {
	return filepath.Join(c.Service.StateDir, "approvals.db")
}

// PIDLockPath is the single-instance lock taken by "launchpad start".
func (c *Config) PIDLockPath() string {
	return filepath.Join(c.Service.StateDir, "launchpad.lock")
}
