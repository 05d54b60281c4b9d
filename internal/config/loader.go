package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/launchpad/internal/approval"
	"github.com/mattjoyce/launchpad/internal/auth"
	"github.com/mattjoyce/launchpad/internal/env"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads, interpolates, defaults and validates a config file. Relative
// paths inside it are resolved against the file's directory.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}
	if info.IsDir() {
		absPath = filepath.Join(absPath, "config.yaml")
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	cfg, err := Parse(data, filepath.Dir(absPath))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	cfg.SourcePath = absPath
	return cfg, nil
}

// Parse decodes config YAML over the defaults. baseDir anchors relative
// paths.
func Parse(data []byte, baseDir string) (*Config, error) {
	cfg := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader([]byte(interpolateEnv(string(data)))))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg = applyConfigDefaults(cfg)
	resolvePaths(cfg, baseDir)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadOrDefaults loads the discovered config, or returns defaults anchored at
// the working directory when there is none and flagPath is empty.
func LoadOrDefaults(flagPath string) (*Config, error) {
	path, err := Discover(flagPath)
	if errors.Is(err, ErrNoConfig) {
		cfg := Defaults()
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		resolvePaths(cfg, wd)
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// applyConfigDefaults fills in values that were not explicitly set.
func applyConfigDefaults(cfg *Config) *Config {
	defaults := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = defaults.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = defaults.Service.LogFormat
	}
	if cfg.Service.BaseDir == "" {
		cfg.Service.BaseDir = defaults.Service.BaseDir
	}
	if cfg.Service.StateDir == "" {
		cfg.Service.StateDir = defaults.Service.StateDir
	}

	if cfg.API.Listen == "" {
		cfg.API.Listen = defaults.API.Listen
	}
	if cfg.API.MaxBodyBytes == 0 {
		cfg.API.MaxBodyBytes = defaults.API.MaxBodyBytes
	}
	if cfg.API.ShutdownTimeout == 0 {
		cfg.API.ShutdownTimeout = defaults.API.ShutdownTimeout
	}

	if cfg.Approvals.Default == "" {
		cfg.Approvals.Default = defaults.Approvals.Default
	}
	return cfg
}

func resolvePaths(cfg *Config, baseDir string) {
	cfg.Service.BaseDir = resolvePath(baseDir, cfg.Service.BaseDir)
	cfg.Service.StateDir = resolvePath(baseDir, cfg.Service.StateDir)
	if cfg.Profiles.Path != "" {
		cfg.Profiles.Path = resolvePath(baseDir, cfg.Profiles.Path)
	}
}

func resolvePath(baseDir, p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(baseDir, p)
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(cfg.Service.LogLevel)] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}
	if cfg.Service.LogFormat != "json" && cfg.Service.LogFormat != "text" {
		return fmt.Errorf("service.log_format must be json or text (got %q)", cfg.Service.LogFormat)
	}

	if cfg.API.Enabled {
		if cfg.API.APIKey == "" && len(cfg.API.Tokens) == 0 {
			return fmt.Errorf("api.api_key or api.tokens is required when api.enabled is true")
		}
		if envVarPattern.MatchString(cfg.API.APIKey) {
			return fmt.Errorf("api.api_key references an unset environment variable: %s", cfg.API.APIKey)
		}
	}
	for i, tok := range cfg.API.Tokens {
		if strings.TrimSpace(tok.Token) == "" {
			return fmt.Errorf("api.tokens[%d].token is empty", i)
		}
		if len(tok.Scopes) == 0 {
			return fmt.Errorf("api.tokens[%d].scopes must not be empty", i)
		}
		for _, scope := range tok.Scopes {
			if err := auth.ValidateScope(scope); err != nil {
				return fmt.Errorf("api.tokens[%d]: %w", i, err)
			}
		}
	}
	if cfg.API.MaxBodyBytes < 0 {
		return fmt.Errorf("api.max_body_bytes must be positive")
	}

	if _, _, err := cfg.Approvals.Policy(); err != nil {
		return err
	}
	return nil
}

// Policy parses the default decision and per-tool rules.
func (a ApprovalsConfig) Policy() (approval.Decision, map[string]approval.Decision, error) {
	def, err := approval.ParseDecision(a.Default)
	if err != nil {
		return "", nil, fmt.Errorf("approvals.default: %w", err)
	}
	rules := make(map[string]approval.Decision, len(a.Rules))
	for tool, raw := range a.Rules {
		d, err := approval.ParseDecision(raw)
		if err != nil {
			return "", nil, fmt.Errorf("approvals.rules[%s]: %w", tool, err)
		}
		rules[tool] = d
	}
	return def, rules, nil
}

// BaseEnv builds the lowest environment layer: inherited prefixes, then
// named variables, then literal vars.
func (e EnvConfig) BaseEnv() *env.ExecutionEnv {
	out := env.New()
	if len(e.InheritPrefixes) > 0 {
		out = env.WithInherited(e.InheritPrefixes...)
	}
	out.InheritNamed(e.Inherit...)
	out.Merge(e.Vars)
	return out
}
