package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mattjoyce/launchpad/internal/approval"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr string
		checkFn func(t *testing.T, cfg *Config, dir string)
	}{
		{
			name: "empty file uses defaults",
			yaml: ``,
			checkFn: func(t *testing.T, cfg *Config, dir string) {
				if cfg.Service.Name != "launchpad" {
					t.Errorf("service.name = %q", cfg.Service.Name)
				}
				if cfg.Service.BaseDir != dir {
					t.Errorf("service.base_dir = %q, want %q", cfg.Service.BaseDir, dir)
				}
				if cfg.Service.StateDir != filepath.Join(dir, "data") {
					t.Errorf("service.state_dir = %q", cfg.Service.StateDir)
				}
				if cfg.API.Listen != "127.0.0.1:8787" {
					t.Errorf("api.listen = %q", cfg.API.Listen)
				}
				if cfg.API.ShutdownTimeout != 5*time.Second {
					t.Errorf("api.shutdown_timeout = %v", cfg.API.ShutdownTimeout)
				}
				if !cfg.Approvals.Log {
					t.Error("approvals.log should default to true")
				}
			},
		},
		{
			name: "full config",
			yaml: `
service:
  name: lp
  log_level: debug
  log_format: text
  base_dir: /srv/work
  state_dir: state
api:
  enabled: true
  listen: 0.0.0.0:9000
  api_key: k
  tokens:
    - token: reader
      scopes: [processes:ro]
  allow_escaping_working_dir: true
  max_body_bytes: 2048
profiles:
  path: profiles.yaml
  fingerprint: abc
env:
  inherit_prefixes: [LP_]
  inherit: [HOME]
  vars:
    VK_PROJECT_NAME: demo
approvals:
  default: deny
  rules:
    Read: approve
  log: false
`,
			checkFn: func(t *testing.T, cfg *Config, dir string) {
				if cfg.Service.BaseDir != "/srv/work" {
					t.Errorf("absolute base_dir changed: %q", cfg.Service.BaseDir)
				}
				if cfg.Service.StateDir != filepath.Join(dir, "state") {
					t.Errorf("relative state_dir not resolved: %q", cfg.Service.StateDir)
				}
				if cfg.Profiles.Path != filepath.Join(dir, "profiles.yaml") {
					t.Errorf("profiles.path not resolved: %q", cfg.Profiles.Path)
				}
				if !cfg.API.AllowEscapingWorkingDir || cfg.API.MaxBodyBytes != 2048 {
					t.Errorf("api settings not parsed: %+v", cfg.API)
				}
				if len(cfg.API.Tokens) != 1 || cfg.API.Tokens[0].Scopes[0] != "processes:ro" {
					t.Errorf("api.tokens not parsed: %+v", cfg.API.Tokens)
				}
				def, rules, err := cfg.Approvals.Policy()
				if err != nil {
					t.Fatalf("Policy() error: %v", err)
				}
				if def != approval.Denied || rules["Read"] != approval.Approved {
					t.Errorf("policy = %v %v", def, rules)
				}
				if cfg.Approvals.Log {
					t.Error("approvals.log should be false")
				}
				if cfg.Env.Vars["VK_PROJECT_NAME"] != "demo" {
					t.Error("env.vars not parsed")
				}
			},
		},
		{
			name: "env var interpolation",
			yaml: `
api:
  enabled: true
  api_key: ${LP_TEST_KEY}
service:
  base_dir: ${LP_TEST_BASE}
`,
			env: map[string]string{"LP_TEST_KEY": "secret123", "LP_TEST_BASE": "/tmp/lp"},
			checkFn: func(t *testing.T, cfg *Config, dir string) {
				if cfg.API.APIKey != "secret123" {
					t.Errorf("api_key = %q", cfg.API.APIKey)
				}
				if cfg.Service.BaseDir != "/tmp/lp" {
					t.Errorf("base_dir = %q", cfg.Service.BaseDir)
				}
			},
		},
		{
			name:    "unset api key variable",
			yaml:    "api:\n  enabled: true\n  api_key: ${LP_TEST_MISSING_KEY}\n",
			wantErr: "unset environment variable",
		},
		{
			name:    "api enabled without credentials",
			yaml:    "api:\n  enabled: true\n",
			wantErr: "api.api_key or api.tokens",
		},
		{
			name:    "bad log level",
			yaml:    "service:\n  log_level: loud\n",
			wantErr: "service.log_level",
		},
		{
			name:    "bad log format",
			yaml:    "service:\n  log_format: xml\n",
			wantErr: "service.log_format",
		},
		{
			name:    "bad approval rule",
			yaml:    "approvals:\n  rules:\n    Bash: maybe\n",
			wantErr: "approvals.rules[Bash]",
		},
		{
			name:    "token without scopes",
			yaml:    "api:\n  tokens:\n    - token: t\n",
			wantErr: "api.tokens[0].scopes",
		},
		{
			name:    "token with unknown scope",
			yaml:    "api:\n  tokens:\n    - token: t\n      scopes: [jobs:rw]\n",
			wantErr: `unknown scope "jobs:rw"`,
		},
		{
			name:    "unknown field",
			yaml:    "service:\n  tick_interval: 5s\n",
			wantErr: "failed to parse YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o600); err != nil {
				t.Fatal(err)
			}

			cfg, err := Load(path)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error %q does not contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if cfg.SourcePath != path {
				t.Errorf("SourcePath = %q, want %q", cfg.SourcePath, path)
			}
			if tt.checkFn != nil {
				tt.checkFn(t, cfg, dir)
			}
		})
	}
}

func TestLoadDirectoryLooksForConfigYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("service:\n  name: fromdir\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load(dir) error: %v", err)
	}
	if cfg.Service.Name != "fromdir" {
		t.Errorf("service.name = %q", cfg.Service.Name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInterpolateEnvLeavesUnknownPlaceholders(t *testing.T) {
	t.Setenv("LP_KNOWN", "yes")
	got := interpolateEnv("a=${LP_KNOWN} b=${LP_NOT_SET_ANYWHERE} c=$LP_KNOWN")
	want := "a=yes b=${LP_NOT_SET_ANYWHERE} c=$LP_KNOWN"
	if got != want {
		t.Errorf("interpolateEnv = %q, want %q", got, want)
	}
}

func TestBaseEnv(t *testing.T) {
	t.Setenv("LP_BASE_ONE", "1")
	t.Setenv("LP_BASE_TWO", "2")
	t.Setenv("OTHER_NAMED", "named")

	cfg := EnvConfig{
		InheritPrefixes: []string{"LP_BASE_"},
		Inherit:         []string{"OTHER_NAMED", "LP_DEFINITELY_UNSET"},
		Vars:            map[string]string{"LP_BASE_TWO": "override", "VK_PROJECT_NAME": "demo"},
	}
	got := cfg.BaseEnv().Vars()

	want := map[string]string{
		"LP_BASE_ONE":     "1",
		"LP_BASE_TWO":     "override",
		"OTHER_NAMED":     "named",
		"VK_PROJECT_NAME": "demo",
	}
	if len(got) != len(want) {
		t.Fatalf("BaseEnv() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("BaseEnv()[%s] = %q, want %q", k, got[k], v)
		}
	}
}

func TestBaseEnvEmptyConfigIsEmpty(t *testing.T) {
	if n := (EnvConfig{}).BaseEnv().Len(); n != 0 {
		t.Errorf("empty EnvConfig produced %d vars", n)
	}
}

func TestPaths(t *testing.T) {
	cfg := Defaults()
	cfg.Service.StateDir = "/var/lib/launchpad"
	if got := cfg.ApprovalLogPath(); got != "/var/lib/launchpad/approvals.db" {
		t.Errorf("ApprovalLogPath() = %q", got)
	}
	if got := cfg.PIDLockPath(); got != "/var/lib/launchpad/launchpad.lock" {
		t.Errorf("PIDLockPath() = %q", got)
	}
}
