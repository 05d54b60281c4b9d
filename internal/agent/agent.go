// Package agent launches coding agent CLIs as child processes.
//
// Every supported agent is one variant of a closed set keyed by Kind. All
// variants share the same launch contract: given a working directory, a prompt
// and a fully composed environment, Spawn starts the process and returns a
// *SpawnedChild. Variants only differ in how they build their command line.
//
// An agent must have an approval service attached (UseApprovals) before Spawn
// is called; Spawn refuses to start otherwise.
package agent

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/mattjoyce/launchpad/internal/approval"
	"github.com/mattjoyce/launchpad/internal/env"
)

// ErrApprovalsNotSet is returned by Spawn when UseApprovals was never called.
var ErrApprovalsNotSet = errors.New("approval service not attached to agent")

// Kind identifies an agent implementation.
type Kind string

const (
	KindClaudeCode  Kind = "CLAUDE_CODE"
	KindCodex       Kind = "CODEX"
	KindGemini      Kind = "GEMINI"
	KindAmp         Kind = "AMP"
	KindOpencode    Kind = "OPENCODE"
	KindCursorAgent Kind = "CURSOR_AGENT"
	KindQwenCode    Kind = "QWEN_CODE"
)

var kinds = []Kind{
	KindClaudeCode,
	KindCodex,
	KindGemini,
	KindAmp,
	KindOpencode,
	KindCursorAgent,
	KindQwenCode,
}

// Kinds returns every supported kind in a stable order.
func Kinds() []Kind {
	return slices.Clone(kinds)
}

// ParseKind normalizes s ("claude-code", "Claude_Code", ...) to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	if !k.Valid() {
		return "", fmt.Errorf("unknown agent kind %q", s)
	}
	return k, nil
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	return slices.Contains(kinds, k)
}

func (k Kind) String() string { return string(k) }

// CmdOverrides adjusts an agent's default command line and environment.
type CmdOverrides struct {
	// BaseCommandOverride replaces the default executable and its leading args.
	BaseCommandOverride string `yaml:"base_command_override,omitempty" json:"base_command_override,omitempty"`
	// AdditionalParams are appended after the agent's own params.
	AdditionalParams []string `yaml:"additional_params,omitempty" json:"additional_params,omitempty"`
	// Env is the profile environment layer.
	Env map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
}

// EnvOverrides implements env.ProfileOverrides.
func (o CmdOverrides) EnvOverrides() map[string]string { return o.Env }

// Config is the per-profile configuration of an agent.
type Config struct {
	CmdOverrides `yaml:",inline"`

	Model string `yaml:"model,omitempty" json:"model,omitempty"`
	// Plan starts Claude Code in plan permission mode.
	Plan bool `yaml:"plan,omitempty" json:"plan,omitempty"`
	// DangerouslySkipPermissions maps to each CLI's "yolo" flag.
	DangerouslySkipPermissions bool `yaml:"dangerously_skip_permissions,omitempty" json:"dangerously_skip_permissions,omitempty"`
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.AdditionalParams = slices.Clone(c.AdditionalParams)
	out.Env = maps.Clone(c.Env)
	return out
}

// CodingAgent is the uniform launch contract shared by all variants.
type CodingAgent interface {
	Kind() Kind
	// EnvOverrides returns the profile environment layer.
	EnvOverrides() map[string]string
	// UseApprovals attaches the shared approval service. The service is
	// borrowed, not owned.
	UseApprovals(svc approval.Service)
	Spawn(ctx context.Context, dir, prompt string, environment *env.ExecutionEnv) (*SpawnedChild, error)
}

// New builds a fresh agent instance of the given kind.
func New(kind Kind, cfg Config) (CodingAgent, error) {
	b := base{kind: kind, cfg: cfg.Clone()}
	switch kind {
	case KindClaudeCode:
		return &Claude{base: b}, nil
	case KindCodex:
		return &Codex{base: b}, nil
	case KindGemini:
		return &Gemini{base: b}, nil
	case KindAmp:
		return &Amp{base: b}, nil
	case KindOpencode:
		return &Opencode{base: b}, nil
	case KindCursorAgent:
		return &CursorAgent{base: b}, nil
	case KindQwenCode:
		return &QwenCode{base: b}, nil
	default:
		return nil, fmt.Errorf("unknown agent kind %q", kind)
	}
}

// base carries the state every variant shares.
type base struct {
	kind      Kind
	cfg       Config
	approvals approval.Service
}

func (b *base) Kind() Kind { return b.kind }

func (b *base) EnvOverrides() map[string]string { return b.cfg.Env }

func (b *base) UseApprovals(svc approval.Service) { b.approvals = svc }

// Config returns a copy of the agent's configuration.
func (b *base) Config() Config { return b.cfg.Clone() }
