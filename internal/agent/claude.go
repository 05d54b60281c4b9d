package agent

import (
	"context"

	"github.com/mattjoyce/launchpad/internal/env"
)

const claudeBaseCommand = "npx -y @anthropic-ai/claude-code@latest"

// Claude runs Anthropic's Claude Code CLI in print mode.
type Claude struct {
	base
}

func (c *Claude) command() commandBuilder {
	cb := newCommand(claudeBaseCommand, "-p", "--verbose", "--output-format=stream-json")
	if c.cfg.Plan {
		cb = cb.extend("--permission-mode=plan")
	}
	if c.cfg.DangerouslySkipPermissions {
		cb = cb.extend("--dangerously-skip-permissions")
	}
	if c.cfg.Model != "" {
		cb = cb.extend("--model", c.cfg.Model)
	}
	return cb
}

func (c *Claude) Spawn(ctx context.Context, dir, prompt string, environment *env.ExecutionEnv) (*SpawnedChild, error) {
	return c.launch(ctx, c.command(), dir, prompt, environment)
}
