package agent

import (
	"context"

	"github.com/mattjoyce/launchpad/internal/env"
)

const codexBaseCommand = "npx -y @openai/codex@latest"

// Codex runs OpenAI's Codex CLI non-interactively. The trailing "-" makes
// codex read the prompt from stdin.
type Codex struct {
	base
}

func (c *Codex) command() commandBuilder {
	cb := newCommand(codexBaseCommand, "exec", "--json", "--skip-git-repo-check")
	if c.cfg.DangerouslySkipPermissions {
		cb = cb.extend("--dangerously-bypass-approvals-and-sandbox")
	}
	if c.cfg.Model != "" {
		cb = cb.extend("--model", c.cfg.Model)
	}
	return cb.withTrailing("-")
}

func (c *Codex) Spawn(ctx context.Context, dir, prompt string, environment *env.ExecutionEnv) (*SpawnedChild, error) {
	return c.launch(ctx, c.command(), dir, prompt, environment)
}
