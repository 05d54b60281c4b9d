package agent

import (
	"context"

	"github.com/mattjoyce/launchpad/internal/env"
)

const cursorBaseCommand = "cursor-agent"

// CursorAgent runs the cursor-agent CLI, which is installed natively rather
// than through npx.
type CursorAgent struct {
	base
}

func (c *CursorAgent) command() commandBuilder {
	cb := newCommand(cursorBaseCommand, "-p", "--output-format=stream-json")
	if c.cfg.DangerouslySkipPermissions {
		cb = cb.extend("--force")
	}
	if c.cfg.Model != "" {
		cb = cb.extend("--model", c.cfg.Model)
	}
	return cb
}

func (c *CursorAgent) Spawn(ctx context.Context, dir, prompt string, environment *env.ExecutionEnv) (*SpawnedChild, error) {
	return c.launch(ctx, c.command(), dir, prompt, environment)
}
