package agent

import (
	"context"

	"github.com/mattjoyce/launchpad/internal/env"
)

const opencodeBaseCommand = "npx -y opencode-ai@latest"

type Opencode struct {
	base
}

func (o *Opencode) command() commandBuilder {
	cb := newCommand(opencodeBaseCommand, "run", "--print-logs")
	if o.cfg.Model != "" {
		cb = cb.extend("--model", o.cfg.Model)
	}
	return cb
}

func (o *Opencode) Spawn(ctx context.Context, dir, prompt string, environment *env.ExecutionEnv) (*SpawnedChild, error) {
	return o.launch(ctx, o.command(), dir, prompt, environment)
}
