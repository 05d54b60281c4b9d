package agent

import (
	"context"

	"github.com/mattjoyce/launchpad/internal/env"
)

const ampBaseCommand = "npx -y @sourcegraph/amp@latest"

type Amp struct {
	base
}

func (a *Amp) command() commandBuilder {
	cb := newCommand(ampBaseCommand, "--execute", "--stream-json")
	if a.cfg.DangerouslySkipPermissions {
		cb = cb.extend("--dangerously-allow-all")
	}
	return cb
}

func (a *Amp) Spawn(ctx context.Context, dir, prompt string, environment *env.ExecutionEnv) (*SpawnedChild, error) {
	return a.launch(ctx, a.command(), dir, prompt, environment)
}
