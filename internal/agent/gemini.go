package agent

import (
	"context"

	"github.com/mattjoyce/launchpad/internal/env"
)

const geminiBaseCommand = "npx -y @google/gemini-cli@latest"

type Gemini struct {
	base
}

func (g *Gemini) command() commandBuilder {
	cb := newCommand(geminiBaseCommand)
	if g.cfg.DangerouslySkipPermissions {
		cb = cb.extend("--yolo")
	}
	if g.cfg.Model != "" {
		cb = cb.extend("--model", g.cfg.Model)
	}
	return cb
}

func (g *Gemini) Spawn(ctx context.Context, dir, prompt string, environment *env.ExecutionEnv) (*SpawnedChild, error) {
	return g.launch(ctx, g.command(), dir, prompt, environment)
}
