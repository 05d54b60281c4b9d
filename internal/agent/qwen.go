package agent

import (
	"context"

	"github.com/mattjoyce/launchpad/internal/env"
)

const qwenBaseCommand = "npx -y @qwen-code/qwen-code@latest"

type QwenCode struct {
	base
}

func (q *QwenCode) command() commandBuilder {
	cb := newCommand(qwenBaseCommand)
	if q.cfg.DangerouslySkipPermissions {
		cb = cb.extend("--yolo")
	}
	if q.cfg.Model != "" {
		cb = cb.extend("--model", q.cfg.Model)
	}
	return cb
}

func (q *QwenCode) Spawn(ctx context.Context, dir, prompt string, environment *env.ExecutionEnv) (*SpawnedChild, error) {
	return q.launch(ctx, q.command(), dir, prompt, environment)
}
