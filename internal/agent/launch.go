package agent

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"github.com/mattjoyce/launchpad/internal/env"
)

// launch starts the process described by cb and hands the prompt to it on
// stdin. The child is deliberately not bound to ctx: once started, its
// lifetime belongs to whoever holds the returned handle.
func (b *base) launch(ctx context.Context, cb commandBuilder, dir, prompt string, environment *env.ExecutionEnv) (*SpawnedChild, error) {
	if b.approvals == nil {
		return nil, ErrApprovalsNotSet
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	program, args, err := cb.withOverrides(b.cfg.CmdOverrides).build()
	if err != nil {
		return nil, fmt.Errorf("build %s command: %w", b.kind, err)
	}

	cmd := exec.Command(program, args...)
	cmd.Dir = dir
	environment.ApplyTo(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", b.kind, err)
	}

	child := &SpawnedChild{
		ID:         uuid.NewString(),
		Kind:       b.kind,
		Dir:        dir,
		Cmd:        cmd,
		Stdout:     stdout,
		Stderr:     stderr,
		StartedAt:  time.Now().UTC(),
		approvals:  b.approvals,
		promptDone: make(chan error, 1),
	}

	go func() {
		_, werr := io.WriteString(stdin, prompt)
		if cerr := stdin.Close(); werr == nil {
			werr = cerr
		}
		child.promptDone <- werr
	}()

	return child, nil
}
