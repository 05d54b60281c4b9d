package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/mattjoyce/launchpad/internal/approval"
)

// SpawnedChild is the handle to a running agent process. The caller owns it:
// it must drain Stdout and Stderr before calling Wait, and is responsible for
// eventually calling Wait or Kill.
type SpawnedChild struct {
	ID        string
	Kind      Kind
	Dir       string
	Cmd       *exec.Cmd
	Stdout    io.ReadCloser
	Stderr    io.ReadCloser
	StartedAt time.Time

	approvals  approval.Service
	promptDone chan error

	waitOnce  sync.Once
	exitCode  int
	waitErr   error
	promptErr error
}

// PID returns the OS process id.
func (c *SpawnedChild) PID() int {
	if c.Cmd == nil || c.Cmd.Process == nil {
		return 0
	}
	return c.Cmd.Process.Pid
}

// Approvals returns the approval service attached to the agent at launch.
func (c *SpawnedChild) Approvals() approval.Service {
	return c.approvals
}

// RequestApproval asks the attached service to authorize an action taken by
// this process.
func (c *SpawnedChild) RequestApproval(ctx context.Context, tool string, input map[string]any) (approval.Response, error) {
	if c.approvals == nil {
		return approval.Response{}, ErrApprovalsNotSet
	}
	return c.approvals.RequestApproval(ctx, approval.Request{
		ProcessID: c.ID,
		Tool:      tool,
		Input:     input,
	})
}

// Wait blocks until the process exits and returns its exit code. A non-zero
// exit is not an error; err is only set when waiting itself failed. Safe to
// call more than once.
func (c *SpawnedChild) Wait() (int, error) {
	c.waitOnce.Do(func() {
		err := c.Cmd.Wait()
		// Wait closes our end of stdin, which unblocks a prompt writer the
		// child never read from.
		if c.promptDone != nil {
			c.promptErr = <-c.promptDone
		}

		var exitErr *exec.ExitError
		switch {
		case err == nil:
			c.exitCode = 0
		case errors.As(err, &exitErr):
			c.exitCode = exitErr.ExitCode()
		default:
			c.exitCode = -1
			c.waitErr = fmt.Errorf("wait for %s: %w", c.Kind, err)
		}
	})
	return c.exitCode, c.waitErr
}

// PromptErr reports a failure writing the prompt to the child's stdin.
// Only meaningful after Wait returned.
func (c *SpawnedChild) PromptErr() error {
	return c.promptErr
}

// Kill terminates the process immediately.
func (c *SpawnedChild) Kill() error {
	if c.Cmd == nil || c.Cmd.Process == nil {
		return errors.New("process not started")
	}
	if err := c.Cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill %s: %w", c.Kind, err)
	}
	return nil
}
