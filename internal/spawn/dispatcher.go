// Package spawn turns a declarative Request into a running agent process.
//
// Dispatch resolves the working directory, looks up the requested profile,
// composes the environment (request > profile > base), attaches the shared
// approval service and launches the agent. It holds no state between calls
// and is safe for concurrent use.
package spawn

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mattjoyce/launchpad/internal/agent"
	"github.com/mattjoyce/launchpad/internal/approval"
	"github.com/mattjoyce/launchpad/internal/env"
	"github.com/mattjoyce/launchpad/internal/events"
	"github.com/mattjoyce/launchpad/internal/log"
)

// Dispatcher launches agents for requests.
type Dispatcher struct {
	registry ProfileRegistry
	logger   *slog.Logger
	events   events.Publisher
	metrics  *Metrics
	now      func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

func WithEvents(p events.Publisher) Option {
	return func(d *Dispatcher) { d.events = p }
}

func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// New creates a Dispatcher over registry.
func New(registry ProfileRegistry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		logger:   log.WithComponent("spawn"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ResolveDir returns baseDir when workingDir is nil, otherwise the two
// joined. workingDir is not checked for traversal. The joined path is
// lexically cleaned ("a/./b/.." becomes "a"), and an absolute workingDir is
// appended under baseDir rather than replacing it.
func ResolveDir(baseDir string, workingDir *string) string {
	if workingDir == nil {
		return baseDir
	}
	return filepath.Join(baseDir, *workingDir)
}

// Dispatch launches the agent described by req in baseDir (or a directory
// under it), with baseEnv as the lowest environment layer. approvals is
// attached to the agent before it starts. Launch errors are returned as the
// agent reported them.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request, baseDir string, approvals approval.Service, baseEnv *env.ExecutionEnv) (*agent.SpawnedChild, error) {
	start := d.now()
	dispatchID := uuid.NewString()
	executor := string(req.ProfileID.Executor)
	logger := d.logger.With("request_id", dispatchID, "profile", req.ProfileID.String())
	logger.Debug("dispatch", "state", StatePending)

	if err := req.Validate(); err != nil {
		d.fail(logger, dispatchID, req, outcomeInvalid, start, err)
		return nil, err
	}

	dir := ResolveDir(baseDir, req.WorkingDir)

	logger.Debug("dispatch", "state", StateResolving, "dir", dir)
	d.publish(events.SpawnResolving, map[string]any{
		"request_id": dispatchID,
		"profile":    req.ProfileID.String(),
		"dir":        dir,
	})

	codingAgent, ok := d.registry.GetCodingAgent(req.ProfileID)
	if !ok {
		err := &UnknownExecutorTypeError{Identifier: req.ProfileID.String()}
		d.fail(logger, dispatchID, req, outcomeUnknownProfile, start, err)
		return nil, err
	}

	merged := baseEnv.WithProfile(codingAgent).WithOverrides(req.Env)

	codingAgent.UseApprovals(approvals)
	child, err := codingAgent.Spawn(ctx, dir, req.Prompt, merged)
	if err != nil {
		d.fail(logger, dispatchID, req, outcomeLaunchError, start, err)
		return nil, err
	}

	d.metrics.observe(executor, outcomeSpawned, d.now().Sub(start).Seconds())
	logger.Info("agent spawned",
		"state", StateSpawned,
		"process_id", child.ID,
		"pid", child.PID(),
		"dir", dir,
		"env_vars", merged.Len(),
	)
	d.publish(events.SpawnSpawned, map[string]any{
		"request_id": dispatchID,
		"profile":    req.ProfileID.String(),
		"process_id": child.ID,
		"pid":        child.PID(),
		"dir":        dir,
	})
	return child, nil
}

func (d *Dispatcher) fail(logger *slog.Logger, dispatchID string, req Request, outcome string, start time.Time, err error) {
	d.metrics.observe(string(req.ProfileID.Executor), outcome, d.now().Sub(start).Seconds())
	logger.Warn("dispatch failed", "state", StateFailed, "outcome", outcome, "error", err)
	d.publish(events.SpawnFailed, map[string]any{
		"request_id": dispatchID,
		"profile":    req.ProfileID.String(),
		"outcome":    outcome,
		"error":      err.Error(),
	})
}

func (d *Dispatcher) publish(eventType string, data map[string]any) {
	if d.events == nil {
		return
	}
	d.events.Publish(eventType, data)
}
