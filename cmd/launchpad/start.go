package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mattjoyce/launchpad/internal/api"
	"github.com/mattjoyce/launchpad/internal/auth"
	"github.com/mattjoyce/launchpad/internal/events"
	"github.com/mattjoyce/launchpad/internal/lock"
	"github.com/mattjoyce/launchpad/internal/log"
	"github.com/mattjoyce/launchpad/internal/process"
	"github.com/mattjoyce/launchpad/internal/spawn"
)

func newStartCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Serve the spawn API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStart(cmd, opts)
		},
	}
}

func runStart(cmd *cobra.Command, opts *rootOptions) error {
	ctx := cmd.Context()
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.API.Enabled {
		return errors.New("api.enabled is false; nothing to serve")
	}

	logger := log.WithComponent("main")
	logger.Info("launchpad starting", "version", version, "config", cfg.SourcePath)

	pidLock, err := lock.AcquirePIDLock(cfg.PIDLockPath())
	if err != nil {
		return fmt.Errorf("acquire PID lock (another instance may be running): %w", err)
	}
	defer func() { _ = pidLock.Release() }()
	logger.Info("acquired PID lock", "path", pidLock.Path())

	registry, err := loadRegistry(cfg)
	if err != nil {
		return err
	}
	logger.Info("profiles loaded", "source", registry.Source(), "count", len(registry.IDs()), "fingerprint", registry.Fingerprint())

	hub := events.NewHub(256)
	approvals, store, closeApprovals, err := openApprovals(ctx, cfg, hub)
	if err != nil {
		return err
	}
	defer closeApprovals()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	dispatcher := spawn.New(registry,
		spawn.WithLogger(log.WithComponent("spawn")),
		spawn.WithEvents(hub),
		spawn.WithMetrics(spawn.MustNewMetrics(promReg)),
	)
	table := process.NewTable(
		process.WithEvents(hub),
		process.WithLogger(log.WithComponent("process")),
	)

	tokens := make([]auth.TokenConfig, 0, len(cfg.API.Tokens))
	for _, t := range cfg.API.Tokens {
		tokens = append(tokens, auth.TokenConfig{Token: t.Token, Scopes: t.Scopes})
	}
	keyring, err := auth.NewKeyring(cfg.API.APIKey, tokens)
	if err != nil {
		return fmt.Errorf("api: %w", err)
	}
	deps := api.Deps{
		Spawner:   dispatcher,
		Processes: table,
		Profiles:  registry,
		Approvals: approvals,
		BaseEnv:   cfg.Env.BaseEnv(),
		Events:    hub,
		Metrics:   promhttp.HandlerFor(promReg, promhttp.HandlerOpts{Registry: promReg}),
	}
	if store != nil {
		deps.ApprovalLog = store
	}
	server := api.New(api.Config{
		Listen:                  cfg.API.Listen,
		Keyring:                 keyring,
		BaseDir:                 cfg.Service.BaseDir,
		AllowEscapingWorkingDir: cfg.API.AllowEscapingWorkingDir,
		MaxBodyBytes:            cfg.API.MaxBodyBytes,
		ShutdownTimeout:         cfg.API.ShutdownTimeout,
	}, deps, log.WithComponent("api"))

	logger.Info("launchpad running (press Ctrl+C to stop)", "listen", cfg.API.Listen, "base_dir", cfg.Service.BaseDir)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
		defer cancel()
		if err := table.Shutdown(shutdownCtx); err != nil {
			logger.Warn("agents did not stop cleanly", "error", err)
		}
		return nil
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		logger.Info("launchpad stopped")
		return nil
	}
	return err
}
