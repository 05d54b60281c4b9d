package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/launchpad/internal/log"
	"github.com/mattjoyce/launchpad/internal/process"
	"github.com/mattjoyce/launchpad/internal/profile"
	"github.com/mattjoyce/launchpad/internal/spawn"
)

type spawnOptions struct {
	profile string
	dir     string
	env     []string
}

func newSpawnCmd(root *rootOptions) *cobra.Command {
	opts := &spawnOptions{}
	cmd := &cobra.Command{
		Use:   "spawn [prompt...]",
		Short: "Launch one agent in the foreground and exit with its status",
		Long: `Launch one agent in the foreground. The prompt is taken from the
arguments, or from stdin when none are given. The agent's output is
streamed to this terminal and launchpad exits with the agent's status.`,
		Example: `  launchpad spawn --profile claude-code:plan "summarize the open TODOs"
  git diff | launchpad spawn --profile CODEX --dir services/api --env CI=1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpawn(cmd, root, opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.profile, "profile", "p", "", "executor profile, EXECUTOR[:VARIANT]")
	cmd.Flags().StringVarP(&opts.dir, "dir", "C", "", "working directory, relative to service.base_dir")
	cmd.Flags().StringArrayVarP(&opts.env, "env", "e", nil, "KEY=VALUE override, repeatable")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}

func runSpawn(cmd *cobra.Command, root *rootOptions, opts *spawnOptions, args []string) error {
	ctx := cmd.Context()

	id, err := profile.ParseID(opts.profile)
	if err != nil {
		return fmt.Errorf("--profile: %w", err)
	}
	overrides, err := parseEnvFlags(opts.env)
	if err != nil {
		return err
	}
	prompt, err := readPrompt(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	cfg, err := root.loadConfig(cmd)
	if err != nil {
		return err
	}
	registry, err := loadRegistry(cfg)
	if err != nil {
		return err
	}
	approvals, _, closeApprovals, err := openApprovals(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer closeApprovals()

	req := spawn.Request{Prompt: prompt, ProfileID: id, Env: overrides}
	if opts.dir != "" {
		req.WorkingDir = &opts.dir
	}

	dispatcher := spawn.New(registry, spawn.WithLogger(log.WithComponent("spawn")))
	child, err := dispatcher.Dispatch(ctx, req, cfg.Service.BaseDir, approvals, cfg.Env.BaseEnv())
	if err != nil {
		return err
	}

	table := process.NewTable(process.WithLogger(log.WithComponent("process")))
	tracked := table.Track(child, id.String(), process.WithMirror(cmd.OutOrStdout(), cmd.ErrOrStderr()))

	final, err := table.Wait(ctx, tracked.ID)
	if errors.Is(err, context.Canceled) {
		// Interrupted: take the agent down with us.
		_ = table.Kill(tracked.ID)
		waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		final, err = table.Wait(waitCtx, tracked.ID)
	}
	if err != nil {
		return err
	}
	return exitStatus(final)
}

// exitStatus maps a finished process to the CLI's exit status.
func exitStatus(snap process.Snapshot) error {
	switch {
	case snap.Status == process.StatusFailed:
		return errors.New(snap.Error)
	case snap.Status == process.StatusKilled:
		return &exitCodeError{code: 130}
	case snap.ExitCode != nil && *snap.ExitCode != 0:
		return &exitCodeError{code: *snap.ExitCode}
	default:
		return nil
	}
}

func readPrompt(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read prompt from stdin: %w", err)
	}
	return string(data), nil
}

func parseEnvFlags(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("--env %q: want KEY=VALUE", pair)
		}
		out[key] = value
	}
	return out, nil
}
