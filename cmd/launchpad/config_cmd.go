package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/launchpad/internal/config"
	"github.com/mattjoyce/launchpad/internal/lock"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate the config and the profiles file it points at",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigCheck(cmd, root)
		},
	})
	return cmd
}

func runConfigCheck(cmd *cobra.Command, root *rootOptions) error {
	cfg, err := root.loadConfig(cmd)
	if err != nil {
		return err
	}
	registry, err := loadRegistry(cfg)
	if err != nil {
		return err
	}
	if _, _, err := cfg.Approvals.Policy(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	source := cfg.SourcePath
	if source == "" {
		source = "(defaults)"
	}
	fmt.Fprintf(out, "config: %s\n", source)
	fmt.Fprintf(out, "base_dir: %s\n", cfg.Service.BaseDir)
	fmt.Fprintf(out, "state_dir: %s\n", cfg.Service.StateDir)
	fmt.Fprintf(out, "profiles: %d (%s)\n", len(registry.IDs()), describeSource(registry))
	fmt.Fprintf(out, "api: %s\n", apiSummary(cfg))
	if pid, ok := lock.HolderPID(cfg.PIDLockPath()); ok {
		fmt.Fprintf(out, "running: pid %d holds %s\n", pid, cfg.PIDLockPath())
	}
	fmt.Fprintln(out, "OK")
	return nil
}

func apiSummary(cfg *config.Config) string {
	if !cfg.API.Enabled {
		return "disabled"
	}
	return fmt.Sprintf("%s, %d scoped token(s)", cfg.API.Listen, len(cfg.API.Tokens))
}
