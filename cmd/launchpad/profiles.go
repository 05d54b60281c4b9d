package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/mattjoyce/launchpad/internal/agent"
	"github.com/mattjoyce/launchpad/internal/profile"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

func newProfilesCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Inspect executor profiles",
	}

	var jsonOut, showEnv bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List every executor profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			registry, err := loadRegistry(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				descs := registry.Describe()
				if !showEnv {
					for i := range descs {
						descs[i] = descs[i].Redacted()
					}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(descs)
			}
			fmt.Fprintln(out, renderProfiles(registry.Describe()))
			fmt.Fprintln(out, dimStyle.Render(describeSource(registry)))
			return nil
		},
	}
	list.Flags().BoolVar(&jsonOut, "json", false, "output profiles as JSON")
	list.Flags().BoolVar(&showEnv, "show-env", false, "include profile env values in JSON output")

	cmd.AddCommand(list)
	return cmd
}

func renderProfiles(descs []profile.Descriptor) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("PROFILE", "MODEL", "FLAGS", "COMMAND", "ENV").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, d := range descs {
		t.Row(d.ID.String(), orDash(d.Config.Model), profileFlags(d.Config), commandLabel(d.Config), strings.Join(slices.Sorted(maps.Keys(d.Config.Env)), ","))
	}
	return t.Render()
}

func profileFlags(cfg agent.Config) string {
	var flags []string
	if cfg.Plan {
		flags = append(flags, "plan")
	}
	if cfg.DangerouslySkipPermissions {
		flags = append(flags, "skip-permissions")
	}
	return orDash(strings.Join(flags, ","))
}

func commandLabel(cfg agent.Config) string {
	cmd := cfg.BaseCommandOverride
	if cmd == "" {
		cmd = "(default)"
	}
	if len(cfg.AdditionalParams) > 0 {
		cmd += " " + strings.Join(cfg.AdditionalParams, " ")
	}
	return cmd
}

func describeSource(registry *profile.Registry) string {
	if registry.Fingerprint() == "" {
		return "source: built-in profiles"
	}
	return fmt.Sprintf("source: %s (blake3 %s)", registry.Source(), registry.Fingerprint())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
