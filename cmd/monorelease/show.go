package main

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/kingrea/monorelease/internal/manifest"
	"github.com/kingrea/monorelease/internal/model"
)

func newShowCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Summarise the pending release manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.NewStore(a.cfg.ManifestFile()).Load()
			if err != nil {
				return err
			}
			if asJSON {
				data, err := json.MarshalIndent(m, "", "  ")
				if err != nil {
					return fmt.Errorf("encoding manifest: %w", err)
				}
				fmt.Fprintln(a.stdout, string(data))
				return nil
			}
			if !m.HasReleases() {
				fmt.Fprintln(a.stdout, "No pending releases.")
				return nil
			}
			fmt.Fprintln(a.stdout, renderReleaseTable(m, isTerminal(a.stdout) && a.palette.Enabled()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw manifest")
	return cmd
}

func renderReleaseTable(m *model.PendingManifest, color bool) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("PACKAGE", "CURRENT", "NEXT", "BUMP", "COMMITS")
	if color {
		header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).Padding(0, 1)
		cell := lipgloss.NewStyle().Padding(0, 1)
		t = t.BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return header
				}
				return cell
			})
	}
	for _, name := range model.SortedNames(m.Releases) {
		release := m.Releases[name]
		level := model.BumpNone
		commits := 0
		if pkg, ok := m.Packages[name]; ok && pkg != nil {
			level = pkg.Bump
			commits = len(pkg.Commits)
		}
		t = t.Row(name, release.CurrentVersion, release.NextVersion, level.String(), fmt.Sprint(commits))
	}
	return t.Render()
}
