package main

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/monorelease/internal/manifest"
	"github.com/kingrea/monorelease/internal/tui"
)

func newReviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Browse the pending releases and their changelogs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(a.stdout) {
				return errors.New("review needs an interactive terminal; use `monorelease show` instead")
			}
			m, err := manifest.NewStore(a.cfg.ManifestFile()).Load()
			if err != nil {
				return err
			}
			p := tea.NewProgram(tui.NewReview(m, tui.WithLogger(a.log)), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return err
			}
			return nil
		},
	}
}
