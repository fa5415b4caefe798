package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/kingrea/monorelease/internal/planner"
)

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Roll back versions and changelogs of an unfinished plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := planner.New(a.cfg, planner.WithLogger(a.log))
			if err != nil {
				return err
			}
			names, err := p.Reset(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				a.log.Infof("No pending release to reset")
				return nil
			}
			a.log.Infof("Reset %s packages: %s", a.palette.Count(len(names)), strings.Join(names, ", "))
			return nil
		},
	}
}
