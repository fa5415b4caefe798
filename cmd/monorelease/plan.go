package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/monorelease/internal/model"
	"github.com/kingrea/monorelease/internal/planner"
)

type planFlags struct {
	source    string
	target    string
	dryRun    bool
	printBody bool
}

func newPlanCmd(a *app) *cobra.Command {
	var f planFlags
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute the next release and write versions, changelogs and the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := planner.New(a.cfg, planner.WithLogger(a.log))
			if err != nil {
				return err
			}
			res, err := p.Run(cmd.Context(), planner.RunOptions{
				Source: f.source,
				Target: f.target,
				DryRun: f.dryRun,
			})
			if err != nil {
				return err
			}
			a.summarize(res.Manifest)
			if f.printBody {
				fmt.Fprint(a.stdout, res.Body)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.source, "source", "s", "", "branch holding the changes (default current branch)")
	cmd.Flags().StringVarP(&f.target, "target", "t", "", "branch the changes merge into (default base_target)")
	cmd.Flags().BoolVarP(&f.dryRun, "dry-run", "n", false, "compute the plan without writing anything")
	cmd.Flags().BoolVar(&f.printBody, "print-body", false, "print the release body to stdout")
	return cmd
}

func (a *app) summarize(m *model.PendingManifest) {
	if m == nil || !m.HasReleases() {
		a.log.Infof("Nothing to release")
		return
	}
	a.log.Infof("%s packages to release", a.palette.Count(len(m.Releases)))
	for _, name := range model.SortedNames(m.Releases) {
		release := m.Releases[name]
		level := model.BumpNone
		if pkg, ok := m.Packages[name]; ok && pkg != nil {
			level = pkg.Bump
		}
		a.log.Infof("  %s %s > %s", a.palette.Name(name), release.CurrentVersion, a.palette.FormatVersion(release.NextVersion, level))
	}
}
