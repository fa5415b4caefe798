package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kingrea/monorelease/internal/config"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "init",
		Short:       "Write .monorelease/config.yaml if it is missing",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := config.InitProjectDir(a.cwd)
			if err != nil {
				return err
			}
			path := filepath.Join(a.cwd, config.Dir, config.FileName)
			if !created {
				a.log.Infof("%s already exists", a.palette.Name(path))
				return nil
			}
			a.log.Infof("Wrote %s", a.palette.Name(path))
			return nil
		},
	}
}
