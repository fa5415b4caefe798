package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/kingrea/monorelease/internal/config"
	"github.com/kingrea/monorelease/internal/logging"
	"github.com/kingrea/monorelease/internal/style"
)

// skipConfig marks commands that run before a configuration exists.
const skipConfig = "monorelease/skip-config"

type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	cwd        string
	verbose    bool
	noColor    bool

	cfg     *config.Config
	log     *logging.Logger
	palette *style.Palette
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, palette: style.Plain()}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "monorelease",
		Short: "Plan package releases for a JavaScript monorepo",
		Long: `monorelease reads the conventional commits between two branches,
maps them onto workspace packages, bumps their versions and writes
changelogs plus a pending release manifest.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Annotations[skipConfig] == "")
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to the config file (default .monorelease/config.yaml)")
	flags.StringVar(&a.cwd, "cwd", "", "project directory (default current directory)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "print debug output")
	flags.BoolVar(&a.noColor, "no-color", false, "disable coloured output")

	root.AddCommand(
		newInitCmd(a),
		newPlanCmd(a),
		newResetCmd(a),
		newShowCmd(a),
		newReviewCmd(a),
	)
	return root
}

// setup resolves the project directory, loads .env and opens the logger.
// The configuration is loaded only when withConfig is set.
func (a *app) setup(withConfig bool) error {
	cwd := a.cwd
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		cwd = wd
	}
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", cwd, err)
	}
	a.cwd = abs

	// A missing .env is the common case.
	_ = godotenv.Load(filepath.Join(a.cwd, ".env"))

	a.palette = style.New(a.stderr, a.colorEnabled())
	level := logging.LevelInfo
	if a.verbose {
		level = logging.LevelDebug
	}
	if !withConfig {
		a.log = logging.Console(a.stderr, level, logging.WithPalette(a.palette))
		return nil
	}

	cfg, err := config.NewConfig(a.cwd, config.WithPath(a.configPath))
	if err != nil {
		return err
	}
	a.cfg = cfg
	logger, err := logging.New(cfg.ProjectDir, logging.WithConsole(a.stderr, level), logging.WithPalette(a.palette))
	if err != nil {
		return err
	}
	a.log = logger
	a.log.Debugf("run %s in %s", a.log.RunID(), cfg.ProjectDir)
	return nil
}

func (a *app) colorEnabled() bool {
	if a.noColor {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isTerminal(a.stderr)
}

func (a *app) close() {
	if a.log != nil {
		_ = a.log.Close()
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
