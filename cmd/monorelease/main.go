// Command monorelease plans releases for the packages of a JavaScript
// monorepo from its conventional commit history.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kingrea/monorelease/internal/planner"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command line and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(context.Background())
	defer a.close()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, planner.ErrNoCommits):
		return 0
	default:
		a.die(err)
		return 1
	}
}

// die reports a fatal error through the logger when one is open.
func (a *app) die(err error) {
	if a.log != nil {
		a.log.Errorf("%v", err)
		return
	}
	fmt.Fprintf(a.stderr, "monorelease: %v\n", err)
}
