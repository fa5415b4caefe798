// Package pkgmanager drives the workspace package manager's version command.
package pkgmanager

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/kingrea/monorelease/internal/model"
)

// Kind names a supported package manager binary.
type Kind string

const (
	KindPNPM Kind = "pnpm"
	KindNPM  Kind = "npm"
)

// Valid reports whether k names a supported package manager.
func (k Kind) Valid() bool {
	return k == KindPNPM || k == KindNPM
}

type runner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

// Runner computes next versions through "<pm> version".
type Runner struct {
	kind Kind
	run  runner
}

// Option customizes a Runner.
type Option func(*Runner)

// WithExec replaces process execution, mainly for tests.
func WithExec(run func(ctx context.Context, dir, name string, args ...string) ([]byte, error)) Option {
	return func(r *Runner) {
		if run != nil {
			r.run = run
		}
	}
}

// New returns a runner for kind, defaulting to pnpm.
func New(kind Kind, opts ...Option) *Runner {
	if kind == "" {
		kind = KindPNPM
	}
	r := &Runner{kind: kind, run: execRun}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func execRun(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Args returns the version command arguments for a bump. A non-empty preid
// selects a prerelease bump.
func Args(bump model.Bump, preid string) []string {
	args := []string{"version"}
	if preid != "" {
		args = append(args, "prerelease", "--preid="+preid)
	} else {
		args = append(args, bump.String())
	}
	return append(args, "--no-git-tag-version", "--allow-same-version")
}

// Bump runs the version command in dir and returns the version it printed.
// The command rewrites the package manifest; callers restore it.
func (r *Runner) Bump(ctx context.Context, dir string, bump model.Bump, preid string) (string, error) {
	out, err := r.run(ctx, dir, string(r.kind), Args(bump, preid)...)
	if err != nil {
		return "", fmt.Errorf("pkgmanager: %s version in %s: %w", r.kind, dir, err)
	}
	version := ParseOutput(string(out))
	if version == "" {
		return "", fmt.Errorf("pkgmanager: %s version in %s: empty output", r.kind, dir)
	}
	return version, nil
}

// ParseOutput extracts the version from the last non-empty output line.
func ParseOutput(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		return strings.TrimPrefix(line, "v")
	}
	return ""
}
