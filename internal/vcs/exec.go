package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

type runner func(ctx context.Context, dir string, args ...string) ([]byte, error)

// ExecClient shells out to the git binary.
type ExecClient struct {
	dir    string
	remote string
	run    runner
}

// ExecOption customizes an ExecClient.
type ExecOption func(*ExecClient)

// WithRunner replaces the git invocation, mainly for tests.
func WithRunner(run func(ctx context.Context, dir string, args ...string) ([]byte, error)) ExecOption {
	return func(c *ExecClient) {
		if run != nil {
			c.run = run
		}
	}
}

// NewExecClient runs git inside dir. Targets are resolved against remote
// when it is non-empty.
func NewExecClient(dir, remote string, opts ...ExecOption) *ExecClient {
	c := &ExecClient{dir: dir, remote: remote, run: runGit}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func runGit(ctx context.Context, dir string, args ...string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", err, msg)
	}
	return out, nil
}

// Log lists left-only, non-merge commits with cherry-pick equivalents
// removed.
func (c *ExecClient) Log(ctx context.Context, source, target string) ([]string, error) {
	rangeSpec := fmt.Sprintf("%s...%s", source, remoteRef(c.remote, target))
	out, err := c.run(ctx, c.dir,
		"log",
		"--cherry-pick",
		"--format="+LogFormat,
		"--no-merges",
		"--left-only",
		"--reverse",
		rangeSpec,
	)
	if err != nil {
		return nil, fmt.Errorf("vcs: git log %s: %w", rangeSpec, err)
	}
	return splitLines(string(out)), nil
}

// FilesTouched lists files changed by a commit, including root commits.
func (c *ExecClient) FilesTouched(ctx context.Context, hash string) ([]string, error) {
	out, err := c.run(ctx, c.dir, "diff-tree", "--root", "--no-commit-id", "--name-only", "-r", hash)
	if err != nil {
		return nil, fmt.Errorf("vcs: git diff-tree %s: %w", hash, err)
	}
	return splitLines(string(out)), nil
}

// CurrentBranch reports the abbreviated HEAD ref.
func (c *ExecClient) CurrentBranch(ctx context.Context) (string, error) {
	out, err := c.run(ctx, c.dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("vcs: current branch: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Root reports the repository top-level directory.
func (c *ExecClient) Root(ctx context.Context) (string, error) {
	out, err := c.run(ctx, c.dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("vcs: repository root: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
