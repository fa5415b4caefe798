// Package vcs reads commit history from the repository. Two backends exist:
// the git CLI and an in-process go-git reader.
package vcs

import (
	"context"
	"fmt"
	"strings"
)

// LogFormat is the git pretty format every log line follows.
const LogFormat = "%H %ct %s"

// Client lists commits pending release and the files they touch.
type Client interface {
	// Log returns "<hash> <unix-seconds> <subject>" lines for commits reachable
	// from source but not from target, oldest first.
	Log(ctx context.Context, source, target string) ([]string, error)
	// FilesTouched returns repository-relative paths changed by a commit.
	FilesTouched(ctx context.Context, hash string) ([]string, error)
	// CurrentBranch returns the checked out branch name.
	CurrentBranch(ctx context.Context) (string, error)
	// Root returns the absolute repository top-level directory.
	Root(ctx context.Context) (string, error)
}

// Kind names a backend.
type Kind string

const (
	KindGit   Kind = "git"
	KindGoGit Kind = "go-git"
)

// Open returns the backend for kind rooted at dir.
func Open(kind Kind, dir, remote string) (Client, error) {
	switch kind {
	case "", KindGit:
		return NewExecClient(dir, remote), nil
	case KindGoGit:
		return OpenGoGit(dir, remote)
	default:
		return nil, fmt.Errorf("vcs: unknown backend %q", kind)
	}
}

// FormatLine renders a log line in LogFormat.
func FormatLine(hash string, timestamp int64, subject string) string {
	return fmt.Sprintf("%s %d %s", hash, timestamp, subject)
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func remoteRef(remote, target string) string {
	if remote == "" {
		return target
	}
	return remote + "/" + target
}
