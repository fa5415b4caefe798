package vcs

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GoGitClient reads history without a git binary. It has no patch-id based
// cherry-pick detection: commits picked onto the target under a new hash are
// reported again.
type GoGitClient struct {
	repo   *git.Repository
	root   string
	remote string
}

// OpenGoGit opens the repository containing dir.
func OpenGoGit(dir, remote string) (*GoGitClient, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("vcs: open repository: %w", err)
	}
	root := dir
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return &GoGitClient{repo: repo, root: root, remote: remote}, nil
}

func (c *GoGitClient) resolve(names ...string) (*plumbing.Hash, error) {
	var lastErr error
	for _, name := range names {
		if name == "" {
			continue
		}
		hash, err := c.repo.ResolveRevision(plumbing.Revision(name))
		if err == nil {
			return hash, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = plumbing.ErrReferenceNotFound
	}
	return nil, fmt.Errorf("vcs: resolve %s: %w", strings.Join(names, " or "), lastErr)
}

// Log walks source history, skipping commits reachable from target and merge
// commits.
func (c *GoGitClient) Log(ctx context.Context, source, target string) ([]string, error) {
	sourceHash, err := c.resolve(source)
	if err != nil {
		return nil, err
	}
	targetRef := remoteRef(c.remote, target)
	targetHash, err := c.resolve(targetRef, target)
	if err != nil {
		return nil, err
	}

	excluded := make(map[plumbing.Hash]struct{})
	targetIter, err := c.repo.Log(&git.LogOptions{From: *targetHash})
	if err != nil {
		return nil, fmt.Errorf("vcs: walk %s: %w", targetRef, err)
	}
	err = targetIter.ForEach(func(commit *object.Commit) error {
		if ctx != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		excluded[commit.Hash] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vcs: walk %s: %w", targetRef, err)
	}

	sourceIter, err := c.repo.Log(&git.LogOptions{From: *sourceHash, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("vcs: walk %s: %w", source, err)
	}
	var lines []string
	err = sourceIter.ForEach(func(commit *object.Commit) error {
		if ctx != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		if _, ok := excluded[commit.Hash]; ok {
			return nil
		}
		if commit.NumParents() > 1 {
			return nil
		}
		lines = append(lines, FormatLine(commit.Hash.String(), commit.Committer.When.Unix(), subject(commit.Message)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vcs: walk %s: %w", source, err)
	}
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return lines, nil
}

// FilesTouched diffs a commit against its first parent, or against the empty
// tree for root commits.
func (c *GoGitClient) FilesTouched(ctx context.Context, hash string) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	commit, err := c.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("vcs: commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("vcs: tree of %s: %w", hash, err)
	}
	var parentTree *object.Tree
	if commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("vcs: parent of %s: %w", hash, err)
		}
		if parentTree, err = parent.Tree(); err != nil {
			return nil, fmt.Errorf("vcs: parent tree of %s: %w", hash, err)
		}
	}
	changes, err := object.DiffTreeWithOptions(ctx, parentTree, tree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("vcs: diff %s: %w", hash, err)
	}
	seen := make(map[string]struct{}, len(changes))
	files := make([]string, 0, len(changes))
	for _, change := range changes {
		for _, name := range []string{change.From.Name, change.To.Name} {
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			files = append(files, name)
		}
	}
	return files, nil
}

// CurrentBranch reports the short name of HEAD.
func (c *GoGitClient) CurrentBranch(context.Context) (string, error) {
	head, err := c.repo.Head()
	if err != nil {
		return "", fmt.Errorf("vcs: current branch: %w", err)
	}
	if !head.Name().IsBranch() {
		return "HEAD", nil
	}
	return head.Name().Short(), nil
}

// Root reports the worktree root.
func (c *GoGitClient) Root(context.Context) (string, error) {
	return c.root, nil
}

func subject(message string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	return strings.TrimSpace(line)
}
