// Package impact maps the files a commit touched onto workspace package
// directories.
package impact

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kingrea/monorelease/internal/model"
)

// RootPath is the package path used for the workspace-level package.
const RootPath = "."

// Config describes the workspace layout.
type Config struct {
	// Roots are absolute scan roots in priority order.
	Roots []string
	// RootPackage attributes commits that touch no scan root to RootPath.
	RootPackage bool
	// RepoRoot is the absolute repository top level; commit files are
	// relative to it.
	RepoRoot string
	// WorkDir is the absolute project directory package paths are reported
	// relative to.
	WorkDir string
	// Ignore holds doublestar patterns matched against repository-relative
	// files; matching files never attribute.
	Ignore []string
}

// Mapper attributes commits to package paths.
type Mapper struct {
	roots       []string
	rootPackage bool
	repoRoot    string
	workDir     string
	ignore      []string
}

// New validates cfg and returns a Mapper.
func New(cfg Config) (*Mapper, error) {
	for _, pattern := range cfg.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("impact: invalid ignore pattern %q", pattern)
		}
	}
	roots := make([]string, 0, len(cfg.Roots))
	for _, root := range cfg.Roots {
		if !filepath.IsAbs(root) {
			return nil, fmt.Errorf("impact: scan root %q is not absolute", root)
		}
		roots = append(roots, withSeparator(filepath.Clean(root)))
	}
	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = cfg.RepoRoot
	}
	return &Mapper{
		roots:       roots,
		rootPackage: cfg.RootPackage,
		repoRoot:    filepath.Clean(cfg.RepoRoot),
		workDir:     filepath.Clean(workDir),
		ignore:      append([]string(nil), cfg.Ignore...),
	}, nil
}

// Roots returns the scan roots in priority order.
func (m *Mapper) Roots() []string {
	return append([]string(nil), m.roots...)
}

func withSeparator(p string) string {
	if strings.HasSuffix(p, string(filepath.Separator)) {
		return p
	}
	return p + string(filepath.Separator)
}

// Attribute returns the package paths a commit belongs to, in order of first
// appearance among its files. An empty result means the commit is
// unattributable.
func (m *Mapper) Attribute(c model.Commit) []string {
	var paths []string
	seen := map[string]struct{}{}
	for _, file := range c.Files {
		if m.ignored(file) {
			continue
		}
		dir, ok := m.packageDir(file)
		if !ok {
			continue
		}
		if _, dup := seen[dir]; dup {
			continue
		}
		seen[dir] = struct{}{}
		paths = append(paths, dir)
	}
	if len(paths) == 0 && m.rootPackage {
		return []string{RootPath}
	}
	return paths
}

func (m *Mapper) ignored(file string) bool {
	for _, pattern := range m.ignore {
		if ok, _ := doublestar.Match(pattern, filepath.ToSlash(file)); ok {
			return true
		}
	}
	return false
}

// packageDir resolves a repository-relative file to its package path. Files
// sitting directly in a scan root belong to no package.
func (m *Mapper) packageDir(file string) (string, bool) {
	abs := filepath.Join(m.repoRoot, filepath.FromSlash(file))
	for _, root := range m.roots {
		if !strings.HasPrefix(abs, root) {
			continue
		}
		segment, rest, found := strings.Cut(strings.TrimPrefix(abs, root), string(filepath.Separator))
		if !found || segment == "" || rest == "" {
			return "", false
		}
		rel, err := filepath.Rel(m.workDir, filepath.Join(root, segment))
		if err != nil {
			return "", false
		}
		return filepath.ToSlash(rel), true
	}
	return "", false
}
