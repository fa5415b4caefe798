// Package manifest persists the pending release plan and rolls back an
// unfinished one.
package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/kingrea/monorelease/internal/model"
	"github.com/kingrea/monorelease/internal/workspace"
)

// DefaultPath is the manifest location relative to the project directory.
const DefaultPath = ".release-manifest.json"

// Store reads and writes the pending manifest file.
type Store struct {
	path string
}

// NewStore returns a store for the manifest at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the manifest file path.
func (s *Store) Path() string { return s.path }

// Load reads the manifest. A missing file is an empty manifest.
func (s *Store) Load() (*model.PendingManifest, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.NewPendingManifest(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", s.path, err)
	}
	m := model.NewPendingManifest()
	if len(data) > 0 {
		if err := json.Unmarshal(data, m); err != nil {
			return nil, fmt.Errorf("manifest: parse %s: %w", s.path, err)
		}
	}
	m.Normalize()
	return m, nil
}

// Save writes the manifest as indented JSON.
func (s *Store) Save(m *model.PendingManifest) error {
	if m == nil {
		m = model.NewPendingManifest()
	}
	m.Normalize()
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: encode: %w", err)
	}
	data = append(data, '\n')
	if err := workspace.WriteFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("manifest: write %s: %w", s.path, err)
	}
	return nil
}

// VersionWriter writes a package manifest's version field.
type VersionWriter interface {
	SetVersion(dir, version string) error
	RemoveVersion(dir string) error
}

// ChangelogStripper removes a fragment previously prepended to a package
// changelog.
type ChangelogStripper interface {
	Strip(dir, fragment, version string, created bool) error
}

// Resetter undoes the filesystem effects of a persisted plan.
type Resetter struct {
	versions    VersionWriter
	changelogs  ChangelogStripper
	concurrency int
}

// NewResetter returns a Resetter running at most concurrency packages at
// once.
func NewResetter(versions VersionWriter, changelogs ChangelogStripper, concurrency int) *Resetter {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Resetter{versions: versions, changelogs: changelogs, concurrency: concurrency}
}

// Reset restores every release's version to its current version and strips
// its changelog fragment. It returns the names that were rolled back. The
// caller clears and saves the manifest afterwards.
func (r *Resetter) Reset(ctx context.Context, m *model.PendingManifest) ([]string, error) {
	if !m.HasReleases() {
		return nil, nil
	}
	names := model.SortedNames(m.Releases)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, name := range names {
		release := m.Releases[name]
		fragment := ""
		if pkg, ok := m.Packages[name]; ok && pkg != nil {
			fragment = pkg.Changelog
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := r.restoreVersion(release); err != nil {
				return fmt.Errorf("manifest: reset version of %s: %w", release.Name, err)
			}
			if err := r.changelogs.Strip(release.Path, fragment, release.NextVersion, release.ChangelogCreated); err != nil {
				return fmt.Errorf("manifest: reset changelog of %s: %w", release.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return names, nil
}

func (r *Resetter) restoreVersion(release *model.Release) error {
	if release.VersionInserted {
		return r.versions.RemoveVersion(release.Path)
	}
	return r.versions.SetVersion(release.Path, release.CurrentVersion)
}
