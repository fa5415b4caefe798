package planner

import (
	"time"

	"github.com/kingrea/monorelease/internal/logging"
	"github.com/kingrea/monorelease/internal/model"
	"github.com/kingrea/monorelease/internal/vcs"
	"github.com/kingrea/monorelease/internal/version"
	"github.com/kingrea/monorelease/internal/workspace"
)

// ManifestStore loads and saves the pending manifest.
type ManifestStore interface {
	Load() (*model.PendingManifest, error)
	Save(m *model.PendingManifest) error
}

// ChangelogStore edits package changelogs.
type ChangelogStore interface {
	Read(dir string) (string, bool, error)
	Prepend(dir, fragment string) error
	Strip(dir, fragment, version string, created bool) error
}

// Option customizes a Planner, mainly to swap collaborators in tests.
type Option func(*Planner)

// WithClock overrides the date used in changelog headers.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		if now != nil {
			p.now = now
		}
	}
}

// WithVCS replaces the version control client.
func WithVCS(client vcs.Client) Option {
	return func(p *Planner) {
		if client != nil {
			p.vcs = client
		}
	}
}

// WithBumper replaces the package manager version primitive.
func WithBumper(b version.Bumper) Option {
	return func(p *Planner) {
		if b != nil {
			p.bumper = b
		}
	}
}

// WithWorkspace replaces the package manifest store.
func WithWorkspace(store workspace.Store) Option {
	return func(p *Planner) {
		if store != nil {
			p.store = store
		}
	}
}

// WithManifestStore replaces the pending manifest store.
func WithManifestStore(store ManifestStore) Option {
	return func(p *Planner) {
		if store != nil {
			p.manifest = store
		}
	}
}

// WithChangelogStore replaces the changelog store.
func WithChangelogStore(store ChangelogStore) Option {
	return func(p *Planner) {
		if store != nil {
			p.changelogs = store
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Planner) {
		if l != nil {
			p.log = l
		}
	}
}
