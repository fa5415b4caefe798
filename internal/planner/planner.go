// Package planner drives one release planning pass: roll back any unfinished
// plan, scan commits, attribute them to packages, resolve versions, record
// dependencies, render changelogs and persist the result.
package planner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kingrea/monorelease/internal/bump"
	"github.com/kingrea/monorelease/internal/changelog"
	"github.com/kingrea/monorelease/internal/commit"
	"github.com/kingrea/monorelease/internal/config"
	"github.com/kingrea/monorelease/internal/deps"
	"github.com/kingrea/monorelease/internal/impact"
	"github.com/kingrea/monorelease/internal/logging"
	"github.com/kingrea/monorelease/internal/manifest"
	"github.com/kingrea/monorelease/internal/model"
	"github.com/kingrea/monorelease/internal/pkgmanager"
	"github.com/kingrea/monorelease/internal/vcs"
	"github.com/kingrea/monorelease/internal/version"
	"github.com/kingrea/monorelease/internal/workspace"
)

// ErrNoCommits ends a pass that found nothing between source and target.
var ErrNoCommits = errors.New("planner: no commits found")

// RootName keys the root package when its manifest declares no name.
const RootName = "@root"

// RunOptions select the compared refs for one pass.
type RunOptions struct {
	Source string
	Target string
	DryRun bool
}

// Result describes a finished or aborted pass.
type Result struct {
	Stage        Stage
	Source       string
	Target       string
	Channel      version.Channel
	Reset        []string
	Escalated    []string
	Unattributed int
	Manifest     *model.PendingManifest
	Body         string
}

// Planner owns the collaborators of a planning pass.
type Planner struct {
	cfg        *config.Config
	vcs        vcs.Client
	bumper     version.Bumper
	store      workspace.Store
	manifest   ManifestStore
	changelogs ChangelogStore
	log        *logging.Logger
	now        func() time.Time
	rules      bump.Rules
	assembler  *changelog.Assembler
	limit      int
}

// New builds a Planner for cfg. Collaborators not supplied through options
// are created from the configuration.
func New(cfg *config.Config, opts ...Option) (*Planner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("planner: config is required")
	}
	p := &Planner{
		cfg:   cfg,
		log:   logging.Discard(),
		now:   time.Now,
		limit: max(1, cfg.Project.Concurrency),
		rules: bump.Rules{
			Major: cfg.Project.Bump.Major,
			Minor: cfg.Project.Bump.Minor,
			Patch: cfg.Project.Bump.Patch,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.vcs == nil {
		client, err := vcs.Open(vcs.Kind(cfg.Project.VCS), cfg.ProjectDir, cfg.Remote())
		if err != nil {
			return nil, fmt.Errorf("planner: %w", err)
		}
		p.vcs = client
	}
	if p.store == nil {
		cached, err := workspace.NewCachedStore(workspace.NewFSStore(cfg.ProjectDir), 256)
		if err != nil {
			return nil, fmt.Errorf("planner: %w", err)
		}
		p.store = cached
	}
	if p.bumper == nil {
		p.bumper = pkgmanager.New(pkgmanager.Kind(cfg.Project.PackageManager))
	}
	if p.manifest == nil {
		p.manifest = manifest.NewStore(cfg.ManifestFile())
	}
	if p.changelogs == nil {
		p.changelogs = changelog.NewStore(cfg.ProjectDir)
	}

	var hooks changelog.Hooks = changelog.GitHubHooks{}
	if cfg.Project.Hooks.Kind == config.HooksTemplate {
		tmpl, err := changelog.NewTemplateHooks(cfg.Project.Hooks.Header, cfg.Project.Hooks.Tag)
		if err != nil {
			return nil, fmt.Errorf("planner: %w", err)
		}
		hooks = tmpl
	}
	p.assembler = changelog.NewAssembler(changelog.Options{
		Sections:   cfg.Project.Sections,
		Headings:   cfg.Project.Headings,
		Host:       cfg.Project.Host,
		Repository: cfg.Project.Repository,
		Hooks:      hooks,
	})
	return p, nil
}

// Load returns the persisted pending manifest.
func (p *Planner) Load() (*model.PendingManifest, error) {
	return p.manifest.Load()
}

// Reset rolls back the persisted plan, if any, and clears the manifest.
func (p *Planner) Reset(ctx context.Context) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	m, err := p.manifest.Load()
	if err != nil {
		return nil, err
	}
	return p.rollback(ctx, m)
}

func (p *Planner) rollback(ctx context.Context, m *model.PendingManifest) ([]string, error) {
	if m.Empty() {
		return nil, nil
	}
	if m.HasReleases() {
		p.log.Infof("Resetting from previous manifest")
	}
	names, err := manifest.NewResetter(p.store, p.changelogs, p.limit).Reset(ctx, m)
	if err != nil {
		return nil, err
	}
	if err := p.manifest.Save(model.NewPendingManifest()); err != nil {
		return nil, err
	}
	for _, name := range names {
		r := m.Releases[name]
		p.log.Debugf("restored %s to %s", name, r.CurrentVersion)
	}
	return names, nil
}

// Run executes a full pass. The returned Result is non-nil even on error and
// records the stage the pass reached.
func (p *Planner) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	res := &Result{Stage: StageEmpty}
	prior, err := p.manifest.Load()
	if err != nil {
		return res, err
	}
	if res.Reset, err = p.rollback(ctx, prior); err != nil {
		return res, err
	}

	res.Target = strings.TrimSpace(opts.Target)
	if res.Target == "" {
		res.Target = p.cfg.Project.BaseTarget
	}
	res.Source = strings.TrimSpace(opts.Source)
	if res.Source == "" {
		if res.Source, err = p.vcs.CurrentBranch(ctx); err != nil {
			return res, fmt.Errorf("planner: %w", err)
		}
	}

	s := &pass{
		Planner:     p,
		res:         res,
		packages:    map[string]*model.Package{},
		byPath:      map[string]string{},
		unversioned: map[string]bool{},
	}
	steps := []func(context.Context) error{
		s.scan,
		s.classify,
		s.attribute,
		s.resolve,
		s.account,
		s.render,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return res, err
		}
	}
	if opts.DryRun {
		p.log.Infof("Dry run, nothing written")
		return res, nil
	}
	if err := s.persist(ctx); err != nil {
		return res, err
	}
	return res, nil
}

type entry struct {
	line  string
	hash  string
	files []string
}

// pass is the state threaded through the stages of one Run.
type pass struct {
	*Planner
	res      *Result
	entries  []entry
	commits  []model.Commit
	mapper   *impact.Mapper
	workDir  string
	packages map[string]*model.Package
	byPath   map[string]string
	releases map[string]*model.Release

	// names of packages whose manifest declares no version
	unversioned map[string]bool
}

func (s *pass) scan(ctx context.Context) error {
	s.res.Stage = StageScanning
	lines, err := s.vcs.Log(ctx, s.res.Source, s.res.Target)
	if err != nil {
		return fmt.Errorf("planner: %w", err)
	}
	for _, line := range lines {
		hash, _, _, err := commit.ParseLogLine(line)
		if err != nil {
			s.log.Warnf("skipping log line: %v", err)
			continue
		}
		s.entries = append(s.entries, entry{line: line, hash: hash})
	}
	if len(s.entries) == 0 {
		s.log.Infof("No commits found, skipping release...")
		return ErrNoCommits
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for i := range s.entries {
		g.Go(func() error {
			files, err := s.vcs.FilesTouched(gctx, s.entries[i].hash)
			if err != nil {
				return fmt.Errorf("planner: %w", err)
			}
			s.entries[i].files = files
			return nil
		})
	}
	return g.Wait()
}

func (s *pass) classify(context.Context) error {
	classifier := commit.NewClassifier()
	s.commits = make([]model.Commit, 0, len(s.entries))
	for _, e := range s.entries {
		c, err := classifier.Classify(e.line, e.files)
		if err != nil {
			return fmt.Errorf("planner: %w", err)
		}
		s.commits = append(s.commits, c)
	}
	s.res.Stage = StageClassified
	palette := s.log.Palette()
	s.log.Infof("%s commits found", palette.Count(len(s.commits)))
	s.log.Infof("%s files changed", palette.Count(len(model.UniqueFiles(s.commits))))
	return nil
}

func (s *pass) attribute(ctx context.Context) error {
	repoRoot, err := s.vcs.Root(ctx)
	if err != nil {
		return fmt.Errorf("planner: %w", err)
	}
	s.workDir = realPath(s.cfg.ProjectDir)
	roots := make([]string, 0, len(s.cfg.ScanRoots()))
	for _, root := range s.cfg.ScanRoots() {
		rel, err := filepath.Rel(s.cfg.ProjectDir, root)
		if err != nil {
			return fmt.Errorf("planner: scan root %s: %w", root, err)
		}
		roots = append(roots, filepath.Join(s.workDir, rel))
	}
	s.mapper, err = impact.New(impact.Config{
		Roots:       roots,
		RootPackage: s.cfg.Project.RootPackage,
		RepoRoot:    realPath(repoRoot),
		WorkDir:     s.workDir,
		Ignore:      s.cfg.Project.Ignore,
	})
	if err != nil {
		return fmt.Errorf("planner: %w", err)
	}

	for _, c := range s.commits {
		paths := s.mapper.Attribute(c)
		if len(paths) == 0 {
			s.res.Unattributed++
			s.log.Debugf("commit %s touches no package, skipping", c.ShortHash())
			continue
		}
		for _, path := range paths {
			pkg, err := s.packageAt(path)
			if err != nil {
				return err
			}
			pkg.Commits = append(pkg.Commits, c.Clone())
		}
	}
	for _, pkg := range s.packages {
		pkg.Bump = s.rules.Fold(pkg.Commits)
	}
	return nil
}

// packageAt returns the package rooted at path, reading its manifest the
// first time the path is seen.
func (s *pass) packageAt(path string) (*model.Package, error) {
	if name, ok := s.byPath[path]; ok {
		return s.packages[name], nil
	}
	m, err := s.store.Read(path)
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	name := m.Name
	if name == "" {
		if path == impact.RootPath {
			name = RootName
		} else {
			name = filepath.Base(filepath.FromSlash(path))
			s.log.Warnf("package at %s has no name, using %s", path, name)
		}
	}
	if existing, ok := s.packages[name]; ok && existing.Path != path {
		return nil, fmt.Errorf("planner: package %s declared at both %s and %s", name, existing.Path, path)
	}
	pkg := &model.Package{
		Name:             name,
		Path:             path,
		ManifestData:     m.Raw,
		CurrentVersion:   m.Version,
		NextVersion:      m.Version,
		DependencyRanges: m.Ranges(),
	}
	s.packages[name] = pkg
	s.byPath[path] = name
	if !m.VersionDeclared {
		s.unversioned[name] = true
	}
	return pkg, nil
}

func (s *pass) resolve(ctx context.Context) error {
	if s.cfg.Project.Dependents == config.DependentsPropagate {
		if err := s.propagate(); err != nil {
			return err
		}
	}

	s.res.Channel = version.DetectChannel(s.res.Target, s.res.Source)
	if s.res.Channel.Prerelease() {
		s.log.Infof("prerelease channel %s", s.res.Channel.Preid)
	}
	var released []*model.Package
	for _, name := range model.SortedNames(s.packages) {
		if pkg := s.packages[name]; pkg.Bump.Releases() {
			released = append(released, pkg)
		}
	}

	resolver := version.NewResolver(s.bumper, s.store, s.workDir)
	next := make([]string, len(released))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for i, pkg := range released {
		g.Go(func() error {
			v, err := resolver.Next(gctx, pkg, s.res.Channel)
			if err != nil {
				return err
			}
			next[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	width := 0
	for _, pkg := range released {
		width = max(width, len(pkg.Name))
	}
	palette := s.log.Palette()
	for i, pkg := range released {
		pkg.NextVersion = next[i]
		s.log.Infof("bumping %s from %s to %s [%s]",
			palette.Name(fmt.Sprintf("%-*s", width, pkg.Name)),
			palette.Version(fmt.Sprintf("%-8s", pkg.CurrentVersion)),
			palette.FormatVersion(pkg.NextVersion, pkg.Bump),
			palette.Bump(pkg.Bump),
		)
	}
	if len(released) == 0 {
		s.log.Infof("No releasable changes found")
	}
	s.res.Stage = StageVersioned
	return nil
}

// propagate pulls dependents of released packages into the release set.
func (s *pass) propagate() error {
	dirs, err := workspace.Discover(s.mapper.Roots())
	if err != nil {
		return fmt.Errorf("planner: %w", err)
	}
	discovered := map[string]string{}
	var candidates []bump.Candidate
	levels := map[string]model.Bump{}
	for name, pkg := range s.packages {
		levels[name] = pkg.Bump
		candidates = append(candidates, bump.Candidate{Name: name, Ranges: pkg.DependencyRanges})
	}
	for _, dir := range dirs {
		rel, err := filepath.Rel(s.workDir, dir)
		if err != nil {
			continue
		}
		path := filepath.ToSlash(rel)
		if _, known := s.byPath[path]; known {
			continue
		}
		m, err := s.store.Read(path)
		if err != nil {
			return fmt.Errorf("planner: %w", err)
		}
		if m.Name == "" {
			continue
		}
		if _, known := s.packages[m.Name]; known {
			continue
		}
		discovered[m.Name] = path
		candidates = append(candidates, bump.Candidate{Name: m.Name, Ranges: m.Ranges()})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Name < candidates[j].Name })

	s.res.Escalated = bump.Propagate(levels, candidates)
	for _, name := range s.res.Escalated {
		if pkg, ok := s.packages[name]; ok {
			pkg.Bump = pkg.Bump.Max(model.BumpPatch)
		} else if _, err := s.packageAt(discovered[name]); err != nil {
			return err
		} else {
			s.packages[name].Bump = model.BumpPatch
		}
		s.log.Infof("releasing %s because a workspace dependency changed", s.log.Palette().Name(name))
	}
	return nil
}

func (s *pass) account(context.Context) error {
	s.releases = deps.Account(s.packages)
	for _, name := range model.SortedNames(s.releases) {
		if users := deps.Dependents(s.releases, name); len(users) > 0 {
			s.log.Debugf("%s is a dependency of %s", name, strings.Join(users, ", "))
		}
	}
	s.res.Stage = StageAccounted
	return nil
}

func (s *pass) render(context.Context) error {
	date := s.now()
	for _, name := range model.SortedNames(s.releases) {
		fragment, err := s.assembler.Render(s.packages[name], s.releases[name], s.releases, date)
		if err != nil {
			return fmt.Errorf("planner: render %s: %w", name, err)
		}
		s.packages[name].Changelog = fragment
	}
	s.res.Body = changelog.Body(s.cfg.Project.Header, s.packages, s.releases)
	s.res.Manifest = &model.PendingManifest{
		Packages: s.packages,
		Releases: s.releases,
		Commits:  s.commits,
		Files:    model.UniqueFiles(s.commits),
	}
	s.res.Manifest.Normalize()
	s.res.Stage = StageRendered
	return nil
}

// persist writes the manifest first so an interrupted write-back can still
// be rolled back by the next reset.
func (s *pass) persist(ctx context.Context) error {
	for _, name := range model.SortedNames(s.releases) {
		release := s.releases[name]
		_, exists, err := s.changelogs.Read(release.Path)
		if err != nil {
			return err
		}
		release.ChangelogCreated = !exists
		release.VersionInserted = s.unversioned[name]
	}
	if err := s.manifest.Save(s.res.Manifest); err != nil {
		return err
	}
	var mu sync.Mutex
	var written []string
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for _, name := range model.SortedNames(s.releases) {
		release := s.releases[name]
		fragment := s.packages[name].Changelog
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := s.store.SetVersion(release.Path, release.NextVersion); err != nil {
				return fmt.Errorf("planner: write version of %s: %w", release.Name, err)
			}
			if err := s.changelogs.Prepend(release.Path, fragment); err != nil {
				return fmt.Errorf("planner: write changelog of %s: %w", release.Name, err)
			}
			mu.Lock()
			written = append(written, name)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if path := s.cfg.BodyFile(); path != "" {
		if err := workspace.WriteFileAtomic(path, []byte(s.res.Body)); err != nil {
			return fmt.Errorf("planner: write pull request body: %w", err)
		}
	}
	s.log.Debugf("wrote %d releases", len(written))
	s.res.Stage = StagePersisted
	return nil
}

func realPath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return filepath.Clean(path)
}
