// internal/config/config.go
//
// This package handles configuration and the .monorelease directory.
// Projects keep their release settings in .monorelease/config.yaml.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/monorelease/internal/bump"
)

const (
	// Dir is the directory created in each project.
	Dir = ".monorelease"

	// FileName is the project configuration file inside Dir.
	FileName = "config.yaml"

	DependentsRecord    = "record"
	DependentsPropagate = "propagate"

	HooksGitHub   = "github"
	HooksTemplate = "template"
)

const defaultProjectConfigYAML = `# monorelease project configuration
version: 1

# GitHub style owner/name used for commit and compare links.
repository: owner/repo
host: https://github.com

# Pending plan and pull request body locations, relative to the project.
manifest_path: .release-manifest.json
body_path: .monorelease/PR_BODY.md

base_target: main
remote: origin

# Directories whose immediate children are packages.
scan:
  - packages
# Attribute commits outside every scan root to the package at the project root.
root_package: false
# Files that never count towards a release (doublestar globs).
ignore: []

sections: [feat, fix, docs, test]
header: ":robot: Autorelease"

bump:
  major: [major]
  minor: [feat]
  patch: [fix]

# record: only list released dependencies. propagate: also release dependents.
dependents: record

hooks:
  kind: github
  # kind: template
  # header: "## {{ .Release.NextVersion }} ({{ .Year }}-{{ .Month }}-{{ .Day }})"
  # tag: "{{ .Name }}@{{ .Version }}"

vcs: git
package_manager: pnpm
concurrency: 8
`

// BumpRules maps commit types onto bump levels.
type BumpRules struct {
	Major []string `yaml:"major"`
	Minor []string `yaml:"minor"`
	Patch []string `yaml:"patch"`
}

// HooksConfig selects how changelog headers and tags are rendered.
type HooksConfig struct {
	Kind   string `yaml:"kind"`
	Header string `yaml:"header,omitempty"`
	Tag    string `yaml:"tag,omitempty"`
}

// ProjectConfig models .monorelease/config.yaml.
type ProjectConfig struct {
	Version        int               `yaml:"version"`
	Repository     string            `yaml:"repository"`
	Host           string            `yaml:"host"`
	ManifestPath   string            `yaml:"manifest_path"`
	BodyPath       string            `yaml:"body_path"`
	BaseTarget     string            `yaml:"base_target"`
	Remote         *string           `yaml:"remote"`
	RootPackage    bool              `yaml:"root_package"`
	Scan           []string          `yaml:"scan"`
	Ignore         []string          `yaml:"ignore"`
	Sections       []string          `yaml:"sections"`
	Headings       map[string]string `yaml:"headings"`
	Header         string            `yaml:"header"`
	Bump           BumpRules         `yaml:"bump"`
	Dependents     string            `yaml:"dependents"`
	Hooks          HooksConfig       `yaml:"hooks"`
	VCS            string            `yaml:"vcs"`
	PackageManager string            `yaml:"package_manager"`
	Concurrency    int               `yaml:"concurrency"`
}

// Config holds the runtime configuration.
type Config struct {
	// ProjectDir is the directory monorelease runs against.
	ProjectDir string

	// StateDir is ProjectDir/.monorelease
	StateDir string

	// Path is the configuration file that was loaded, if any.
	Path string

	Project ProjectConfig
}

// Option customizes loading.
type Option func(*loadOptions)

type loadOptions struct {
	path   string
	lookup func(string) (string, bool)
}

// WithPath loads configuration from an explicit file.
func WithPath(path string) Option {
	return func(o *loadOptions) {
		if strings.TrimSpace(path) != "" {
			o.path = path
		}
	}
}

// WithLookupEnv replaces os.LookupEnv for environment overrides.
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(o *loadOptions) {
		if lookup != nil {
			o.lookup = lookup
		}
	}
}

// InitProjectDir creates .monorelease/ with its logs directory and writes a
// default config.yaml when none exists. It reports whether the config file
// was created.
func InitProjectDir(projectDir string) (bool, error) {
	stateDir := filepath.Join(projectDir, Dir)
	if err := os.MkdirAll(filepath.Join(stateDir, "logs"), 0o755); err != nil {
		return false, fmt.Errorf("config: create %s: %w", stateDir, err)
	}
	return ensureProjectConfig(filepath.Join(stateDir, FileName))
}

// NewConfig loads project settings for projectDir. A missing config file
// yields the defaults.
func NewConfig(projectDir string, opts ...Option) (*Config, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", projectDir, err)
	}
	o := loadOptions{lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(&o)
	}
	cfg := &Config{
		ProjectDir: abs,
		StateDir:   filepath.Join(abs, Dir),
		Path:       o.path,
		Project:    defaultProjectConfig(),
	}
	if cfg.Path == "" {
		cfg.Path = filepath.Join(cfg.StateDir, FileName)
	} else if !filepath.IsAbs(cfg.Path) {
		cfg.Path = filepath.Join(abs, cfg.Path)
	}
	if err := cfg.loadProjectConfig(o.lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the directory holding monorelease.log.
func (c *Config) LogsDir() string {
	return filepath.Join(c.StateDir, "logs")
}

// ManifestFile returns the absolute pending manifest path.
func (c *Config) ManifestFile() string {
	return resolvePath(c.ProjectDir, c.Project.ManifestPath)
}

// BodyFile returns the absolute pull request body path.
func (c *Config) BodyFile() string {
	return resolvePath(c.ProjectDir, c.Project.BodyPath)
}

// ScanRoots returns absolute scan roots, each ending in a path separator so
// prefix matching cannot straddle sibling directories.
func (c *Config) ScanRoots() []string {
	roots := make([]string, 0, len(c.Project.Scan))
	for _, scan := range c.Project.Scan {
		root := resolvePath(c.ProjectDir, scan)
		if !strings.HasSuffix(root, string(filepath.Separator)) {
			root += string(filepath.Separator)
		}
		roots = append(roots, root)
	}
	return roots
}

// Remote returns the remote that targets are resolved against. An explicit
// empty value compares against local branches.
func (c *Config) Remote() string {
	if c.Project.Remote == nil {
		return "origin"
	}
	return *c.Project.Remote
}

func (c *Config) loadProjectConfig(lookup func(string) (string, bool)) error {
	parsed := defaultProjectConfig()
	data, err := os.ReadFile(c.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("config: read %s: %w", c.Path, err)
	default:
		parsed = ProjectConfig{}
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("config: parse %s: %w", c.Path, err)
		}
	}

	parsed.applyDefaults()
	if err := parsed.applyEnv(lookup); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	pc := ProjectConfig{}
	pc.applyDefaults()
	return pc
}

func defaultHeadings() map[string]string {
	return map[string]string{
		"feat":         "### Features",
		"fix":          "### Bug Fixes",
		"docs":         "### Documentation",
		"test":         "### Tests",
		"chore":        "### Chore",
		"dependencies": "### Dependencies",
		"other":        "### Other Changes",
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Host == "" {
		pc.Host = "https://github.com"
	}
	if pc.ManifestPath == "" {
		pc.ManifestPath = ".release-manifest.json"
	}
	if pc.BodyPath == "" {
		pc.BodyPath = filepath.Join(Dir, "PR_BODY.md")
	}
	if pc.BaseTarget == "" {
		pc.BaseTarget = "main"
	}
	if pc.Remote == nil {
		origin := "origin"
		pc.Remote = &origin
	}
	if len(pc.Sections) == 0 {
		pc.Sections = []string{"feat", "fix", "docs", "test"}
	}
	headings := defaultHeadings()
	for key, heading := range pc.Headings {
		headings[key] = heading
	}
	pc.Headings = headings
	if pc.Header == "" {
		pc.Header = ":robot: Autorelease"
	}
	defaults := bump.DefaultRules()
	if len(pc.Bump.Major) == 0 {
		pc.Bump.Major = defaults.Major
	}
	if len(pc.Bump.Minor) == 0 {
		pc.Bump.Minor = defaults.Minor
	}
	if len(pc.Bump.Patch) == 0 {
		pc.Bump.Patch = defaults.Patch
	}
	if pc.Dependents == "" {
		pc.Dependents = DependentsRecord
	}
	if pc.Hooks.Kind == "" {
		pc.Hooks.Kind = HooksGitHub
	}
	if pc.VCS == "" {
		pc.VCS = "git"
	}
	if pc.PackageManager == "" {
		pc.PackageManager = "pnpm"
	}
	if pc.Concurrency == 0 {
		pc.Concurrency = 8
	}
}

// Environment variables that override file settings.
const (
	EnvRepository     = "MONORELEASE_REPOSITORY"
	EnvManifestPath   = "MONORELEASE_MANIFEST_PATH"
	EnvBaseTarget     = "MONORELEASE_BASE_TARGET"
	EnvPackageManager = "MONORELEASE_PACKAGE_MANAGER"
	EnvVCS            = "MONORELEASE_VCS"
	EnvConcurrency    = "MONORELEASE_CONCURRENCY"
)

func (pc *ProjectConfig) applyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}
	overrides := map[string]*string{
		EnvRepository:     &pc.Repository,
		EnvManifestPath:   &pc.ManifestPath,
		EnvBaseTarget:     &pc.BaseTarget,
		EnvPackageManager: &pc.PackageManager,
		EnvVCS:            &pc.VCS,
	}
	for key, field := range overrides {
		if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
			*field = strings.TrimSpace(value)
		}
	}
	if value, ok := lookup(EnvConcurrency); ok && strings.TrimSpace(value) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvConcurrency, err)
		}
		pc.Concurrency = n
	}
	return nil
}

func (pc *ProjectConfig) normalize() {
	pc.Repository = strings.Trim(strings.TrimSpace(pc.Repository), "/")
	pc.Host = strings.TrimRight(strings.TrimSpace(pc.Host), "/")
	pc.BaseTarget = strings.TrimSpace(pc.BaseTarget)
	pc.Dependents = normalizeKey(pc.Dependents)
	pc.Hooks.Kind = normalizeKey(pc.Hooks.Kind)
	pc.VCS = normalizeKey(pc.VCS)
	pc.PackageManager = normalizeKey(pc.PackageManager)

	scan := make([]string, 0, len(pc.Scan))
	for _, s := range pc.Scan {
		if s = normalizeScanRoot(s); s != "" && !contains(scan, s) {
			scan = append(scan, s)
		}
	}
	pc.Scan = scan

	sections := make([]string, 0, len(pc.Sections))
	for _, s := range pc.Sections {
		if s = normalizeKey(s); s != "" && !contains(sections, s) {
			sections = append(sections, s)
		}
	}
	pc.Sections = sections
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Repository != "" && strings.Count(pc.Repository, "/") != 1 {
		return fmt.Errorf("repository must look like owner/name, got %q", pc.Repository)
	}
	if pc.BaseTarget == "" {
		return fmt.Errorf("base_target is required")
	}
	switch pc.Dependents {
	case DependentsRecord, DependentsPropagate:
	default:
		return fmt.Errorf("dependents must be 'record' or 'propagate'")
	}
	switch pc.Hooks.Kind {
	case HooksGitHub:
	case HooksTemplate:
		if strings.TrimSpace(pc.Hooks.Header) == "" && strings.TrimSpace(pc.Hooks.Tag) == "" {
			return fmt.Errorf("hooks.header or hooks.tag is required for template hooks")
		}
	default:
		return fmt.Errorf("hooks.kind must be 'github' or 'template'")
	}
	switch pc.VCS {
	case "git", "go-git":
	default:
		return fmt.Errorf("vcs must be 'git' or 'go-git'")
	}
	switch pc.PackageManager {
	case "pnpm", "npm":
	default:
		return fmt.Errorf("package_manager must be 'pnpm' or 'npm'")
	}
	if pc.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1")
	}
	return nil
}

// normalizeScanRoot drops a trailing "*" and ensures a trailing "/".
func normalizeScanRoot(value string) string {
	value = filepath.ToSlash(strings.TrimSpace(value))
	value = strings.TrimSuffix(value, "*")
	if value == "" {
		return ""
	}
	if !strings.HasSuffix(value, "/") {
		value += "/"
	}
	return value
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, filepath.FromSlash(trimmed)))
}

func ensureProjectConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644); err != nil {
		return false, fmt.Errorf("config: write %s: %w", path, err)
	}
	return true, nil
}
