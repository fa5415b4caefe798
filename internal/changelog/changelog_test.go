package changelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/monorelease/internal/model"
)

var releaseDay = time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)

func fixture() (*model.Package, map[string]*model.Release) {
	pkg := &model.Package{
		Name: "@acme/ui", Path: "packages/ui", CurrentVersion: "1.2.3", NextVersion: "1.3.0", Bump: model.BumpMinor,
		Commits: []model.Commit{
			{Hash: "aaaaaaaaaa111", Type: "feat", Message: "feat(ui): add button"},
			{Hash: "bbbbbbbbbb222", Type: "refactor", Message: "refactor: tidy"},
			{Hash: "cccccccccc333", Type: "fix", Message: "fix: focus ring"},
			{Hash: "dddddddddd444", Type: "feat", Message: "feat: add menu"},
		},
	}
	releases := map[string]*model.Release{
		"@acme/ui": {
			Name: "@acme/ui", Path: "packages/ui", CurrentVersion: "1.2.3", NextVersion: "1.3.0",
			Dependencies: model.Dependencies{Base: []model.DependencyRef{{Name: "@acme/core", Range: "workspace:*"}}},
		},
		"@acme/core": {Name: "@acme/core", Path: "packages/core", CurrentVersion: "0.4.0", NextVersion: "0.4.1"},
	}
	return pkg, releases
}

func TestRenderDefault(t *testing.T) {
	pkg, releases := fixture()
	a := NewAssembler(Options{Repository: "acme/mono"})

	got, err := a.Render(pkg, releases["@acme/ui"], releases, releaseDay)
	require.NoError(t, err)

	want := "## [1.3.0](https://github.com/acme/mono/compare/@acme/ui-v1.2.3...@acme/ui-v1.3.0) (2024-03-05)\n\n" +
		"### Features\n\n" +
		"* feat(ui): add button ([aaaaaaa](https://github.com/acme/mono/commit/aaaaaaaaaa111))\n" +
		"* feat: add menu ([ddddddd](https://github.com/acme/mono/commit/dddddddddd444))\n\n" +
		"### Bug Fixes\n\n" +
		"* fix: focus ring ([ccccccc](https://github.com/acme/mono/commit/cccccccccc333))\n\n" +
		"### Other Changes\n\n" +
		"* refactor: tidy ([bbbbbbb](https://github.com/acme/mono/commit/bbbbbbbbbb222))\n\n" +
		"### Dependencies\n\n" +
		"* The following workspace dependencies were updated\n" +
		"    * @acme/core bumped from workspace:* to 0.4.1\n"
	assert.Equal(t, want, got)
}

func TestRenderOmitsEmptySectionsAndDependencies(t *testing.T) {
	pkg := &model.Package{Commits: []model.Commit{{Hash: "1234567890", Type: "docs", Message: "docs: readme"}}}
	release := &model.Release{Name: "a", CurrentVersion: "1.0.0", NextVersion: "1.0.1"}
	a := NewAssembler(Options{
		Repository: "o/r",
		Host:       "https://git.example.com/",
		Sections:   []string{"docs"},
		Headings:   map[string]string{"docs": "### Docs"},
	})

	got, err := a.Render(pkg, release, nil, releaseDay)
	require.NoError(t, err)
	assert.Contains(t, got, "### Docs\n\n* docs: readme ([1234567](https://git.example.com/o/r/commit/1234567890))\n")
	assert.NotContains(t, got, "### Features")
	assert.NotContains(t, got, "### Other Changes")
	assert.NotContains(t, got, "### Dependencies")
}

func TestRenderUnknownSectionHeading(t *testing.T) {
	pkg := &model.Package{Commits: []model.Commit{{Hash: "1234567890", Type: "perf", Message: "perf: faster"}}}
	release := &model.Release{Name: "a", CurrentVersion: "1.0.0", NextVersion: "1.0.1"}
	a := NewAssembler(Options{Sections: []string{"perf"}})

	got, err := a.Render(pkg, release, nil, releaseDay)
	require.NoError(t, err)
	assert.Contains(t, got, "### perf\n\n")
}

func TestTemplateHooks(t *testing.T) {
	hooks, err := NewTemplateHooks(
		"# {{ .Release.Name }} {{ .Release.NextVersion }} ({{ .Year }}/{{ .Month }}) {{ .NextTag }}",
		"{{ .Name }}@{{ .Version }}",
	)
	require.NoError(t, err)
	pkg, releases := fixture()
	a := NewAssembler(Options{Hooks: hooks})

	got, err := a.Render(pkg, releases["@acme/ui"], releases, releaseDay)
	require.NoError(t, err)
	assert.Contains(t, got, "# @acme/ui 1.3.0 (2024/03) @acme/ui@1.3.0\n\n### Features")
}

func TestTemplateHooksFallback(t *testing.T) {
	hooks, err := NewTemplateHooks("", "")
	require.NoError(t, err)
	tag, err := hooks.Tag(&model.Release{Name: "a"}, "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "a-v1.0.0", tag)

	_, err = NewTemplateHooks("{{ .Broken", "")
	require.Error(t, err)
}

func TestBody(t *testing.T) {
	packages := map[string]*model.Package{
		"b": {Name: "b", Changelog: "B notes\n"},
		"a": {Name: "a", Changelog: "A notes\n"},
	}
	releases := map[string]*model.Release{
		"b": {Name: "b", CurrentVersion: "1.0.0", NextVersion: "2.0.0"},
		"a": {Name: "a", CurrentVersion: "0.1.0", NextVersion: "0.1.1"},
	}
	got := Body(":robot: Autorelease", packages, releases)
	want := ":robot: Autorelease\n---\n" +
		"\n<details><summary>a: 0.1.0 > 0.1.1</summary>\nA notes\n\n</details>" +
		"\n<details><summary>b: 1.0.0 > 2.0.0</summary>\nB notes\n\n</details>"
	assert.Equal(t, want, got)
}

func TestPrependAndStrip(t *testing.T) {
	fragment := "## [1.1.0](link) (2024-03-05)\n\n### Features\n\n* feat: x\n\n"
	old := "## [1.0.0](link) (2024-01-01)\n\n* first\n"

	combined := Prepend(old, fragment)
	assert.Equal(t, fragment+"\n"+old, combined)
	assert.Equal(t, old, Strip(combined, fragment, "1.1.0"))
	assert.Equal(t, fragment, Prepend("", fragment))
	assert.Equal(t, "", Strip(fragment, fragment, "1.1.0"))
}

func TestStripByHeading(t *testing.T) {
	text := "# Changelog\n\n## [2.0.0](x) (2024-03-05)\n\n### Features\n\n* edited by hand\n\n## [1.0.0](x)\n\n* first\n"
	got := Strip(text, "stale fragment", "2.0.0")
	assert.Equal(t, "# Changelog\n\n## [1.0.0](x)\n\n* first\n", got)

	got = Strip("## [2.0.0]\n\n* only\n", "", "2.0.0")
	assert.Equal(t, "", got)

	assert.Equal(t, text, Strip(text, "", "9.9.9"))
}

func TestStoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "packages", "a")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	store := NewStore(root)
	fragment := "## [1.0.1](x) (2024-03-05)\n\n* fix\n\n"

	require.NoError(t, store.Prepend("packages/a", fragment))
	text, ok, err := store.Read("packages/a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fragment, text)

	require.NoError(t, store.Strip("packages/a", fragment, "1.0.1", true))
	_, ok, err = store.Read("packages/a")
	require.NoError(t, err)
	assert.False(t, ok, "changelog created by prepend is removed again")

	existing := "## [1.0.0]\n\n* first\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(existing), 0o644))
	require.NoError(t, store.Prepend("packages/a", fragment))
	require.NoError(t, store.Strip("packages/a", fragment, "1.0.1", false))
	text, _, err = store.Read("packages/a")
	require.NoError(t, err)
	assert.Equal(t, existing, text)
}

func TestStoreStripKeepsExistingEmptyFile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "packages", "a")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), nil, 0o644))
	store := NewStore(root)
	fragment := "## [1.0.1](x) (2024-03-05)\n\n* fix\n\n"

	require.NoError(t, store.Prepend("packages/a", fragment))
	require.NoError(t, store.Strip("packages/a", fragment, "1.0.1", false))
	text, ok, err := store.Read("packages/a")
	require.NoError(t, err)
	assert.True(t, ok, "a changelog that existed before the plan is kept")
	assert.Empty(t, text)
}

func TestStoreStripMissingFile(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.Strip("packages/none", "x", "1.0.0", true))
}
