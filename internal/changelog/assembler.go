// Package changelog renders per-package release notes and the combined pull
// request body, and edits CHANGELOG.md files.
package changelog

import (
	"fmt"
	"strings"
	"time"

	"github.com/kingrea/monorelease/internal/model"
)

// OtherSection collects commits whose type is not a configured section.
const OtherSection = "other"

// DependenciesSection is the heading key for workspace dependency updates.
const DependenciesSection = "dependencies"

// DefaultHeadings maps section keys to Markdown headings.
func DefaultHeadings() map[string]string {
	return map[string]string{
		"feat":              "### Features",
		"fix":               "### Bug Fixes",
		"docs":              "### Documentation",
		"test":              "### Tests",
		"chore":             "### Chore",
		DependenciesSection: "### Dependencies",
		OtherSection:        "### Other Changes",
	}
}

// DefaultSections is the section order used when none is configured.
func DefaultSections() []string {
	return []string{"feat", "fix", "docs", "test"}
}

// Options configure an Assembler.
type Options struct {
	Sections   []string
	Headings   map[string]string
	Host       string
	Repository string
	Hooks      Hooks
}

// Assembler renders changelog fragments.
type Assembler struct {
	sections   []string
	headings   map[string]string
	host       string
	repository string
	hooks      Hooks
}

// NewAssembler fills unset options with defaults.
func NewAssembler(opts Options) *Assembler {
	a := &Assembler{
		sections:   opts.Sections,
		headings:   DefaultHeadings(),
		host:       strings.TrimRight(opts.Host, "/"),
		repository: strings.Trim(opts.Repository, "/"),
		hooks:      opts.Hooks,
	}
	if len(a.sections) == 0 {
		a.sections = DefaultSections()
	}
	for key, heading := range opts.Headings {
		a.headings[key] = heading
	}
	if a.host == "" {
		a.host = "https://github.com"
	}
	if a.hooks == nil {
		a.hooks = GitHubHooks{}
	}
	return a
}

func (a *Assembler) heading(key string) string {
	if h, ok := a.headings[key]; ok && h != "" {
		return h
	}
	return "### " + key
}

func (a *Assembler) commitLink(hash string) string {
	return fmt.Sprintf("%s/%s/commit/%s", a.host, a.repository, hash)
}

type section struct {
	key     string
	commits []model.Commit
}

// group splits commits into configured sections plus a trailing other
// section, preserving commit order inside each.
func (a *Assembler) group(commits []model.Commit) []section {
	index := make(map[string]int, len(a.sections))
	groups := make([]section, 0, len(a.sections)+1)
	for _, key := range a.sections {
		if _, dup := index[key]; dup {
			continue
		}
		index[key] = len(groups)
		groups = append(groups, section{key: key})
	}
	other := section{key: OtherSection}
	for _, c := range commits {
		if i, ok := index[c.Type]; ok {
			groups[i].commits = append(groups[i].commits, c)
			continue
		}
		other.commits = append(other.commits, c)
	}
	return append(groups, other)
}

// Render produces the Markdown fragment for one release. releases supplies
// the next versions of recorded dependencies.
func (a *Assembler) Render(pkg *model.Package, release *model.Release, releases map[string]*model.Release, date time.Time) (string, error) {
	currentTag, err := a.hooks.Tag(release, release.CurrentVersion)
	if err != nil {
		return "", err
	}
	nextTag, err := a.hooks.Tag(release, release.NextVersion)
	if err != nil {
		return "", err
	}
	header, err := a.hooks.Header(HeaderData{
		Release:    release,
		Year:       date.Format("2006"),
		Month:      date.Format("01"),
		Day:        date.Format("02"),
		Host:       a.host,
		Repository: a.repository,
		CurrentTag: currentTag,
		NextTag:    nextTag,
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(header)
	for _, s := range a.group(pkg.Commits) {
		if len(s.commits) == 0 {
			continue
		}
		b.WriteString(a.heading(s.key))
		b.WriteString("\n\n")
		for _, c := range s.commits {
			fmt.Fprintf(&b, "* %s ([%s](%s))\n", c.Message, c.ShortHash(), a.commitLink(c.Hash))
		}
		b.WriteString("\n")
	}
	if edges := release.Dependencies.All(); len(edges) > 0 {
		b.WriteString(a.heading(DependenciesSection))
		b.WriteString("\n\n")
		b.WriteString("* The following workspace dependencies were updated\n")
		for _, ref := range edges {
			next := ""
			if dep, ok := releases[ref.Name]; ok {
				next = dep.NextVersion
			}
			fmt.Fprintf(&b, "    * %s bumped from %s to %s\n", ref.Name, ref.Range, next)
		}
	}
	return b.String(), nil
}

// Body concatenates every release fragment into the pull request body,
// each wrapped in a collapsible block, releases ordered by name.
func Body(header string, packages map[string]*model.Package, releases map[string]*model.Release) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n---\n")
	for _, name := range model.SortedNames(releases) {
		release := releases[name]
		changelog := ""
		if pkg, ok := packages[name]; ok {
			changelog = pkg.Changelog
		}
		fmt.Fprintf(&b, "\n<details><summary>%s: %s > %s</summary>\n%s\n</details>",
			release.Name, release.CurrentVersion, release.NextVersion, changelog)
	}
	return b.String()
}
