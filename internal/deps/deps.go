// Package deps builds the release set and records which released packages
// depend on one another.
package deps

import (
	"github.com/kingrea/monorelease/internal/model"
)

// Account returns one Release per package with a pending bump. Each release
// lists, per dependency kind, the declared ranges it holds on other released
// packages. Edges are sorted by dependency name.
func Account(packages map[string]*model.Package) map[string]*model.Release {
	releases := make(map[string]*model.Release)
	for name, pkg := range packages {
		if pkg == nil || !pkg.Bump.Releases() {
			continue
		}
		releases[name] = &model.Release{
			Name:           pkg.Name,
			Path:           pkg.Path,
			CurrentVersion: pkg.CurrentVersion,
			NextVersion:    pkg.NextVersion,
		}
	}
	for name, release := range releases {
		ranges := packages[name].DependencyRanges
		for _, kind := range model.DependencyKinds {
			declared := ranges.Of(kind)
			for _, dep := range model.SortedNames(declared) {
				if dep == name {
					continue
				}
				if _, ok := releases[dep]; !ok {
					continue
				}
				release.Dependencies.Add(kind, model.DependencyRef{Name: dep, Range: declared[dep]})
			}
		}
	}
	return releases
}

// Dependents returns the released packages that declare name as a
// dependency of any kind, sorted by name.
func Dependents(releases map[string]*model.Release, name string) []string {
	var out []string
	for _, dependent := range model.SortedNames(releases) {
		for _, ref := range releases[dependent].Dependencies.All() {
			if ref.Name == name {
				out = append(out, dependent)
				break
			}
		}
	}
	return out
}
