package model

import (
	"encoding/json"
	"sort"
)

// DependencyKind distinguishes the three manifest dependency blocks.
type DependencyKind string

const (
	KindBase DependencyKind = "base"
	KindDev  DependencyKind = "dev"
	KindPeer DependencyKind = "peer"
)

// DependencyKinds lists the kinds in manifest order.
var DependencyKinds = []DependencyKind{KindBase, KindDev, KindPeer}

// DependencyRanges are the declared ranges of a package, keyed by dependency
// name, one map per kind.
type DependencyRanges struct {
	Base map[string]string `json:"base,omitempty"`
	Dev  map[string]string `json:"dev,omitempty"`
	Peer map[string]string `json:"peer,omitempty"`
}

// Of returns the ranges declared for a kind.
func (d DependencyRanges) Of(kind DependencyKind) map[string]string {
	switch kind {
	case KindDev:
		return d.Dev
	case KindPeer:
		return d.Peer
	default:
		return d.Base
	}
}

// Package is a workspace package touched by the scanned range.
type Package struct {
	Name             string           `json:"name"`
	Path             string           `json:"path"`
	ManifestData     json.RawMessage  `json:"manifestData,omitempty"`
	CurrentVersion   string           `json:"currentVersion"`
	NextVersion      string           `json:"nextVersion"`
	Bump             Bump             `json:"bump"`
	Commits          []Commit         `json:"commits"`
	Changelog        string           `json:"changelog"`
	DependencyRanges DependencyRanges `json:"dependencyRanges"`
}

// DependencyRef is one recorded edge between two released packages.
type DependencyRef struct {
	Name  string `json:"name"`
	Range string `json:"range"`
}

// Dependencies groups recorded edges by kind.
type Dependencies struct {
	Base []DependencyRef `json:"base"`
	Dev  []DependencyRef `json:"dev"`
	Peer []DependencyRef `json:"peer"`
}

// Add appends an edge under the given kind.
func (d *Dependencies) Add(kind DependencyKind, ref DependencyRef) {
	switch kind {
	case KindDev:
		d.Dev = append(d.Dev, ref)
	case KindPeer:
		d.Peer = append(d.Peer, ref)
	default:
		d.Base = append(d.Base, ref)
	}
}

// All returns every edge, base first, then dev, then peer.
func (d Dependencies) All() []DependencyRef {
	out := make([]DependencyRef, 0, len(d.Base)+len(d.Dev)+len(d.Peer))
	out = append(out, d.Base...)
	out = append(out, d.Dev...)
	out = append(out, d.Peer...)
	return out
}

// Len counts the recorded edges.
func (d Dependencies) Len() int {
	return len(d.Base) + len(d.Dev) + len(d.Peer)
}

// Release is the view of a Package whose bump is not none.
type Release struct {
	Name           string       `json:"name"`
	Path           string       `json:"path"`
	CurrentVersion string       `json:"currentVersion"`
	NextVersion    string       `json:"nextVersion"`
	Dependencies   Dependencies `json:"dependencies"`

	// Set when persisting: the plan added the manifest's version member or
	// created the changelog file, so reset removes them again.
	VersionInserted  bool `json:"versionInserted,omitempty"`
	ChangelogCreated bool `json:"changelogCreated,omitempty"`
}

// SortedNames returns map keys in lexical order.
func SortedNames[V any](values map[string]V) []string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
