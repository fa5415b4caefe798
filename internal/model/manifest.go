package model

// PendingManifest is the plan persisted between invocations.
type PendingManifest struct {
	Packages map[string]*Package `json:"packages"`
	Releases map[string]*Release `json:"releases"`
	Commits  []Commit            `json:"commits"`
	Files    []string            `json:"files"`
}

// NewPendingManifest returns an empty manifest with allocated maps.
func NewPendingManifest() *PendingManifest {
	return &PendingManifest{
		Packages: map[string]*Package{},
		Releases: map[string]*Release{},
		Commits:  []Commit{},
		Files:    []string{},
	}
}

// Empty reports whether the manifest carries no plan.
func (m *PendingManifest) Empty() bool {
	return m == nil || (len(m.Packages) == 0 && len(m.Releases) == 0 && len(m.Commits) == 0)
}

// HasReleases reports whether the manifest describes an unfinished plan.
func (m *PendingManifest) HasReleases() bool {
	return m != nil && len(m.Releases) > 0
}

// Normalize replaces nil collections so the JSON shape is stable.
func (m *PendingManifest) Normalize() {
	if m.Packages == nil {
		m.Packages = map[string]*Package{}
	}
	if m.Releases == nil {
		m.Releases = map[string]*Release{}
	}
	if m.Commits == nil {
		m.Commits = []Commit{}
	}
	if m.Files == nil {
		m.Files = []string{}
	}
}

// UniqueFiles returns the deduplicated union of every commit's files in order
// of first occurrence.
func UniqueFiles(commits []Commit) []string {
	seen := map[string]struct{}{}
	files := []string{}
	for _, c := range commits {
		for _, f := range c.Files {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			files = append(files, f)
		}
	}
	return files
}
