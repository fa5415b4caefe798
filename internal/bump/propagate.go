package bump

import (
	"strings"

	"github.com/kingrea/monorelease/internal/model"
)

// RangeTracks reports whether a dependent declaring rangeExpr against a
// dependency released at level must itself be released. Workspace ranges
// always track; tilde ranges track patch bumps; caret ranges track minor and
// patch bumps; exact pins never track.
func RangeTracks(rangeExpr string, level model.Bump) bool {
	rangeExpr = strings.TrimSpace(rangeExpr)
	if !level.Releases() {
		return false
	}
	switch {
	case strings.HasPrefix(rangeExpr, "workspace:"):
		return true
	case strings.HasPrefix(rangeExpr, "~"):
		return level == model.BumpPatch
	case strings.HasPrefix(rangeExpr, "^"):
		return level == model.BumpPatch || level == model.BumpMinor
	}
	return false
}

// Candidate is a workspace package that may be pulled into the release set.
type Candidate struct {
	Name   string
	Ranges model.DependencyRanges
}

// Propagate escalates dependents of released packages to at least patch,
// repeating until no further package changes. levels holds the current level
// of every known package and is updated in place; the names of packages that
// were escalated are returned in escalation order.
func Propagate(levels map[string]model.Bump, candidates []Candidate) []string {
	var escalated []string
	for changed := true; changed; {
		changed = false
		for _, cand := range candidates {
			if levels[cand.Name].Releases() {
				continue
			}
			if !dependsOnTracked(cand.Ranges, levels) {
				continue
			}
			levels[cand.Name] = levels[cand.Name].Max(model.BumpPatch)
			escalated = append(escalated, cand.Name)
			changed = true
		}
	}
	return escalated
}

func dependsOnTracked(ranges model.DependencyRanges, levels map[string]model.Bump) bool {
	for _, kind := range model.DependencyKinds {
		for dep, expr := range ranges.Of(kind) {
			if RangeTracks(expr, levels[dep]) {
				return true
			}
		}
	}
	return false
}
