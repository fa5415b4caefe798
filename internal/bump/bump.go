// Package bump folds attributed commits into a per-package bump level.
package bump

import (
	"strings"

	"github.com/kingrea/monorelease/internal/model"
)

// Rules maps commit types onto bump levels. A breaking commit is always major.
type Rules struct {
	Major []string
	Minor []string
	Patch []string
}

// DefaultRules returns major/feat/fix.
func DefaultRules() Rules {
	return Rules{
		Major: []string{"major"},
		Minor: []string{"feat"},
		Patch: []string{"fix"},
	}
}

// Level returns the level a single commit asks for on its own.
func (r Rules) Level(c model.Commit) model.Bump {
	switch {
	case c.Breaking || matches(r.Major, c.Type):
		return model.BumpMajor
	case matches(r.Minor, c.Type):
		return model.BumpMinor
	case matches(r.Patch, c.Type):
		return model.BumpPatch
	}
	return model.BumpNone
}

// Next is the transition function of the per-package state machine. It only
// ever escalates, so replaying a commit or reordering commits cannot change
// the final level.
func (r Rules) Next(current model.Bump, c model.Commit) model.Bump {
	return current.Max(r.Level(c))
}

// Fold applies Next over commits starting from none.
func (r Rules) Fold(commits []model.Commit) model.Bump {
	level := model.BumpNone
	for _, c := range commits {
		level = r.Next(level, c)
	}
	return level
}

func matches(types []string, typ string) bool {
	typ = strings.TrimSpace(typ)
	for _, candidate := range types {
		if strings.EqualFold(strings.TrimSpace(candidate), typ) {
			return true
		}
	}
	return false
}
