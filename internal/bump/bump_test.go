package bump

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kingrea/monorelease/internal/model"
)

func commitOf(typ string, breaking bool) model.Commit {
	return model.Commit{Hash: typ, Type: typ, Breaking: breaking}
}

func TestNextTransitions(t *testing.T) {
	r := DefaultRules()
	tests := []struct {
		name    string
		current model.Bump
		commit  model.Commit
		want    model.Bump
	}{
		{"fix from none", model.BumpNone, commitOf("fix", false), model.BumpPatch},
		{"fix keeps minor", model.BumpMinor, commitOf("fix", false), model.BumpMinor},
		{"feat from patch", model.BumpPatch, commitOf("feat", false), model.BumpMinor},
		{"feat keeps major", model.BumpMajor, commitOf("feat", false), model.BumpMajor},
		{"breaking", model.BumpPatch, commitOf("docs", true), model.BumpMajor},
		{"major type", model.BumpNone, commitOf("major", false), model.BumpMajor},
		{"other unchanged", model.BumpNone, commitOf("docs", false), model.BumpNone},
		{"other keeps patch", model.BumpPatch, commitOf("chore", false), model.BumpPatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Next(tt.current, tt.commit))
		})
	}
}

func TestFoldIsOrderIndependent(t *testing.T) {
	r := DefaultRules()
	fix := commitOf("fix", false)
	breaking := commitOf("feat", true)
	assert.Equal(t, model.BumpMajor, r.Fold([]model.Commit{fix, breaking}))
	assert.Equal(t, model.BumpMajor, r.Fold([]model.Commit{breaking, fix}))
}

func TestNextIsIdempotent(t *testing.T) {
	r := DefaultRules()
	c := commitOf("feat", false)
	once := r.Next(model.BumpNone, c)
	assert.Equal(t, once, r.Next(once, c))
}

func TestCustomRules(t *testing.T) {
	r := Rules{Minor: []string{"feat"}, Patch: []string{"fix", "perf", "chore"}}
	assert.Equal(t, model.BumpPatch, r.Level(commitOf("perf", false)))
	assert.Equal(t, model.BumpPatch, r.Level(commitOf("Chore", false)))
	assert.Equal(t, model.BumpNone, r.Level(commitOf("major", false)))
}

func TestRangeTracks(t *testing.T) {
	tests := []struct {
		expr  string
		level model.Bump
		want  bool
	}{
		{"workspace:*", model.BumpMajor, true},
		{"workspace:^", model.BumpPatch, true},
		{"~1.0.0", model.BumpPatch, true},
		{"~1.0.0", model.BumpMinor, false},
		{"^1.0.0", model.BumpMinor, true},
		{"^1.0.0", model.BumpPatch, true},
		{"^1.0.0", model.BumpMajor, false},
		{"1.0.0", model.BumpPatch, false},
		{"^1.0.0", model.BumpNone, false},
	}
	for _, tt := range tests {
		t.Run(tt.expr+"/"+tt.level.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, RangeTracks(tt.expr, tt.level))
		})
	}
}

func TestPropagateReachesFixpoint(t *testing.T) {
	levels := map[string]model.Bump{"a": model.BumpMinor}
	candidates := []Candidate{
		{Name: "c", Ranges: model.DependencyRanges{Base: map[string]string{"b": "workspace:*"}}},
		{Name: "b", Ranges: model.DependencyRanges{Dev: map[string]string{"a": "^1.0.0"}}},
		{Name: "d", Ranges: model.DependencyRanges{Base: map[string]string{"a": "1.0.0"}}},
	}
	escalated := Propagate(levels, candidates)
	assert.ElementsMatch(t, []string{"b", "c"}, escalated)
	assert.Equal(t, model.BumpPatch, levels["b"])
	assert.Equal(t, model.BumpPatch, levels["c"])
	assert.Equal(t, model.BumpNone, levels["d"])
	assert.Equal(t, model.BumpMinor, levels["a"])
}
