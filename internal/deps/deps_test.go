package deps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/monorelease/internal/model"
)

func TestAccount(t *testing.T) {
	packages := map[string]*model.Package{
		"a": {
			Name: "a", Path: "packages/a", CurrentVersion: "1.0.0", NextVersion: "1.1.0", Bump: model.BumpMinor,
			DependencyRanges: model.DependencyRanges{
				Base: map[string]string{"c": "^2.0.0", "b": "workspace:*", "left-pad": "^1.0.0"},
				Dev:  map[string]string{"b": "workspace:^"},
				Peer: map[string]string{"idle": "^0.1.0"},
			},
		},
		"b": {Name: "b", Path: "packages/b", CurrentVersion: "0.1.0", NextVersion: "0.1.1", Bump: model.BumpPatch},
		"c": {Name: "c", Path: "packages/c", CurrentVersion: "2.0.0", NextVersion: "3.0.0", Bump: model.BumpMajor},
		"idle": {Name: "idle", Path: "packages/idle", CurrentVersion: "0.1.0"},
	}

	releases := Account(packages)
	require.Len(t, releases, 3)
	assert.NotContains(t, releases, "idle")

	a := releases["a"]
	assert.Equal(t, "1.0.0", a.CurrentVersion)
	assert.Equal(t, "1.1.0", a.NextVersion)
	assert.Equal(t, []model.DependencyRef{{Name: "b", Range: "workspace:*"}, {Name: "c", Range: "^2.0.0"}}, a.Dependencies.Base)
	assert.Equal(t, []model.DependencyRef{{Name: "b", Range: "workspace:^"}}, a.Dependencies.Dev)
	assert.Empty(t, a.Dependencies.Peer)
	assert.Zero(t, releases["b"].Dependencies.Len())

	assert.Equal(t, []string{"a"}, Dependents(releases, "b"))
	assert.Empty(t, Dependents(releases, "a"))
}

func TestAccountSkipsSelfReference(t *testing.T) {
	packages := map[string]*model.Package{
		"a": {Name: "a", Bump: model.BumpPatch, DependencyRanges: model.DependencyRanges{Dev: map[string]string{"a": "workspace:*"}}},
	}
	assert.Zero(t, Account(packages)["a"].Dependencies.Len())
}

func TestAccountEmpty(t *testing.T) {
	assert.Empty(t, Account(nil))
}
