package pkgmanager

import (
	"context"
	"errors"
	"testing"

	"github.com/kingrea/monorelease/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"version", "minor", "--no-git-tag-version", "--allow-same-version"},
		Args(model.BumpMinor, ""))
	assert.Equal(t,
		[]string{"version", "prerelease", "--preid=beta", "--no-git-tag-version", "--allow-same-version"},
		Args(model.BumpMajor, "beta"))
}

func TestParseOutput(t *testing.T) {
	assert.Equal(t, "1.3.0", ParseOutput("v1.3.0\n"))
	assert.Equal(t, "2.0.0-beta.0", ParseOutput("> some banner\n\nv2.0.0-beta.0\n\n"))
	assert.Equal(t, "", ParseOutput("  \n"))
}

func TestRunnerBump(t *testing.T) {
	var gotDir, gotName string
	var gotArgs []string
	r := New("", WithExec(func(_ context.Context, dir, name string, args ...string) ([]byte, error) {
		gotDir, gotName, gotArgs = dir, name, args
		return []byte("v1.0.1\n"), nil
	}))

	version, err := r.Bump(context.Background(), "/repo/packages/a", model.BumpPatch, "")
	require.NoError(t, err)
	assert.Equal(t, "1.0.1", version)
	assert.Equal(t, "/repo/packages/a", gotDir)
	assert.Equal(t, "pnpm", gotName)
	assert.Equal(t, "patch", gotArgs[1])
}

func TestRunnerBumpErrors(t *testing.T) {
	boom := errors.New("boom")
	r := New(KindNPM, WithExec(func(context.Context, string, string, ...string) ([]byte, error) {
		return nil, boom
	}))
	_, err := r.Bump(context.Background(), "/x", model.BumpPatch, "")
	require.ErrorIs(t, err, boom)

	r = New(KindNPM, WithExec(func(context.Context, string, string, ...string) ([]byte, error) {
		return []byte("\n"), nil
	}))
	_, err = r.Bump(context.Background(), "/x", model.BumpPatch, "")
	require.Error(t, err)
}

func TestKindValid(t *testing.T) {
	assert.True(t, KindPNPM.Valid())
	assert.True(t, KindNPM.Valid())
	assert.False(t, Kind("yarn").Valid())
}
