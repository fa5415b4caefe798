// Package version resolves the next version of a bumped package by asking
// the package manager, then restoring the manifest it touched.
package version

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/kingrea/monorelease/internal/model"
)

// ErrInvalidVersion is returned when the package manager reports something
// that is not a semantic version above the current one.
var ErrInvalidVersion = errors.New("version: invalid next version")

// BumpError reports a failed version computation for one package. Any
// BumpError aborts the planning pass.
type BumpError struct {
	Package string
	Err     error
}

func (e *BumpError) Error() string {
	return fmt.Sprintf("version: bump %s: %v", e.Package, e.Err)
}

func (e *BumpError) Unwrap() error { return e.Err }

// Channel is the release channel derived from branch names. An empty Preid
// means a regular release.
type Channel struct {
	Preid string
}

// Prerelease reports whether the channel produces prerelease versions.
func (c Channel) Prerelease() bool { return c.Preid != "" }

var channelMarkers = []string{"/pre-", "/fix-"}

// DetectChannel inspects the target branch, then the source branch, for a
// "/pre-<tag>" or "/fix-<tag>" segment.
func DetectChannel(target, source string) Channel {
	for _, branch := range []string{target, source} {
		for _, marker := range channelMarkers {
			_, rest, ok := strings.Cut(branch, marker)
			if !ok {
				continue
			}
			tag, _, _ := strings.Cut(rest, "/")
			if tag = strings.TrimSpace(tag); tag != "" {
				return Channel{Preid: tag}
			}
		}
	}
	return Channel{}
}

// Bumper runs the package manager's version primitive in a directory.
type Bumper interface {
	Bump(ctx context.Context, dir string, bump model.Bump, preid string) (string, error)
}

// ManifestBytes saves and restores package manifests around a bump.
type ManifestBytes interface {
	ReadRaw(dir string) ([]byte, error)
	WriteRaw(dir string, data []byte) error
}

// Resolver computes next versions.
type Resolver struct {
	bumper   Bumper
	manifest ManifestBytes
	root     string
}

// NewResolver resolves package paths against root.
func NewResolver(bumper Bumper, manifest ManifestBytes, root string) *Resolver {
	return &Resolver{bumper: bumper, manifest: manifest, root: root}
}

// Next returns the version pkg moves to on channel ch. The package manifest
// is byte-identical afterwards, whether or not the bump succeeded.
func (r *Resolver) Next(ctx context.Context, pkg *model.Package, ch Channel) (next string, err error) {
	if !pkg.Bump.Releases() {
		return "", &BumpError{Package: pkg.Name, Err: errors.New("package has no pending bump")}
	}
	original, err := r.manifest.ReadRaw(pkg.Path)
	if err != nil {
		return "", &BumpError{Package: pkg.Name, Err: err}
	}
	defer func() {
		if restoreErr := r.manifest.WriteRaw(pkg.Path, original); restoreErr != nil {
			next = ""
			err = &BumpError{Package: pkg.Name, Err: errors.Join(err, fmt.Errorf("restore manifest: %w", restoreErr))}
		}
	}()

	dir := pkg.Path
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(r.root, filepath.FromSlash(dir))
	}
	next, err = r.bumper.Bump(ctx, dir, pkg.Bump, ch.Preid)
	if err != nil {
		return "", &BumpError{Package: pkg.Name, Err: err}
	}
	if err := Validate(pkg.CurrentVersion, next); err != nil {
		return "", &BumpError{Package: pkg.Name, Err: err}
	}
	return next, nil
}

// Validate checks that next is a semantic version greater than current.
// Current versions that are not valid semver are not compared.
func Validate(current, next string) error {
	vNext := "v" + strings.TrimPrefix(next, "v")
	if !semver.IsValid(vNext) {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, next)
	}
	vCurrent := "v" + strings.TrimPrefix(current, "v")
	if semver.IsValid(vCurrent) && semver.Compare(vNext, vCurrent) <= 0 {
		return fmt.Errorf("%w: %s is not above %s", ErrInvalidVersion, next, current)
	}
	return nil
}
