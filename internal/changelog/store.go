package changelog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kingrea/monorelease/internal/workspace"
)

// FileName is the changelog inside each package directory.
const FileName = "CHANGELOG.md"

// Store prepends fragments to and strips them from package changelogs.
type Store struct {
	root string
}

// NewStore resolves relative package paths against root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Path returns the changelog path for a package directory.
func (s *Store) Path(dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Join(dir, FileName)
	}
	return filepath.Join(s.root, filepath.FromSlash(dir), FileName)
}

// Read returns the changelog text and whether the file exists.
func (s *Store) Read(dir string) (string, bool, error) {
	data, err := os.ReadFile(s.Path(dir))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("changelog: read %s: %w", s.Path(dir), err)
	}
	return string(data), true, nil
}

// Prepend inserts fragment above the existing changelog content.
func (s *Store) Prepend(dir, fragment string) error {
	existing, _, err := s.Read(dir)
	if err != nil {
		return err
	}
	if err := workspace.WriteFileAtomic(s.Path(dir), []byte(Prepend(existing, fragment))); err != nil {
		return fmt.Errorf("changelog: write %s: %w", s.Path(dir), err)
	}
	return nil
}

// Strip removes a previously prepended fragment. When created is set the
// plan made the file, so a changelog left blank is deleted; otherwise the
// stripped text is written back as is.
func (s *Store) Strip(dir, fragment, version string, created bool) error {
	existing, ok, err := s.Read(dir)
	if err != nil || !ok {
		return err
	}
	stripped := Strip(existing, fragment, version)
	if stripped == existing {
		return nil
	}
	path := s.Path(dir)
	if created && strings.TrimSpace(stripped) == "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("changelog: remove %s: %w", path, err)
		}
		return nil
	}
	if err := workspace.WriteFileAtomic(path, []byte(stripped)); err != nil {
		return fmt.Errorf("changelog: write %s: %w", path, err)
	}
	return nil
}

// Prepend returns fragment placed above existing.
func Prepend(existing, fragment string) string {
	if existing == "" {
		return fragment
	}
	return fragment + "\n" + existing
}

// Strip undoes Prepend. The exact fragment is removed when present;
// otherwise the "## [<version>]" section is cut up to the next top-level
// heading or the end of the text.
func Strip(text, fragment, version string) string {
	if fragment != "" {
		if strings.HasPrefix(text, fragment+"\n") {
			return strings.TrimPrefix(text, fragment+"\n")
		}
		if text == fragment {
			return ""
		}
		if i := strings.Index(text, fragment); i >= 0 {
			rest := strings.TrimPrefix(text[i+len(fragment):], "\n")
			return text[:i] + rest
		}
	}
	if version == "" {
		return text
	}
	return stripSection(text, "## ["+version+"]")
}

func stripSection(text, heading string) string {
	lines := strings.SplitAfter(text, "\n")
	start := -1
	for i, line := range lines {
		if strings.HasPrefix(line, heading) {
			start = i
			break
		}
	}
	if start < 0 {
		return text
	}
	end := len(lines)
	for i := start + 1; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "# ") || strings.HasPrefix(lines[i], "## ") {
			end = i
			break
		}
	}
	return strings.Join(lines[:start], "") + strings.Join(lines[end:], "")
}
