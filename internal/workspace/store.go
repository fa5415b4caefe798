package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Store is the package manifest collaborator. Directories are interpreted
// relative to the store root unless absolute.
type Store interface {
	Read(dir string) (*Manifest, error)
	ReadRaw(dir string) ([]byte, error)
	WriteRaw(dir string, data []byte) error
	SetVersion(dir, version string) error
	RemoveVersion(dir string) error
}

// FSStore reads and writes package.json files on disk.
type FSStore struct {
	root string
}

// NewFSStore roots a store at the project directory.
func NewFSStore(root string) *FSStore {
	return &FSStore{root: root}
}

// Path returns the manifest path for a package directory.
func (s *FSStore) Path(dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Join(dir, ManifestFile)
	}
	return filepath.Join(s.root, dir, ManifestFile)
}

// Read parses the manifest of a package directory.
func (s *FSStore) Read(dir string) (*Manifest, error) {
	data, err := s.ReadRaw(dir)
	if err != nil {
		return nil, err
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrManifestRead, s.Path(dir), err)
	}
	return m, nil
}

// ReadRaw returns the manifest bytes unparsed.
func (s *FSStore) ReadRaw(dir string) ([]byte, error) {
	path := s.Path(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrManifestRead, path, err)
	}
	return data, nil
}

// WriteRaw replaces the manifest bytes atomically.
func (s *FSStore) WriteRaw(dir string, data []byte) error {
	if err := WriteFileAtomic(s.Path(dir), data); err != nil {
		return fmt.Errorf("workspace: write manifest: %w", err)
	}
	return nil
}

// SetVersion rewrites only the version field of a package manifest.
func (s *FSStore) SetVersion(dir, version string) error {
	raw, err := s.ReadRaw(dir)
	if err != nil {
		return err
	}
	updated, err := SetVersion(raw, version)
	if err != nil {
		return fmt.Errorf("workspace: set version in %s: %w", s.Path(dir), err)
	}
	return s.WriteRaw(dir, updated)
}

// RemoveVersion drops the version member of a package manifest.
func (s *FSStore) RemoveVersion(dir string) error {
	raw, err := s.ReadRaw(dir)
	if err != nil {
		return err
	}
	updated, err := RemoveVersion(raw)
	if err != nil {
		return fmt.Errorf("workspace: remove version in %s: %w", s.Path(dir), err)
	}
	return s.WriteRaw(dir, updated)
}

// Discover lists package directories one level below each scan root.
func Discover(roots []string) ([]string, error) {
	var dirs []string
	seen := map[string]struct{}{}
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("workspace: list %s: %w", root, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			dir := filepath.Join(root, entry.Name())
			if _, ok := seen[dir]; ok {
				continue
			}
			if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err != nil {
				continue
			}
			seen[dir] = struct{}{}
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// WriteFileAtomic writes through a temporary file in the same directory and
// renames it into place, keeping the existing file mode when there is one.
func WriteFileAtomic(path string, data []byte) error {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
