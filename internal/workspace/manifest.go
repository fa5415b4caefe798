// Package workspace reads and edits package manifests (package.json) inside
// the monorepo.
package workspace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kingrea/monorelease/internal/model"
)

// ManifestFile is the manifest name inside every package directory.
const ManifestFile = "package.json"

// DefaultVersion is assumed for manifests that declare no version.
const DefaultVersion = "0.0.0"

// ErrManifestRead marks a missing or corrupt package manifest.
var ErrManifestRead = errors.New("workspace: manifest read failed")

// Manifest is the subset of package.json the planner needs, plus the raw
// bytes it was parsed from.
type Manifest struct {
	Name             string            `json:"name"`
	Version          string            `json:"version"`
	Dependencies     map[string]string `json:"dependencies"`
	DevDependencies  map[string]string `json:"devDependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`

	// VersionDeclared is false when Version holds DefaultVersion because
	// the document has no version member.
	VersionDeclared bool   `json:"-"`
	Raw             []byte `json:"-"`
}

// ParseManifest decodes package.json bytes.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	m.VersionDeclared = m.Version != ""
	if !m.VersionDeclared {
		m.Version = DefaultVersion
	}
	m.Raw = append([]byte(nil), data...)
	return &m, nil
}

// Ranges returns the declared dependency ranges grouped by kind.
func (m *Manifest) Ranges() model.DependencyRanges {
	return model.DependencyRanges{
		Base: cloneRanges(m.Dependencies),
		Dev:  cloneRanges(m.DevDependencies),
		Peer: cloneRanges(m.PeerDependencies),
	}
}

func cloneRanges(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// SetVersion rewrites the top-level "version" value of a JSON document and
// leaves every other byte untouched. A document without a version gets one
// inserted as its first member.
func SetVersion(raw []byte, version string) ([]byte, error) {
	quoted, err := json.Marshal(version)
	if err != nil {
		return nil, err
	}
	start, end, found, err := locateVersion(raw)
	if err != nil {
		return nil, err
	}
	if found {
		out := make([]byte, 0, len(raw)-(end-start)+len(quoted))
		out = append(out, raw[:start]...)
		out = append(out, quoted...)
		out = append(out, raw[end:]...)
		return out, nil
	}
	open := bytes.IndexByte(raw, '{')
	if open < 0 {
		return nil, fmt.Errorf("workspace: manifest is not a JSON object")
	}
	member := fmt.Sprintf("\n  \"version\": %s", quoted)
	if rest := bytes.TrimSpace(raw[open+1:]); len(rest) == 0 || rest[0] != '}' {
		member += ","
	} else {
		member += "\n"
	}
	out := make([]byte, 0, len(raw)+len(member))
	out = append(out, raw[:open+1]...)
	out = append(out, member...)
	out = append(out, raw[open+1:]...)
	return out, nil
}

// RemoveVersion deletes the top-level "version" member. A member placed by
// SetVersion is removed together with the separator it added, so the result
// matches the document before insertion.
func RemoveVersion(raw []byte) ([]byte, error) {
	start, end, found, err := locateVersion(raw)
	if err != nil {
		return nil, err
	}
	if !found {
		return append([]byte(nil), raw...), nil
	}
	open := bytes.IndexByte(raw, '{')
	for _, sep := range []string{",", "\n"} {
		inserted := fmt.Sprintf("\n  \"version\": %s%s", raw[start:end], sep)
		if bytes.HasPrefix(raw[open+1:], []byte(inserted)) {
			return splice(raw, open+1, open+1+len(inserted)), nil
		}
	}

	keyStart := bytes.LastIndex(raw[:start], []byte(`"version"`))
	after := skipSpace(raw, end)
	if after < len(raw) && raw[after] == ',' {
		return splice(raw, keyStart, skipSpace(raw, after+1)), nil
	}
	before := keyStart
	for before > 0 && isSpace(raw[before-1]) {
		before--
	}
	if before > 0 && raw[before-1] == ',' {
		return splice(raw, before-1, end), nil
	}
	return splice(raw, keyStart, end), nil
}

func splice(raw []byte, from, to int) []byte {
	out := make([]byte, 0, len(raw)-(to-from))
	out = append(out, raw[:from]...)
	return append(out, raw[to:]...)
}

func skipSpace(raw []byte, i int) int {
	for i < len(raw) && isSpace(raw[i]) {
		i++
	}
	return i
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// locateVersion returns the byte span of the top-level version value.
func locateVersion(raw []byte) (start, end int, found bool, err error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return 0, 0, false, fmt.Errorf("workspace: parse manifest: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return 0, 0, false, fmt.Errorf("workspace: manifest is not a JSON object")
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return 0, 0, false, fmt.Errorf("workspace: parse manifest: %w", err)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return 0, 0, false, fmt.Errorf("workspace: parse manifest: %w", err)
		}
		if key, _ := keyTok.(string); key == "version" {
			end = int(dec.InputOffset())
			return end - len(value), end, true, nil
		}
	}
	return 0, 0, false, nil
}
