// Package model holds the data shared by every planning stage: commits, the
// bump lattice, packages, releases and the persisted pending manifest.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Bump is the magnitude of a semantic-version increment. Values are ordered
// so that escalation is a single Max.
type Bump int

const (
	BumpNone Bump = iota
	BumpPatch
	BumpMinor
	BumpMajor
)

var bumpNames = [...]string{"none", "patch", "minor", "major"}

// String returns the lower-case name used on disk and on the command line.
func (b Bump) String() string {
	if b < BumpNone || b > BumpMajor {
		return fmt.Sprintf("bump(%d)", int(b))
	}
	return bumpNames[b]
}

// ParseBump converts a name back into a Bump. The empty string is none.
func ParseBump(value string) (Bump, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none", "false":
		return BumpNone, nil
	case "patch":
		return BumpPatch, nil
	case "minor":
		return BumpMinor, nil
	case "major":
		return BumpMajor, nil
	}
	return BumpNone, fmt.Errorf("model: unknown bump level %q", value)
}

// Max returns the higher of two levels.
func (b Bump) Max(other Bump) Bump {
	if other > b {
		return other
	}
	return b
}

// Releases reports whether the level produces a release.
func (b Bump) Releases() bool {
	return b > BumpNone
}

func (b Bump) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *Bump) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("model: bump must be a string: %w", err)
	}
	parsed, err := ParseBump(raw)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
