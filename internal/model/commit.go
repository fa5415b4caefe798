package model

import "time"

// Commit is one classified entry of the scanned range. It is never mutated
// after classification; packages hold their own copies.
type Commit struct {
	Hash      string   `json:"hash"`
	Timestamp int64    `json:"timestamp"`
	Type      string   `json:"type"`
	Scope     string   `json:"scope,omitempty"`
	Breaking  bool     `json:"breaking"`
	Message   string   `json:"message"`
	Files     []string `json:"files"`
}

// Time converts the epoch-seconds timestamp.
func (c Commit) Time() time.Time {
	return time.Unix(c.Timestamp, 0).UTC()
}

// ShortHash returns the 7 character abbreviation used in changelog links.
func (c Commit) ShortHash() string {
	if len(c.Hash) <= 7 {
		return c.Hash
	}
	return c.Hash[:7]
}

// Clone returns a copy that shares nothing with the receiver.
func (c Commit) Clone() Commit {
	clone := c
	clone.Files = append([]string(nil), c.Files...)
	return clone
}
