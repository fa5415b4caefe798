// Package commit classifies raw version-control log lines into commits.
package commit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	conventionalcommits "github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"

	"github.com/kingrea/monorelease/internal/model"
)

// ErrMalformedLine is returned for log lines that lack a hash or timestamp.
var ErrMalformedLine = errors.New("commit: malformed log line")

// Classifier parses "<hash> <epoch-seconds> <subject>" lines. It is not safe
// for concurrent use; the underlying parser machine keeps state per call.
type Classifier struct {
	machine conventionalcommits.Machine
}

// NewClassifier builds a classifier accepting any commit type.
func NewClassifier() *Classifier {
	return &Classifier{
		machine: parser.NewMachine(parser.WithTypes(conventionalcommits.TypesFreeForm)),
	}
}

// Classify builds a Commit from one log line and the files it touched.
func (c *Classifier) Classify(line string, files []string) (model.Commit, error) {
	hash, timestamp, subject, err := ParseLogLine(line)
	if err != nil {
		return model.Commit{}, err
	}
	typ, scope, breaking := c.parseSubject(subject)
	return model.Commit{
		Hash:      hash,
		Timestamp: timestamp,
		Type:      typ,
		Scope:     scope,
		Breaking:  breaking,
		Message:   subject,
		Files:     append([]string(nil), files...),
	}, nil
}

// ParseLogLine splits a raw log line into its hash, timestamp and subject.
func ParseLogLine(line string) (hash string, timestamp int64, subject string, err error) {
	fields := strings.SplitN(strings.TrimSpace(line), " ", 3)
	if len(fields) < 2 || fields[0] == "" {
		return "", 0, "", fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}
	timestamp, err = strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return "", 0, "", fmt.Errorf("%w: timestamp %q", ErrMalformedLine, fields[1])
	}
	if len(fields) == 3 {
		subject = fields[2]
	}
	return fields[0], timestamp, subject, nil
}

func (c *Classifier) parseSubject(subject string) (typ, scope string, breaking bool) {
	if c.machine != nil {
		msg, err := c.machine.Parse([]byte(subject))
		if err == nil {
			if cc, ok := msg.(*conventionalcommits.ConventionalCommit); ok && cc.Type != "" {
				if cc.Scope != nil {
					scope = *cc.Scope
				}
				return cc.Type, scope, cc.Exclamation
			}
		}
	}
	return SplitSubject(subject)
}

// SplitSubject applies the lenient prefix rule: the text before the first
// colon is the type, a trailing "(scope)" is extracted, and any "!" marks a
// breaking change. Subjects without a colon keep the whole subject as type.
// The type is lowercased like the conventional parser does.
func SplitSubject(subject string) (typ, scope string, breaking bool) {
	prefix, _, _ := strings.Cut(subject, ":")
	typ = strings.TrimSpace(prefix)
	if strings.Contains(typ, "!") {
		breaking = true
		typ = strings.ReplaceAll(typ, "!", "")
	}
	if open := strings.Index(typ, "("); open >= 0 && strings.HasSuffix(typ, ")") {
		scope = typ[open+1 : len(typ)-1]
		typ = typ[:open]
	}
	return strings.ToLower(strings.TrimSpace(typ)), scope, breaking
}
