// Package style colours console output.
package style

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/monorelease/internal/model"
)

// Palette renders styled fragments. A disabled palette returns text as is.
type Palette struct {
	enabled bool
	prefix  lipgloss.Style
	name    lipgloss.Style
	version lipgloss.Style
	count   lipgloss.Style
	dim     lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	major   lipgloss.Style
	minor   lipgloss.Style
	patch   lipgloss.Style
	bold    lipgloss.Style
}

// New returns a palette rendering for w.
func New(w io.Writer, enabled bool) *Palette {
	r := lipgloss.NewRenderer(w)
	return &Palette{
		enabled: enabled,
		prefix:  r.NewStyle().Foreground(lipgloss.Color("#4EC9B0")),
		name:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#C586C0")),
		version: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FD7FF")),
		count:   r.NewStyle().Foreground(lipgloss.Color("#5B8DEF")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("#888888")),
		warn:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#E5C07B")),
		err:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
		major:   r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		minor:   r.NewStyle().Foreground(lipgloss.Color("#98C379")),
		patch:   r.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
		bold:    r.NewStyle().Bold(true),
	}
}

// Plain returns a palette that never colours.
func Plain() *Palette {
	return &Palette{}
}

// Enabled reports whether the palette colours output.
func (p *Palette) Enabled() bool { return p != nil && p.enabled }

func (p *Palette) render(s lipgloss.Style, text string) string {
	if !p.Enabled() {
		return text
	}
	return s.Render(text)
}

// Prefix is the leader of every console line.
func (p *Palette) Prefix() string { return p.render(p.prefix, "RELEASE") + " >" }

func (p *Palette) Name(s string) string    { return p.render(p.name, s) }
func (p *Palette) Version(s string) string { return p.render(p.version, s) }
func (p *Palette) Dim(s string) string     { return p.render(p.dim, s) }
func (p *Palette) Warn(s string) string    { return p.render(p.warn, s) }
func (p *Palette) Error(s string) string   { return p.render(p.err, s) }
func (p *Palette) Count(n int) string      { return p.render(p.count, fmt.Sprint(n)) }

// Bump colours a bump level: red major, green minor, yellow patch.
func (p *Palette) Bump(b model.Bump) string {
	return p.render(p.levelStyle(b), b.String())
}

func (p *Palette) levelStyle(b model.Bump) lipgloss.Style {
	switch b {
	case model.BumpMajor:
		return p.major
	case model.BumpMinor:
		return p.minor
	default:
		return p.patch
	}
}

// FormatVersion highlights the components of next that the bump changed.
// Versions that do not split into three components are returned bold.
func (p *Palette) FormatVersion(next string, b model.Bump) string {
	core, suffix := next, ""
	if i := strings.IndexAny(next, "-+"); i >= 0 {
		core, suffix = next[:i], next[i:]
	}
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 || !p.Enabled() {
		return p.render(p.bold, next)
	}
	switch b {
	case model.BumpMajor:
		parts[0] = p.major.Render(parts[0])
		parts[1] = p.minor.Render(parts[1])
		parts[2] = p.patch.Render(parts[2])
	case model.BumpMinor:
		parts[1] = p.minor.Render(parts[1])
		parts[2] = p.patch.Render(parts[2])
	case model.BumpPatch:
		parts[2] = p.patch.Render(parts[2])
	}
	return p.bold.Render(strings.Join(parts, ".") + suffix)
}
