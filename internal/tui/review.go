// Package tui is the interactive viewer for a pending release plan.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/monorelease/internal/logging"
	"github.com/kingrea/monorelease/internal/model"
)

type focus int

const (
	focusList focus = iota
	focusNotes
)

// releaseItem implements list.Item for one planned release.
type releaseItem struct {
	name    string
	current string
	next    string
	bump    model.Bump
	commits int
	latest  time.Time
}

func (i releaseItem) Title() string { return i.name }
func (i releaseItem) Description() string {
	desc := fmt.Sprintf("%s > %s · %s · %d commits", i.current, i.next, i.bump, i.commits)
	if !i.latest.IsZero() {
		desc += " · " + i.latest.Format("2006-01-02")
	}
	return desc
}
func (i releaseItem) FilterValue() string { return i.name }

// Review shows each release with its rendered changelog.
type Review struct {
	manifest *model.PendingManifest
	log      *logging.Logger
	list     list.Model
	notes    viewport.Model
	focus    focus
	selected string
	width    int
	height   int
}

// ReviewOption customizes the viewer.
type ReviewOption func(*Review)

// WithLogger shows the tail of the log file under the panels.
func WithLogger(l *logging.Logger) ReviewOption {
	return func(r *Review) {
		r.log = l
	}
}

// NewReview builds the viewer for a pending manifest.
func NewReview(m *model.PendingManifest, opts ...ReviewOption) *Review {
	if m == nil {
		m = model.NewPendingManifest()
	}
	items := make([]list.Item, 0, len(m.Releases))
	for _, name := range model.SortedNames(m.Releases) {
		release := m.Releases[name]
		item := releaseItem{name: name, current: release.CurrentVersion, next: release.NextVersion}
		if pkg, ok := m.Packages[name]; ok && pkg != nil {
			item.bump = pkg.Bump
			item.commits = len(pkg.Commits)
			for _, c := range pkg.Commits {
				if t := c.Time(); t.After(item.latest) {
					item.latest = t
				}
			}
		}
		items = append(items, item)
	}
	releases := list.New(items, list.NewDefaultDelegate(), 0, 0)
	releases.Title = "PENDING RELEASES"
	releases.SetShowStatusBar(false)
	releases.SetFilteringEnabled(false)
	releases.SetShowHelp(false)

	r := &Review{
		manifest: m,
		list:     releases,
		notes:    viewport.New(0, 0),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.syncNotes()
	return r
}

// Init implements tea.Model.
func (r *Review) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (r *Review) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.resize(msg.Width, msg.Height)
		return r, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return r, tea.Quit
		case "tab":
			if r.focus == focusList {
				r.focus = focusNotes
			} else {
				r.focus = focusList
			}
			return r, nil
		}
	}

	var cmd tea.Cmd
	if r.focus == focusList {
		r.list, cmd = r.list.Update(msg)
		r.syncNotes()
	} else {
		r.notes, cmd = r.notes.Update(msg)
	}
	return r, cmd
}

// Selected returns the name of the highlighted release.
func (r *Review) Selected() string { return r.selected }

func (r *Review) resize(width, height int) {
	r.width, r.height = width, height
	leftWidth := max(24, width/3)
	rightWidth := max(20, width-leftWidth-6)
	bodyHeight := max(5, height-r.logHeight()-6)
	r.list.SetSize(leftWidth, bodyHeight)
	r.notes.Width = rightWidth
	r.notes.Height = bodyHeight
	r.syncNotes()
}

func (r *Review) syncNotes() {
	item, ok := r.list.SelectedItem().(releaseItem)
	if !ok {
		r.selected = ""
		r.notes.SetContent("No pending releases. Run `monorelease plan` first.")
		return
	}
	if item.name == r.selected && r.notes.TotalLineCount() > 0 {
		return
	}
	r.selected = item.name
	notes := ""
	if pkg, ok := r.manifest.Packages[item.name]; ok && pkg != nil {
		notes = pkg.Changelog
	}
	if strings.TrimSpace(notes) == "" {
		notes = "No changelog rendered for this release."
	}
	r.notes.SetContent(notes)
	r.notes.GotoTop()
}

func (r *Review) logHeight() int {
	if r.log == nil || r.log.Path() == "" {
		return 0
	}
	return 8
}

// View implements tea.Model.
func (r *Review) View() string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render(fmt.Sprintf("⬡ MONORELEASE · %d releases · %d commits", len(r.manifest.Releases), len(r.manifest.Commits)))

	border := func(active bool) lipgloss.Color {
		if active {
			return lipgloss.Color("#5B8DEF")
		}
		return lipgloss.Color("#444444")
	}
	leftBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border(r.focus == focusList)).
		Padding(0, 1).
		Render(r.list.View())
	rightBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border(r.focus == focusNotes)).
		Padding(0, 1).
		Render(r.notes.View())

	sections := []string{header, lipgloss.JoinHorizontal(lipgloss.Top, leftBox, rightBox)}
	if panel := r.renderLogPanel(); panel != "" {
		sections = append(sections, panel)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render("↑/↓ select · tab switch pane · q quit")
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (r *Review) renderLogPanel() string {
	if r.logHeight() == 0 {
		return ""
	}
	lines, _ := r.log.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s", filepath.Base(r.log.Path())))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}
