package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/monorelease/internal/logging"
	"github.com/kingrea/monorelease/internal/model"
)

func sampleManifest() *model.PendingManifest {
	m := model.NewPendingManifest()
	m.Packages["a"] = &model.Package{Name: "a", Bump: model.BumpMinor, Changelog: "## [1.1.0]\n\n* feat: alpha notes\n", Commits: []model.Commit{{Hash: "1", Timestamp: 1709630000}, {Hash: "2", Timestamp: 1709000000}}}
	m.Packages["b"] = &model.Package{Name: "b", Bump: model.BumpPatch, Changelog: "## [0.1.1]\n\n* fix: beta notes\n"}
	m.Releases["a"] = &model.Release{Name: "a", CurrentVersion: "1.0.0", NextVersion: "1.1.0"}
	m.Releases["b"] = &model.Release{Name: "b", CurrentVersion: "0.1.0", NextVersion: "0.1.1"}
	return m
}

func sized(t *testing.T, r *Review) *Review {
	t.Helper()
	next, _ := r.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(*Review)
}

func TestReviewShowsFirstReleaseNotes(t *testing.T) {
	r := sized(t, NewReview(sampleManifest()))
	if r.Selected() != "a" {
		t.Fatalf("selected = %q, want a", r.Selected())
	}
	view := r.View()
	for _, want := range []string{"PENDING RELEASES", "alpha notes", "2 releases"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestReleaseItemDescription(t *testing.T) {
	r := NewReview(sampleManifest())
	item, ok := r.list.SelectedItem().(releaseItem)
	if !ok {
		t.Fatalf("no selected item")
	}
	if got, want := item.Description(), "1.0.0 > 1.1.0 · minor · 2 commits · 2024-03-05"; got != want {
		t.Fatalf("description = %q, want %q", got, want)
	}
}

func TestReviewMovesSelection(t *testing.T) {
	r := sized(t, NewReview(sampleManifest()))
	next, _ := r.Update(tea.KeyMsg{Type: tea.KeyDown})
	r = next.(*Review)
	if r.Selected() != "b" {
		t.Fatalf("selected = %q, want b", r.Selected())
	}
	if !strings.Contains(r.View(), "beta notes") {
		t.Fatalf("notes did not follow selection")
	}
}

func TestReviewTabKeepsSelection(t *testing.T) {
	r := sized(t, NewReview(sampleManifest()))
	next, _ := r.Update(tea.KeyMsg{Type: tea.KeyTab})
	r = next.(*Review)
	next, _ = r.Update(tea.KeyMsg{Type: tea.KeyDown})
	r = next.(*Review)
	if r.Selected() != "a" {
		t.Fatalf("down in notes pane changed selection to %q", r.Selected())
	}
}

func TestReviewQuit(t *testing.T) {
	r := NewReview(sampleManifest())
	_, cmd := r.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestReviewEmptyManifest(t *testing.T) {
	r := sized(t, NewReview(nil))
	if r.Selected() != "" {
		t.Fatalf("selected = %q, want empty", r.Selected())
	}
	if !strings.Contains(r.View(), "No pending releases") {
		t.Fatalf("empty view missing hint")
	}
}

func TestReviewLogPanel(t *testing.T) {
	logger, err := logging.New(t.TempDir())
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	defer logger.Close()
	logger.Infof("planned 2 releases")
	r := sized(t, NewReview(sampleManifest(), WithLogger(logger)))
	view := r.View()
	if !strings.Contains(view, "LOG · monorelease.log") || !strings.Contains(view, "planned 2 releases") {
		t.Fatalf("log panel missing:\n%s", view)
	}
}
