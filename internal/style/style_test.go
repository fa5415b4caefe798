package style

import (
	"bytes"
	"testing"

	"github.com/kingrea/monorelease/internal/model"
)

func TestPlainPaletteLeavesTextAlone(t *testing.T) {
	p := Plain()
	if got := p.Prefix(); got != "RELEASE >" {
		t.Fatalf("prefix = %q", got)
	}
	if got := p.FormatVersion("1.2.0", model.BumpMinor); got != "1.2.0" {
		t.Fatalf("version = %q", got)
	}
	if got := p.Bump(model.BumpMajor); got != "major" {
		t.Fatalf("bump = %q", got)
	}
	if got := p.Count(3); got != "3" {
		t.Fatalf("count = %q", got)
	}
}

func TestDisabledPaletteMatchesPlain(t *testing.T) {
	p := New(&bytes.Buffer{}, false)
	if p.Enabled() {
		t.Fatal("palette should be disabled")
	}
	if got := p.FormatVersion("2.0.0-beta.1", model.BumpMajor); got != "2.0.0-beta.1" {
		t.Fatalf("version = %q", got)
	}
}
