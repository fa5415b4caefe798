package changelog

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/kingrea/monorelease/internal/model"
)

// HeaderData is what a header hook renders from.
type HeaderData struct {
	Release    *model.Release
	Year       string
	Month      string
	Day        string
	Host       string
	Repository string
	CurrentTag string
	NextTag    string
}

// TagData is what a tag hook renders from.
type TagData struct {
	Name    string
	Path    string
	Version string
}

// Hooks render the parts of a changelog that projects customise.
type Hooks interface {
	Header(data HeaderData) (string, error)
	Tag(release *model.Release, version string) (string, error)
}

// GitHubHooks produce compare links and "<name>-v<version>" tags.
type GitHubHooks struct{}

// Header renders "## [next](<host>/<repo>/compare/<cur>...<next>) (Y-M-D)".
func (GitHubHooks) Header(d HeaderData) (string, error) {
	return fmt.Sprintf("## [%s](%s/%s/compare/%s...%s) (%s-%s-%s)\n\n",
		d.Release.NextVersion, d.Host, d.Repository, d.CurrentTag, d.NextTag, d.Year, d.Month, d.Day), nil
}

// Tag renders "<name>-v<version>".
func (GitHubHooks) Tag(release *model.Release, version string) (string, error) {
	return fmt.Sprintf("%s-v%s", release.Name, version), nil
}

// TemplateHooks render through text/template. An empty template falls back
// to the GitHub hook for that part.
type TemplateHooks struct {
	header *template.Template
	tag    *template.Template
}

// NewTemplateHooks parses the header and tag templates.
func NewTemplateHooks(header, tag string) (*TemplateHooks, error) {
	h := &TemplateHooks{}
	var err error
	if strings.TrimSpace(header) != "" {
		if h.header, err = template.New("header").Option("missingkey=error").Parse(header); err != nil {
			return nil, fmt.Errorf("changelog: parse header template: %w", err)
		}
	}
	if strings.TrimSpace(tag) != "" {
		if h.tag, err = template.New("tag").Option("missingkey=error").Parse(tag); err != nil {
			return nil, fmt.Errorf("changelog: parse tag template: %w", err)
		}
	}
	return h, nil
}

// Header executes the header template.
func (h *TemplateHooks) Header(d HeaderData) (string, error) {
	if h.header == nil {
		return GitHubHooks{}.Header(d)
	}
	var buf bytes.Buffer
	if err := h.header.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("changelog: render header: %w", err)
	}
	out := buf.String()
	if !strings.HasSuffix(out, "\n\n") {
		out = strings.TrimRight(out, "\n") + "\n\n"
	}
	return out, nil
}

// Tag executes the tag template.
func (h *TemplateHooks) Tag(release *model.Release, version string) (string, error) {
	if h.tag == nil {
		return GitHubHooks{}.Tag(release, version)
	}
	var buf bytes.Buffer
	data := TagData{Name: release.Name, Path: release.Path, Version: version}
	if err := h.tag.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("changelog: render tag: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
