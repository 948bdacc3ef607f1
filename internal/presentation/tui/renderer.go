package tui

import (
	"github.com/charmbracelet/glamour"
)

// Style renders markdown for a terminal of the given width. A width of zero
// keeps glamour's default wrapping. Markdown that cannot be styled is
// returned unchanged, so callers always have something to print.
func Style(markdown string, width int) string {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return markdown
	}
	styled, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return styled
}
