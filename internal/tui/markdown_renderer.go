package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// defaultMarkdownStyle is the glamour standard style used for task descriptions.
const defaultMarkdownStyle = "dark"

// markdownRenderer renders task descriptions and keeps one glamour renderer
// per wrap width and style.
type markdownRenderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
}

// render converts markdown into styled terminal text wrapped to width. On any
// renderer failure the trimmed source is returned unchanged.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}

	wrap := max(width, 24)
	style := strings.TrimSpace(r.style)
	if style == "" {
		style = defaultMarkdownStyle
	}
	if r.renderer == nil || r.width != wrap || r.style != style {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrap
		r.style = style
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.Trim(rendered, "\n")
}
