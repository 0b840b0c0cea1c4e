package tui

import (
	"strings"

	"github.com/atotto/clipboard"
	"github.com/hylla/gantry/internal/domain"
)

// Option configures a Model.
type Option func(*Model)

// WithViewMode sets the initial view mode.
func WithViewMode(mode domain.ViewMode) Option {
	return func(m *Model) {
		if mode != "" {
			m.viewMode = mode
		}
	}
}

// WithDisplay sets the initial direction and label display mode.
func WithDisplay(rightToLeft, horizontal bool) Option {
	return func(m *Model) {
		m.rightToLeft = rightToLeft
		m.horizontal = horizontal
		m.displaySet = true
	}
}

// WithCellSize sets the chart units covered by one terminal cell.
func WithCellSize(width, height float64) Option {
	return func(m *Model) {
		if width > 0 {
			m.cellWidth = width
		}
		if height > 0 {
			m.cellHeight = height
		}
	}
}

// WithFileWatcher reloads the chart whenever w reports a change.
func WithFileWatcher(w *FileWatcher) Option {
	return func(m *Model) {
		m.watcher = w
	}
}

// WithHelpBar shows or hides the key help bar under the chart.
func WithHelpBar(show bool) Option {
	return func(m *Model) {
		m.showHelpBar = show
	}
}

// WithClipboard replaces the clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copy = write
		}
	}
}

func defaultClipboard(text string) error {
	return clipboard.WriteAll(text)
}

// WithMarkdownStyle picks the glamour standard style ("dark", "light",
// "notty", ...) for task descriptions.
func WithMarkdownStyle(style string) Option {
	return func(m *Model) {
		if style = strings.TrimSpace(style); style != "" {
			m.md.style = style
		}
	}
}
