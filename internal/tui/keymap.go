package tui

import "charm.land/bubbles/v2/key"

// keyMap holds the chart view bindings.
type keyMap struct {
	quit           key.Binding
	reload         key.Binding
	toggleHelp     key.Binding
	scrollLeft     key.Binding
	scrollRight    key.Binding
	moveUp         key.Binding
	moveDown       key.Binding
	openTask       key.Binding
	closeTask      key.Binding
	deleteTask     key.Binding
	copyName       key.Binding
	cycleViewMode  key.Binding
	toggleRTL      key.Binding
	toggleVertical key.Binding
	nextProject    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:         key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		scrollLeft:     key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "scroll left")),
		scrollRight:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "scroll right")),
		moveUp:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		moveDown:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		openTask:       key.NewBinding(key.WithKeys("enter", "i"), key.WithHelp("enter", "task detail")),
		closeTask:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close detail")),
		deleteTask:     key.NewBinding(key.WithKeys("delete", "d"), key.WithHelp("d/del", "delete task")),
		copyName:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy name")),
		cycleViewMode:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "view mode")),
		toggleRTL:      key.NewBinding(key.WithKeys("R", "shift+r"), key.WithHelp("R", "right-to-left")),
		toggleVertical: key.NewBinding(key.WithKeys("H", "shift+h"), key.WithHelp("H", "horizontal labels")),
		nextProject:    key.NewBinding(key.WithKeys("p", "tab"), key.WithHelp("p", "next project")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.moveUp, k.moveDown, k.openTask, k.deleteTask, k.cycleViewMode, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveUp, k.moveDown, k.scrollLeft, k.scrollRight},
		{k.openTask, k.closeTask, k.deleteTask, k.copyName},
		{k.cycleViewMode, k.toggleRTL, k.toggleVertical, k.nextProject, k.reload, k.toggleHelp, k.quit},
	}
}
