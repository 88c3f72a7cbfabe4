package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	accept    key.Binding
	cancel    key.Binding
	submit    key.Binding
	replace   key.Binding
	left      key.Binding
	right     key.Binding
	open      key.Binding
	download  key.Binding
	quit      key.Binding
	forceQuit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		accept:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "load file")),
		cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		submit:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "colorize")),
		replace:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "replace file")),
		left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "before")),
		right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "after")),
		open:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open compare")),
		download:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		forceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.accept, k.cancel, k.replace},
		{k.submit, k.left, k.right},
		{k.open, k.download, k.quit},
	}
}
