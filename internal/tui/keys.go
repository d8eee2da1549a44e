package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Add       key.Binding
	Edit      key.Binding
	Delete    key.Binding
	Reload    key.Binding
	Quit      key.Binding
	Submit    key.Binding
	Complete  key.Binding
	Back      key.Binding
	Good      key.Binding
	Okay      key.Binding
	Bad       key.Binding
	PreferNew key.Binding
	PreferOld key.Binding
	Retry     key.Binding
}

var keys = keyMap{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "re-rank")),
	Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
	Complete:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "complete")),
	Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Good:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "good")),
	Okay:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "okay")),
	Bad:       key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "bad")),
	PreferNew: key.NewBinding(key.WithKeys("left", "1"), key.WithHelp("←/1", "new one")),
	PreferOld: key.NewBinding(key.WithKeys("right", "2"), key.WithHelp("→/2", "existing")),
	Retry:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
}

func helpLine(bindings ...key.Binding) string {
	out := ""
	for i, b := range bindings {
		if i > 0 {
			out += "  "
		}
		h := b.Help()
		out += h.Key + " " + h.Desc
	}
	return helpStyle.Render(out)
}
