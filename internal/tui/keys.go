package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

type normalKeys struct {
	Edit    key.Binding
	History key.Binding
	Quit    key.Binding
}

func (k normalKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Edit, k.History, k.Quit}
}

func (k normalKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

type editingKeys struct {
	Submit key.Binding
	Recall key.Binding
	Leave  key.Binding
}

func (k editingKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Recall, k.Leave}
}

func (k editingKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var (
	normalKeyMap = normalKeys{
		Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "enter commands")),
		History: key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "toggle history")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
	editingKeyMap = editingKeys{
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run command")),
		Recall: key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "previous commands")),
		Leave:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "stop editing")),
	}
	forceQuit = key.NewBinding(key.WithKeys("ctrl+c"))
)

func (m *Model) helpBindings() help.KeyMap {
	if m.mode == modeEditing {
		return editingKeyMap
	}
	return normalKeyMap
}
