package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Left     key.Binding
	Right    key.Binding
	Up       key.Binding
	Down     key.Binding
	New      key.Binding
	Edit     key.Binding
	Delete   key.Binding
	Grab     key.Binding
	Drop     key.Binding
	Cancel   key.Binding
	Quadrant key.Binding
	Help     key.Binding
	Quit     key.Binding

	// form
	NextField key.Binding
	PrevField key.Binding
	Cycle     key.Binding
	Save      key.Binding

	// confirm
	Yes key.Binding
	No  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Left:      key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column")),
		Right:     key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column")),
		Up:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		New:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Edit:      key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		Delete:    key.NewBinding(key.WithKeys("x", "d"), key.WithHelp("x", "delete")),
		Grab:      key.NewBinding(key.WithKeys(" ", "m"), key.WithHelp("space", "move")),
		Drop:      key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "drop")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Quadrant:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "quadrant")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		Cycle:     key.NewBinding(key.WithKeys(" ", "left", "right"), key.WithHelp("space", "cycle")),
		Save:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Yes:       key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "delete")),
		No:        key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "keep")),
	}
}

// boardHelp, dragHelp, formHelp and confirmHelp select the bindings shown in
// the footer for each mode.
type (
	boardHelp   keyMap
	dragHelp    keyMap
	formHelp    keyMap
	confirmHelp keyMap
)

var (
	_ help.KeyMap = boardHelp{}
	_ help.KeyMap = dragHelp{}
	_ help.KeyMap = formHelp{}
	_ help.KeyMap = confirmHelp{}
)

func (k boardHelp) ShortHelp() []key.Binding {
	return []key.Binding{k.New, k.Edit, k.Grab, k.Delete, k.Quadrant, k.Help, k.Quit}
}

func (k boardHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.New, k.Edit, k.Delete, k.Quadrant},
		{k.Grab, k.Help, k.Quit},
	}
}

func (k dragHelp) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Up, k.Down, k.Drop, k.Cancel}
}

func (k dragHelp) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

func (k formHelp) ShortHelp() []key.Binding {
	return []key.Binding{k.NextField, k.PrevField, k.Cycle, k.Save, k.Cancel}
}

func (k formHelp) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

func (k confirmHelp) ShortHelp() []key.Binding { return []key.Binding{k.Yes, k.No} }

func (k confirmHelp) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }
