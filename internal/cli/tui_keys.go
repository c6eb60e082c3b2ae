package cli

import "github.com/charmbracelet/bubbles/key"

type catalogKeyMap struct {
	Up           key.Binding
	Down         key.Binding
	MoveUp       key.Binding
	MoveDown     key.Binding
	MoveInto     key.Binding
	Mark         key.Binding
	Copy         key.Binding
	Cut          key.Binding
	Paste        key.Binding
	PasteRoot    key.Binding
	Toggle       key.Binding
	Delete       key.Binding
	HideInactive key.Binding
	Refresh      key.Binding
	Quit         key.Binding
	Confirm      key.Binding
}

func defaultCatalogKeys() catalogKeyMap {
	return catalogKeyMap{
		Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		MoveUp:       key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("K", "move up")),
		MoveDown:     key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("J", "move down")),
		MoveInto:     key.NewBinding(key.WithKeys("shift+right", "L"), key.WithHelp("L", "into sibling above")),
		Mark:         key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "mark")),
		Copy:         key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy")),
		Cut:          key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "cut")),
		Paste:        key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "paste into")),
		PasteRoot:    key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "paste at root")),
		Toggle:       key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "on/off")),
		Delete:       key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		HideInactive: key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hide inactive")),
		Refresh:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Confirm:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
	}
}

// ShortHelp returns the key hints shown in the bottom bar.
func (k catalogKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.MoveUp, k.MoveDown, k.MoveInto, k.Mark, k.Copy, k.Cut, k.Paste, k.Toggle, k.Delete, k.HideInactive, k.Quit}
}
