package views

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap lists the bindings shown in the footer. Input is handled by the
// mode handlers; these bindings only drive the help view.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	SwitchTab   key.Binding
	AddFiles    key.Binding
	Upload      key.Binding
	UploadAll   key.Binding
	Remove      key.Binding
	ClearQueue  key.Binding
	Query       key.Binding
	Filter      key.Binding
	ClearFilter key.Binding
	LoadMore    key.Binding
	Open        key.Binding
	Palette     key.Binding
	Help        key.Binding
	Quit        key.Binding

	searchTab bool
}

// NewKeyMap returns the default bindings
func NewKeyMap() KeyMap {
	return KeyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		SwitchTab:   key.NewBinding(key.WithKeys("tab", "1", "2"), key.WithHelp("tab", "switch tab")),
		AddFiles:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add files")),
		Upload:      key.NewBinding(key.WithKeys("u", "enter"), key.WithHelp("u", "upload")),
		UploadAll:   key.NewBinding(key.WithKeys("U"), key.WithHelp("U", "upload all")),
		Remove:      key.NewBinding(key.WithKeys("x", "d"), key.WithHelp("x", "remove")),
		ClearQueue:  key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear")),
		Query:       key.NewBinding(key.WithKeys("/", "s"), key.WithHelp("/", "search")),
		Filter:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		ClearFilter: key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "clear filters")),
		LoadMore:    key.NewBinding(key.WithKeys("m", "n"), key.WithHelp("m", "more")),
		Open:        key.NewBinding(key.WithKeys("enter", "o"), key.WithHelp("enter", "open")),
		Palette:     key.NewBinding(key.WithKeys(":", "ctrl+p"), key.WithHelp(":", "commands")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ForTab returns a copy of the map scoped to the given tab
func (k KeyMap) ForTab(searchTab bool) KeyMap {
	k.searchTab = searchTab
	return k
}

func (k KeyMap) ShortHelp() []key.Binding {
	if k.searchTab {
		return []key.Binding{k.Query, k.Filter, k.LoadMore, k.Open, k.SwitchTab, k.Palette, k.Help, k.Quit}
	}
	return []key.Binding{k.AddFiles, k.Upload, k.UploadAll, k.Remove, k.SwitchTab, k.Palette, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.SwitchTab},
		{k.AddFiles, k.Upload, k.UploadAll, k.Remove, k.ClearQueue},
		{k.Query, k.Filter, k.ClearFilter, k.LoadMore, k.Open},
		{k.Palette, k.Help, k.Quit},
	}
}
