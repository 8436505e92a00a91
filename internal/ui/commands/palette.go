package commands

import (
	"strings"

	"courier/internal/ui/input/types"
)

// PaletteEntry is a named action reachable from the command palette
type PaletteEntry struct {
	Name        string
	Description string
	Action      types.Action
}

// Palette holds the commands offered by the palette in display order
type Palette struct {
	entries []PaletteEntry
}

// NewPalette returns the default command set
func NewPalette() *Palette {
	return &Palette{entries: []PaletteEntry{
		{"add files", "Stage files for upload", types.ChangeModeAction{Mode: types.ModeAddFiles}},
		{"upload all", "Upload every pending or failed file", types.UploadAllAction{}},
		{"clear queue", "Remove every file from the queue", types.ChangeModeAction{Mode: types.ModeConfirmClear}},
		{"search", "Edit the search query", types.ChangeModeAction{Mode: types.ModeQuery}},
		{"filter", "Set a search filter (key=value)", types.ChangeModeAction{Mode: types.ModeFilter}},
		{"clear filters", "Restore the default filters", types.ClearFiltersAction{}},
		{"load more", "Fetch the next page of results", types.LoadMoreAction{}},
		{"clear recent", "Forget recent queries", types.ClearRecentAction{}},
		{"purge suggestions", "Drop cached suggestions", types.PurgeSuggestionsAction{}},
		{"switch tab", "Toggle between uploads and search", types.SwitchTabAction{Tab: -1}},
		{"help", "Show key bindings", types.ToggleHelpAction{}},
		{"quit", "Exit courier", types.QuitAction{}},
	}}
}

// Entries returns all entries
func (p *Palette) Entries() []PaletteEntry {
	return p.entries
}

// Lookup finds an entry by exact name
func (p *Palette) Lookup(name string) (PaletteEntry, bool) {
	for _, e := range p.entries {
		if e.Name == name {
			return e, true
		}
	}
	return PaletteEntry{}, false
}

// Match returns the names matching text: prefix matches first, then
// substring matches, each group in display order
func (p *Palette) Match(text string) []string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		names := make([]string, len(p.entries))
		for i, e := range p.entries {
			names[i] = e.Name
		}
		return names
	}

	var prefix, contains []string
	for _, e := range p.entries {
		switch {
		case strings.HasPrefix(e.Name, text):
			prefix = append(prefix, e.Name)
		case strings.Contains(e.Name, text), strings.Contains(strings.ToLower(e.Description), text):
			contains = append(contains, e.Name)
		}
	}
	return append(prefix, contains...)
}
