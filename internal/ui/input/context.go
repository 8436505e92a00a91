package input

import (
	"courier/internal/ui/state"
)

// ModelContext implements the Context interface for the input handler
type ModelContext struct {
	State   *state.AppState
	Palette func(text string) []string
}

func (c *ModelContext) ActiveTab() int {
	return int(c.State.ActiveTab)
}

// CurrentIndex returns the cursor of the active tab
func (c *ModelContext) CurrentIndex() int {
	return c.State.SelectedIndex()
}

// TotalItems returns the number of rows on the active tab
func (c *ModelContext) TotalItems() int {
	return c.State.ItemCount()
}

// CurrentItemID returns the queue item under the cursor, empty on the
// search tab
func (c *ModelContext) CurrentItemID() string {
	if c.State.ActiveTab != state.TabUploads {
		return ""
	}
	item, ok := c.State.CurrentUpload()
	if !ok {
		return ""
	}
	return item.ID
}

func (c *ModelContext) HasMore() bool {
	return c.State.Search.HasMore && !c.State.Search.Loading
}

func (c *ModelContext) Query() string {
	return c.State.Search.Query
}

func (c *ModelContext) SuggestionCount() int {
	return len(c.State.Search.Suggestions)
}

func (c *ModelContext) Suggestion(i int) string {
	if i < 0 || i >= len(c.State.Search.Suggestions) {
		return ""
	}
	return c.State.Search.Suggestions[i]
}

// PaletteMatches returns the palette commands matching text
func (c *ModelContext) PaletteMatches(text string) []string {
	if c.Palette == nil {
		return nil
	}
	return c.Palette(text)
}
