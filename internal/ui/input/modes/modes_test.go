package modes

import (
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courier/internal/ui/input/types"
	"courier/internal/ui/state"
)

type fakeContext struct {
	tab         state.Tab
	index       int
	total       int
	itemID      string
	hasMore     bool
	query       string
	suggestions []string
	palette     []string
}

func (c *fakeContext) ActiveTab() int        { return int(c.tab) }
func (c *fakeContext) CurrentIndex() int     { return c.index }
func (c *fakeContext) TotalItems() int       { return c.total }
func (c *fakeContext) CurrentItemID() string { return c.itemID }
func (c *fakeContext) HasMore() bool         { return c.hasMore }
func (c *fakeContext) Query() string         { return c.query }
func (c *fakeContext) SuggestionCount() int  { return len(c.suggestions) }
func (c *fakeContext) Suggestion(i int) string {
	if i < 0 || i >= len(c.suggestions) {
		return ""
	}
	return c.suggestions[i]
}
func (c *fakeContext) PaletteMatches(string) []string { return c.palette }

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNormalModeUploadKeys(t *testing.T) {
	m := NewNormalMode()
	ctx := &fakeContext{tab: state.TabUploads, total: 2, itemID: "item-1"}

	tests := []struct {
		key  tea.KeyMsg
		want types.Action
	}{
		{runes("u"), types.UploadItemAction{ItemID: "item-1"}},
		{tea.KeyMsg{Type: tea.KeyEnter}, types.UploadItemAction{ItemID: "item-1"}},
		{runes("U"), types.UploadAllAction{}},
		{runes("x"), types.RemoveItemAction{ItemID: "item-1"}},
		{runes("a"), types.ChangeModeAction{Mode: types.ModeAddFiles}},
		{runes("C"), types.ChangeModeAction{Mode: types.ModeConfirmClear}},
		{runes("j"), types.NavigateAction{Direction: "down"}},
		{runes("2"), types.SwitchTabAction{Tab: int(state.TabSearch)}},
		{tea.KeyMsg{Type: tea.KeyTab}, types.SwitchTabAction{Tab: -1}},
		{runes(":"), types.ChangeModeAction{Mode: types.ModePalette}},
		{runes("/"), types.ChangeModeAction{Mode: types.ModeQuery}},
		{tea.KeyMsg{Type: tea.KeyCtrlC}, types.QuitAction{Force: true}},
	}
	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			actions, consumed := m.HandleKey(tt.key, ctx)
			assert.True(t, consumed)
			require.Len(t, actions, 1)
			assert.Equal(t, tt.want, actions[0])
		})
	}
}

func TestNormalModeSearchKeys(t *testing.T) {
	m := NewNormalMode()
	ctx := &fakeContext{tab: state.TabSearch, total: 3, query: "golang", hasMore: true}

	actions, _ := m.HandleKey(runes("/"), ctx)
	assert.Equal(t, []types.Action{types.ChangeModeAction{Mode: types.ModeQuery, Data: "golang"}}, actions)

	actions, _ = m.HandleKey(runes("m"), ctx)
	assert.Equal(t, []types.Action{types.LoadMoreAction{}}, actions)

	actions, _ = m.HandleKey(tea.KeyMsg{Type: tea.KeyEnter}, ctx)
	assert.Equal(t, []types.Action{types.OpenDetailAction{}}, actions)

	actions, _ = m.HandleKey(runes("F"), ctx)
	assert.Equal(t, []types.Action{types.ClearFiltersAction{}}, actions)

	// upload keys do nothing on the search tab
	actions, consumed := m.HandleKey(runes("U"), ctx)
	assert.False(t, consumed)
	assert.Empty(t, actions)

	ctx.hasMore = false
	actions, consumed = m.HandleKey(runes("m"), ctx)
	assert.True(t, consumed)
	assert.Empty(t, actions)
}

func TestNormalModeDoubleG(t *testing.T) {
	m := NewNormalMode()
	ctx := &fakeContext{total: 10}

	actions, consumed := m.HandleKey(runes("g"), ctx)
	assert.True(t, consumed)
	assert.Empty(t, actions)

	actions, _ = m.HandleKey(runes("g"), ctx)
	assert.Equal(t, []types.Action{types.NavigateAction{Direction: "home"}}, actions)

	// a stale first g does not count
	m.HandleKey(runes("g"), ctx)
	m.lastGTime = time.Now().Add(-time.Second)
	actions, _ = m.HandleKey(runes("g"), ctx)
	assert.Empty(t, actions)
}

func TestQueryModeSuggestions(t *testing.T) {
	ti := textinput.New()
	m := NewQueryMode(&ti)
	ctx := &fakeContext{suggestions: []string{"golang", "gophers"}}
	m.Enter(ctx)
	ti.SetValue("go")

	actions, _ := m.HandleKey(tea.KeyMsg{Type: tea.KeyDown}, ctx)
	assert.Equal(t, []types.Action{types.HighlightSuggestionAction{Index: 0}}, actions)
	actions, _ = m.HandleKey(tea.KeyMsg{Type: tea.KeyDown}, ctx)
	assert.Equal(t, []types.Action{types.HighlightSuggestionAction{Index: 1}}, actions)
	// past the end the highlight returns to the input
	actions, _ = m.HandleKey(tea.KeyMsg{Type: tea.KeyDown}, ctx)
	assert.Equal(t, []types.Action{types.HighlightSuggestionAction{Index: -1}}, actions)
	actions, _ = m.HandleKey(tea.KeyMsg{Type: tea.KeyUp}, ctx)
	assert.Equal(t, []types.Action{types.HighlightSuggestionAction{Index: 1}}, actions)

	actions, _ = m.HandleKey(tea.KeyMsg{Type: tea.KeyTab}, ctx)
	assert.Equal(t, "gophers", ti.Value())
	assert.Contains(t, actions, types.UpdateTextAction{Text: "gophers", Mode: types.ModeQuery})
	assert.Equal(t, -1, m.Highlight())

	actions, _ = m.HandleKey(tea.KeyMsg{Type: tea.KeyEnter}, ctx)
	assert.Equal(t, []types.Action{
		types.SubmitTextAction{Text: "gophers", Mode: types.ModeQuery},
		types.ChangeModeAction{Mode: types.ModeNormal},
	}, actions)
}

func TestQueryModeEnterSubmitsHighlighted(t *testing.T) {
	ti := textinput.New()
	m := NewQueryMode(&ti)
	ctx := &fakeContext{suggestions: []string{"golang", "gophers"}}
	m.Enter(ctx)
	ti.SetValue("go")

	m.HandleKey(tea.KeyMsg{Type: tea.KeyDown}, ctx)
	actions, _ := m.HandleKey(tea.KeyMsg{Type: tea.KeyEnter}, ctx)
	assert.Equal(t, types.SubmitTextAction{Text: "golang", Mode: types.ModeQuery}, actions[0])

	actions, _ = m.HandleKey(tea.KeyMsg{Type: tea.KeyEsc}, ctx)
	assert.Equal(t, types.CancelTextAction{Mode: types.ModeQuery}, actions[0])
}

func TestPaletteModeWrapsAndRuns(t *testing.T) {
	ti := textinput.New()
	m := NewPaletteMode(&ti)
	ctx := &fakeContext{palette: []string{"upload all", "clear queue", "quit"}}

	actions := m.Enter(ctx)
	assert.Equal(t, []types.Action{types.UpdatePaletteIndexAction{Index: 0}}, actions)

	actions, _ = m.HandleKey(tea.KeyMsg{Type: tea.KeyUp}, ctx)
	assert.Equal(t, []types.Action{types.UpdatePaletteIndexAction{Index: 2}}, actions)

	actions, consumed := m.HandleKey(tea.KeyMsg{Type: tea.KeyEnter}, ctx)
	assert.True(t, consumed)
	assert.Equal(t, []types.Action{
		types.ChangeModeAction{Mode: types.ModeNormal},
		types.RunCommandAction{Name: "quit"},
	}, actions)

	// typing is left to the shared input and restarts at the top
	actions, consumed = m.HandleKey(runes("c"), ctx)
	assert.False(t, consumed)
	assert.Equal(t, []types.Action{types.UpdatePaletteIndexAction{Index: 0}}, actions)
}

func TestPaletteModeNoMatches(t *testing.T) {
	ti := textinput.New()
	m := NewPaletteMode(&ti)
	ctx := &fakeContext{}
	m.Enter(ctx)

	actions, _ := m.HandleKey(tea.KeyMsg{Type: tea.KeyEnter}, ctx)
	assert.Equal(t, []types.Action{types.ChangeModeAction{Mode: types.ModeNormal}}, actions)
}

func TestConfirmMode(t *testing.T) {
	m := NewConfirmMode()
	ctx := &fakeContext{}

	actions, _ := m.HandleKey(runes("y"), ctx)
	assert.Equal(t, []types.Action{types.ClearQueueAction{}, types.ChangeModeAction{Mode: types.ModeNormal}}, actions)

	actions, _ = m.HandleKey(runes("n"), ctx)
	assert.Equal(t, []types.Action{types.ChangeModeAction{Mode: types.ModeNormal}}, actions)

	actions, consumed := m.HandleKey(runes("z"), ctx)
	assert.True(t, consumed)
	assert.Empty(t, actions)
}
