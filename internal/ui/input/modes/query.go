package modes

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"courier/internal/ui/input/types"
)

// QueryMode edits the search query. Every keystroke is forwarded as an
// UpdateTextAction so the session can debounce suggestions; up/down walk
// the suggestion list and tab copies the highlighted one into the input.
type QueryMode struct {
	TextInputMode
	highlight int
}

func NewQueryMode(ti *textinput.Model) *QueryMode {
	return &QueryMode{
		TextInputMode: NewTextInputMode(types.ModeQuery, "search", "search posts, users, communities", ti),
		highlight:     -1,
	}
}

func (m *QueryMode) Enter(ctx types.Context) []types.Action {
	m.highlight = -1
	return m.TextInputMode.Enter(ctx)
}

func (m *QueryMode) Exit(ctx types.Context) []types.Action {
	m.highlight = -1
	return append(m.TextInputMode.Exit(ctx), types.HighlightSuggestionAction{Index: -1})
}

func (m *QueryMode) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, bool) {
	count := ctx.SuggestionCount()
	if m.highlight >= count {
		m.highlight = -1
	}

	switch msg.String() {
	case "up", "ctrl+k":
		if count == 0 {
			return nil, true
		}
		m.highlight--
		if m.highlight < -1 {
			m.highlight = count - 1
		}
		return []types.Action{types.HighlightSuggestionAction{Index: m.highlight}}, true

	case "down", "ctrl+j":
		if count == 0 {
			return nil, true
		}
		m.highlight++
		if m.highlight >= count {
			m.highlight = -1
		}
		return []types.Action{types.HighlightSuggestionAction{Index: m.highlight}}, true

	case "tab":
		if m.highlight < 0 {
			return nil, true
		}
		text := ctx.Suggestion(m.highlight)
		if m.textInput != nil {
			m.textInput.SetValue(text)
			m.textInput.CursorEnd()
		}
		m.highlight = -1
		return []types.Action{
			types.HighlightSuggestionAction{Index: -1},
			types.UpdateTextAction{Text: text, Mode: types.ModeQuery},
		}, true

	case "enter":
		text := m.value()
		if m.highlight >= 0 {
			text = ctx.Suggestion(m.highlight)
		}
		return []types.Action{
			types.SubmitTextAction{Text: text, Mode: types.ModeQuery},
			types.ChangeModeAction{Mode: types.ModeNormal},
		}, true
	}

	return m.TextInputMode.HandleKey(msg, ctx)
}

// Highlight returns the highlighted suggestion index, -1 for none
func (m *QueryMode) Highlight() int {
	return m.highlight
}
