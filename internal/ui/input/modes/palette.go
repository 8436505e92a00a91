package modes

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"courier/internal/ui/input/types"
)

// PaletteMode narrows the command list as the user types and runs the
// highlighted command on enter
type PaletteMode struct {
	TextInputMode
	index int
}

func NewPaletteMode(ti *textinput.Model) *PaletteMode {
	return &PaletteMode{
		TextInputMode: NewTextInputMode(types.ModePalette, "command", "type a command", ti),
	}
}

func (m *PaletteMode) Enter(ctx types.Context) []types.Action {
	m.index = 0
	actions := m.TextInputMode.Enter(ctx)
	return append(actions, types.UpdatePaletteIndexAction{Index: 0})
}

func (m *PaletteMode) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, bool) {
	matches := ctx.PaletteMatches(m.value())

	switch msg.String() {
	case "ctrl+c":
		return []types.Action{types.QuitAction{Force: true}}, true

	case "esc":
		return []types.Action{types.ChangeModeAction{Mode: types.ModeNormal}}, true

	case "enter":
		actions := []types.Action{types.ChangeModeAction{Mode: types.ModeNormal}}
		if m.index < len(matches) {
			actions = append(actions, types.RunCommandAction{Name: matches[m.index]})
		}
		return actions, true

	case "up", "ctrl+k", "shift+tab":
		if len(matches) == 0 {
			return nil, true
		}
		m.index--
		if m.index < 0 {
			m.index = len(matches) - 1
		}
		return []types.Action{types.UpdatePaletteIndexAction{Index: m.index}}, true

	case "down", "ctrl+j", "tab":
		if len(matches) == 0 {
			return nil, true
		}
		m.index++
		if m.index >= len(matches) {
			m.index = 0
		}
		return []types.Action{types.UpdatePaletteIndexAction{Index: m.index}}, true
	}

	// Any other key edits the filter text; the list restarts at the top
	m.index = 0
	return []types.Action{types.UpdatePaletteIndexAction{Index: 0}}, false
}
