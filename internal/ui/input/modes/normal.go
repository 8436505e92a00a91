package modes

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"courier/internal/ui/input/types"
	"courier/internal/ui/state"
)

type NormalMode struct {
	lastKeyWasG bool
	lastGTime   time.Time
}

func NewNormalMode() *NormalMode {
	return &NormalMode{}
}

func (m *NormalMode) Name() string {
	return "normal"
}

func (m *NormalMode) Enter(ctx types.Context) []types.Action {
	return nil
}

func (m *NormalMode) Exit(ctx types.Context) []types.Action {
	return nil
}

func (m *NormalMode) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, bool) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return []types.Action{types.QuitAction{Force: true}}, true
	case tea.KeyUp:
		return []types.Action{types.NavigateAction{Direction: "up"}}, true
	case tea.KeyDown:
		return []types.Action{types.NavigateAction{Direction: "down"}}, true
	case tea.KeyPgUp:
		return []types.Action{types.NavigateAction{Direction: "pageup"}}, true
	case tea.KeyPgDown:
		return []types.Action{types.NavigateAction{Direction: "pagedown"}}, true
	case tea.KeyHome:
		return []types.Action{types.NavigateAction{Direction: "home"}}, true
	case tea.KeyEnd:
		return []types.Action{types.NavigateAction{Direction: "end"}}, true
	case tea.KeyTab, tea.KeyShiftTab:
		return []types.Action{types.SwitchTabAction{Tab: -1}}, true
	case tea.KeyCtrlP:
		return []types.Action{types.ChangeModeAction{Mode: types.ModePalette}}, true
	}

	onSearch := ctx.ActiveTab() == int(state.TabSearch)

	if msg.Type == tea.KeyEnter {
		if onSearch {
			if ctx.TotalItems() > 0 {
				return []types.Action{types.OpenDetailAction{}}, true
			}
			return []types.Action{types.ChangeModeAction{Mode: types.ModeQuery, Data: ctx.Query()}}, true
		}
		if id := ctx.CurrentItemID(); id != "" {
			return []types.Action{types.UploadItemAction{ItemID: id}}, true
		}
		return nil, false
	}

	switch msg.String() {
	case "j":
		return []types.Action{types.NavigateAction{Direction: "down"}}, true
	case "k":
		return []types.Action{types.NavigateAction{Direction: "up"}}, true
	case "1":
		return []types.Action{types.SwitchTabAction{Tab: int(state.TabUploads)}}, true
	case "2":
		return []types.Action{types.SwitchTabAction{Tab: int(state.TabSearch)}}, true
	case ":":
		return []types.Action{types.ChangeModeAction{Mode: types.ModePalette}}, true
	case "/":
		return []types.Action{types.ChangeModeAction{Mode: types.ModeQuery, Data: ctx.Query()}}, true
	case "?":
		return []types.Action{types.ToggleHelpAction{}}, true
	case "q":
		return []types.Action{types.QuitAction{Force: false}}, true
	case "g":
		if m.lastKeyWasG && time.Since(m.lastGTime) < 500*time.Millisecond {
			// gg - go to top
			m.lastKeyWasG = false
			return []types.Action{types.NavigateAction{Direction: "home"}}, true
		}
		m.lastKeyWasG = true
		m.lastGTime = time.Now()
		return nil, true
	case "G":
		m.lastKeyWasG = false
		return []types.Action{types.NavigateAction{Direction: "end"}}, true
	}
	m.lastKeyWasG = false

	if onSearch {
		return m.searchKey(msg, ctx)
	}
	return m.uploadKey(msg, ctx)
}

func (m *NormalMode) uploadKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, bool) {
	switch msg.String() {
	case "a":
		return []types.Action{types.ChangeModeAction{Mode: types.ModeAddFiles}}, true
	case "u":
		if id := ctx.CurrentItemID(); id != "" {
			return []types.Action{types.UploadItemAction{ItemID: id}}, true
		}
		return nil, true
	case "U":
		return []types.Action{types.UploadAllAction{}}, true
	case "x", "d", "delete":
		if id := ctx.CurrentItemID(); id != "" {
			return []types.Action{types.RemoveItemAction{ItemID: id}}, true
		}
		return nil, true
	case "C":
		if ctx.TotalItems() > 0 {
			return []types.Action{types.ChangeModeAction{Mode: types.ModeConfirmClear}}, true
		}
		return nil, true
	}
	return nil, false
}

func (m *NormalMode) searchKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, bool) {
	switch msg.String() {
	case "s":
		return []types.Action{types.ChangeModeAction{Mode: types.ModeQuery, Data: ctx.Query()}}, true
	case "f":
		return []types.Action{types.ChangeModeAction{Mode: types.ModeFilter}}, true
	case "F":
		return []types.Action{types.ClearFiltersAction{}}, true
	case "r":
		return []types.Action{types.SearchAction{Reset: true}}, true
	case "m", "n":
		if ctx.HasMore() {
			return []types.Action{types.LoadMoreAction{}}, true
		}
		return nil, true
	case "o":
		if ctx.TotalItems() > 0 {
			return []types.Action{types.OpenDetailAction{}}, true
		}
		return nil, true
	}
	return nil, false
}
