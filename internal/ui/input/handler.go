package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"courier/internal/ui/input/modes"
	"courier/internal/ui/input/types"
)

type Handler struct {
	currentMode types.Mode
	modes       map[types.Mode]types.ModeHandler
	textInput   *textinput.Model // Shared text input for text modes
}

func New() *Handler {
	ti := textinput.New()
	ti.CharLimit = 512

	h := &Handler{
		currentMode: types.ModeNormal,
		textInput:   &ti,
		modes:       make(map[types.Mode]types.ModeHandler),
	}

	// Register all mode handlers
	h.modes[types.ModeNormal] = modes.NewNormalMode()
	h.modes[types.ModeAddFiles] = modes.NewAddFilesMode(h.textInput)
	h.modes[types.ModeQuery] = modes.NewQueryMode(h.textInput)
	h.modes[types.ModeFilter] = modes.NewFilterMode(h.textInput)
	h.modes[types.ModePalette] = modes.NewPaletteMode(h.textInput)
	h.modes[types.ModeConfirmClear] = modes.NewConfirmMode()

	return h
}

func (h *Handler) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, tea.Cmd) {
	handler := h.modes[h.currentMode]
	if handler == nil {
		return nil, nil
	}

	actions, consumed := handler.HandleKey(msg, ctx)

	if !consumed && !h.isTextMode(h.currentMode) {
		return actions, nil
	}

	var cmd tea.Cmd
	var allActions []types.Action
	modeChanged := false

	for _, action := range actions {
		changeMode, ok := action.(types.ChangeModeAction)
		if !ok {
			allActions = append(allActions, action)
			continue
		}
		modeChanged = true
		allActions = append(allActions, h.switchMode(changeMode, ctx)...)
		if h.isTextMode(h.currentMode) {
			cmd = textinput.Blink
		}
		// Keep the change visible to the model for status/prompt updates
		allActions = append(allActions, changeMode)
	}

	// Keys the text mode did not claim go to the shared input
	if !modeChanged && !consumed && h.isTextMode(h.currentMode) {
		var textCmd tea.Cmd
		*h.textInput, textCmd = h.textInput.Update(msg)
		cmd = textCmd
		allActions = append(allActions, types.UpdateTextAction{Text: h.textInput.Value(), Mode: h.currentMode})
	}

	return allActions, cmd
}

func (h *Handler) switchMode(change types.ChangeModeAction, ctx types.Context) []types.Action {
	var actions []types.Action
	if current := h.modes[h.currentMode]; current != nil {
		actions = append(actions, current.Exit(ctx)...)
	}

	h.currentMode = change.Mode

	if next := h.modes[h.currentMode]; next != nil {
		actions = append(actions, next.Enter(ctx)...)
	}
	if h.isTextMode(h.currentMode) {
		h.textInput.SetValue(change.Data)
		h.textInput.CursorEnd()
		h.textInput.Focus()
	} else {
		h.textInput.Blur()
	}
	return actions
}

// ChangeMode switches modes outside of key handling, e.g. from a palette
// command that opens a prompt
func (h *Handler) ChangeMode(mode types.Mode, data string, ctx types.Context) ([]types.Action, tea.Cmd) {
	actions := h.switchMode(types.ChangeModeAction{Mode: mode, Data: data}, ctx)
	if h.isTextMode(mode) {
		return actions, textinput.Blink
	}
	return actions, nil
}

func (h *Handler) CurrentMode() types.Mode {
	if h == nil {
		return types.ModeNormal
	}
	return h.currentMode
}

// ModeName returns the display name of the current mode
func (h *Handler) ModeName() string {
	if m := h.modes[h.currentMode]; m != nil {
		return m.Name()
	}
	return ""
}

// TextInput returns the shared input while a text mode is active
func (h *Handler) TextInput() *textinput.Model {
	if h.isTextMode(h.currentMode) {
		return h.textInput
	}
	return nil
}

// SuggestionHighlight returns the highlighted suggestion while editing a query
func (h *Handler) SuggestionHighlight() int {
	if h.currentMode != types.ModeQuery {
		return -1
	}
	if q, ok := h.modes[types.ModeQuery].(*modes.QueryMode); ok {
		return q.Highlight()
	}
	return -1
}

func (h *Handler) isTextMode(mode types.Mode) bool {
	switch mode {
	case types.ModeAddFiles, types.ModeQuery, types.ModeFilter, types.ModePalette:
		return true
	default:
		return false
	}
}

// IsTextMode reports whether the current mode edits text
func (h *Handler) IsTextMode() bool {
	return h.isTextMode(h.currentMode)
}

func (h *Handler) Reset() {
	h.currentMode = types.ModeNormal
	h.textInput.Reset()
	h.textInput.Blur()
}

// Update handles non-keyboard messages for text input
func (h *Handler) Update(msg tea.Msg) tea.Cmd {
	if h.isTextMode(h.currentMode) {
		var cmd tea.Cmd
		*h.textInput, cmd = h.textInput.Update(msg)
		return cmd
	}
	return nil
}
