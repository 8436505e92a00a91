package types

// Navigation actions
type NavigateAction struct {
	Direction string // "up", "down", "pageup", "pagedown", "home", "end"
}

func (a NavigateAction) Type() string { return "navigate" }

type SwitchTabAction struct {
	Tab int // -1 cycles to the next tab
}

func (a SwitchTabAction) Type() string { return "switch_tab" }

// Mode transition actions
type ChangeModeAction struct {
	Mode Mode
	Data string // initial text for text modes
}

func (a ChangeModeAction) Type() string { return "change_mode" }

// Text input actions
type UpdateTextAction struct {
	Text string
	Mode Mode
}

func (a UpdateTextAction) Type() string { return "update_text" }

type SubmitTextAction struct {
	Text string
	Mode Mode // Which mode submitted the text
}

func (a SubmitTextAction) Type() string { return "submit_text" }

type CancelTextAction struct {
	Mode Mode
}

func (a CancelTextAction) Type() string { return "cancel_text" }

// Upload actions
type UploadItemAction struct {
	ItemID string
}

func (a UploadItemAction) Type() string { return "upload_item" }

type UploadAllAction struct{}

func (a UploadAllAction) Type() string { return "upload_all" }

type RemoveItemAction struct {
	ItemID string
}

func (a RemoveItemAction) Type() string { return "remove_item" }

type ClearQueueAction struct{}

func (a ClearQueueAction) Type() string { return "clear_queue" }

// Search actions
type SearchAction struct {
	Reset bool
}

func (a SearchAction) Type() string { return "search" }

type LoadMoreAction struct{}

func (a LoadMoreAction) Type() string { return "load_more" }

type ClearFiltersAction struct{}

func (a ClearFiltersAction) Type() string { return "clear_filters" }

type ClearRecentAction struct{}

func (a ClearRecentAction) Type() string { return "clear_recent" }

type PurgeSuggestionsAction struct{}

func (a PurgeSuggestionsAction) Type() string { return "purge_suggestions" }

type HighlightSuggestionAction struct {
	Index int // -1 clears the highlight
}

func (a HighlightSuggestionAction) Type() string { return "highlight_suggestion" }

type UpdatePaletteIndexAction struct {
	Index int
}

func (a UpdatePaletteIndexAction) Type() string { return "update_palette_index" }

type RunCommandAction struct {
	Name string
}

func (a RunCommandAction) Type() string { return "run_command" }

// View actions
type OpenDetailAction struct{}

func (a OpenDetailAction) Type() string { return "open_detail" }

type ToggleHelpAction struct{}

func (a ToggleHelpAction) Type() string { return "toggle_help" }

type ClosePopupAction struct{}

func (a ClosePopupAction) Type() string { return "close_popup" }

type QuitAction struct {
	Force bool // true for Ctrl+C, false for 'q'
}

func (a QuitAction) Type() string { return "quit" }
