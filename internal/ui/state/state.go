package state

import (
	"maps"

	"courier/internal/domain"
	"courier/internal/search"
)

// Tab identifies one of the top-level screens
type Tab int

const (
	TabUploads Tab = iota
	TabSearch
)

func (t Tab) String() string {
	switch t {
	case TabSearch:
		return "Search"
	default:
		return "Uploads"
	}
}

// AppState contains all the UI state. Queue and session contents are
// snapshots refreshed after every event; the UI never mutates them.
type AppState struct {
	ActiveTab Tab

	// Upload queue
	Uploads     []domain.UploadItem
	UploadIndex int
	Rejected    map[string]string // rejections of the latest selection
	Dropped     int

	// Search session
	Search          search.State
	ResultIndex     int
	SuggestionIndex int // -1 when no suggestion is highlighted

	// Command palette
	PaletteIndex int

	// UI state
	ViewportOffset int
	ViewportHeight int
	StatusMessage  string
	StatusIsError  bool
	ShowPopup      bool
	PopupTitle     string
	PopupContent   string
}

// NewAppState creates a new application state
func NewAppState() *AppState {
	return &AppState{
		Rejected:        make(map[string]string),
		SuggestionIndex: -1,
		ViewportHeight:  20,
	}
}

// SetUploads replaces the queue snapshot and keeps the cursor in range
func (s *AppState) SetUploads(items []domain.UploadItem) {
	s.Uploads = items
	s.UploadIndex = clamp(s.UploadIndex, len(items))
}

// SetSearch replaces the session snapshot and keeps the cursors in range
func (s *AppState) SetSearch(st search.State) {
	s.Search = st
	s.ResultIndex = clamp(s.ResultIndex, len(st.Results))
	if s.SuggestionIndex >= len(st.Suggestions) {
		s.SuggestionIndex = -1
	}
}

// SetRejected records the rejections of the latest selection
func (s *AppState) SetRejected(rejected map[string]string, dropped int) {
	s.Rejected = maps.Clone(rejected)
	if s.Rejected == nil {
		s.Rejected = make(map[string]string)
	}
	s.Dropped = dropped
}

// CurrentUpload returns the item under the cursor
func (s *AppState) CurrentUpload() (domain.UploadItem, bool) {
	if s.UploadIndex < 0 || s.UploadIndex >= len(s.Uploads) {
		return domain.UploadItem{}, false
	}
	return s.Uploads[s.UploadIndex], true
}

// CurrentResult returns the search result under the cursor
func (s *AppState) CurrentResult() (domain.Result, bool) {
	if s.ResultIndex < 0 || s.ResultIndex >= len(s.Search.Results) {
		return nil, false
	}
	return s.Search.Results[s.ResultIndex], true
}

// CurrentSuggestion returns the highlighted suggestion
func (s *AppState) CurrentSuggestion() (string, bool) {
	if s.SuggestionIndex < 0 || s.SuggestionIndex >= len(s.Search.Suggestions) {
		return "", false
	}
	return s.Search.Suggestions[s.SuggestionIndex], true
}

// SelectedIndex returns the cursor of the active tab
func (s *AppState) SelectedIndex() int {
	if s.ActiveTab == TabSearch {
		return s.ResultIndex
	}
	return s.UploadIndex
}

// ItemCount returns the number of rows on the active tab
func (s *AppState) ItemCount() int {
	if s.ActiveTab == TabSearch {
		return len(s.Search.Results)
	}
	return len(s.Uploads)
}

// MoveSelection moves the cursor of the active tab by delta rows and
// keeps it within the viewport
func (s *AppState) MoveSelection(delta int) {
	s.SetSelection(s.SelectedIndex() + delta)
}

// SetSelection places the cursor of the active tab at index
func (s *AppState) SetSelection(index int) {
	index = clamp(index, s.ItemCount())
	if s.ActiveTab == TabSearch {
		s.ResultIndex = index
	} else {
		s.UploadIndex = index
	}
	s.EnsureVisible()
}

// EnsureVisible scrolls the viewport so the cursor is on screen
func (s *AppState) EnsureVisible() {
	idx := s.SelectedIndex()
	height := max(s.ViewportHeight, 1)
	if idx < s.ViewportOffset {
		s.ViewportOffset = idx
	} else if idx >= s.ViewportOffset+height {
		s.ViewportOffset = idx - height + 1
	}
	s.ViewportOffset = max(s.ViewportOffset, 0)
}

// SwitchTab activates tab and resets the viewport
func (s *AppState) SwitchTab(tab Tab) {
	if s.ActiveTab == tab {
		return
	}
	s.ActiveTab = tab
	s.ViewportOffset = 0
	s.EnsureVisible()
}

// SetStatus shows an informational message in the status bar
func (s *AppState) SetStatus(msg string) {
	s.StatusMessage = msg
	s.StatusIsError = false
}

// SetError shows an error message in the status bar
func (s *AppState) SetError(msg string) {
	s.StatusMessage = msg
	s.StatusIsError = true
}

// ClearStatus clears the status bar
func (s *AppState) ClearStatus() {
	s.StatusMessage = ""
	s.StatusIsError = false
}

// OpenPopup shows content in an in-app popup
func (s *AppState) OpenPopup(title, content string) {
	s.ShowPopup = true
	s.PopupTitle = title
	s.PopupContent = content
}

// ClosePopup hides the popup
func (s *AppState) ClosePopup() {
	s.ShowPopup = false
	s.PopupTitle = ""
	s.PopupContent = ""
}

func clamp(index, n int) int {
	if n == 0 {
		return 0
	}
	return min(max(index, 0), n-1)
}
