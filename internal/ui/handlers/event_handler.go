package handlers

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"courier/internal/domain"
	"courier/internal/eventbus"
	"courier/internal/ui/state"
)

// EventHandler handles domain events and updates state
type EventHandler struct {
	state   *state.AppState
	refresh func()
}

// NewEventHandler creates a new event handler. refresh copies the queue
// and session snapshots into the state and runs before every event.
func NewEventHandler(appState *state.AppState, refresh func()) *EventHandler {
	return &EventHandler{
		state:   appState,
		refresh: refresh,
	}
}

// HandleEvent processes domain events and returns any necessary commands
func (h *EventHandler) HandleEvent(event eventbus.DomainEvent) tea.Cmd {
	if h.refresh != nil {
		h.refresh()
	}

	switch e := event.(type) {
	case domain.FilesSelectedEvent:
		// rejections and counts arrive with the selecting command's result

	case domain.UploadStartedEvent:
		h.state.SetStatus(fmt.Sprintf("Uploading %s...", h.itemName(e.ItemID)))

	case domain.UploadCompletedEvent:
		h.state.SetStatus(fmt.Sprintf("Uploaded %s", h.itemName(e.ItemID)))

	case domain.UploadFailedEvent:
		h.state.SetError(fmt.Sprintf("Upload of %s failed: %s", h.itemName(e.ItemID), e.Reason))

	case domain.ItemRemovedEvent:
		// status is set by the command that removed it

	case domain.QueueClearedEvent:
		h.state.SetRejected(nil, 0)

	case domain.SearchStartedEvent:
		if e.Reset {
			h.state.ResultIndex = 0
			h.state.ViewportOffset = 0
			h.state.SetStatus(fmt.Sprintf("Searching for %q...", e.Query))
		}

	case domain.SearchFailedEvent:
		h.state.SetError(fmt.Sprintf("Search failed: %v", e.Err))

	case domain.SuggestionsFailedEvent:
		h.state.SetError(fmt.Sprintf("Suggestions unavailable: %v", e.Err))

	case domain.RecentUpdatedEvent:
		// list is re-rendered from the snapshot

	case domain.ErrorEvent:
		h.state.SetError(fmt.Sprintf("Error: %s", e.Message))
	}

	return nil
}

func (h *EventHandler) itemName(id string) string {
	for _, item := range h.state.Uploads {
		if item.ID == id {
			return item.File.Name
		}
	}
	return id
}
