package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventFilesSelected      EventType = "FilesSelected"
	EventUploadStarted      EventType = "UploadStarted"
	EventUploadProgress     EventType = "UploadProgress"
	EventUploadCompleted    EventType = "UploadCompleted"
	EventUploadFailed       EventType = "UploadFailed"
	EventItemRemoved        EventType = "ItemRemoved"
	EventQueueCleared       EventType = "QueueCleared"
	EventSuggestionsUpdated EventType = "SuggestionsUpdated"
	EventSuggestionsFailed  EventType = "SuggestionsFailed"
	EventSearchStarted      EventType = "SearchStarted"
	EventSearchCompleted    EventType = "SearchCompleted"
	EventSearchFailed       EventType = "SearchFailed"
	EventRecentUpdated      EventType = "RecentUpdated"
	EventError              EventType = "Error"
	EventConfigLoaded       EventType = "ConfigLoaded"
	EventConfigSaved        EventType = "ConfigSaved"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// FilesSelectedEvent is emitted after a selection has been committed to the queue
type FilesSelectedEvent struct {
	Items    []UploadItem
	Rejected map[string]string // file key -> reason
	Dropped  int               // accepted files truncated by the capacity limit
}

func (e FilesSelectedEvent) Type() EventType { return EventFilesSelected }

// UploadStartedEvent is emitted when an item transitions into uploading
type UploadStartedEvent struct {
	ItemID  string
	Attempt int
}

func (e UploadStartedEvent) Type() EventType { return EventUploadStarted }

// UploadProgressEvent is emitted for every accepted progress notification
type UploadProgressEvent struct {
	ItemID  string
	Percent int
}

func (e UploadProgressEvent) Type() EventType { return EventUploadProgress }

// UploadCompletedEvent is emitted when an item reaches uploaded
type UploadCompletedEvent struct {
	ItemID    string
	RemoteURL string
}

func (e UploadCompletedEvent) Type() EventType { return EventUploadCompleted }

// UploadFailedEvent is emitted when an upload attempt fails
type UploadFailedEvent struct {
	ItemID string
	Reason string
}

func (e UploadFailedEvent) Type() EventType { return EventUploadFailed }

// ItemRemovedEvent is emitted when an item leaves the queue
type ItemRemovedEvent struct {
	ItemID string
}

func (e ItemRemovedEvent) Type() EventType { return EventItemRemoved }

// QueueClearedEvent is emitted when the queue is emptied
type QueueClearedEvent struct {
	Removed int
}

func (e QueueClearedEvent) Type() EventType { return EventQueueCleared }

// SuggestionsUpdatedEvent is emitted when the suggestion list is replaced
type SuggestionsUpdatedEvent struct {
	Query       string
	Suggestions []string
}

func (e SuggestionsUpdatedEvent) Type() EventType { return EventSuggestionsUpdated }

// SuggestionsFailedEvent is emitted when a suggestion lookup fails
type SuggestionsFailedEvent struct {
	Query string
	Err   error
}

func (e SuggestionsFailedEvent) Type() EventType { return EventSuggestionsFailed }

// SearchStartedEvent is emitted when a full search request is issued
type SearchStartedEvent struct {
	Query string
	Page  int
	Reset bool
}

func (e SearchStartedEvent) Type() EventType { return EventSearchStarted }

// SearchCompletedEvent is emitted when a page of results has been applied
type SearchCompletedEvent struct {
	Query   string
	Page    int
	Added   int
	Total   int
	HasMore bool
}

func (e SearchCompletedEvent) Type() EventType { return EventSearchCompleted }

// SearchFailedEvent is emitted when a search request fails
type SearchFailedEvent struct {
	Query string
	Page  int
	Err   error
}

func (e SearchFailedEvent) Type() EventType { return EventSearchFailed }

// RecentUpdatedEvent is emitted when the recent-query list changes
type RecentUpdatedEvent struct {
	Recent []string
}

func (e RecentUpdatedEvent) Type() EventType { return EventRecentUpdated }

// ErrorEvent is emitted when an error occurs
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Path string
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is saved
type ConfigSavedEvent struct {
	Path string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }
