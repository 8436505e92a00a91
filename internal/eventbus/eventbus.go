package eventbus

import (
	"runtime/debug"
	"sync"

	log "github.com/sirupsen/logrus"

	"courier/internal/domain"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Event type constants
const (
	EventFilesSelected      = domain.EventFilesSelected
	EventUploadStarted      = domain.EventUploadStarted
	EventUploadProgress     = domain.EventUploadProgress
	EventUploadCompleted    = domain.EventUploadCompleted
	EventUploadFailed       = domain.EventUploadFailed
	EventItemRemoved        = domain.EventItemRemoved
	EventQueueCleared       = domain.EventQueueCleared
	EventSuggestionsUpdated = domain.EventSuggestionsUpdated
	EventSuggestionsFailed  = domain.EventSuggestionsFailed
	EventSearchStarted      = domain.EventSearchStarted
	EventSearchCompleted    = domain.EventSearchCompleted
	EventSearchFailed       = domain.EventSearchFailed
	EventRecentUpdated      = domain.EventRecentUpdated
	EventError              = domain.EventError
	EventConfigLoaded       = domain.EventConfigLoaded
	EventConfigSaved        = domain.EventConfigSaved
)

// UploadEvents are the event types published by the upload queue
var UploadEvents = []EventType{
	EventFilesSelected,
	EventUploadStarted,
	EventUploadProgress,
	EventUploadCompleted,
	EventUploadFailed,
	EventItemRemoved,
	EventQueueCleared,
}

// SearchEvents are the event types published by the search session
var SearchEvents = []EventType{
	EventSuggestionsUpdated,
	EventSuggestionsFailed,
	EventSearchStarted,
	EventSearchCompleted,
	EventSearchFailed,
	EventRecentUpdated,
}

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus
type EventBus interface {
	Publish(event DomainEvent)
	Subscribe(eventType EventType, handler EventHandler) func()
	Close()
}

type subscription struct {
	id      uint64
	handler EventHandler
}

// bus is the concrete implementation of EventBus.
// Events are delivered in publish order by a single dispatcher goroutine.
type bus struct {
	mu        sync.RWMutex
	handlers  map[EventType][]subscription
	nextID    uint64
	eventChan chan DomainEvent
	wg        sync.WaitGroup
	quit      chan struct{}
	closeOnce sync.Once
}

// New creates a new event bus
func New() EventBus {
	b := &bus{
		handlers:  make(map[EventType][]subscription),
		eventChan: make(chan DomainEvent, 1000),
		quit:      make(chan struct{}),
	}

	b.wg.Add(1)
	go b.dispatch()

	return b
}

// Publish queues an event for delivery; it never blocks
func (b *bus) Publish(event DomainEvent) {
	switch event.Type() {
	case EventUploadProgress:
		// too frequent for info level
		log.Debugf("EventBus: publishing %s", event.Type())
	default:
		log.Printf("EventBus: publishing %s", event.Type())
	}

	select {
	case <-b.quit:
		return
	default:
	}

	select {
	case b.eventChan <- event:
	default:
		log.Warnf("Event bus channel full, dropping event: %v", event.Type())
	}
}

// Subscribe subscribes to events of a specific type.
// Returns an unsubscribe function.
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Close stops the dispatcher after delivering already queued events
func (b *bus) Close() {
	b.closeOnce.Do(func() {
		close(b.quit)
	})
	b.wg.Wait()
}

func (b *bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventChan:
			b.deliver(event)

		case <-b.quit:
			for {
				select {
				case event := <-b.eventChan:
					b.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (b *bus) deliver(event DomainEvent) {
	b.mu.RLock()
	subs := make([]subscription, len(b.handlers[event.Type()]))
	copy(subs, b.handlers[event.Type()])
	b.mu.RUnlock()

	for _, s := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("Event handler panic for %s: %v\nStack: %s", event.Type(), r, debug.Stack())
				}
			}()
			s.handler(event)
		}()
	}
}

// Nop is an EventBus that drops every event
type Nop struct{}

func (Nop) Publish(DomainEvent) {}
func (Nop) Subscribe(EventType, EventHandler) func() { return func() {} }
func (Nop) Close() {}
