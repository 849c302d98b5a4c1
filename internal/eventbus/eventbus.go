package eventbus

import (
	"log"
	"runtime/debug"
	"sync"

	"autoa/internal/domain"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Event type constants
const (
	EventLogAppended     = domain.EventLogAppended
	EventProgressUpdated = domain.EventProgressUpdated
	EventStepChanged     = domain.EventStepChanged
	EventRunStarted      = domain.EventRunStarted
	EventRunFinished     = domain.EventRunFinished
	EventSectionReport   = domain.EventSectionReport
	EventContactHandled  = domain.EventContactHandled
	EventScreenshotSaved = domain.EventScreenshotSaved
	EventChecksCompleted = domain.EventChecksCompleted
	EventError           = domain.EventError
)

// Re-export domain event types
type LogAppendedEvent = domain.LogAppendedEvent
type ProgressUpdatedEvent = domain.ProgressUpdatedEvent
type StepChangedEvent = domain.StepChangedEvent
type RunStartedEvent = domain.RunStartedEvent
type RunFinishedEvent = domain.RunFinishedEvent
type SectionReportEvent = domain.SectionReportEvent
type ContactHandledEvent = domain.ContactHandledEvent
type ScreenshotSavedEvent = domain.ScreenshotSavedEvent
type ChecksCompletedEvent = domain.ChecksCompletedEvent
type ErrorEvent = domain.ErrorEvent

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus. Publish never blocks the
// caller: the worker posts log lines and progress without waiting for the
// interactive surface to consume them.
type EventBus interface {
	Publish(event DomainEvent)
	Subscribe(eventType EventType, handler EventHandler) func()
}

// bus is the concrete implementation of EventBus
type bus struct {
	mu        sync.RWMutex
	handlers  map[EventType][]EventHandler
	eventChan chan DomainEvent
	wg        sync.WaitGroup
	quit      chan struct{}
}

// New creates a new event bus
func New() EventBus {
	b := &bus{
		handlers:  make(map[EventType][]EventHandler),
		eventChan: make(chan DomainEvent, 1000),
		quit:      make(chan struct{}),
	}

	// Start the event dispatcher
	b.wg.Add(1)
	go b.dispatch()

	return b
}

// Publish publishes an event to all subscribers
func (b *bus) Publish(event DomainEvent) {
	select {
	case b.eventChan <- event:
		// Event sent successfully
	default:
		// Channel full, log and drop
		log.Printf("Event bus channel full, dropping event: %v", event.Type())
	}
}

// Subscribe subscribes to events of a specific type
// Returns an unsubscribe function
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	index := len(b.handlers[eventType]) - 1

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		handlers := b.handlers[eventType]
		if index < len(handlers) {
			b.handlers[eventType] = append(handlers[:index], handlers[index+1:]...)
		}
	}
}

// dispatch handles event distribution to subscribers
func (b *bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventChan:
			b.mu.RLock()
			handlers := b.handlers[event.Type()]
			handlersCopy := make([]EventHandler, len(handlers))
			copy(handlersCopy, handlers)
			b.mu.RUnlock()

			// Handlers run inline so log/progress events keep their order;
			// a panicking handler must not take the dispatcher down.
			for _, handler := range handlersCopy {
				func(h EventHandler, eventType EventType) {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("Event handler panic for %s: %v\nStack: %s", eventType, r, debug.Stack())
						}
					}()
					h(event)
				}(handler, event.Type())
			}

		case <-b.quit:
			// Drain remaining events
			for {
				select {
				case <-b.eventChan:
					// Discard event
				default:
					return
				}
			}
		}
	}
}
