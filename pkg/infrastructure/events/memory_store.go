package events

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrStoreClosed is returned when appending to a closed event store
var ErrStoreClosed = errors.New("event store is closed")

// InMemoryEventStore keeps events in process memory and notifies
// subscribers asynchronously. Close waits for pending notifications.
type InMemoryEventStore struct {
	streams     map[string][]Event
	subscribers map[string][]EventHandler
	mutex       sync.RWMutex
	allEvents   []Event
	pending     sync.WaitGroup
	closed      bool
	logger      *zap.Logger
}

func NewInMemoryEventStore(logger *zap.Logger) *InMemoryEventStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventStore{
		streams:     make(map[string][]Event),
		subscribers: make(map[string][]EventHandler),
		allEvents:   make([]Event, 0),
		logger:      logger,
	}
}

var _ EventStore = (*InMemoryEventStore)(nil)

func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	stored := Versioned(event, streamID, len(s.streams[streamID])+1, nil)
	s.streams[streamID] = append(s.streams[streamID], stored)
	s.allEvents = append(s.allEvents, stored)

	handlers := s.handlersFor(stored.Type())
	s.pending.Add(len(handlers))
	for _, h := range handlers {
		go s.notify(h, stored)
	}

	return nil
}

func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	events := s.streams[streamID]
	if fromVersion < 1 {
		fromVersion = 1
	}
	if fromVersion > len(events) {
		return []Event{}, nil
	}

	result := make([]Event, len(events)-fromVersion+1)
	copy(result, events[fromVersion-1:])
	return result, nil
}

func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if fromPosition < 0 {
		fromPosition = 0
	}
	if fromPosition >= len(s.allEvents) {
		return []Event{}, nil
	}

	result := make([]Event, len(s.allEvents)-fromPosition)
	copy(result, s.allEvents[fromPosition:])
	return result, nil
}

func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}
	return nil
}

func (s *InMemoryEventStore) Unsubscribe(handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for eventType, handlers := range s.subscribers {
		kept := make([]EventHandler, 0, len(handlers))
		for _, h := range handlers {
			if h != handler {
				kept = append(kept, h)
			}
		}
		s.subscribers[eventType] = kept
	}
	return nil
}

// Close stops accepting events and blocks until every subscriber
// notification already started has returned.
func (s *InMemoryEventStore) Close() error {
	s.mutex.Lock()
	s.closed = true
	s.mutex.Unlock()

	s.pending.Wait()
	return nil
}

// handlersFor must be called with the mutex held
func (s *InMemoryEventStore) handlersFor(eventType string) []EventHandler {
	var result []EventHandler
	for _, h := range s.subscribers[eventType] {
		if h.CanHandle(eventType) {
			result = append(result, h)
		}
	}
	return result
}

func (s *InMemoryEventStore) notify(h EventHandler, e Event) {
	defer s.pending.Done()
	if err := h.Handle(e); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", e.Type()),
			zap.String("stream_id", e.StreamID()),
			zap.Error(err))
	}
}
