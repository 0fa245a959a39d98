package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/infrastructure/events"
)

// EventStore appends ledger events to the events table. Payloads are stored
// as JSON and read back as json.RawMessage. Subscribers are notified
// synchronously after the event is committed.
type EventStore struct {
	store       *Store
	logger      *zap.Logger
	mu          sync.RWMutex
	subscribers map[string][]events.EventHandler
}

var _ events.EventStore = (*EventStore)(nil)

// Events returns the event store backed by this database
func (s *Store) Events(logger *zap.Logger) *EventStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventStore{
		store:       s,
		logger:      logger,
		subscribers: make(map[string][]events.EventHandler),
	}
}

func (e *EventStore) AppendEvent(streamID string, event events.Event) error {
	payload, err := json.Marshal(event.Data())
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", event.Type(), err)
	}

	ctx := context.Background()
	var version int
	err = e.store.withTx(ctx, "append event", func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) + 1 FROM events WHERE stream_id = ?`,
			streamID).Scan(&version)
		if err != nil {
			return entities.NewPersistenceError("append event", err)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO events (stream_id, version, type, payload, created_at)
			VALUES (?, ?, ?, ?, ?)`, streamID, version, event.Type(), string(payload), formatTime(event.Timestamp()))
		return entities.NewPersistenceError("append event", err)
	})
	if err != nil {
		return err
	}

	e.notify(events.Versioned(event, streamID, version, json.RawMessage(payload)))
	return nil
}

func (e *EventStore) ReadEvents(streamID string, fromVersion int) ([]events.Event, error) {
	return e.query(`WHERE stream_id = ? AND version >= ? ORDER BY version`, streamID, fromVersion)
}

// ReadAllEvents returns events in append order, skipping the first fromPosition
func (e *EventStore) ReadAllEvents(fromPosition int) ([]events.Event, error) {
	if fromPosition < 0 {
		fromPosition = 0
	}
	return e.query(`ORDER BY position LIMIT -1 OFFSET ?`, fromPosition)
}

func (e *EventStore) Subscribe(eventTypes []string, handler events.EventHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range eventTypes {
		e.subscribers[t] = append(e.subscribers[t], handler)
	}
	return nil
}

func (e *EventStore) Unsubscribe(handler events.EventHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for t, handlers := range e.subscribers {
		kept := make([]events.EventHandler, 0, len(handlers))
		for _, h := range handlers {
			if h != handler {
				kept = append(kept, h)
			}
		}
		e.subscribers[t] = kept
	}
	return nil
}

// Close is a no-op; the database is closed by Store.Close
func (e *EventStore) Close() error {
	return nil
}

func (e *EventStore) notify(event events.Event) {
	e.mu.RLock()
	handlers := append([]events.EventHandler(nil), e.subscribers[event.Type()]...)
	e.mu.RUnlock()

	for _, h := range handlers {
		if !h.CanHandle(event.Type()) {
			continue
		}
		if err := h.Handle(event); err != nil {
			e.logger.Warn("event handler failed",
				zap.String("event_type", event.Type()),
				zap.String("stream_id", event.StreamID()),
				zap.Error(err))
		}
	}
}

func (e *EventStore) query(clause string, args ...any) ([]events.Event, error) {
	rows, err := e.store.db.QueryContext(context.Background(),
		`SELECT stream_id, version, type, payload, created_at FROM events `+clause, args...)
	if err != nil {
		return nil, entities.NewPersistenceError("read events", err)
	}
	defer rows.Close()

	result := []events.Event{}
	for rows.Next() {
		var (
			streamID, eventType, payload, createdAt string
			version                                 int
		)
		if err := rows.Scan(&streamID, &version, &eventType, &payload, &createdAt); err != nil {
			return nil, entities.NewPersistenceError("read events", err)
		}
		at, err := parseTime(createdAt)
		if err != nil {
			return nil, entities.NewPersistenceError("read events", err)
		}
		result = append(result, events.BaseEvent{
			EventType:    eventType,
			Stream:       streamID,
			EventData:    json.RawMessage(payload),
			EventTime:    at,
			EventVersion: version,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, entities.NewPersistenceError("read events", err)
	}
	return result, nil
}
