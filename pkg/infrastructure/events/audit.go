package events

import (
	"go.uber.org/zap"
)

// AuditLog writes every stored event to a logger
type AuditLog struct {
	logger *zap.Logger
}

var _ EventHandler = (*AuditLog)(nil)

func NewAuditLog(logger *zap.Logger) *AuditLog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditLog{logger: logger}
}

func (a *AuditLog) Handle(event Event) error {
	a.logger.Info("ledger event",
		zap.String("event_type", event.Type()),
		zap.String("stream_id", event.StreamID()),
		zap.Int("version", event.Version()),
		zap.Time("at", event.Timestamp()))
	return nil
}

// CanHandle accepts every ledger event type
func (a *AuditLog) CanHandle(eventType string) bool {
	for _, t := range AllEventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}

// Attach subscribes the audit log to every ledger event type in store
func (a *AuditLog) Attach(store EventStore) error {
	return store.Subscribe(AllEventTypes, a)
}
