package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/domain/repositories"
	domain "github.com/copropiedad/ledger/pkg/domain/services"
	"github.com/copropiedad/ledger/pkg/infrastructure/events"
)

// Deps collects the collaborators shared by the application services
type Deps struct {
	Properties  repositories.PropertyRepository
	Owners      repositories.OwnerRepository
	Agents      repositories.AgentRepository
	Assignments repositories.AssignmentRepository
	Invoices    repositories.InvoiceRepository
	Events      events.EventStore
	Ledger      *domain.ShareLedger
	Logger      *zap.Logger

	// PropertyStore is read before a property is modified. When Properties is
	// a cache, set this to the store underneath; it defaults to Properties.
	PropertyStore repositories.PropertyRepository

	// Now and NewID default to the wall clock and random UUIDs
	Now   func() time.Time
	NewID func() string
}

func (d Deps) withDefaults() Deps {
	if d.PropertyStore == nil {
		d.PropertyStore = d.Properties
	}
	if d.Ledger == nil {
		d.Ledger = domain.NewShareLedger()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewID == nil {
		d.NewID = func() string { return uuid.NewString() }
	}
	return d
}

// storeError passes domain and persistence errors through and wraps
// anything else coming back from a store as a PersistenceError.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *entities.PersistenceError
	if errors.As(err, &pe) || entities.IsDomainError(err) {
		return err
	}
	return entities.NewPersistenceError(op, err)
}

// recordEvent appends to the audit trail. The state change it describes is
// already committed, so a failure is logged rather than returned.
func recordEvent(deps Deps, logger *zap.Logger, event events.Event) {
	if deps.Events == nil {
		return
	}
	event = events.Stamped(event, deps.Now())
	if err := deps.Events.AppendEvent(event.StreamID(), event); err != nil {
		logger.Error("failed to record event",
			zap.String("event_type", event.Type()),
			zap.String("stream_id", event.StreamID()),
			zap.Error(err))
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, entities.ErrPropertyNotFound) ||
		errors.Is(err, entities.ErrOwnerNotFound) ||
		errors.Is(err, entities.ErrAgentNotFound) ||
		errors.Is(err, entities.ErrInvoiceNotFound)
}
