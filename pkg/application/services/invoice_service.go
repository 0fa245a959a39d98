package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/copropiedad/ledger/pkg/application/dto"
	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/domain/repositories"
	"github.com/copropiedad/ledger/pkg/infrastructure/events"
)

// CreateInvoiceInput describes a new invoice. ID and Number are generated
// when empty, Date defaults to today and Period to the month of Date.
type CreateInvoiceInput struct {
	ID         entities.InvoiceID
	Number     string
	OwnerID    entities.OwnerID
	PropertyID entities.PropertyID
	Date       time.Time
	Period     entities.BillingPeriod
	Amount     entities.Money
	Type       entities.InvoiceType
	Notes      string
}

// InvoiceStatusChange sets the bank status, the payment status or both
type InvoiceStatusChange struct {
	Bank    *entities.BankStatus
	Payment *entities.PaymentStatus
}

// InvoiceService bills owners for the properties they hold shares in
type InvoiceService struct {
	deps   Deps
	logger *zap.Logger
}

func NewInvoiceService(deps Deps) *InvoiceService {
	deps = deps.withDefaults()
	return &InvoiceService{deps: deps, logger: deps.Logger.Named("invoices")}
}

// CreateInvoice bills an owner for one property and month. The owner must
// hold at least one share of the property.
func (s *InvoiceService) CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*dto.InvoiceView, error) {
	owner, err := s.deps.Owners.FindByID(ctx, in.OwnerID)
	if err != nil {
		return nil, storeError("find owner", err)
	}
	property, err := s.deps.Properties.FindByID(ctx, in.PropertyID)
	if err != nil {
		return nil, storeError("find property", err)
	}
	if err := s.checkShareholder(ctx, in.OwnerID, in.PropertyID); err != nil {
		return nil, err
	}

	now := s.deps.Now()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	period := in.Period
	if period == (entities.BillingPeriod{}) {
		period = entities.BillingPeriod{Year: date.Year(), Month: date.Month()}
	}

	id := in.ID
	if id == "" {
		id = entities.InvoiceID(s.deps.NewID())
	}
	number := in.Number
	if strings.TrimSpace(number) == "" {
		number = s.invoiceNumber(period)
	}

	invoice, err := entities.NewInvoice(id, number, in.OwnerID, in.PropertyID, period, in.Amount, in.Type)
	if err != nil {
		return nil, err
	}
	invoice.Date = date
	invoice.Notes = in.Notes
	invoice.CreatedAt = now
	invoice.UpdatedAt = now

	if err := s.deps.Invoices.Save(ctx, invoice); err != nil {
		return nil, storeError("save invoice", err)
	}
	s.logger.Info("invoice created",
		zap.String("invoice_id", string(invoice.ID)),
		zap.String("number", invoice.Number),
		zap.String("owner_id", string(invoice.OwnerID)),
		zap.String("property_id", string(invoice.PropertyID)),
		zap.Stringer("amount", invoice.Amount))
	recordEvent(s.deps, s.logger, events.NewInvoiceCreatedEvent(*invoice))

	return &dto.InvoiceView{Invoice: invoice, OwnerName: owner.FullName(), PropertyName: property.Name}, nil
}

func (s *InvoiceService) GetInvoice(ctx context.Context, id entities.InvoiceID) (*dto.InvoiceView, error) {
	invoice, err := s.deps.Invoices.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("find invoice", err)
	}
	return s.view(ctx, invoice)
}

// ListInvoices returns matching invoices, newest first
func (s *InvoiceService) ListInvoices(ctx context.Context, filter repositories.InvoiceFilter) ([]*dto.InvoiceView, error) {
	invoices, err := s.deps.Invoices.FindAll(ctx, filter)
	if err != nil {
		return nil, storeError("list invoices", err)
	}
	result := make([]*dto.InvoiceView, 0, len(invoices))
	for _, inv := range invoices {
		v, err := s.view(ctx, inv)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

// MarkInvoice updates the bank and payment statuses. Setting a status to its
// current value is a no-op and records nothing.
func (s *InvoiceService) MarkInvoice(ctx context.Context, id entities.InvoiceID, change InvoiceStatusChange) (*dto.InvoiceView, error) {
	if change.Bank == nil && change.Payment == nil {
		return nil, fmt.Errorf("%w: no status to change", entities.ErrInvalidInvoice)
	}
	if change.Bank != nil && !change.Bank.Valid() {
		return nil, fmt.Errorf("%w: bank status %d", entities.ErrInvalidInvoice, int(*change.Bank))
	}
	if change.Payment != nil && !change.Payment.Valid() {
		return nil, fmt.Errorf("%w: payment status %d", entities.ErrInvalidInvoice, int(*change.Payment))
	}

	invoice, err := s.deps.Invoices.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("find invoice", err)
	}
	before := *invoice
	if change.Bank != nil {
		invoice.BankStatus = *change.Bank
	}
	if change.Payment != nil {
		invoice.PaymentStatus = *change.Payment
	}
	if invoice.BankStatus == before.BankStatus && invoice.PaymentStatus == before.PaymentStatus {
		return s.view(ctx, invoice)
	}

	invoice.UpdatedAt = s.deps.Now()
	if err := s.deps.Invoices.Update(ctx, invoice); err != nil {
		return nil, storeError("update invoice", err)
	}
	s.logger.Info("invoice status changed",
		zap.String("invoice_id", string(id)),
		zap.Stringer("bank_status", invoice.BankStatus),
		zap.Stringer("payment_status", invoice.PaymentStatus))
	recordEvent(s.deps, s.logger, events.NewInvoiceStatusChangedEvent(before, *invoice))
	return s.view(ctx, invoice)
}

func (s *InvoiceService) DeleteInvoice(ctx context.Context, id entities.InvoiceID) error {
	invoice, err := s.deps.Invoices.FindByID(ctx, id)
	if err != nil {
		return storeError("find invoice", err)
	}
	if err := s.deps.Invoices.Delete(ctx, id); err != nil {
		return storeError("delete invoice", err)
	}
	s.logger.Info("invoice deleted", zap.String("invoice_id", string(id)), zap.String("number", invoice.Number))
	recordEvent(s.deps, s.logger, events.NewInvoiceDeletedEvent(*invoice))
	return nil
}

// History returns the recorded events of an invoice, oldest first
func (s *InvoiceService) History(ctx context.Context, id entities.InvoiceID) ([]events.Event, error) {
	if s.deps.Events == nil {
		return []events.Event{}, nil
	}
	history, err := s.deps.Events.ReadEvents(string(id), 1)
	if err != nil {
		return nil, storeError("read history", err)
	}
	return history, nil
}

func (s *InvoiceService) checkShareholder(ctx context.Context, ownerID entities.OwnerID, propertyID entities.PropertyID) error {
	held, err := s.deps.Assignments.FindByProperty(ctx, propertyID)
	if err != nil {
		return storeError("find assignments", err)
	}
	for _, a := range held {
		if a.OwnerID == ownerID {
			return nil
		}
	}
	return fmt.Errorf("%w: %s in %s", entities.ErrOwnerNotShareholder, ownerID, propertyID)
}

// invoiceNumber renders INV-YYYYMM-XXXXXXXX from the period and a fresh id
func (s *InvoiceService) invoiceNumber(period entities.BillingPeriod) string {
	suffix := strings.ToUpper(strings.ReplaceAll(s.deps.NewID(), "-", ""))
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("INV-%04d%02d-%s", period.Year, int(period.Month), suffix)
}

// view resolves owner and property names. Invoices outlive the records they
// refer to, so missing ones leave the name empty.
func (s *InvoiceService) view(ctx context.Context, invoice *entities.Invoice) (*dto.InvoiceView, error) {
	v := &dto.InvoiceView{Invoice: invoice}
	if owner, err := s.deps.Owners.FindByID(ctx, invoice.OwnerID); err == nil {
		v.OwnerName = owner.FullName()
	} else if !isNotFound(err) {
		return nil, storeError("find owner", err)
	}
	if property, err := s.deps.Properties.FindByID(ctx, invoice.PropertyID); err == nil {
		v.PropertyName = property.Name
	} else if !isNotFound(err) {
		return nil, storeError("find property", err)
	}
	return v, nil
}
