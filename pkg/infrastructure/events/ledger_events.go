package events

import (
	"github.com/copropiedad/ledger/pkg/domain/entities"
)

const (
	PropertyCreatedEvent = "property.created"
	PropertyUpdatedEvent = "property.updated"
	PropertyDeletedEvent = "property.deleted"

	ShareStatusChangedEvent = "share.status_changed"
	SharePriceChangedEvent  = "share.price_changed"
	SharePricesResetEvent   = "share.prices_reset"

	OwnerAssignedEvent          = "owner.assigned"
	OwnerAssignmentClearedEvent = "owner.assignment_cleared"

	CommissionUpdatedEvent = "commission.updated"

	InvoiceCreatedEvent       = "invoice.created"
	InvoiceStatusChangedEvent = "invoice.status_changed"
	InvoiceDeletedEvent       = "invoice.deleted"
)

// AllEventTypes lists every ledger event type
var AllEventTypes = []string{
	PropertyCreatedEvent,
	PropertyUpdatedEvent,
	PropertyDeletedEvent,
	ShareStatusChangedEvent,
	SharePriceChangedEvent,
	SharePricesResetEvent,
	OwnerAssignedEvent,
	OwnerAssignmentClearedEvent,
	CommissionUpdatedEvent,
	InvoiceCreatedEvent,
	InvoiceStatusChangedEvent,
	InvoiceDeletedEvent,
}

type PropertyCreated struct {
	PropertyID entities.PropertyID `json:"property_id"`
	Name       string              `json:"name"`
	TotalPrice entities.Money      `json:"total_price"`
	Shares     entities.Shares     `json:"shares"`
}

type PropertyUpdated struct {
	PropertyID entities.PropertyID `json:"property_id"`
	Fields     []string            `json:"fields"`
}

type PropertyDeleted struct {
	PropertyID         entities.PropertyID `json:"property_id"`
	RemovedAssignments int                 `json:"removed_assignments"`
}

type ShareStatusChanged struct {
	PropertyID     entities.PropertyID     `json:"property_id"`
	ShareNumber    entities.ShareNumber    `json:"share_number"`
	OldStatus      entities.ShareStatus    `json:"old_status"`
	NewStatus      entities.ShareStatus    `json:"new_status"`
	PropertyStatus entities.PropertyStatus `json:"property_status"`
}

type SharePriceChanged struct {
	PropertyID  entities.PropertyID  `json:"property_id"`
	ShareNumber entities.ShareNumber `json:"share_number"`
	OldPrice    entities.Money       `json:"old_price"`
	NewPrice    entities.Money       `json:"new_price"`
}

type SharePricesReset struct {
	PropertyID entities.PropertyID `json:"property_id"`
	TotalPrice entities.Money      `json:"total_price"`
	OldPrices  []entities.Money    `json:"old_prices"`
	NewPrices  []entities.Money    `json:"new_prices"`
}

type OwnerAssigned struct {
	Assignment entities.ShareAssignment `json:"assignment"`
}

type OwnerAssignmentCleared struct {
	OwnerID entities.OwnerID `json:"owner_id"`
	Removed int              `json:"removed"`
}

type CommissionUpdated struct {
	PropertyID    entities.PropertyID `json:"property_id"`
	OldCommission entities.Commission `json:"old_commission"`
	NewCommission entities.Commission `json:"new_commission"`
}

type InvoiceCreated struct {
	Invoice entities.Invoice `json:"invoice"`
}

type InvoiceStatusChanged struct {
	InvoiceID        entities.InvoiceID     `json:"invoice_id"`
	Number           string                 `json:"invoice_number"`
	OldBankStatus    entities.BankStatus    `json:"old_bank_status"`
	NewBankStatus    entities.BankStatus    `json:"new_bank_status"`
	OldPaymentStatus entities.PaymentStatus `json:"old_payment_status"`
	NewPaymentStatus entities.PaymentStatus `json:"new_payment_status"`
}

type InvoiceDeleted struct {
	InvoiceID entities.InvoiceID `json:"invoice_id"`
	Number    string             `json:"invoice_number"`
}

func NewPropertyCreatedEvent(p *entities.Property) Event {
	return NewEvent(PropertyCreatedEvent, string(p.ID), PropertyCreated{
		PropertyID: p.ID,
		Name:       p.Name,
		TotalPrice: p.TotalPrice,
		Shares:     p.Shares,
	})
}

func NewPropertyUpdatedEvent(id entities.PropertyID, fields []string) Event {
	return NewEvent(PropertyUpdatedEvent, string(id), PropertyUpdated{PropertyID: id, Fields: fields})
}

func NewPropertyDeletedEvent(id entities.PropertyID, removedAssignments int) Event {
	return NewEvent(PropertyDeletedEvent, string(id), PropertyDeleted{
		PropertyID:         id,
		RemovedAssignments: removedAssignments,
	})
}

func NewShareStatusChangedEvent(
	id entities.PropertyID,
	number entities.ShareNumber,
	oldStatus, newStatus entities.ShareStatus,
	propertyStatus entities.PropertyStatus,
) Event {
	return NewEvent(ShareStatusChangedEvent, string(id), ShareStatusChanged{
		PropertyID:     id,
		ShareNumber:    number,
		OldStatus:      oldStatus,
		NewStatus:      newStatus,
		PropertyStatus: propertyStatus,
	})
}

func NewSharePriceChangedEvent(id entities.PropertyID, number entities.ShareNumber, oldPrice, newPrice entities.Money) Event {
	return NewEvent(SharePriceChangedEvent, string(id), SharePriceChanged{
		PropertyID:  id,
		ShareNumber: number,
		OldPrice:    oldPrice,
		NewPrice:    newPrice,
	})
}

func NewSharePricesResetEvent(id entities.PropertyID, total entities.Money, before, after entities.Shares) Event {
	data := SharePricesReset{PropertyID: id, TotalPrice: total}
	for i := range before {
		data.OldPrices = append(data.OldPrices, before[i].Price)
		data.NewPrices = append(data.NewPrices, after[i].Price)
	}
	return NewEvent(SharePricesResetEvent, string(id), data)
}

func NewOwnerAssignedEvent(assignment entities.ShareAssignment) Event {
	return NewEvent(OwnerAssignedEvent, string(assignment.PropertyID), OwnerAssigned{Assignment: assignment})
}

func NewOwnerAssignmentClearedEvent(ownerID entities.OwnerID, removed int) Event {
	return NewEvent(OwnerAssignmentClearedEvent, string(ownerID), OwnerAssignmentCleared{
		OwnerID: ownerID,
		Removed: removed,
	})
}

func NewCommissionUpdatedEvent(id entities.PropertyID, before, after entities.Commission) Event {
	return NewEvent(CommissionUpdatedEvent, string(id), CommissionUpdated{
		PropertyID:    id,
		OldCommission: before,
		NewCommission: after,
	})
}

func NewInvoiceCreatedEvent(invoice entities.Invoice) Event {
	return NewEvent(InvoiceCreatedEvent, string(invoice.ID), InvoiceCreated{Invoice: invoice})
}

// NewInvoiceStatusChangedEvent records the bank and payment status of an
// invoice before and after a change
func NewInvoiceStatusChangedEvent(before, after entities.Invoice) Event {
	return NewEvent(InvoiceStatusChangedEvent, string(after.ID), InvoiceStatusChanged{
		InvoiceID:        after.ID,
		Number:           after.Number,
		OldBankStatus:    before.BankStatus,
		NewBankStatus:    after.BankStatus,
		OldPaymentStatus: before.PaymentStatus,
		NewPaymentStatus: after.PaymentStatus,
	})
}

func NewInvoiceDeletedEvent(invoice entities.Invoice) Event {
	return NewEvent(InvoiceDeletedEvent, string(invoice.ID), InvoiceDeleted{InvoiceID: invoice.ID, Number: invoice.Number})
}
