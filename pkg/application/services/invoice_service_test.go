package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/domain/repositories"
	"github.com/copropiedad/ledger/pkg/infrastructure/events"
)

func (s *testServices) shareholder(t *testing.T) (entities.OwnerID, entities.PropertyID) {
	t.Helper()
	property := s.createProperty(t, "400.00")
	owner := s.createOwner(t, "ana")
	_, err := s.owners.AssignShare(context.Background(), owner, property, 2, nil)
	require.NoError(t, err)
	return owner, property
}

func TestInvoiceService_CreateDefaults(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)
	owner, property := s.shareholder(t)

	v, err := s.invoices.CreateInvoice(ctx, CreateInvoiceInput{
		OwnerID:    owner,
		PropertyID: property,
		Amount:     entities.MustParseMoney("120.50"),
		Type:       entities.InvoiceManagementExpenses,
	})
	require.NoError(t, err)

	inv := v.Invoice
	assert.Equal(t, "ana Pérez", v.OwnerName)
	assert.Equal(t, "Casa 400.00", v.PropertyName)
	assert.Equal(t, entities.BillingPeriod{Year: 2024, Month: time.July}, inv.Period)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), inv.Date)
	assert.Regexp(t, `^INV-202407-[0-9A-Z]+$`, inv.Number)
	assert.Equal(t, entities.BankPending, inv.BankStatus)
	assert.Equal(t, entities.PaymentPending, inv.PaymentStatus)

	history, err := s.events.ReadEvents(string(inv.ID), 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, events.InvoiceCreatedEvent, history[0].Type())
}

func TestInvoiceService_CreateRejects(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)
	owner, property := s.shareholder(t)
	outsider := s.createOwner(t, "luis")

	valid := CreateInvoiceInput{OwnerID: owner, PropertyID: property, Number: "INV-1", Amount: 1000}
	_, err := s.invoices.CreateInvoice(ctx, valid)
	require.NoError(t, err)

	tests := []struct {
		name   string
		modify func(*CreateInvoiceInput)
		want   error
	}{
		{"owner without shares", func(in *CreateInvoiceInput) { in.OwnerID = outsider }, entities.ErrOwnerNotShareholder},
		{"unknown owner", func(in *CreateInvoiceInput) { in.OwnerID = "nobody" }, entities.ErrOwnerNotFound},
		{"unknown property", func(in *CreateInvoiceInput) { in.PropertyID = "nowhere" }, entities.ErrPropertyNotFound},
		{"zero amount", func(in *CreateInvoiceInput) { in.Amount = 0 }, entities.ErrInvalidInvoice},
		{"bad month", func(in *CreateInvoiceInput) { in.Period = entities.BillingPeriod{Year: 2024, Month: 13} }, entities.ErrInvalidInvoice},
		{"number taken", func(in *CreateInvoiceInput) {}, entities.ErrDuplicateInvoice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.modify(&in)
			_, err := s.invoices.CreateInvoice(ctx, in)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, entities.IsDomainError(err))
		})
	}

	all, err := s.invoices.ListInvoices(ctx, repositories.InvoiceFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestInvoiceService_MarkAndList(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)
	owner, property := s.shareholder(t)

	july, err := s.invoices.CreateInvoice(ctx, CreateInvoiceInput{
		OwnerID: owner, PropertyID: property, Amount: 5000,
		Date: time.Date(2024, 7, 3, 15, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	august, err := s.invoices.CreateInvoice(ctx, CreateInvoiceInput{
		OwnerID: owner, PropertyID: property, Amount: 5000, Type: entities.InvoiceManagementExpenses,
		Date: time.Date(2024, 8, 3, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	sent, paid := entities.BankSent, entities.PaymentPaid
	v, err := s.invoices.MarkInvoice(ctx, july.Invoice.ID, InvoiceStatusChange{Bank: &sent, Payment: &paid})
	require.NoError(t, err)
	assert.Equal(t, entities.BankSent, v.Invoice.BankStatus)
	assert.True(t, v.Invoice.Settled())
	assert.True(t, v.Invoice.UpdatedAt.After(v.Invoice.CreatedAt))

	// same statuses again change nothing
	_, err = s.invoices.MarkInvoice(ctx, july.Invoice.ID, InvoiceStatusChange{Payment: &paid})
	require.NoError(t, err)
	history, err := s.events.ReadEvents(string(july.Invoice.ID), 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, events.InvoiceStatusChangedEvent, history[1].Type())

	_, err = s.invoices.MarkInvoice(ctx, july.Invoice.ID, InvoiceStatusChange{})
	assert.ErrorIs(t, err, entities.ErrInvalidInvoice)
	_, err = s.invoices.MarkInvoice(ctx, "missing", InvoiceStatusChange{Payment: &paid})
	assert.ErrorIs(t, err, entities.ErrInvoiceNotFound)

	all, err := s.invoices.ListInvoices(ctx, repositories.InvoiceFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, august.Invoice.ID, all[0].Invoice.ID)

	unpaid, err := s.invoices.ListInvoices(ctx, repositories.InvoiceFilter{PaymentStatus: ptr(entities.PaymentPending)})
	require.NoError(t, err)
	require.Len(t, unpaid, 1)
	assert.Equal(t, august.Invoice.ID, unpaid[0].Invoice.ID)
}

func TestInvoiceService_OutlivesProperty(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)
	owner, property := s.shareholder(t)

	v, err := s.invoices.CreateInvoice(ctx, CreateInvoiceInput{OwnerID: owner, PropertyID: property, Amount: 100})
	require.NoError(t, err)
	require.NoError(t, s.properties.DeleteProperty(ctx, property))

	got, err := s.invoices.GetInvoice(ctx, v.Invoice.ID)
	require.NoError(t, err)
	assert.Empty(t, got.PropertyName)
	assert.Equal(t, "ana Pérez", got.OwnerName)

	require.NoError(t, s.invoices.DeleteInvoice(ctx, v.Invoice.ID))
	assert.ErrorIs(t, s.invoices.DeleteInvoice(ctx, v.Invoice.ID), entities.ErrInvoiceNotFound)
}

func ptr[T any](v T) *T {
	return &v
}
