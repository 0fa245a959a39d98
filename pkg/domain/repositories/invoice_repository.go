package repositories

import (
	"context"

	"github.com/copropiedad/ledger/pkg/domain/entities"
)

// InvoiceFilter narrows an invoice listing. Zero values match everything.
type InvoiceFilter struct {
	OwnerID       entities.OwnerID
	PropertyID    entities.PropertyID
	Type          *entities.InvoiceType
	BankStatus    *entities.BankStatus
	PaymentStatus *entities.PaymentStatus
	Year          int
	Month         int
}

// Matches reports whether inv passes the filter
func (f InvoiceFilter) Matches(inv *entities.Invoice) bool {
	switch {
	case f.OwnerID != "" && f.OwnerID != inv.OwnerID:
		return false
	case f.PropertyID != "" && f.PropertyID != inv.PropertyID:
		return false
	case f.Type != nil && *f.Type != inv.Type:
		return false
	case f.BankStatus != nil && *f.BankStatus != inv.BankStatus:
		return false
	case f.PaymentStatus != nil && *f.PaymentStatus != inv.PaymentStatus:
		return false
	case f.Year != 0 && f.Year != inv.Period.Year:
		return false
	case f.Month != 0 && f.Month != int(inv.Period.Month):
		return false
	}
	return true
}

// InvoiceRepository stores invoices. Save returns entities.ErrDuplicateInvoice
// when the invoice number is taken. FindAll lists the newest invoice date first.
type InvoiceRepository interface {
	Save(ctx context.Context, invoice *entities.Invoice) error
	Update(ctx context.Context, invoice *entities.Invoice) error
	FindByID(ctx context.Context, id entities.InvoiceID) (*entities.Invoice, error)
	FindAll(ctx context.Context, filter InvoiceFilter) ([]*entities.Invoice, error)
	Delete(ctx context.Context, id entities.InvoiceID) error
}
