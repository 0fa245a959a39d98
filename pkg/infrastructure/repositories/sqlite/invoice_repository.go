package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/domain/repositories"
)

// invoice dates carry no time of day
const dateLayout = "2006-01-02"

// InvoiceRepository stores invoices. Invoices keep plain owner and property
// ids so billing history outlives the records it refers to.
type InvoiceRepository struct {
	store *Store
}

var _ repositories.InvoiceRepository = (*InvoiceRepository)(nil)

const invoiceColumns = `id, invoice_number, owner_id, property_id, invoice_date, invoice_year, invoice_month,
	amount, invoice_type, bank_status, payment_status, notes, created_at, updated_at`

func (r *InvoiceRepository) Save(ctx context.Context, invoice *entities.Invoice) error {
	_, err := r.store.db.ExecContext(ctx, `INSERT INTO invoices (`+invoiceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(invoice.ID), invoice.Number, string(invoice.OwnerID), string(invoice.PropertyID),
		invoice.Date.Format(dateLayout), invoice.Period.Year, int(invoice.Period.Month), int64(invoice.Amount),
		invoice.Type.String(), invoice.BankStatus.String(), invoice.PaymentStatus.String(), invoice.Notes,
		formatTime(invoice.CreatedAt), formatTime(invoice.UpdatedAt))
	if err := uniqueInvoiceError(err, invoice); err != nil {
		return err
	}
	return entities.NewPersistenceError("save invoice", err)
}

func (r *InvoiceRepository) Update(ctx context.Context, invoice *entities.Invoice) error {
	res, err := r.store.db.ExecContext(ctx, `UPDATE invoices SET invoice_number = ?, owner_id = ?, property_id = ?,
		invoice_date = ?, invoice_year = ?, invoice_month = ?, amount = ?, invoice_type = ?, bank_status = ?,
		payment_status = ?, notes = ?, updated_at = ? WHERE id = ?`,
		invoice.Number, string(invoice.OwnerID), string(invoice.PropertyID), invoice.Date.Format(dateLayout),
		invoice.Period.Year, int(invoice.Period.Month), int64(invoice.Amount), invoice.Type.String(),
		invoice.BankStatus.String(), invoice.PaymentStatus.String(), invoice.Notes, formatTime(invoice.UpdatedAt),
		string(invoice.ID))
	if err := uniqueInvoiceError(err, invoice); err != nil {
		return err
	}
	if err != nil {
		return entities.NewPersistenceError("update invoice", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return entities.NewPersistenceError("update invoice", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", entities.ErrInvoiceNotFound, invoice.ID)
	}
	return nil
}

func (r *InvoiceRepository) FindByID(ctx context.Context, id entities.InvoiceID) (*entities.Invoice, error) {
	row := r.store.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, string(id))
	invoice, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entities.ErrInvoiceNotFound, id)
	}
	if err != nil {
		return nil, entities.NewPersistenceError("find invoice", err)
	}
	return invoice, nil
}

// FindAll returns matching invoices, newest invoice date first
func (r *InvoiceRepository) FindAll(ctx context.Context, filter repositories.InvoiceFilter) ([]*entities.Invoice, error) {
	var where []string
	var args []any

	if filter.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, string(filter.OwnerID))
	}
	if filter.PropertyID != "" {
		where = append(where, "property_id = ?")
		args = append(args, string(filter.PropertyID))
	}
	if filter.Type != nil {
		where = append(where, "invoice_type = ?")
		args = append(args, filter.Type.String())
	}
	if filter.BankStatus != nil {
		where = append(where, "bank_status = ?")
		args = append(args, filter.BankStatus.String())
	}
	if filter.PaymentStatus != nil {
		where = append(where, "payment_status = ?")
		args = append(args, filter.PaymentStatus.String())
	}
	if filter.Year != 0 {
		where = append(where, "invoice_year = ?")
		args = append(args, filter.Year)
	}
	if filter.Month != 0 {
		where = append(where, "invoice_month = ?")
		args = append(args, filter.Month)
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY invoice_date DESC, invoice_number ASC"

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, entities.NewPersistenceError("list invoices", err)
	}
	defer rows.Close()

	invoices := []*entities.Invoice{}
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, entities.NewPersistenceError("list invoices", err)
		}
		invoices = append(invoices, invoice)
	}
	return invoices, entities.NewPersistenceError("list invoices", rows.Err())
}

func (r *InvoiceRepository) Delete(ctx context.Context, id entities.InvoiceID) error {
	res, err := r.store.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, string(id))
	if err != nil {
		return entities.NewPersistenceError("delete invoice", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return entities.NewPersistenceError("delete invoice", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", entities.ErrInvoiceNotFound, id)
	}
	return nil
}

func uniqueInvoiceError(err error, invoice *entities.Invoice) error {
	if !isUniqueViolation(err) {
		return nil
	}
	if strings.Contains(err.Error(), "invoice_number") {
		return fmt.Errorf("%w: %s", entities.ErrDuplicateInvoice, invoice.Number)
	}
	return fmt.Errorf("duplicate invoice id: %s", invoice.ID)
}

func scanInvoice(row rowScanner) (*entities.Invoice, error) {
	var inv entities.Invoice
	var (
		id, ownerID, propertyID, date          string
		invoiceType, bankStatus, paymentStatus string
		createdAt, updatedAt                   string
		month                                  int
		amount                                 int64
	)
	err := row.Scan(&id, &inv.Number, &ownerID, &propertyID, &date, &inv.Period.Year, &month,
		&amount, &invoiceType, &bankStatus, &paymentStatus, &inv.Notes, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	inv.ID = entities.InvoiceID(id)
	inv.OwnerID = entities.OwnerID(ownerID)
	inv.PropertyID = entities.PropertyID(propertyID)
	inv.Period.Month = time.Month(month)
	inv.Amount = entities.Money(amount)
	if inv.Date, err = time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid invoice date %q: %w", date, err)
	}
	if inv.Type, err = entities.ParseInvoiceType(invoiceType); err != nil {
		return nil, err
	}
	if inv.BankStatus, err = entities.ParseBankStatus(bankStatus); err != nil {
		return nil, err
	}
	if inv.PaymentStatus, err = entities.ParsePaymentStatus(paymentStatus); err != nil {
		return nil, err
	}
	if inv.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if inv.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &inv, nil
}
