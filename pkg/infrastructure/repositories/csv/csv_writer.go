package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/copropiedad/ledger/pkg/domain/entities"
)

// Writer writes ledger records in the layouts Loader reads
type Writer struct {
	w *csv.Writer
}

// NewWriter creates a CSV writer on w
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: csv.NewWriter(w)}
}

// WriteProperties writes a properties file
func (w *Writer) WriteProperties(properties []*entities.Property) error {
	rows := [][]string{PropertyHeader}
	for _, p := range properties {
		rows = append(rows, []string{
			string(p.ID), p.Name, p.Category, p.Address.Street, p.Address.City, p.Address.State,
			p.Address.ZipCode, p.Address.Country, p.TotalPrice.String(), string(p.AgentID),
			p.Commission.Percentage.String(), p.Commission.Status.String(),
			itoa(p.Details.Bedrooms), itoa(p.Details.Bathrooms), itoa(p.Details.SquareFeet),
			p.Details.Description,
		})
	}
	return w.flush("properties", rows)
}

// WriteOwners writes an owners file
func (w *Writer) WriteOwners(owners []*entities.Owner) error {
	rows := [][]string{OwnerHeader}
	for _, o := range owners {
		rows = append(rows, []string{
			string(o.ID), o.FirstName, o.LastNames, o.Email, o.Phone, o.NationalID, o.Address.City,
		})
	}
	return w.flush("owners", rows)
}

// WriteAgents writes an agents file
func (w *Writer) WriteAgents(agents []*entities.Agent) error {
	rows := [][]string{AgentHeader}
	for _, a := range agents {
		rows = append(rows, []string{string(a.ID), a.Name, a.Email, a.Phone, a.License})
	}
	return w.flush("agents", rows)
}

// WriteAssignments writes an assignments file
func (w *Writer) WriteAssignments(assignments []entities.ShareAssignment) error {
	rows := [][]string{AssignmentHeader}
	for _, a := range assignments {
		rows = append(rows, []string{
			string(a.OwnerID), string(a.PropertyID), a.ShareNumber.String(), a.PurchasePrice.String(),
		})
	}
	return w.flush("assignments", rows)
}

// InvoiceHeader is the column layout of an invoices export
var InvoiceHeader = []string{
	"id", "invoice_number", "owner_id", "property_id", "invoice_date", "invoice_year", "invoice_month",
	"amount", "invoice_type", "bank_status", "payment_status", "notes",
}

// WriteInvoices writes an invoices export
func (w *Writer) WriteInvoices(invoices []*entities.Invoice) error {
	rows := [][]string{InvoiceHeader}
	for _, inv := range invoices {
		rows = append(rows, []string{
			string(inv.ID), inv.Number, string(inv.OwnerID), string(inv.PropertyID), inv.Date.Format("2006-01-02"),
			strconv.Itoa(inv.Period.Year), strconv.Itoa(int(inv.Period.Month)), inv.Amount.String(),
			inv.Type.String(), inv.BankStatus.String(), inv.PaymentStatus.String(), inv.Notes,
		})
	}
	return w.flush("invoices", rows)
}

// WriteRows writes arbitrary rows, used for report output
func (w *Writer) WriteRows(rows [][]string) error {
	return w.flush("report", rows)
}

func (w *Writer) flush(kind string, rows [][]string) error {
	if err := w.w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s CSV: %w", kind, err)
	}
	return nil
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
