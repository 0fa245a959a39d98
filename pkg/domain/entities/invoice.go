package entities

import (
	"fmt"
	"strings"
	"time"
)

// InvoiceID is the opaque identifier of an invoice
type InvoiceID string

// InvoiceType is what the owner is billed for
type InvoiceType int

const (
	InvoiceCommonExpenses InvoiceType = iota
	InvoiceManagementExpenses
)

func (t InvoiceType) String() string {
	switch t {
	case InvoiceCommonExpenses:
		return "common_expenses"
	case InvoiceManagementExpenses:
		return "management_expenses"
	default:
		return "unknown"
	}
}

func (t InvoiceType) Valid() bool {
	return t == InvoiceCommonExpenses || t == InvoiceManagementExpenses
}

// MarshalText implements encoding.TextMarshaler
func (t InvoiceType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: type %d", ErrInvalidInvoice, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *InvoiceType) UnmarshalText(text []byte) error {
	parsed, err := ParseInvoiceType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseInvoiceType accepts "common_expenses" or "management_expenses",
// with "common" and "management" as short forms
func ParseInvoiceType(s string) (InvoiceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "common_expenses", "common":
		return InvoiceCommonExpenses, nil
	case "management_expenses", "management":
		return InvoiceManagementExpenses, nil
	default:
		return InvoiceCommonExpenses, fmt.Errorf("%w: type %q (expected: common_expenses or management_expenses)", ErrInvalidInvoice, s)
	}
}

// BankStatus tracks the direct debit sent to the owner's bank
type BankStatus int

const (
	BankPending BankStatus = iota
	BankSent
	BankReturned
)

func (s BankStatus) String() string {
	switch s {
	case BankPending:
		return "pending"
	case BankSent:
		return "sent"
	case BankReturned:
		return "returned"
	default:
		return "unknown"
	}
}

func (s BankStatus) Valid() bool {
	return s >= BankPending && s <= BankReturned
}

// MarshalText implements encoding.TextMarshaler
func (s BankStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: bank status %d", ErrInvalidInvoice, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *BankStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseBankStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func ParseBankStatus(s string) (BankStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return BankPending, nil
	case "sent":
		return BankSent, nil
	case "returned":
		return BankReturned, nil
	default:
		return BankPending, fmt.Errorf("%w: bank status %q (expected: pending, sent, or returned)", ErrInvalidInvoice, s)
	}
}

// PaymentStatus tracks whether the owner has paid
type PaymentStatus int

const (
	PaymentPending PaymentStatus = iota
	PaymentPaid
	PaymentReturned
)

func (s PaymentStatus) String() string {
	switch s {
	case PaymentPending:
		return "pending"
	case PaymentPaid:
		return "paid"
	case PaymentReturned:
		return "returned"
	default:
		return "unknown"
	}
}

func (s PaymentStatus) Valid() bool {
	return s >= PaymentPending && s <= PaymentReturned
}

// MarshalText implements encoding.TextMarshaler
func (s PaymentStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: payment status %d", ErrInvalidInvoice, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *PaymentStatus) UnmarshalText(text []byte) error {
	parsed, err := ParsePaymentStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return PaymentPending, nil
	case "paid":
		return PaymentPaid, nil
	case "returned":
		return PaymentReturned, nil
	default:
		return PaymentPending, fmt.Errorf("%w: payment status %q (expected: paid, pending, or returned)", ErrInvalidInvoice, s)
	}
}

// BillingPeriod is the calendar month an invoice covers
type BillingPeriod struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func (p BillingPeriod) Validate() error {
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("%w: month %d (expected 1-12)", ErrInvalidInvoice, int(p.Month))
	}
	if p.Year < 1900 || p.Year > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidInvoice, p.Year)
	}
	return nil
}

// String renders the period as YYYY-MM
func (p BillingPeriod) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// ParseBillingPeriod parses YYYY-MM
func ParseBillingPeriod(s string) (BillingPeriod, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return BillingPeriod{}, fmt.Errorf("%w: period %q (expected YYYY-MM)", ErrInvalidInvoice, s)
	}
	return BillingPeriod{Year: t.Year(), Month: t.Month()}, nil
}

// Invoice bills an owner for one property and month
type Invoice struct {
	ID            InvoiceID     `json:"id"`
	Number        string        `json:"invoice_number"`
	OwnerID       OwnerID       `json:"owner_id"`
	PropertyID    PropertyID    `json:"property_id"`
	Date          time.Time     `json:"invoice_date"`
	Period        BillingPeriod `json:"period"`
	Amount        Money         `json:"amount"`
	Type          InvoiceType   `json:"invoice_type"`
	BankStatus    BankStatus    `json:"bank_status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// NewInvoice creates a validated Invoice with both statuses pending
func NewInvoice(id InvoiceID, number string, ownerID OwnerID, propertyID PropertyID, period BillingPeriod, amount Money, invoiceType InvoiceType) (*Invoice, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("invoice id cannot be empty")
	}
	if strings.TrimSpace(number) == "" {
		return nil, fmt.Errorf("%w: invoice number cannot be empty", ErrInvalidInvoice)
	}
	if ownerID == "" || propertyID == "" {
		return nil, fmt.Errorf("%w: owner and property are required", ErrInvalidInvoice)
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount %s must be positive", ErrInvalidInvoice, amount)
	}
	if !invoiceType.Valid() {
		return nil, fmt.Errorf("%w: type %d", ErrInvalidInvoice, int(invoiceType))
	}

	return &Invoice{
		ID:            id,
		Number:        strings.TrimSpace(number),
		OwnerID:       ownerID,
		PropertyID:    propertyID,
		Period:        period,
		Amount:        amount,
		Type:          invoiceType,
		BankStatus:    BankPending,
		PaymentStatus: PaymentPending,
	}, nil
}

// Settled reports whether nothing remains to collect
func (i *Invoice) Settled() bool {
	return i.PaymentStatus == PaymentPaid
}
