package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/domain/repositories"
)

// InvoiceRepository provides in-memory invoice storage
type InvoiceRepository struct {
	mu       sync.RWMutex
	invoices map[entities.InvoiceID]entities.Invoice
	numbers  map[string]entities.InvoiceID
}

// NewInvoiceRepository creates a new in-memory invoice repository
func NewInvoiceRepository() *InvoiceRepository {
	return &InvoiceRepository{
		invoices: make(map[entities.InvoiceID]entities.Invoice),
		numbers:  make(map[string]entities.InvoiceID),
	}
}

// Verify interface compliance
var _ repositories.InvoiceRepository = (*InvoiceRepository)(nil)

// Save stores a new invoice
func (r *InvoiceRepository) Save(ctx context.Context, invoice *entities.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.invoices[invoice.ID]; exists {
		return fmt.Errorf("duplicate invoice id: %s", invoice.ID)
	}
	if _, taken := r.numbers[invoice.Number]; taken {
		return fmt.Errorf("%w: %s", entities.ErrDuplicateInvoice, invoice.Number)
	}
	r.invoices[invoice.ID] = *invoice
	r.numbers[invoice.Number] = invoice.ID
	return nil
}

// Update replaces an existing invoice
func (r *InvoiceRepository) Update(ctx context.Context, invoice *entities.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.invoices[invoice.ID]
	if !exists {
		return fmt.Errorf("%w: %s", entities.ErrInvoiceNotFound, invoice.ID)
	}
	if owner, taken := r.numbers[invoice.Number]; taken && owner != invoice.ID {
		return fmt.Errorf("%w: %s", entities.ErrDuplicateInvoice, invoice.Number)
	}
	delete(r.numbers, current.Number)
	r.invoices[invoice.ID] = *invoice
	r.numbers[invoice.Number] = invoice.ID
	return nil
}

// FindByID returns an invoice by id
func (r *InvoiceRepository) FindByID(ctx context.Context, id entities.InvoiceID) (*entities.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	invoice, exists := r.invoices[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", entities.ErrInvoiceNotFound, id)
	}
	return &invoice, nil
}

// FindAll returns matching invoices, newest invoice date first
func (r *InvoiceRepository) FindAll(ctx context.Context, filter repositories.InvoiceFilter) ([]*entities.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*entities.Invoice, 0, len(r.invoices))
	for id := range r.invoices {
		invoice := r.invoices[id]
		if filter.Matches(&invoice) {
			result = append(result, &invoice)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].Number < result[j].Number
	})
	return result, nil
}

// Delete removes an invoice
func (r *InvoiceRepository) Delete(ctx context.Context, id entities.InvoiceID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	invoice, exists := r.invoices[id]
	if !exists {
		return fmt.Errorf("%w: %s", entities.ErrInvoiceNotFound, id)
	}
	delete(r.invoices, id)
	delete(r.numbers, invoice.Number)
	return nil
}
