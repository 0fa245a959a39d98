package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/domain/repositories"
)

func newTestInvoice(t *testing.T, id, number string, owner entities.OwnerID, date time.Time) *entities.Invoice {
	t.Helper()
	inv, err := entities.NewInvoice(entities.InvoiceID(id), number, owner, "p1",
		entities.BillingPeriod{Year: date.Year(), Month: date.Month()}, entities.MustParseMoney("85.40"),
		entities.InvoiceCommonExpenses)
	require.NoError(t, err)
	inv.Date = date
	inv.CreatedAt = date
	inv.UpdatedAt = date
	return inv
}

func TestInvoiceRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).Invoices()

	inv := newTestInvoice(t, "i1", "INV-202407-1", "o1", time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC))
	inv.Type = entities.InvoiceManagementExpenses
	inv.BankStatus = entities.BankSent
	inv.Notes = "second reminder"
	require.NoError(t, repo.Save(ctx, inv))

	loaded, err := repo.FindByID(ctx, "i1")
	require.NoError(t, err)
	if diff := cmp.Diff(inv, loaded); diff != "" {
		t.Errorf("invoice mismatch (-want +got):\n%s", diff)
	}

	loaded.PaymentStatus = entities.PaymentReturned
	loaded.UpdatedAt = loaded.UpdatedAt.Add(time.Hour)
	require.NoError(t, repo.Update(ctx, loaded))

	again, err := repo.FindByID(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, entities.PaymentReturned, again.PaymentStatus)
	assert.True(t, loaded.UpdatedAt.Equal(again.UpdatedAt))
}

func TestInvoiceRepository_DuplicateNumber(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).Invoices()
	day := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, newTestInvoice(t, "i1", "INV-1", "o1", day)))
	err := repo.Save(ctx, newTestInvoice(t, "i2", "INV-1", "o2", day))
	assert.ErrorIs(t, err, entities.ErrDuplicateInvoice)

	require.NoError(t, repo.Save(ctx, newTestInvoice(t, "i2", "INV-2", "o2", day)))
	clash := newTestInvoice(t, "i2", "INV-1", "o2", day)
	assert.ErrorIs(t, repo.Update(ctx, clash), entities.ErrDuplicateInvoice)
}

func TestInvoiceRepository_FindAllAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).Invoices()

	for _, inv := range []*entities.Invoice{
		newTestInvoice(t, "i1", "INV-1", "o1", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
		newTestInvoice(t, "i2", "INV-2", "o1", time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)),
		newTestInvoice(t, "i3", "INV-3", "o2", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)),
	} {
		require.NoError(t, repo.Save(ctx, inv))
	}

	all, err := repo.FindAll(ctx, repositories.InvoiceFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []entities.InvoiceID{"i2", "i3", "i1"}, []entities.InvoiceID{all[0].ID, all[1].ID, all[2].ID})

	pending := entities.PaymentPending
	mine, err := repo.FindAll(ctx, repositories.InvoiceFilter{OwnerID: "o1", Year: 2024, Month: 8, PaymentStatus: &pending})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, entities.InvoiceID("i2"), mine[0].ID)

	require.NoError(t, repo.Delete(ctx, "i2"))
	assert.ErrorIs(t, repo.Delete(ctx, "i2"), entities.ErrInvoiceNotFound)
	_, err = repo.FindByID(ctx, "i2")
	assert.ErrorIs(t, err, entities.ErrInvoiceNotFound)
	assert.ErrorIs(t, repo.Update(ctx, newTestInvoice(t, "i9", "INV-9", "o1", time.Now().UTC())), entities.ErrInvoiceNotFound)
}
