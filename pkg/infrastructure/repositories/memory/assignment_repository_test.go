package memory

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/domain/services"
)

func TestAssignmentRepository_Assign(t *testing.T) {
	ctx := context.Background()
	repo := NewAssignmentRepository(services.NewShareLedger())

	stored, err := repo.Assign(ctx, entities.ShareAssignment{
		OwnerID: "OWNER_A", PropertyID: "PROP_1", ShareNumber: 2, PurchasePrice: 2500,
	})
	if err != nil {
		t.Fatalf("Failed to assign: %v", err)
	}
	if stored.AssignedAt.IsZero() {
		t.Errorf("Expected assignment timestamp to be set")
	}

	_, err = repo.Assign(ctx, entities.ShareAssignment{OwnerID: "OWNER_B", PropertyID: "PROP_1", ShareNumber: 2})
	if !errors.Is(err, entities.ErrShareAlreadyAssigned) {
		t.Fatalf("Expected ErrShareAlreadyAssigned, got %v", err)
	}

	again, err := repo.Assign(ctx, entities.ShareAssignment{
		OwnerID: "OWNER_A", PropertyID: "PROP_1", ShareNumber: 2, PurchasePrice: 3000,
	})
	if err != nil {
		t.Fatalf("Expected same-owner reassignment to succeed: %v", err)
	}
	if again.PurchasePrice != 3000 {
		t.Errorf("Expected purchase price updated to 3000, got %d", again.PurchasePrice)
	}

	all, _ := repo.FindAll(ctx)
	if len(all) != 1 {
		t.Errorf("Expected a single assignment, got %d", len(all))
	}
}

func TestAssignmentRepository_ClearAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewAssignmentRepository(services.NewShareLedger())

	seed := []entities.ShareAssignment{
		{OwnerID: "OWNER_A", PropertyID: "PROP_1", ShareNumber: 1},
		{OwnerID: "OWNER_A", PropertyID: "PROP_2", ShareNumber: 3},
		{OwnerID: "OWNER_B", PropertyID: "PROP_1", ShareNumber: 2},
	}
	for _, a := range seed {
		if _, err := repo.Assign(ctx, a); err != nil {
			t.Fatalf("Failed to seed %+v: %v", a, err)
		}
	}

	byOwner, _ := repo.FindByOwner(ctx, "OWNER_A")
	if len(byOwner) != 2 {
		t.Errorf("Expected 2 assignments for OWNER_A, got %d", len(byOwner))
	}
	byProperty, _ := repo.FindByProperty(ctx, "PROP_1")
	if len(byProperty) != 2 {
		t.Errorf("Expected 2 assignments on PROP_1, got %d", len(byProperty))
	}

	removed, err := repo.ClearOwner(ctx, "OWNER_A")
	if err != nil {
		t.Fatalf("ClearOwner failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 removed assignments, got %d", removed)
	}

	removed, _ = repo.DeleteByProperty(ctx, "PROP_1")
	if removed != 1 {
		t.Errorf("Expected 1 assignment removed with PROP_1, got %d", removed)
	}
	if all, _ := repo.FindAll(ctx); len(all) != 0 {
		t.Errorf("Expected no assignments left, got %d", len(all))
	}
}

func TestAssignmentRepository_ConcurrentAssignSingleWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewAssignmentRepository(services.NewShareLedger())

	var wins, conflicts atomic.Int32
	var g errgroup.Group
	for i := 0; i < 32; i++ {
		owner := entities.OwnerID(fmt.Sprintf("OWNER_%02d", i))
		g.Go(func() error {
			_, err := repo.Assign(ctx, entities.ShareAssignment{OwnerID: owner, PropertyID: "PROP_RACE", ShareNumber: 4})
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, entities.ErrShareAlreadyAssigned):
				conflicts.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if wins.Load() != 1 {
		t.Errorf("Expected exactly one winner, got %d", wins.Load())
	}
	if conflicts.Load() != 31 {
		t.Errorf("Expected 31 conflicts, got %d", conflicts.Load())
	}
}
